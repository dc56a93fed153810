package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/infra/obs"
	"cleanmarket/internal/infra/storage/memory"
)

func TestLoadWorkerFixtures(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "workers.json")
	body := `[
		{"id":"w1","verification":"approved","prices":{"base_rate":300},
		 "availability":[{"day":"Monday","start":"08:00","end":"18:00"},{"day":"sunday","available":false}]},
		{"id":"w2","availability":[{"day":"someday"}]}
	]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	store := memory.NewStore()
	seed := fixtureStore{workers: store.Workers, availability: store.Availability}
	if err := loadWorkerFixtures(context.Background(), path, seed, obs.Discard()); err != nil {
		t.Fatalf("loadWorkerFixtures: %v", err)
	}

	p, err := store.Workers.ByID(context.Background(), "w1")
	if err != nil || !p.Verified() || p.Prices.BaseRate != 300 {
		t.Fatalf("w1 = %+v, %v", p, err)
	}
	weekly, err := store.Availability.WeeklyAvailability(context.Background(), "w1")
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	monday, ok := weekly.ForDay(time.Monday)
	if !ok || !monday.Available || *monday.Start != calendar.TimeOfDay(8*60) {
		t.Fatalf("monday = %+v", monday)
	}
	if sunday, _ := weekly.ForDay(time.Sunday); sunday.Available {
		t.Fatalf("sunday should be off")
	}
	if _, err := store.Workers.ByID(context.Background(), "w2"); err == nil {
		t.Fatalf("invalid fixture should be skipped")
	}
}

func TestLoadWorkerFixtures_MissingFile(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	seed := fixtureStore{workers: store.Workers, availability: store.Availability}
	if err := loadWorkerFixtures(context.Background(), filepath.Join(t.TempDir(), "none.json"), seed, obs.Discard()); err != nil {
		t.Fatalf("missing file should be skipped: %v", err)
	}
}
