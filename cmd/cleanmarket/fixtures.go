package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainavailability "cleanmarket/internal/domain/availability"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/workers"
)

type fixtureStore struct {
	workers interface {
		Save(ctx context.Context, profile workers.Profile) error
	}
	availability interface {
		Save(ctx context.Context, weekly domainavailability.Weekly) error
	}
}

type workerFixture struct {
	workers.Profile
	Availability []dayFixture `json:"availability"`
}

type dayFixture struct {
	Day       string              `json:"day"`
	Available *bool               `json:"available"`
	Start     *calendar.TimeOfDay `json:"start"`
	End       *calendar.TimeOfDay `json:"end"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// loadWorkerFixtures seeds worker profiles and weekly schedules for local runs.
func loadWorkerFixtures(ctx context.Context, path string, store fixtureStore, logger *slog.Logger) error {
	if store.workers == nil || store.availability == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("worker fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("worker fixtures file empty", "path", path)
		return nil
	}

	var fixtures []workerFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	for _, fx := range fixtures {
		weekly, err := fx.weekly()
		if err != nil {
			logger.Error("fixture invalid", "worker_id", fx.ID, "error", err)
			continue
		}
		if err := store.workers.Save(ctx, fx.Profile); err != nil {
			logger.Error("cannot store fixture worker", "worker_id", fx.ID, "error", err)
			continue
		}
		if err := store.availability.Save(ctx, weekly); err != nil {
			logger.Error("cannot store fixture availability", "worker_id", fx.ID, "error", err)
			continue
		}
		logger.Info("worker fixture imported", "worker_id", fx.ID)
	}
	return nil
}

func (fx workerFixture) weekly() (domainavailability.Weekly, error) {
	days := make([]domainavailability.DaySchedule, 0, len(fx.Availability))
	for _, d := range fx.Availability {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(d.Day))]
		if !ok {
			return domainavailability.Weekly{}, fmt.Errorf("unknown day %q", d.Day)
		}
		available := true
		if d.Available != nil {
			available = *d.Available
		}
		days = append(days, domainavailability.DaySchedule{Day: day, Available: available, Start: d.Start, End: d.End})
	}
	return domainavailability.NewWeekly(fx.ID, days)
}

func defaultWorkerFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "workers.json"),
		filepath.Join("..", "..", "data", "workers.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
