package disputes

import (
	"errors"
	"testing"
	"time"

	"cleanmarket/internal/domain/shared/faults"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		if err != nil || got != c {
			t.Fatalf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	if got, err := ParseCategory(" Damage "); err != nil || got != CategoryDamage {
		t.Fatalf("ParseCategory should normalise case and space, got %q, %v", got, err)
	}
	if _, err := ParseCategory("refund-me"); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	d, err := Open(OpenParams{ID: "d1", BookingID: "b1", WorkerID: "w1", Category: CategoryQuality, Description: "  streaks on windows ", CreatedAt: at})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Status != StatusOpen || d.Description != "streaks on windows" {
		t.Fatalf("unexpected dispute %+v", d)
	}
	if evs := d.PendingEvents(); len(evs) != 1 || evs[0].EventName() != "dispute.filed" {
		t.Fatalf("expected dispute.filed event, got %v", evs)
	}
	if _, err := Open(OpenParams{ID: "d2", BookingID: "b1", Category: CategoryOther, CreatedAt: at}); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("empty description must be rejected, got %v", err)
	}
}
