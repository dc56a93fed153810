package workers

import (
	"errors"
	"strings"
	"testing"

	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/reliability"
	"cleanmarket/internal/domain/shared/faults"
)

func TestProfile_ValidateRate(t *testing.T) {
	t.Parallel()

	p := Profile{ID: "w", Prices: escrow.PriceList{BaseRate: 600}, Reliability: Reliability{Score: 90, Tier: reliability.TierElite}}
	if err := p.ValidateRate(); err != nil {
		t.Fatalf("elite worker within bounds: %v", err)
	}
	p.Reliability = Reliability{Score: 60, Tier: reliability.TierDeveloping}
	err := p.ValidateRate()
	if !errors.Is(err, faults.ErrPolicy) {
		t.Fatalf("expected policy violation, got %v", err)
	}
	if !strings.Contains(err.Error(), "nearest allowed is 350") {
		t.Fatalf("rejection should name the clamped rate: %v", err)
	}
}

func TestClampRate(t *testing.T) {
	t.Parallel()

	if got, clamped := ClampRate(reliability.TierPro, 900); got != 500 || !clamped {
		t.Fatalf("ClampRate high = %d %v", got, clamped)
	}
	if got, clamped := ClampRate(reliability.TierPro, 100); got != 200 || !clamped {
		t.Fatalf("ClampRate low = %d %v", got, clamped)
	}
	if got, clamped := ClampRate(reliability.TierPro, 300); got != 300 || clamped {
		t.Fatalf("ClampRate within = %d %v", got, clamped)
	}
}

func TestProfile_DefaultsAndLocation(t *testing.T) {
	t.Parallel()

	p := Profile{ID: "w"}
	if p.Tier() != reliability.TierPro {
		t.Fatalf("unscored worker should carry the default score tier, got %s", p.Tier())
	}
	if loc, err := p.Location(); err != nil || loc.String() != "UTC" {
		t.Fatalf("Location() = %v, %v", loc, err)
	}
	p.TimeZone = "Mars/Olympus"
	if _, err := p.Location(); !errors.Is(err, ErrUnknownTimeZone) {
		t.Fatalf("expected ErrUnknownTimeZone, got %v", err)
	}
	if p.Verified() {
		t.Fatalf("zero verification must not count as verified")
	}
}
