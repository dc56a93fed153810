package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/reliability"
	"cleanmarket/internal/domain/shared/credits"
	"cleanmarket/internal/domain/shared/faults"
)

var ErrUnknownTimeZone = errors.New("workers: unknown time zone")

// VerificationStatus is the outcome reported by the identity/background check provider.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Reliability is the last score written by the scorer. It is replaced, never incremented.
type Reliability struct {
	Score      int              `json:"score" bson:"score"`
	Tier       reliability.Tier `json:"tier" bson:"tier"`
	ComputedAt time.Time        `json:"computed_at" bson:"computed_at"`
}

// Profile is the worker data the core reads.
type Profile struct {
	ID           string             `json:"id" bson:"_id"`
	DisplayName  string             `json:"display_name" bson:"display_name"`
	Verification VerificationStatus `json:"verification" bson:"verification"`
	TimeZone     string             `json:"time_zone" bson:"time_zone"`
	Prices       escrow.PriceList   `json:"prices" bson:"prices"`
	Reliability  Reliability        `json:"reliability" bson:"reliability"`
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Profile, error)
	ListIDs(ctx context.Context) ([]string, error)
	SaveReliability(ctx context.Context, id string, r Reliability) error
}

func (p Profile) Verified() bool {
	return p.Verification == VerificationApproved
}

// Location resolves the worker's local time zone. Empty means UTC.
func (p Profile) Location() (*time.Location, error) {
	if p.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeZone, p.TimeZone)
	}
	return loc, nil
}

// Tier returns the stored tier, falling back to the default score's tier.
func (p Profile) Tier() reliability.Tier {
	if p.Reliability.Tier == "" {
		return reliability.TierFor(reliability.DefaultScore)
	}
	return p.Reliability.Tier
}

// Bounds is the allowed hourly base rate for a tier.
type Bounds struct {
	Min credits.Credits `json:"min"`
	Max credits.Credits `json:"max"`
}

var tierBounds = map[reliability.Tier]Bounds{
	reliability.TierDeveloping: {Min: 150, Max: 350},
	reliability.TierPro:        {Min: 200, Max: 500},
	reliability.TierElite:      {Min: 250, Max: 800},
}

// RateBounds returns the hourly base rate range a tier may charge.
func RateBounds(tier reliability.Tier) Bounds {
	if b, ok := tierBounds[tier]; ok {
		return b
	}
	return tierBounds[reliability.TierDeveloping]
}

// ValidateRate checks the base rate against the worker's tier bounds.
func (p Profile) ValidateRate() error {
	nearest, clamped := ClampRate(p.Tier(), p.Prices.BaseRate)
	if !clamped {
		return nil
	}
	b := RateBounds(p.Tier())
	return faults.Policy("rate_bounds", fmt.Sprintf("base rate %d credits is outside the %s tier range %d-%d, nearest allowed is %d", p.Prices.BaseRate, p.Tier(), b.Min, b.Max, nearest))
}

// ClampRate fits a proposed base rate into the tier bounds.
func ClampRate(tier reliability.Tier, rate credits.Credits) (credits.Credits, bool) {
	b := RateBounds(tier)
	switch {
	case rate < b.Min:
		return b.Min, true
	case rate > b.Max:
		return b.Max, true
	default:
		return rate, false
	}
}
