// Package escrow computes the credits held when a booking is made and the
// settlement once the job is checked out.
package escrow

import (
	"time"

	"cleanmarket/internal/domain/shared/credits"
	"cleanmarket/internal/domain/shared/faults"
)

// QuarterHour is the billing granularity for actual hours.
const QuarterHour = 15 * time.Minute

// HoldInput describes a booking request to price.
type HoldInput struct {
	Prices           PriceList
	CleaningType     CleaningType
	EstimatedMinutes int
	Addons           []Selection
}

// Hold is the escrow reservation computed at booking time.
type Hold struct {
	CleaningType   CleaningType    `json:"cleaning_type" bson:"cleaning_type"`
	HourlyRate     credits.Credits `json:"hourly_rate" bson:"hourly_rate"`
	HourlyCredits  credits.Credits `json:"hourly_credits" bson:"hourly_credits"`
	AddonLines     []AddonLine     `json:"addon_lines,omitempty" bson:"addon_lines,omitempty"`
	AddonCredits   credits.Credits `json:"addon_credits" bson:"addon_credits"`
	Subtotal       credits.Credits `json:"subtotal" bson:"subtotal"`
	BundleCode     string          `json:"bundle_code,omitempty" bson:"bundle_code,omitempty"`
	BundleDiscount credits.Credits `json:"bundle_discount" bson:"bundle_discount"`
	Total          credits.Credits `json:"total" bson:"total"`
}

// ComputeHold prices hours and add-ons from the snapshot:
// total = max(0, rate*hours + Σ addons − bundle discount).
func ComputeHold(in HoldInput) (Hold, error) {
	if in.EstimatedMinutes <= 0 {
		return Hold{}, faults.Validation("estimated_hours", "must be positive")
	}
	rate, err := in.Prices.HourlyRate(in.CleaningType)
	if err != nil {
		return Hold{}, err
	}
	lines, addonTotal, err := in.Prices.PriceAddons(in.Addons)
	if err != nil {
		return Hold{}, err
	}
	discount, bundle := in.Prices.BundleDiscount(in.Addons)
	hourly := credits.ForMinutes(rate, in.EstimatedMinutes)
	subtotal := hourly + addonTotal
	return Hold{
		CleaningType:   in.CleaningType,
		HourlyRate:     rate,
		HourlyCredits:  hourly,
		AddonLines:     lines,
		AddonCredits:   addonTotal,
		Subtotal:       subtotal,
		BundleCode:     bundle,
		BundleDiscount: discount,
		Total:          (subtotal - discount).NonNegative(),
	}, nil
}

// Settlement is the outcome of charging actual hours against the hold.
// At most one of Refund and Shortfall is non-zero.
type Settlement struct {
	ActualQuarterHours int             `json:"actual_quarter_hours" bson:"actual_quarter_hours"`
	ActualHours        float64         `json:"actual_hours" bson:"actual_hours"`
	HourlyCharge       credits.Credits `json:"hourly_charge" bson:"hourly_charge"`
	AddonCredits       credits.Credits `json:"addon_credits" bson:"addon_credits"`
	BundleDiscount     credits.Credits `json:"bundle_discount" bson:"bundle_discount"`
	ActualCharge       credits.Credits `json:"actual_charge" bson:"actual_charge"`
	Held               credits.Credits `json:"held" bson:"held"`
	Captured           credits.Credits `json:"captured" bson:"captured"`
	Refund             credits.Credits `json:"refund" bson:"refund"`
	Shortfall          credits.Credits `json:"shortfall" bson:"shortfall"`
}

// RequiresTopUp reports whether the job ran past the held amount. The excess
// is never captured without a separate authorization.
func (s Settlement) RequiresTopUp() bool {
	return s.Shortfall > 0
}

// ActualQuarterHours rounds elapsed time up to the next quarter hour.
func ActualQuarterHours(checkIn, checkOut time.Time) (int, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0, faults.Validation("check_out_at", "check-in and check-out times are required")
	}
	elapsed := checkOut.Sub(checkIn)
	if elapsed < 0 {
		return 0, faults.Validation("check_out_at", "check-out precedes check-in")
	}
	quarters := elapsed / QuarterHour
	if elapsed%QuarterHour != 0 {
		quarters++
	}
	return int(quarters), nil
}

// Settle charges rate × actual hours plus the unchanged add-on credits against the hold.
// The bundle discount earned at booking stays applied, so a job that runs to its
// estimate settles at exactly the held amount.
func Settle(hold Hold, checkIn, checkOut time.Time) (Settlement, error) {
	quarters, err := ActualQuarterHours(checkIn, checkOut)
	if err != nil {
		return Settlement{}, err
	}
	hourly := credits.ForMinutes(hold.HourlyRate, quarters*15)
	charge := (hourly + hold.AddonCredits - hold.BundleDiscount).NonNegative()
	s := Settlement{
		ActualQuarterHours: quarters,
		ActualHours:        float64(quarters) / 4,
		HourlyCharge:       hourly,
		AddonCredits:       hold.AddonCredits,
		BundleDiscount:     hold.BundleDiscount,
		ActualCharge:       charge,
		Held:               hold.Total,
	}
	if charge <= hold.Total {
		s.Captured = charge
		s.Refund = hold.Total - charge
		return s, nil
	}
	s.Captured = hold.Total
	s.Shortfall = charge - hold.Total
	return s, nil
}
