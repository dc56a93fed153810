package escrow

import (
	"fmt"
	"sort"
	"strings"

	"cleanmarket/internal/domain/shared/credits"
	"cleanmarket/internal/domain/shared/faults"
)

// CleaningType selects an hourly surcharge from a worker's price list.
type CleaningType string

const (
	CleaningStandard CleaningType = "standard"
	CleaningDeep     CleaningType = "deep"
	CleaningMoveOut  CleaningType = "move_out"
)

// Bundle grants a discount when every listed add-on is selected.
type Bundle struct {
	Code       string          `json:"code" bson:"code"`
	AddonCodes []string        `json:"addon_codes" bson:"addon_codes"`
	Discount   credits.Credits `json:"discount" bson:"discount"`
}

// PriceList is a worker's prices. Bookings keep a snapshot taken at creation.
type PriceList struct {
	BaseRate          credits.Credits                  `json:"base_rate" bson:"base_rate"`
	CleaningTypeRates map[CleaningType]credits.Credits `json:"cleaning_type_rates,omitempty" bson:"cleaning_type_rates,omitempty"`
	Addons            map[string]credits.Credits       `json:"addons,omitempty" bson:"addons,omitempty"`
	Bundles           []Bundle                         `json:"bundles,omitempty" bson:"bundles,omitempty"`
}

// Clone deep-copies the list so later edits to the live list never leak into a snapshot.
func (p PriceList) Clone() PriceList {
	clone := PriceList{BaseRate: p.BaseRate}
	if p.CleaningTypeRates != nil {
		clone.CleaningTypeRates = make(map[CleaningType]credits.Credits, len(p.CleaningTypeRates))
		for k, v := range p.CleaningTypeRates {
			clone.CleaningTypeRates[k] = v
		}
	}
	if p.Addons != nil {
		clone.Addons = make(map[string]credits.Credits, len(p.Addons))
		for k, v := range p.Addons {
			clone.Addons[k] = v
		}
	}
	for _, b := range p.Bundles {
		clone.Bundles = append(clone.Bundles, Bundle{Code: b.Code, AddonCodes: append([]string(nil), b.AddonCodes...), Discount: b.Discount})
	}
	return clone
}

// HourlyRate is base rate plus the cleaning type surcharge. A cleaning type
// without a declared surcharge costs the base rate.
func (p PriceList) HourlyRate(ct CleaningType) (credits.Credits, error) {
	if p.BaseRate < 0 {
		return 0, faults.Validation("base_rate", "must not be negative")
	}
	surcharge := p.CleaningTypeRates[ct]
	if surcharge < 0 {
		return 0, faults.Validation("cleaning_type", fmt.Sprintf("negative surcharge for %q", ct))
	}
	return p.BaseRate + surcharge, nil
}

// Selection is a client-selected add-on.
type Selection struct {
	Code     string `json:"code" bson:"code"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

// AddonLine is a priced selection.
type AddonLine struct {
	Code      string          `json:"code" bson:"code"`
	Quantity  int             `json:"quantity" bson:"quantity"`
	UnitPrice credits.Credits `json:"unit_price" bson:"unit_price"`
	Total     credits.Credits `json:"total" bson:"total"`
}

// PriceAddons prices selections against the snapshot. A selection without a
// snapshotted price is a validation error, never a free add-on.
func (p PriceList) PriceAddons(selections []Selection) ([]AddonLine, credits.Credits, error) {
	lines := make([]AddonLine, 0, len(selections))
	var total credits.Credits
	for _, sel := range selections {
		code := strings.TrimSpace(sel.Code)
		if code == "" {
			return nil, 0, faults.Validation("addons", "add-on code required")
		}
		if sel.Quantity <= 0 {
			return nil, 0, faults.Validation("addons", fmt.Sprintf("%s: quantity must be positive", code))
		}
		price, ok := p.Addons[code]
		if !ok {
			return nil, 0, faults.Validation("addons", fmt.Sprintf("%s: no price in the worker's price list", code))
		}
		if price < 0 {
			return nil, 0, faults.Validation("addons", fmt.Sprintf("%s: negative price", code))
		}
		line := AddonLine{Code: code, Quantity: sel.Quantity, UnitPrice: price, Total: price.Multiply(int64(sel.Quantity))}
		total += line.Total
		lines = append(lines, line)
	}
	return lines, total, nil
}

// BundleDiscount returns the largest discount among bundles whose add-ons are all selected.
func (p PriceList) BundleDiscount(selections []Selection) (credits.Credits, string) {
	selected := make(map[string]struct{}, len(selections))
	for _, sel := range selections {
		if sel.Quantity > 0 {
			selected[strings.TrimSpace(sel.Code)] = struct{}{}
		}
	}
	bundles := append([]Bundle(nil), p.Bundles...)
	sort.SliceStable(bundles, func(i, j int) bool { return bundles[i].Discount > bundles[j].Discount })
	for _, b := range bundles {
		if len(b.AddonCodes) == 0 || b.Discount <= 0 {
			continue
		}
		matched := true
		for _, code := range b.AddonCodes {
			if _, ok := selected[code]; !ok {
				matched = false
				break
			}
		}
		if matched {
			return b.Discount, b.Code
		}
	}
	return 0, ""
}
