package pricing

import (
	"encoding/json"
	"sort"
	"strconv"
)

// BasePriceRow is one supported product area and its list price per unit.
type BasePriceRow struct {
	AreaUnits float64 `json:"area_units"`
	BasePrice float64 `json:"base_price"`
}

// QuantityDiscountRow is one order-quantity tier. DiscountsByArea maps an
// area tier to the fraction subtracted from the base price at that tier.
// AreaTiers is the sheet header's tier set, shared by every row; a tier with
// no DiscountsByArea entry is a blank cell.
type QuantityDiscountRow struct {
	Quantity        int                 `json:"quantity"`
	DiscountsByArea map[float64]float64 `json:"discounts_by_area"`
	AreaTiers       []float64           `json:"-"`
}

// MarshalJSON writes area tiers as decimal string keys.
func (r QuantityDiscountRow) MarshalJSON() ([]byte, error) {
	discounts := make(map[string]float64, len(r.DiscountsByArea))
	for area, d := range r.DiscountsByArea {
		discounts[strconv.FormatFloat(area, 'f', -1, 64)] = d
	}
	return json.Marshal(struct {
		Quantity        int                `json:"quantity"`
		DiscountsByArea map[string]float64 `json:"discounts_by_area"`
	}{r.Quantity, discounts})
}

// Tables holds both parsed sheets. A Tables value is never mutated after
// Load returns it, so it can be shared between goroutines.
type Tables struct {
	BasePricing       []BasePriceRow        `json:"base_pricing"`
	QuantityDiscounts []QuantityDiscountRow `json:"quantity_discounts"`
}

// Request carries the per-calculation inputs coming from a calculator form.
// Zero values mean "not selected": FinishMultiplier 0 is treated as 1.0.
type Request struct {
	AreaUnits         float64 `json:"area_units"`
	Quantity          int     `json:"quantity"`
	RushOrder         bool    `json:"rush_order"`
	FinishMultiplier  float64 `json:"finish_multiplier,omitempty"`
	VibrancyBoost     bool    `json:"vibrancy_boost,omitempty"`
	WholesaleApproved bool    `json:"wholesale_approved,omitempty"`
}

// Result is the output of a price calculation. No rounding is applied.
type Result struct {
	BasePrice        float64 `json:"base_price"`
	DiscountFraction float64 `json:"discount_fraction"`
	UnitPrice        float64 `json:"unit_price"`
	TotalPrice       float64 `json:"total_price"`

	// Breakdown
	VolumeDiscountFraction float64 `json:"volume_discount_fraction,omitempty"`
	VolumeDiscount         float64 `json:"volume_discount,omitempty"`
	RushSurcharge          float64 `json:"rush_surcharge,omitempty"`
	Subtotal               float64 `json:"subtotal"`
	WholesaleDiscount      float64 `json:"wholesale_discount,omitempty"`
}

// AreaFromDimensions returns the area of a width x height sticker in the
// same square unit the tables are keyed by.
func AreaFromDimensions(width, height float64) float64 {
	if !(width > 0) || !(height > 0) {
		return 0
	}
	return width * height
}

// AreaTiers returns the sorted set of area tiers declared by the base table.
func (t *Tables) AreaTiers() []float64 {
	tiers := make([]float64, 0, len(t.BasePricing))
	for _, row := range t.BasePricing {
		tiers = append(tiers, row.AreaUnits)
	}
	return tiers
}

// QuantityTiers returns the sorted quantity tiers of the discount table.
func (t *Tables) QuantityTiers() []int {
	tiers := make([]int, 0, len(t.QuantityDiscounts))
	for _, row := range t.QuantityDiscounts {
		tiers = append(tiers, row.Quantity)
	}
	return tiers
}

// discountAreaTiers returns the declared area tiers of the discount table in
// ascending order: every row's header tiers plus any keyed entry.
func discountAreaTiers(rows []QuantityDiscountRow) []float64 {
	seen := make(map[float64]struct{})
	var keys []float64
	add := func(k float64) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, r := range rows {
		for _, k := range r.AreaTiers {
			add(k)
		}
		for k := range r.DiscountsByArea {
			add(k)
		}
	}
	sort.Float64s(keys)
	return keys
}
