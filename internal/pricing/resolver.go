package pricing

import (
	"math"
	"sort"
)

// GetBasePrice resolves the per-unit base price for an area. An exact tier
// match wins; between tiers the price is linearly interpolated; outside the
// table it is clamped to the nearest tier. rows must be sorted by area, as
// returned by ParseBasePricing.
func GetBasePrice(rows []BasePriceRow, areaUnits float64) float64 {
	n := len(rows)
	if n == 0 || math.IsNaN(areaUnits) {
		return 0
	}

	if areaUnits <= rows[0].AreaUnits {
		return rows[0].BasePrice
	}
	if areaUnits >= rows[n-1].AreaUnits {
		return rows[n-1].BasePrice
	}

	// First row with AreaUnits >= areaUnits; 0 < i < n here.
	i := sort.Search(n, func(i int) bool { return rows[i].AreaUnits >= areaUnits })
	upper := rows[i]
	if upper.AreaUnits == areaUnits {
		return upper.BasePrice
	}

	lower := rows[i-1]
	ratio := (areaUnits - lower.AreaUnits) / (upper.AreaUnits - lower.AreaUnits)
	return lower.BasePrice + ratio*(upper.BasePrice-lower.BasePrice)
}

// GetDiscountFraction resolves the tier discount for a quantity and area.
// Both lookups are floor operations: the highest listed quantity tier not
// above quantity, then the highest declared area tier not above areaUnits.
// Quantities below the lowest tier earn no discount; areas below the
// smallest tier use the smallest tier. A blank cell at the resolved pair
// means 0; the floor never skips it for a lower tier.
func GetDiscountFraction(rows []QuantityDiscountRow, quantity int, areaUnits float64) float64 {
	row, ok := quantityTier(rows, quantity)
	if !ok || math.IsNaN(areaUnits) {
		return 0
	}

	keys := discountAreaTiers(rows)
	if len(keys) == 0 {
		return 0
	}

	// Number of keys <= areaUnits.
	j := sort.Search(len(keys), func(j int) bool { return keys[j] > areaUnits })
	if j == 0 {
		j = 1
	}
	return row.DiscountsByArea[keys[j-1]]
}

func quantityTier(rows []QuantityDiscountRow, quantity int) (QuantityDiscountRow, bool) {
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Quantity > quantity })
	if i == 0 {
		return QuantityDiscountRow{}, false
	}
	return rows[i-1], true
}
