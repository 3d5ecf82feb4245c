package pricing

// Compose applies the product line's adjustments to a resolved base price
// and tier discount. The order is fixed:
//
//	unit  = base * (1 - discount) * finish * premium * vibrancy
//	unit *= rush                      (per-unit lines)
//	total = unit * quantity - volume + rush surcharge
//	total *= 1 - wholesale            (approved wholesale accounts)
//
// Surcharge-style rush and the volume discount are both computed on the
// pre-discount subtotal. Invalid requests yield a zero Result.
func Compose(basePrice, discountFraction float64, req Request, line ProductLine) Result {
	if req.Quantity <= 0 || !(req.AreaUnits > 0) {
		return Result{}
	}
	line = line.normalized()

	finish := req.FinishMultiplier
	if !(finish > 0) {
		finish = 1.0
	}
	vibrancy := 1.0
	if req.VibrancyBoost {
		vibrancy = VibrancyMultiplier
	}
	qty := float64(req.Quantity)

	unit := basePrice * (1 - discountFraction)
	unit *= finish
	unit *= line.Premium
	unit *= vibrancy
	if req.RushOrder && line.RushMode == RushPerUnit {
		unit *= line.RushMultiplier
	}

	res := Result{
		BasePrice:        basePrice,
		DiscountFraction: discountFraction,
		UnitPrice:        unit,
	}
	total := unit * qty

	listSubtotal := basePrice * finish * line.Premium * vibrancy * qty
	adjusted := false

	if vol := line.volumeDiscount(req.Quantity); vol > 0 {
		res.VolumeDiscountFraction = vol
		res.VolumeDiscount = listSubtotal * vol
		total -= res.VolumeDiscount
		adjusted = true
	}
	if req.RushOrder && line.RushMode == RushSurcharge {
		res.RushSurcharge = listSubtotal * (line.RushMultiplier - 1)
		total += res.RushSurcharge
		adjusted = true
	}
	if adjusted {
		res.UnitPrice = total / qty
	}

	res.Subtotal = total
	res.TotalPrice = total

	if req.WholesaleApproved {
		res.TotalPrice = total * (1 - WholesaleDiscount)
		res.WholesaleDiscount = total - res.TotalPrice
	}
	return res
}

// Quote resolves and composes a price for one request against the tables.
func (t *Tables) Quote(line ProductLine, req Request) Result {
	if req.Quantity <= 0 || !(req.AreaUnits > 0) {
		return Result{}
	}
	base := GetBasePrice(t.BasePricing, req.AreaUnits)
	discount := GetDiscountFraction(t.QuantityDiscounts, req.Quantity, req.AreaUnits)
	return Compose(base, discount, req, line)
}

// CalculatePrice prices a plain vinyl sticker order.
func CalculatePrice(basePricing []BasePriceRow, quantityDiscounts []QuantityDiscountRow, areaUnits float64, quantity int, rushOrder bool) Result {
	t := Tables{BasePricing: basePricing, QuantityDiscounts: quantityDiscounts}
	return t.Quote(Vinyl, Request{
		AreaUnits: areaUnits,
		Quantity:  quantity,
		RushOrder: rushOrder,
	})
}
