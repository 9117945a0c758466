package domain

// Pricing holds the checkout charges applied on top of the cart subtotal.
// Amounts are in minor currency units.
type Pricing struct {
	FreeShippingThreshold int64
	ShippingFlatRate      int64
	TaxRateBPS            int64 // basis points, 825 = 8.25%
}

// Totals is the money breakdown of an order.
type Totals struct {
	Subtotal     int64
	ShippingCost int64
	Tax          int64
	Total        int64
}

// Compute derives shipping, tax and total from subtotal. Shipping is free
// at or above the threshold; tax is rounded half up to the minor unit.
func (p Pricing) Compute(subtotal int64) Totals {
	shipping := p.ShippingFlatRate
	if subtotal == 0 || (p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold) {
		shipping = 0
	}
	tax := (subtotal*p.TaxRateBPS + 5000) / 10000
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal + shipping + tax,
	}
}
