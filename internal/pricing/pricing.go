package pricing

// Line is one (unit price, quantity) pair in minor currency units.
type Line struct {
	UnitPriceKobo int64
	Quantity      int
}

// Totals is the money breakdown shared by quotes, orders and display code.
type Totals struct {
	SubtotalKobo int64
	DeliveryKobo int64
	TotalKobo    int64
}

// LineTotal returns unit price times quantity.
func LineTotal(line Line) int64 {
	return line.UnitPriceKobo * int64(line.Quantity)
}

// Compute is the single source of truth for money arithmetic: subtotal is the
// sum of line totals, total is subtotal plus the delivery fee. Callers
// guarantee non-negative inputs.
func Compute(lines []Line, deliveryFeeKobo int64) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += LineTotal(line)
	}
	return Totals{
		SubtotalKobo: subtotal,
		DeliveryKobo: deliveryFeeKobo,
		TotalKobo:    subtotal + deliveryFeeKobo,
	}
}
