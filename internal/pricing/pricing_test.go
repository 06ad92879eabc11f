package pricing

import "testing"

func TestComputeSumsLinesAndDelivery(t *testing.T) {
	totals := Compute([]Line{
		{UnitPriceKobo: 250000, Quantity: 2},
		{UnitPriceKobo: 120000, Quantity: 1},
	}, 180000)

	if totals.SubtotalKobo != 620000 {
		t.Fatalf("subtotal = %d, want 620000", totals.SubtotalKobo)
	}
	if totals.DeliveryKobo != 180000 {
		t.Fatalf("delivery = %d, want 180000", totals.DeliveryKobo)
	}
	if totals.TotalKobo != 800000 {
		t.Fatalf("total = %d, want 800000", totals.TotalKobo)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	totals := Compute(nil, 50000)
	if totals.SubtotalKobo != 0 {
		t.Fatalf("subtotal = %d, want 0", totals.SubtotalKobo)
	}
	if totals.TotalKobo != 50000 {
		t.Fatalf("total = %d, want 50000", totals.TotalKobo)
	}
}

func TestComputeInvariantHolds(t *testing.T) {
	cases := [][]Line{
		{{UnitPriceKobo: 1, Quantity: 1}},
		{{UnitPriceKobo: 99999, Quantity: 7}, {UnitPriceKobo: 0, Quantity: 3}},
		{{UnitPriceKobo: 500, Quantity: 0}},
	}
	for _, lines := range cases {
		totals := Compute(lines, 12345)
		var want int64
		for _, l := range lines {
			want += LineTotal(l)
		}
		if totals.SubtotalKobo != want {
			t.Fatalf("subtotal = %d, want %d", totals.SubtotalKobo, want)
		}
		if totals.TotalKobo != totals.SubtotalKobo+totals.DeliveryKobo {
			t.Fatalf("total %d != subtotal %d + delivery %d", totals.TotalKobo, totals.SubtotalKobo, totals.DeliveryKobo)
		}
	}
}
