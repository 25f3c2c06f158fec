package pricing

import (
	"errors"
	"testing"

	"backend/internal/models"
)

func defaultSettings() models.Settings {
	return models.Settings{
		GSTPercentage:         5,
		ApplyGST:              true,
		DeliveryFixedCharge:   40,
		FreeDeliveryThreshold: 500,
		ApplyToAllOrders:      false,
		MinimumOrderValue:     0,
	}
}

func TestComputeItemWithModifierAtThreshold(t *testing.T) {
	// base 200 + add-on 50, qty 2 => subtotal 500, gst 5% => 25,
	// delivery free at the 500 threshold.
	items := []Item{{
		Name:      "Paneer Wrap",
		BasePrice: 200,
		Quantity:  2,
		Modifiers: []Modifier{{Name: "Extra Cheese", Price: 50}},
	}}

	breakdown, lines, err := Compute(items, defaultSettings(), nil)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if breakdown.Subtotal != 500 {
		t.Fatalf("expected subtotal 500, got %v", breakdown.Subtotal)
	}
	if breakdown.Tax != 25 {
		t.Fatalf("expected tax 25, got %v", breakdown.Tax)
	}
	if breakdown.DeliveryFee != 0 {
		t.Fatalf("expected free delivery at threshold, got fee %v", breakdown.DeliveryFee)
	}
	if breakdown.Total != 525 {
		t.Fatalf("expected total 525, got %v", breakdown.Total)
	}
	if len(lines) != 1 || lines[0].LineTotal != 500 {
		t.Fatalf("expected one line with lineTotal 500, got %+v", lines)
	}
}

func TestComputePercentageDiscountCapped(t *testing.T) {
	// subtotal 600, 10%% => 60, capped at 50.
	items := []Item{{Name: "Family Meal", BasePrice: 600, Quantity: 1}}
	discount := &DiscountInput{Percentage: 10, MaxAmount: 50, Code: "SAVE10"}

	breakdown, _, err := Compute(items, defaultSettings(), discount)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if breakdown.Discount.Amount != 50 {
		t.Fatalf("expected capped discount 50, got %v", breakdown.Discount.Amount)
	}
	want := breakdown.Subtotal + breakdown.Tax + breakdown.DeliveryFee - 50
	if breakdown.Total != want {
		t.Fatalf("expected total %v, got %v", want, breakdown.Total)
	}
	if breakdown.Discount.Percentage == nil || *breakdown.Discount.Percentage != 10 {
		t.Fatalf("expected recorded percentage 10, got %+v", breakdown.Discount.Percentage)
	}
}

func TestComputeReconciliationInvariant(t *testing.T) {
	cases := []struct {
		name     string
		items    []Item
		settings models.Settings
		discount *DiscountInput
	}{
		{"plain", []Item{{Name: "Dosa", BasePrice: 120, Quantity: 3}}, defaultSettings(), nil},
		{"no gst", []Item{{Name: "Juice", BasePrice: 80, Quantity: 1}}, models.Settings{DeliveryFixedCharge: 30, FreeDeliveryThreshold: 200}, nil},
		{"delivery all orders", []Item{{Name: "Thali", BasePrice: 900, Quantity: 1}}, models.Settings{ApplyGST: true, GSTPercentage: 12, DeliveryFixedCharge: 25, ApplyToAllOrders: true}, nil},
		{"flat discount", []Item{{Name: "Pizza", BasePrice: 350, Quantity: 2}}, defaultSettings(), &DiscountInput{Amount: 100, Code: "FLAT100"}},
		{"oversized discount clamps", []Item{{Name: "Tea", BasePrice: 20, Quantity: 1}}, defaultSettings(), &DiscountInput{Amount: 5000, Code: "HUGE"}},
	}

	for _, tc := range cases {
		breakdown, _, err := Compute(tc.items, tc.settings, tc.discount)
		if err != nil {
			t.Fatalf("%s: Compute returned error: %v", tc.name, err)
		}
		sum := breakdown.Subtotal + breakdown.Tax + breakdown.DeliveryFee - breakdown.Discount.Amount
		if sum < 0 {
			sum = 0
		}
		if diff := breakdown.Total - sum; diff > 0.009 || diff < -0.009 {
			t.Fatalf("%s: total %v does not reconcile with components (want %v)", tc.name, breakdown.Total, sum)
		}
		if breakdown.Total < 0 {
			t.Fatalf("%s: total must never be negative, got %v", tc.name, breakdown.Total)
		}
	}
}

func TestComputeEmptyItems(t *testing.T) {
	_, _, err := Compute(nil, defaultSettings(), nil)
	if !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got %v", err)
	}
}

func TestComputeInvalidQuantity(t *testing.T) {
	_, _, err := Compute([]Item{{Name: "Soup", BasePrice: 90, Quantity: 0}}, defaultSettings(), nil)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestComputeBelowMinimumOrderValue(t *testing.T) {
	settings := defaultSettings()
	settings.MinimumOrderValue = 150

	_, _, err := Compute([]Item{{Name: "Samosa", BasePrice: 30, Quantity: 2}}, settings, nil)
	var below BelowMinimumError
	if !errors.As(err, &below) {
		t.Fatalf("expected BelowMinimumError, got %v", err)
	}
	if below.Minimum != 150 {
		t.Fatalf("expected minimum 150 in error, got %v", below.Minimum)
	}
}

func TestComputeDiscountMinOrderValue(t *testing.T) {
	discount := &DiscountInput{Percentage: 20, MinOrderValue: 1000, Code: "BIG20"}
	_, _, err := Compute([]Item{{Name: "Burger", BasePrice: 200, Quantity: 1}}, defaultSettings(), discount)
	var below BelowMinimumError
	if !errors.As(err, &below) {
		t.Fatalf("expected BelowMinimumError for discount minimum, got %v", err)
	}
}

func TestComputeGSTFallback(t *testing.T) {
	settings := defaultSettings()
	settings.GSTPercentage = 0 // missing in stored settings

	breakdown, _, err := Compute([]Item{{Name: "Biryani", BasePrice: 400, Quantity: 1}}, settings, nil)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if breakdown.TaxPercentage != defaultGSTPercentage {
		t.Fatalf("expected fallback gst %v, got %v", defaultGSTPercentage, breakdown.TaxPercentage)
	}
	if breakdown.Tax != 20 {
		t.Fatalf("expected tax 20 at fallback rate, got %v", breakdown.Tax)
	}
}

func TestComputeGSTDisabled(t *testing.T) {
	settings := defaultSettings()
	settings.ApplyGST = false

	breakdown, _, err := Compute([]Item{{Name: "Salad", BasePrice: 250, Quantity: 1}}, settings, nil)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if breakdown.Tax != 0 || breakdown.TaxPercentage != 0 {
		t.Fatalf("expected no tax when gst disabled, got tax=%v pct=%v", breakdown.Tax, breakdown.TaxPercentage)
	}
}

func TestComputeNegativeModifierTreatedAsZero(t *testing.T) {
	items := []Item{{
		Name:      "Bowl",
		BasePrice: 100,
		Quantity:  1,
		Modifiers: []Modifier{{Name: "No Onion", Price: -10}},
	}}
	breakdown, lines, err := Compute(items, defaultSettings(), nil)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if breakdown.Subtotal != 100 {
		t.Fatalf("expected negative modifier ignored, subtotal %v", breakdown.Subtotal)
	}
	if lines[0].Modifiers[0].Price != 0 {
		t.Fatalf("expected stored modifier price 0, got %v", lines[0].Modifiers[0].Price)
	}
}

func TestComputeDeliveryFeeAppliesBelowThreshold(t *testing.T) {
	breakdown, _, err := Compute([]Item{{Name: "Roll", BasePrice: 120, Quantity: 1}}, defaultSettings(), nil)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if breakdown.DeliveryFee != 40 {
		t.Fatalf("expected delivery fee 40 below threshold, got %v", breakdown.DeliveryFee)
	}
}
