package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"backend/internal/models"
)

// Fallback GST percentage used when settings carry no usable value.
const defaultGSTPercentage = 5

// Errors returned by Compute. Callers treat all of them as validation failures.
var (
	ErrEmptyItems        = errors.New("at least one item is required")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrNegativeBasePrice = errors.New("base price must not be negative")
)

// Item is the raw order-item input: a base price, priced modifiers, and a
// quantity. Catalog lookups happen before this point; the engine only does
// arithmetic.
type Item struct {
	Name      string
	BasePrice float64
	Quantity  int
	Modifiers []Modifier
}

// Modifier is a priced customization on an item.
type Modifier struct {
	Name  string
	Price float64
}

// DiscountInput is a discount normalized at the input boundary: either a flat
// amount or a percentage of the subtotal, with an optional cap and minimum
// order value.
type DiscountInput struct {
	Amount        float64
	Percentage    float64
	MaxAmount     float64
	MinOrderValue float64
	Code          string
	Description   string
}

// BelowMinimumError is returned when the order subtotal does not reach a
// required minimum (the store-wide minimum or a discount's own minimum).
type BelowMinimumError struct {
	Subtotal float64
	Minimum  float64
	Reason   string
}

func (e BelowMinimumError) Error() string {
	return fmt.Sprintf("%s: subtotal %.2f is below minimum %.2f", e.Reason, e.Subtotal, e.Minimum)
}

// Compute turns raw item input plus a settings snapshot into the order's
// immutable pricing breakdown and the priced item lines. The result is
// persisted verbatim and never recomputed, so a later settings change cannot
// alter an existing order's numbers.
func Compute(items []Item, settings models.Settings, discount *DiscountInput) (models.Pricing, []models.OrderItem, error) {
	if len(items) == 0 {
		return models.Pricing{}, nil, ErrEmptyItems
	}

	subtotal := decimal.Zero
	lines := make([]models.OrderItem, 0, len(items))

	for _, item := range items {
		if item.Quantity <= 0 {
			return models.Pricing{}, nil, ErrInvalidQuantity
		}
		if item.BasePrice < 0 {
			return models.Pricing{}, nil, ErrNegativeBasePrice
		}

		unitPrice := decimal.NewFromFloat(item.BasePrice)
		modifiers := make([]models.ItemModifier, 0, len(item.Modifiers))
		for _, mod := range item.Modifiers {
			price := mod.Price
			if price < 0 {
				price = 0
			}
			unitPrice = unitPrice.Add(decimal.NewFromFloat(price))
			modifiers = append(modifiers, models.ItemModifier{Name: mod.Name, Price: price})
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		lines = append(lines, models.OrderItem{
			Name:          item.Name,
			Quantity:      item.Quantity,
			UnitBasePrice: item.BasePrice,
			Modifiers:     modifiers,
			LineTotal:     round2(lineTotal),
		})
	}

	minOrder := decimal.NewFromFloat(settings.MinimumOrderValue)
	if settings.MinimumOrderValue > 0 && subtotal.LessThan(minOrder) {
		return models.Pricing{}, nil, BelowMinimumError{
			Subtotal: round2(subtotal),
			Minimum:  settings.MinimumOrderValue,
			Reason:   "minimum order value not met",
		}
	}

	taxPct := settings.GSTPercentage
	if taxPct <= 0 {
		taxPct = defaultGSTPercentage
	}
	tax := decimal.Zero
	appliedPct := 0.0
	if settings.ApplyGST {
		tax = subtotal.Mul(decimal.NewFromFloat(taxPct)).Div(decimal.NewFromInt(100)).Round(2)
		appliedPct = taxPct
	}

	deliveryFee := computeDeliveryFee(subtotal, settings)

	disc, err := computeDiscount(subtotal, discount)
	if err != nil {
		return models.Pricing{}, nil, err
	}
	discAmount := decimal.NewFromFloat(disc.Amount)

	total := subtotal.Add(tax).Add(deliveryFee).Sub(discAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	breakdown := models.Pricing{
		Subtotal:      round2(subtotal),
		Tax:           round2(tax),
		TaxPercentage: appliedPct,
		DeliveryFee:   round2(deliveryFee),
		Discount:      disc,
		Total:         round2(total),
	}
	return breakdown, lines, nil
}

func computeDeliveryFee(subtotal decimal.Decimal, settings models.Settings) decimal.Decimal {
	charge := decimal.NewFromFloat(settings.DeliveryFixedCharge)
	if settings.ApplyToAllOrders {
		return charge
	}
	if subtotal.LessThan(decimal.NewFromFloat(settings.FreeDeliveryThreshold)) {
		return charge
	}
	return decimal.Zero
}

// computeDiscount resolves a normalized discount against the subtotal:
// percentage discounts are computed first, then capped by MaxAmount (if set)
// and by the subtotal itself so the total can never go negative from a
// discount alone.
func computeDiscount(subtotal decimal.Decimal, in *DiscountInput) (models.Discount, error) {
	if in == nil {
		return models.Discount{}, nil
	}

	if in.MinOrderValue > 0 && subtotal.LessThan(decimal.NewFromFloat(in.MinOrderValue)) {
		return models.Discount{}, BelowMinimumError{
			Subtotal: round2(subtotal),
			Minimum:  in.MinOrderValue,
			Reason:   fmt.Sprintf("discount %q minimum order value not met", in.Code),
		}
	}

	value := decimal.NewFromFloat(in.Amount)
	var pct *float64
	if in.Percentage > 0 {
		value = subtotal.Mul(decimal.NewFromFloat(in.Percentage)).Div(decimal.NewFromInt(100))
		p := in.Percentage
		pct = &p
	}
	if in.MaxAmount > 0 {
		value = decimal.Min(value, decimal.NewFromFloat(in.MaxAmount))
	}
	value = decimal.Min(value, subtotal)
	if value.IsNegative() {
		value = decimal.Zero
	}

	return models.Discount{
		Amount:      round2(value),
		Percentage:  pct,
		Code:        in.Code,
		Description: in.Description,
	}, nil
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
