package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Aggregate sums purchase cost times estimated quantity over the catalog.
// The per-product fixed cost allocation is proportional to each product's
// share of this aggregate.
func Aggregate(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.CostVolume())
	}
	return total
}

// AggregateWith sums the catalog aggregate plus a candidate that has not
// been persisted yet.
func AggregateWith(products []Product, candidate ProductInput) decimal.Decimal {
	return Aggregate(products).Add(candidate.CostVolume())
}

// Derive computes the full chain of pricing figures for one product against
// the catalog aggregate. The chain runs at full precision. Callers round via
// Figures.Rounded before persisting.
func Derive(in ProductInput, aggregate decimal.Decimal) (Figures, error) {
	if aggregate.IsNegative() {
		return Figures{}, fmt.Errorf("%w: negative catalog aggregate %s", ErrArithmeticInconsistency, aggregate)
	}
	denominator := one.Sub(in.DesiredMargin).Sub(in.TaxFraction)
	if !denominator.IsPositive() {
		// Validate catches this on the write path. Hitting it here means a
		// stored product carries inputs that bypassed validation.
		return Figures{}, fmt.Errorf("%w: margin %s plus tax %s consume the whole price", ErrArithmeticInconsistency, in.DesiredMargin, in.TaxFraction)
	}

	fixedPerUnit := decimal.Zero
	if aggregate.IsPositive() {
		fixedPerUnit = in.MonthlyFixedCost.Mul(in.PurchaseCost).Div(aggregate)
	}
	totalBase := in.PurchaseCost.Add(fixedPerUnit)
	idealPrice := totalBase.Div(denominator)
	grossMargin := idealPrice.Sub(in.PurchaseCost)
	qty := decimal.NewFromInt(in.EstimatedQuantity)

	return Figures{
		FixedCostPerUnit:   fixedPerUnit,
		TotalBaseCost:      totalBase,
		IdealPrice:         idealPrice,
		GrossProfitPerUnit: idealPrice.Mul(in.DesiredMargin),
		GrossMargin:        grossMargin,
		MonthlyProfit:      grossMargin.Mul(qty),
		Revenue:            idealPrice.Mul(qty),
	}, nil
}
