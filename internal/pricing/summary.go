package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Summary is the consolidated view over the whole catalog. HasProducts
// distinguishes an empty catalog from one whose totals happen to be zero.
type Summary struct {
	HasProducts       bool            `json:"has_products"`
	FixedCostMonthly  decimal.Decimal `json:"fixed_cost_monthly"`
	RevenueTotal      decimal.Decimal `json:"revenue_total"`
	PurchaseCostTotal decimal.Decimal `json:"purchase_cost_total"`
	ContributionTotal decimal.Decimal `json:"contribution_total"`
	UnitsTotal        int64           `json:"units_total"`
	ROI               decimal.Decimal `json:"roi"`
	BreakEven         bool            `json:"break_even"`
}

// BuildSummary projects the catalog into its consolidated totals. The monthly
// fixed cost is taken from the first product since every product carries the
// same catalog-wide value.
func BuildSummary(products []Product) Summary {
	if len(products) == 0 {
		return Summary{}
	}

	s := Summary{
		HasProducts:      true,
		FixedCostMonthly: products[0].MonthlyFixedCost,
	}
	for _, p := range products {
		qty := decimal.NewFromInt(p.EstimatedQuantity)
		s.RevenueTotal = s.RevenueTotal.Add(p.Revenue)
		s.PurchaseCostTotal = s.PurchaseCostTotal.Add(p.CostVolume())
		s.ContributionTotal = s.ContributionTotal.Add(p.GrossProfitPerUnit.Mul(qty))
		s.UnitsTotal += p.EstimatedQuantity
	}
	if s.PurchaseCostTotal.IsPositive() {
		s.ROI = s.ContributionTotal.DivRound(s.PurchaseCostTotal, 4).Mul(hundred)
	}
	s.BreakEven = s.RevenueTotal.GreaterThanOrEqual(s.FixedCostMonthly)
	return s
}
