package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound occurs when an operation targets a missing product.
	ErrNotFound = errors.New("pricing: product not found")
	// ErrInvalidPricingInput occurs when product inputs break the pricing rules.
	ErrInvalidPricingInput = errors.New("pricing: invalid pricing input")
	// ErrAlreadyExists occurs when a product name is already taken.
	ErrAlreadyExists = errors.New("pricing: product already exists")
	// ErrArithmeticInconsistency occurs when stored inputs would force a division
	// the validation rules should have made impossible.
	ErrArithmeticInconsistency = errors.New("pricing: arithmetic inconsistency")
)

var one = decimal.NewFromInt(1)

// ProductInput captures the client-settable fields of a product. The derived
// figures are computed by the engine and never accepted from a client.
type ProductInput struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Category          string          `json:"category" validate:"max=100"`
	PurchaseCost      decimal.Decimal `json:"purchase_cost"`
	EstimatedQuantity int64           `json:"estimated_quantity" validate:"gte=0"`
	DesiredMargin     decimal.Decimal `json:"desired_margin"`
	TaxFraction       decimal.Decimal `json:"tax_fraction"`
	MonthlyFixedCost  decimal.Decimal `json:"monthly_fixed_cost"`
}

// Validate enforces the pricing business rules on the input fields.
func (in ProductInput) Validate() error {
	if !in.PurchaseCost.IsPositive() {
		return fmt.Errorf("%w: purchase cost must be positive", ErrInvalidPricingInput)
	}
	if in.EstimatedQuantity < 0 {
		return fmt.Errorf("%w: estimated quantity must not be negative", ErrInvalidPricingInput)
	}
	if in.DesiredMargin.IsNegative() || in.DesiredMargin.GreaterThanOrEqual(one) {
		return fmt.Errorf("%w: desired margin must be within [0,1)", ErrInvalidPricingInput)
	}
	if in.TaxFraction.IsNegative() || in.TaxFraction.GreaterThanOrEqual(one) {
		return fmt.Errorf("%w: tax fraction must be within [0,1)", ErrInvalidPricingInput)
	}
	if in.MonthlyFixedCost.IsNegative() {
		return fmt.Errorf("%w: monthly fixed cost must not be negative", ErrInvalidPricingInput)
	}
	if in.DesiredMargin.Add(in.TaxFraction).GreaterThanOrEqual(one) {
		return fmt.Errorf("%w: margin plus tax must stay below 100%%", ErrInvalidPricingInput)
	}
	return nil
}

// CostVolume returns purchase cost times estimated quantity, the product's
// contribution to the catalog allocation aggregate.
func (in ProductInput) CostVolume() decimal.Decimal {
	return in.PurchaseCost.Mul(decimal.NewFromInt(in.EstimatedQuantity))
}

// Figures holds the derived pricing outputs of a product.
type Figures struct {
	FixedCostPerUnit   decimal.Decimal `json:"fixed_cost_per_unit" db:"fixed_cost_per_unit"`
	TotalBaseCost      decimal.Decimal `json:"total_base_cost" db:"total_base_cost"`
	IdealPrice         decimal.Decimal `json:"ideal_price" db:"ideal_price"`
	GrossProfitPerUnit decimal.Decimal `json:"gross_profit_per_unit" db:"gross_profit_per_unit"`
	GrossMargin        decimal.Decimal `json:"gross_margin" db:"gross_margin"`
	MonthlyProfit      decimal.Decimal `json:"monthly_profit" db:"monthly_profit"`
	Revenue            decimal.Decimal `json:"revenue" db:"revenue"`
}

// Rounded finalises each figure for persistence with half-up rounding at
// two fractional places. Intermediate computation keeps full precision.
func (f Figures) Rounded() Figures {
	return Figures{
		FixedCostPerUnit:   f.FixedCostPerUnit.Round(2),
		TotalBaseCost:      f.TotalBaseCost.Round(2),
		IdealPrice:         f.IdealPrice.Round(2),
		GrossProfitPerUnit: f.GrossProfitPerUnit.Round(2),
		GrossMargin:        f.GrossMargin.Round(2),
		MonthlyProfit:      f.MonthlyProfit.Round(2),
		Revenue:            f.Revenue.Round(2),
	}
}

// Product is the central catalog entity.
type Product struct {
	ID                int64           `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Category          string          `json:"category" db:"category"`
	PurchaseCost      decimal.Decimal `json:"purchase_cost" db:"purchase_cost"`
	EstimatedQuantity int64           `json:"estimated_quantity" db:"estimated_quantity"`
	DesiredMargin     decimal.Decimal `json:"desired_margin" db:"desired_margin"`
	TaxFraction       decimal.Decimal `json:"tax_fraction" db:"tax_fraction"`
	MonthlyFixedCost  decimal.Decimal `json:"monthly_fixed_cost" db:"monthly_fixed_cost"`

	Figures

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ApplyInput overwrites the product's input fields, leaving derived figures
// untouched until the next recompute pass.
func (p *Product) ApplyInput(in ProductInput) {
	p.Name = in.Name
	p.Category = in.Category
	p.PurchaseCost = in.PurchaseCost
	p.EstimatedQuantity = in.EstimatedQuantity
	p.DesiredMargin = in.DesiredMargin
	p.TaxFraction = in.TaxFraction
	p.MonthlyFixedCost = in.MonthlyFixedCost
}

// Input returns the client-settable fields of the product.
func (p Product) Input() ProductInput {
	return ProductInput{
		Name:              p.Name,
		Category:          p.Category,
		PurchaseCost:      p.PurchaseCost,
		EstimatedQuantity: p.EstimatedQuantity,
		DesiredMargin:     p.DesiredMargin,
		TaxFraction:       p.TaxFraction,
		MonthlyFixedCost:  p.MonthlyFixedCost,
	}
}

// CostVolume returns purchase cost times estimated quantity.
func (p Product) CostVolume() decimal.Decimal {
	return p.Input().CostVolume()
}
