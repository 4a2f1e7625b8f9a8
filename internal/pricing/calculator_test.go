package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func inputA() ProductInput {
	return ProductInput{
		Name:              "Product A",
		PurchaseCost:      dec("10"),
		EstimatedQuantity: 100,
		DesiredMargin:     dec("0.2"),
		TaxFraction:       dec("0.1"),
		MonthlyFixedCost:  dec("1000"),
	}
}

func inputB() ProductInput {
	return ProductInput{
		Name:              "Product B",
		PurchaseCost:      dec("5"),
		EstimatedQuantity: 50,
		DesiredMargin:     dec("0.3"),
		TaxFraction:       dec("0.1"),
		MonthlyFixedCost:  dec("1000"),
	}
}

func TestAggregateIncludesCandidate(t *testing.T) {
	products := []Product{}
	agg := AggregateWith(products, inputA())
	if !agg.Equal(dec("1000")) {
		t.Fatalf("expected aggregate 1000, got %s", agg)
	}

	var a Product
	a.ApplyInput(inputA())
	agg = AggregateWith([]Product{a}, inputB())
	if !agg.Equal(dec("1250")) {
		t.Fatalf("expected aggregate 1250, got %s", agg)
	}
}

func TestDeriveAllocatesFixedCostProportionally(t *testing.T) {
	figures, err := Derive(inputA(), dec("1250"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !figures.FixedCostPerUnit.Equal(dec("8")) {
		t.Fatalf("expected fixed cost per unit 8, got %s", figures.FixedCostPerUnit)
	}
	if !figures.TotalBaseCost.Equal(dec("18")) {
		t.Fatalf("expected total base cost 18, got %s", figures.TotalBaseCost)
	}

	rounded := figures.Rounded()
	if !rounded.IdealPrice.Equal(dec("25.71")) {
		t.Fatalf("expected ideal price 25.71, got %s", rounded.IdealPrice)
	}
}

func TestDeriveFigureChain(t *testing.T) {
	figures, err := Derive(inputB(), dec("1250"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	// fixed = 1000*5/1250 = 4, base = 9, price = 9/0.6 = 15
	if !figures.IdealPrice.Equal(dec("15")) {
		t.Fatalf("expected ideal price 15, got %s", figures.IdealPrice)
	}
	if !figures.GrossProfitPerUnit.Equal(dec("4.5")) {
		t.Fatalf("expected gross profit per unit 4.5, got %s", figures.GrossProfitPerUnit)
	}
	if !figures.GrossMargin.Equal(dec("10")) {
		t.Fatalf("expected gross margin 10, got %s", figures.GrossMargin)
	}
	if !figures.MonthlyProfit.Equal(dec("500")) {
		t.Fatalf("expected monthly profit 500, got %s", figures.MonthlyProfit)
	}
	if !figures.Revenue.Equal(dec("750")) {
		t.Fatalf("expected revenue 750, got %s", figures.Revenue)
	}
}

func TestDeriveZeroAggregateSkipsAllocation(t *testing.T) {
	in := inputA()
	in.EstimatedQuantity = 0
	figures, err := Derive(in, decimal.Zero)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !figures.FixedCostPerUnit.IsZero() {
		t.Fatalf("expected zero fixed cost per unit, got %s", figures.FixedCostPerUnit)
	}
	if !figures.TotalBaseCost.Equal(in.PurchaseCost) {
		t.Fatalf("expected total base cost %s, got %s", in.PurchaseCost, figures.TotalBaseCost)
	}
}

func TestDeriveGuardsNonPositiveDenominator(t *testing.T) {
	in := inputA()
	in.DesiredMargin = dec("0.6")
	in.TaxFraction = dec("0.4")
	_, err := Derive(in, dec("1000"))
	if !errors.Is(err, ErrArithmeticInconsistency) {
		t.Fatalf("expected arithmetic inconsistency, got %v", err)
	}
}

func TestDeriveRejectsNegativeAggregate(t *testing.T) {
	_, err := Derive(inputA(), dec("-1"))
	if !errors.Is(err, ErrArithmeticInconsistency) {
		t.Fatalf("expected arithmetic inconsistency, got %v", err)
	}
}

func TestValidateMarginTaxBound(t *testing.T) {
	in := inputA()
	in.DesiredMargin = dec("0.7")
	in.TaxFraction = dec("0.3")
	if err := in.Validate(); !errors.Is(err, ErrInvalidPricingInput) {
		t.Fatalf("expected invalid pricing input, got %v", err)
	}

	in = inputA()
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	in = inputA()
	in.PurchaseCost = decimal.Zero
	if err := in.Validate(); !errors.Is(err, ErrInvalidPricingInput) {
		t.Fatalf("expected invalid pricing input for zero cost, got %v", err)
	}

	in = inputA()
	in.EstimatedQuantity = -1
	if err := in.Validate(); !errors.Is(err, ErrInvalidPricingInput) {
		t.Fatalf("expected invalid pricing input for negative quantity, got %v", err)
	}
}
