package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSummaryEmptyCatalog(t *testing.T) {
	s := BuildSummary(nil)
	require.False(t, s.HasProducts)
	require.False(t, s.BreakEven)
	require.True(t, s.ROI.IsZero())
}

func TestBuildSummaryTotals(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Create(ctx, inputA())
	require.NoError(t, err)
	_, err = engine.Create(ctx, inputB())
	require.NoError(t, err)

	products, err := repo.FindAll(ctx)
	require.NoError(t, err)

	s := BuildSummary(products)
	require.True(t, s.HasProducts)
	require.True(t, s.FixedCostMonthly.Equal(dec("1000")))
	require.Equal(t, int64(150), s.UnitsTotal)
	require.True(t, s.PurchaseCostTotal.Equal(dec("1250")))

	// Revenue: A 25.71*100 persisted as 2571.43, B 15*50 = 750.
	require.True(t, s.RevenueTotal.Equal(dec("3321.43")), "revenue total = %s", s.RevenueTotal)
	// Contribution: A 5.14*100 + B 4.5*50 = 514 + 225 = 739.
	require.True(t, s.ContributionTotal.Equal(dec("739")), "contribution total = %s", s.ContributionTotal)
	// ROI: 739/1250 = 0.5912 -> 59.12%.
	require.True(t, s.ROI.Equal(dec("59.12")), "roi = %s", s.ROI)
	require.True(t, s.BreakEven)
}

func TestBuildSummaryBelowBreakEven(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	// No projected sales yet, so revenue cannot cover the monthly overhead.
	in := inputA()
	in.EstimatedQuantity = 0
	in.MonthlyFixedCost = dec("100000")
	_, err := engine.Create(ctx, in)
	require.NoError(t, err)

	products, err := repo.FindAll(ctx)
	require.NoError(t, err)

	s := BuildSummary(products)
	require.True(t, s.HasProducts)
	require.False(t, s.BreakEven)
}

func TestBuildSummaryZeroPurchaseTotal(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	in := inputA()
	in.EstimatedQuantity = 0
	_, err := engine.Create(ctx, in)
	require.NoError(t, err)

	products, err := repo.FindAll(ctx)
	require.NoError(t, err)

	s := BuildSummary(products)
	require.True(t, s.HasProducts)
	require.True(t, s.ROI.IsZero())
	require.Equal(t, int64(0), s.UnitsTotal)
}
