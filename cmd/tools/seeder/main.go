package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/precify-erp/precify/internal/app"
	"github.com/precify-erp/precify/internal/platform/db"
	"github.com/precify-erp/precify/internal/pricing"
)

// Seeds a handful of demo products through the pricing engine so the stored
// figures are derived, not hand-written.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := pricing.NewPostgresRepository(pool)
	engine := pricing.NewEngine(repo, logger, nil)
	service := pricing.NewService(engine, repo, nil, logger)

	seeds := []pricing.ProductInput{
		{
			Name:              "Espresso Blend 1kg",
			Category:          "Coffee",
			PurchaseCost:      decimal.RequireFromString("42.50"),
			EstimatedQuantity: 120,
			DesiredMargin:     decimal.RequireFromString("0.25"),
			TaxFraction:       decimal.RequireFromString("0.12"),
			MonthlyFixedCost:  decimal.RequireFromString("8500"),
		},
		{
			Name:              "Cold Brew Bottle 300ml",
			Category:          "Coffee",
			PurchaseCost:      decimal.RequireFromString("6.80"),
			EstimatedQuantity: 450,
			DesiredMargin:     decimal.RequireFromString("0.35"),
			TaxFraction:       decimal.RequireFromString("0.10"),
			MonthlyFixedCost:  decimal.RequireFromString("8500"),
		},
		{
			Name:              "Ceramic Mug 350ml",
			Category:          "Merchandise",
			PurchaseCost:      decimal.RequireFromString("14.90"),
			EstimatedQuantity: 80,
			DesiredMargin:     decimal.RequireFromString("0.40"),
			TaxFraction:       decimal.RequireFromString("0.08"),
			MonthlyFixedCost:  decimal.RequireFromString("8500"),
		},
	}

	for _, seed := range seeds {
		created, err := service.CreateProduct(ctx, seed)
		if err != nil {
			if errors.Is(err, pricing.ErrAlreadyExists) {
				logger.Info("seed already present", slog.String("name", seed.Name))
				continue
			}
			logger.Error("seed product", slog.String("name", seed.Name), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("seeded product",
			slog.Int64("id", created.ID),
			slog.String("name", created.Name),
			slog.String("ideal_price", created.IdealPrice.String()),
		)
	}
}
