package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/precify-erp/precify/internal/observability"
)

// ============================================================
// STORAGE CONTRACTS
// ============================================================

// Store is the persistence surface the engine works against, either a bare
// connection or a transaction.
type Store interface {
	FindAll(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Save(ctx context.Context, p Product) (Product, error)
	DeleteByID(ctx context.Context, id int64) error
}

// Repository extends Store with transaction scoping. WithTx runs fn against a
// transactional Store and commits only when fn returns nil.
type Repository interface {
	Store
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ============================================================
// RECALCULATION ENGINE
// ============================================================

// Engine owns every catalog mutation. Each mutation recomputes the derived
// figures of the whole catalog against the post-mutation aggregate, inside a
// single transaction, so readers never observe a half-recomputed catalog.
// The mutex serialises mutations within the process.
type Engine struct {
	repo    Repository
	logger  *slog.Logger
	metrics *observability.Metrics

	mu  sync.Mutex
	now func() time.Time
}

func NewEngine(repo Repository, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Create validates the input, derives figures against the aggregate of the
// catalog as it will exist after the insert, persists the new product and
// recomputes every other product's share.
func (e *Engine) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	start := e.now()

	var created Product
	var count int
	err := e.repo.WithTx(ctx, func(ctx context.Context, tx Store) error {
		existing, err := tx.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		figures, err := Derive(in, AggregateWith(existing, in))
		if err != nil {
			return err
		}

		var product Product
		product.ApplyInput(in)
		product.Figures = figures.Rounded()
		created, err = tx.Save(ctx, product)
		if err != nil {
			return err
		}

		count, err = e.recomputeAll(ctx, tx)
		return err
	})
	if err != nil {
		return Product{}, err
	}

	e.observe("create", count, e.now().Sub(start))
	return created, nil
}

// Update overwrites the product's input fields and recomputes the catalog.
// Existence is checked before input validation.
func (e *Engine) Update(ctx context.Context, id int64, in ProductInput) (Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := e.now()

	var updated Product
	var count int
	err := e.repo.WithTx(ctx, func(ctx context.Context, tx Store) error {
		existing, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := in.Validate(); err != nil {
			return err
		}

		existing.ApplyInput(in)
		if _, err := tx.Save(ctx, existing); err != nil {
			return err
		}
		if count, err = e.recomputeAll(ctx, tx); err != nil {
			return err
		}

		updated, err = tx.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return Product{}, err
	}

	e.observe("update", count, e.now().Sub(start))
	return updated, nil
}

// Delete removes the product and recomputes the remaining catalog, since every
// survivor's aggregate share grows.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := e.now()

	var count int
	err := e.repo.WithTx(ctx, func(ctx context.Context, tx Store) error {
		ok, err := tx.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		if err := tx.DeleteByID(ctx, id); err != nil {
			return err
		}
		count, err = e.recomputeAll(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}

	e.observe("delete", count, e.now().Sub(start))
	return nil
}

// RecomputeAll re-derives every product's figures without mutating inputs.
// Idempotent against an already consistent catalog. Used by the background
// recompute job.
func (e *Engine) RecomputeAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := e.now()

	var count int
	err := e.repo.WithTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		count, err = e.recomputeAll(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}

	e.observe("manual", count, e.now().Sub(start))
	return nil
}

// recomputeAll is the single code path behind the global recompute policy.
// It derives figures for every product before writing any of them back, so a
// failed derivation aborts the transaction with the catalog untouched.
func (e *Engine) recomputeAll(ctx context.Context, tx Store) (int, error) {
	products, err := tx.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	if len(products) == 0 {
		return 0, nil
	}

	aggregate := Aggregate(products)
	for i := range products {
		figures, err := Derive(products[i].Input(), aggregate)
		if err != nil {
			return 0, fmt.Errorf("recompute %q: %w", products[i].Name, err)
		}
		products[i].Figures = figures.Rounded()
	}
	for _, p := range products {
		if _, err := tx.Save(ctx, p); err != nil {
			return 0, fmt.Errorf("persist %q: %w", p.Name, err)
		}
	}
	return len(products), nil
}

func (e *Engine) observe(trigger string, products int, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveRecompute(trigger, products, elapsed)
	}
	e.logger.Debug("catalog recomputed",
		slog.String("trigger", trigger),
		slog.Int("products", products),
		slog.Duration("elapsed", elapsed),
	)
}
