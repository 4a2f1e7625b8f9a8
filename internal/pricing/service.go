package pricing

import (
	"context"
	"log/slog"
)

// Service fronts the engine for the transport layer. Reads go straight to the
// repository, optionally through the summary cache. Every successful mutation
// bumps the cache version so cached projections are invalidated.
type Service struct {
	engine *Engine
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

func NewService(engine *Engine, repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{engine: engine, repo: repo, cache: cache, logger: logger}
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.FindAll(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	created, err := s.engine.Create(ctx, in)
	if err != nil {
		return Product{}, err
	}
	s.bumpCache(ctx)
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	updated, err := s.engine.Update(ctx, id, in)
	if err != nil {
		return Product{}, err
	}
	s.bumpCache(ctx)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.engine.Delete(ctx, id); err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

// GetSummary serves the consolidated catalog view, cached under the current
// version key.
func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, "pricing", "summary")
	if err != nil {
		s.logger.Warn("build summary cache key", slog.Any("error", err))
		key = "pricing:summary"
	}

	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		products, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		return BuildSummary(products), nil
	})
	return summary, err
}

// WarmSummary rebuilds the cached summary. The background warmup job calls
// this after recomputes so the first read does not pay the projection cost.
func (s *Service) WarmSummary(ctx context.Context) error {
	_, err := s.GetSummary(ctx)
	return err
}

// RecomputeAll re-derives the whole catalog and invalidates cached
// projections.
func (s *Service) RecomputeAll(ctx context.Context) error {
	if err := s.engine.RecomputeAll(ctx); err != nil {
		return err
	}
	s.bumpCache(ctx)
	return nil
}

// bumpCache is fail-soft. A broken cache must not fail a committed mutation.
func (s *Service) bumpCache(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump pricing cache", slog.Any("error", err))
	}
}
