package pricing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewMemoryRepository()
	cache := NewCache(client, time.Minute)
	engine := NewEngine(repo, slog.Default(), nil)
	return NewService(engine, repo, cache, slog.Default()), repo
}

func TestServiceSummaryReflectsMutations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.False(t, summary.HasProducts)

	_, err = svc.CreateProduct(ctx, inputA())
	require.NoError(t, err)

	// The mutation bumped the cache version, so the cached empty summary
	// is not served again.
	summary, err = svc.GetSummary(ctx)
	require.NoError(t, err)
	require.True(t, summary.HasProducts)
	require.Equal(t, int64(100), summary.UnitsTotal)

	b, err := svc.CreateProduct(ctx, inputB())
	require.NoError(t, err)

	summary, err = svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(150), summary.UnitsTotal)

	require.NoError(t, svc.DeleteProduct(ctx, b.ID))

	summary, err = svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), summary.UnitsTotal)
}

func TestServiceSummaryIsCached(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, inputA())
	require.NoError(t, err)

	first, err := svc.GetSummary(ctx)
	require.NoError(t, err)

	// Mutating the repository behind the service's back does not show up
	// until the version is bumped.
	products, err := repo.FindAll(ctx)
	require.NoError(t, err)
	products[0].EstimatedQuantity = 999
	_, err = repo.Save(ctx, products[0])
	require.NoError(t, err)

	cached, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, first.UnitsTotal, cached.UnitsTotal)

	require.NoError(t, svc.RecomputeAll(ctx))

	fresh, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(999), fresh.UnitsTotal)
}

func TestServiceWarmSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, inputA())
	require.NoError(t, err)
	require.NoError(t, svc.WarmSummary(ctx))
}

func TestServiceUpdateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, inputA())
	require.NoError(t, err)

	in := inputA()
	in.Category = "Beverages"
	updated, err := svc.UpdateProduct(ctx, created.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Beverages", updated.Category)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Beverages", got.Category)

	_, err = svc.GetProduct(ctx, created.ID+1)
	require.ErrorIs(t, err, ErrNotFound)
}
