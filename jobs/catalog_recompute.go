package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/precify-erp/precify/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CatalogService is the slice of the pricing service the jobs need.
type CatalogService interface {
	RecomputeAll(ctx context.Context) error
	WarmSummary(ctx context.Context) error
}

// CatalogRecomputeJob re-derives the whole catalog's pricing figures and
// refreshes the cached summary afterwards.
type CatalogRecomputeJob struct {
	Service CatalogService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewCatalogRecomputeJob wires dependencies for the recompute handler.
func NewCatalogRecomputeJob(service CatalogService, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogRecomputeJob {
	return &CatalogRecomputeJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes catalog recompute tasks.
func (j *CatalogRecomputeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("catalog recompute: handler not configured")
	}
	var payload CatalogRecomputePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	tracker := j.metrics().Track(TaskCatalogRecompute)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	logger.Info("starting catalog recompute")
	start := j.now()

	if err := j.Service.RecomputeAll(ctx); err != nil {
		resultErr = err
		logger.Error("recompute catalog", slog.Any("error", err))
		return resultErr
	}
	if err := j.Service.WarmSummary(ctx); err != nil {
		logger.Warn("warm summary after recompute", slog.Any("error", err))
	}

	logger.Info("completed catalog recompute", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *CatalogRecomputeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogRecompute))
	}
	return slog.Default().With(slog.String("job", TaskCatalogRecompute))
}

func (j *CatalogRecomputeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CatalogRecomputeJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
