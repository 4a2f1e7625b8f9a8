package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/precify-erp/precify/internal/jobs"
)

// SummaryWarmupJob rebuilds the cached catalog summary so the first read
// after an invalidation does not pay the projection cost.
type SummaryWarmupJob struct {
	Service CatalogService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSummaryWarmupJob wires dependencies for the warmup handler.
func NewSummaryWarmupJob(service CatalogService, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryWarmupJob {
	return &SummaryWarmupJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes summary warmup tasks.
func (j *SummaryWarmupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("summary warmup: handler not configured")
	}

	tracker := j.metrics().Track(TaskSummaryWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := j.Service.WarmSummary(warmCtx); err != nil {
		resultErr = err
		j.logger().Error("warm summary", slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("completed summary warmup", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *SummaryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSummaryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSummaryWarmup))
}

func (j *SummaryWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
