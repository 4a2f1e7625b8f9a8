package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogRecompute re-derives every product's pricing figures.
	TaskCatalogRecompute = "pricing:recompute"
	// TaskSummaryWarmup pre-populates the cached catalog summary.
	TaskSummaryWarmup = "pricing:summary_warmup"
)

// CatalogRecomputePayload carries the reason a recompute was requested, for
// logging only.
type CatalogRecomputePayload struct {
	Reason string `json:"reason"`
}

// NewCatalogRecomputeTask constructs an Asynq task for a full recompute.
func NewCatalogRecomputeTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(CatalogRecomputePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogRecompute, data), nil
}

// NewSummaryWarmupTask constructs an Asynq task for summary cache warmup.
func NewSummaryWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskSummaryWarmup, nil)
}
