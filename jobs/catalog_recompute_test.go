package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

type fakeCatalogService struct {
	recomputes int
	warms      int
	recompErr  error
	warmErr    error
}

func (f *fakeCatalogService) RecomputeAll(ctx context.Context) error {
	f.recomputes++
	return f.recompErr
}

func (f *fakeCatalogService) WarmSummary(ctx context.Context) error {
	f.warms++
	return f.warmErr
}

func TestCatalogRecomputeJobHandle(t *testing.T) {
	svc := &fakeCatalogService{}
	job := NewCatalogRecomputeJob(svc, nil, nil)

	task, err := NewCatalogRecomputeTask("test")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if svc.recomputes != 1 {
		t.Fatalf("expected 1 recompute, got %d", svc.recomputes)
	}
	if svc.warms != 1 {
		t.Fatalf("expected 1 warmup, got %d", svc.warms)
	}
}

func TestCatalogRecomputeJobPropagatesFailure(t *testing.T) {
	svc := &fakeCatalogService{recompErr: errors.New("boom")}
	job := NewCatalogRecomputeJob(svc, nil, nil)

	task, err := NewCatalogRecomputeTask("test")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err == nil {
		t.Fatalf("expected error")
	}
	if svc.warms != 0 {
		t.Fatalf("warmup should not run after a failed recompute, got %d", svc.warms)
	}
}

func TestCatalogRecomputeJobSkipsBadPayload(t *testing.T) {
	svc := &fakeCatalogService{}
	job := NewCatalogRecomputeJob(svc, nil, nil)

	task := asynq.NewTask(TaskCatalogRecompute, []byte("{not json"))
	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry, got %v", err)
	}
}

func TestSummaryWarmupJobHandle(t *testing.T) {
	svc := &fakeCatalogService{}
	job := NewSummaryWarmupJob(svc, nil, nil)

	if err := job.Handle(context.Background(), NewSummaryWarmupTask()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if svc.warms != 1 {
		t.Fatalf("expected 1 warmup, got %d", svc.warms)
	}
}
