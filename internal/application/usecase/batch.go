package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/pkg/money"
)

// Job names.
const (
	JobAccrueOverdueInterest     = "accrue_overdue_interest"
	JobCheckMinimumPayments      = "check_minimum_payments"
	JobUpdateInstallmentStatuses = "update_installment_statuses"
	JobRecalculateCreditScores   = "recalculate_credit_scores"
)

// Item outcomes, also used as metric labels.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// BatchRunner fans a job out over its entities with bounded concurrency,
// counts outcomes and records the run.
type BatchRunner struct {
	concurrency int
	jobRuns     port.JobRunRepository
	metrics     port.JobMetrics
	logger      *slog.Logger
}

// NewBatchRunner wires dependencies. jobRuns and metrics may be nil.
func NewBatchRunner(concurrency int, jobRuns port.JobRunRepository, metrics port.JobMetrics, logger *slog.Logger) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{
		concurrency: concurrency,
		jobRuns:     jobRuns,
		metrics:     metrics,
		logger:      logger,
	}
}

// batchItem is one unit of work. weight is how many entities it stands for
// in the summary.
type batchItem[T any] struct {
	id     string
	weight int
	value  T
}

// runBatch processes items concurrently. A failing item is logged and counted
// and never stops the others. Once ctx is cancelled no further items start.
func runBatch[T any](
	ctx context.Context,
	r *BatchRunner,
	job string,
	req dto.JobRequest,
	items []batchItem[T],
	fn func(ctx context.Context, v T) (string, error),
) dto.JobSummary {
	summary := dto.JobSummary{
		Job:       job,
		BranchID:  req.BranchID,
		AsOf:      req.AsOf,
		StartedAt: time.Now().UTC(),
	}
	logger := r.logger.With("job", job, "as_of", req.AsOf.Format(time.DateOnly))
	logger.InfoContext(ctx, "batch job started", "items", len(items))

	var mu sync.Mutex
	record := func(outcome string, weight int) {
		mu.Lock()
		switch outcome {
		case OutcomeProcessed:
			summary.Processed += weight
		case OutcomeSkipped:
			summary.Skipped += weight
		default:
			summary.Failed += weight
		}
		mu.Unlock()
		if r.metrics != nil {
			r.metrics.RecordItem(ctx, job, outcome)
		}
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for _, it := range items {
		if ctx.Err() != nil {
			logger.WarnContext(ctx, "batch job interrupted", "error", ctx.Err())
			break
		}
		g.Go(func() error {
			outcome, err := safeRun(ctx, it.value, fn)
			if err != nil {
				logger.ErrorContext(ctx, "batch item failed", "entity_id", it.id, "error", err)
				outcome = OutcomeFailed
			}
			record(outcome, it.weight)
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = time.Now().UTC()
	logger.InfoContext(ctx, "batch job finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)

	r.saveRun(ctx, summary)
	return summary
}

func safeRun[T any](ctx context.Context, v T, fn func(context.Context, T) (string, error)) (outcome string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx, v)
}

func (r *BatchRunner) saveRun(ctx context.Context, s dto.JobSummary) {
	if r.jobRuns == nil {
		return
	}
	run := model.JobRun{
		ID:         uuid.New().String(),
		Job:        s.Job,
		BranchID:   s.BranchID,
		AsOf:       s.AsOf,
		Processed:  s.Processed,
		Skipped:    s.Skipped,
		Failed:     s.Failed,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	// recorded even when the job context was cancelled
	if err := r.jobRuns.Save(context.WithoutCancel(ctx), run); err != nil {
		r.logger.WarnContext(ctx, "failed to record job run", "job", s.Job, "error", err)
	}
}

// normalizeJobRequest fills in today's date when AsOf is zero.
func normalizeJobRequest(req dto.JobRequest) dto.JobRequest {
	if req.AsOf.IsZero() {
		req.AsOf = time.Now().UTC()
	}
	req.AsOf = money.Date(req.AsOf)
	return req
}

func scopeOf(req dto.JobRequest) port.Scope {
	return port.Scope{BranchID: req.BranchID}
}
