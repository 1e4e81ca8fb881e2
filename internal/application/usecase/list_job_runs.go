package usecase

import (
	"context"
	"fmt"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
)

const (
	defaultJobRunLimit = 20
	maxJobRunLimit     = 200
)

// ListJobRunsUseCase returns recorded batch summaries, newest first.
type ListJobRunsUseCase struct {
	jobRuns port.JobRunRepository
	jobs    *JobRegistry
}

func NewListJobRunsUseCase(jobRuns port.JobRunRepository, jobs *JobRegistry) *ListJobRunsUseCase {
	return &ListJobRunsUseCase{jobRuns: jobRuns, jobs: jobs}
}

func (uc *ListJobRunsUseCase) Execute(ctx context.Context, req dto.ListJobRunsRequest) ([]dto.JobSummary, error) {
	if !uc.jobs.Has(req.Job) {
		return nil, model.NewValidationError("job", "unknown job %q", req.Job)
	}
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultJobRunLimit
	case limit > maxJobRunLimit:
		limit = maxJobRunLimit
	}

	runs, err := uc.jobRuns.FindRecent(ctx, req.Job, limit)
	if err != nil {
		return nil, fmt.Errorf("find job runs: %w", err)
	}

	out := make([]dto.JobSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, dto.JobSummary{
			Job:        r.Job,
			BranchID:   r.BranchID,
			AsOf:       r.AsOf,
			Processed:  r.Processed,
			Skipped:    r.Skipped,
			Failed:     r.Failed,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return out, nil
}
