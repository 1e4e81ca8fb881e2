package usecase

import (
	"context"
	"fmt"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
)

// Job is a schedulable batch use case.
type Job interface {
	Name() string
	Execute(ctx context.Context, req dto.JobRequest) (dto.JobSummary, error)
}

// JobRegistry looks jobs up by name and remembers registration order.
type JobRegistry struct {
	jobs  map[string]Job
	order []string
}

// NewJobRegistry registers jobs in the given order.
func NewJobRegistry(jobs ...Job) *JobRegistry {
	r := &JobRegistry{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
		r.order = append(r.order, j.Name())
	}
	return r
}

// Names returns job names in registration order.
func (r *JobRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Has reports whether a job is registered under name.
func (r *JobRegistry) Has(name string) bool {
	_, ok := r.jobs[name]
	return ok
}

// Run executes the named job.
func (r *JobRegistry) Run(ctx context.Context, name string, req dto.JobRequest) (dto.JobSummary, error) {
	j, ok := r.jobs[name]
	if !ok {
		return dto.JobSummary{}, model.NewValidationError("job", "unknown job %q", name)
	}
	return j.Execute(ctx, req)
}

// RunSequence executes the named jobs one after another. A job that cannot
// start does not prevent the following ones from running; the first such
// error is returned along with every summary produced.
func (r *JobRegistry) RunSequence(ctx context.Context, names []string, req dto.JobRequest) ([]dto.JobSummary, error) {
	var (
		summaries []dto.JobSummary
		firstErr  error
	)
	for _, name := range names {
		if ctx.Err() != nil {
			return summaries, ctx.Err()
		}
		s, err := r.Run(ctx, name, req)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("job %s: %w", name, err)
			}
			continue
		}
		summaries = append(summaries, s)
	}
	return summaries, firstErr
}
