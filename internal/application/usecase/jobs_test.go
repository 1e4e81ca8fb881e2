package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/application/usecase"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/pkg/testutil"
)

type stubJob struct {
	name  string
	err   error
	calls *[]string
}

func (j stubJob) Name() string { return j.name }

func (j stubJob) Execute(_ context.Context, req dto.JobRequest) (dto.JobSummary, error) {
	*j.calls = append(*j.calls, j.name)
	if j.err != nil {
		return dto.JobSummary{}, j.err
	}
	return dto.JobSummary{Job: j.name, AsOf: req.AsOf, Processed: 1}, nil
}

func TestJobRegistry(t *testing.T) {
	var calls []string
	reg := usecase.NewJobRegistry(
		stubJob{name: "a", calls: &calls},
		stubJob{name: "b", err: errors.New("boom"), calls: &calls},
		stubJob{name: "c", calls: &calls},
	)

	t.Run("names keep registration order", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c"}, reg.Names())
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := reg.Run(context.Background(), "nope", dto.JobRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown job")
		assert.True(t, model.IsValidationError(err))
		assert.False(t, reg.Has("nope"))
		assert.True(t, reg.Has("a"))
	})

	t.Run("sequence continues past a failing job", func(t *testing.T) {
		calls = nil
		summaries, err := reg.RunSequence(context.Background(), []string{"a", "b", "c"}, dto.JobRequest{AsOf: today})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "job b")
		assert.Equal(t, []string{"a", "b", "c"}, calls)
		require.Len(t, summaries, 2)
		assert.Equal(t, "c", summaries[1].Job)
	})

	t.Run("cancelled context stops the sequence", func(t *testing.T) {
		calls = nil
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := reg.RunSequence(ctx, reg.Names(), dto.JobRequest{})
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, calls)
	})
}

func TestBatchRunner(t *testing.T) {
	t.Run("panicking item is counted as failed", func(t *testing.T) {
		f := newAccrualFixture(overdueLoan("loan-a", nil), overdueLoan("loan-b", nil))
		f.store.postFunc = func(_ context.Context, l model.Loan, _ model.InterestCharge) (bool, error) {
			if l.ID() == "loan-a" {
				panic("nil map")
			}
			return true, nil
		}

		summary, err := f.uc.Execute(context.Background(), dto.JobRequest{AsOf: today})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.Failed)
	})

	t.Run("cancelled context starts no items but records the run", func(t *testing.T) {
		f := newAccrualFixture(overdueLoan("loan-a", nil))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary, err := f.uc.Execute(ctx, dto.JobRequest{AsOf: today})
		require.NoError(t, err)
		assert.Zero(t, summary.Processed+summary.Skipped+summary.Failed)
		assert.Empty(t, f.store.charges)
		require.Len(t, f.jobRuns.runs, 1)
	})

	t.Run("zero as-of defaults to today's date", func(t *testing.T) {
		f := newAccrualFixture()
		var asOf time.Time
		f.loanRepo.findAccrualFunc = func(_ context.Context, _ port.Scope, d time.Time, _ bool) ([]model.Loan, error) {
			asOf = d
			return nil, nil
		}

		summary, err := f.uc.Execute(context.Background(), dto.JobRequest{})
		require.NoError(t, err)
		now := time.Now().UTC()
		assert.Equal(t, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), asOf)
		assert.Equal(t, asOf, summary.AsOf)
		assert.Equal(t, testutil.TestToday.Location(), summary.AsOf.Location())
	})
}
