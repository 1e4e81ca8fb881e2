package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/service"
)

// AccrueOverdueInterestUseCase charges one day of overdue interest to every
// eligible loan, at most once per loan per calendar day.
type AccrueOverdueInterestUseCase struct {
	loanRepo  port.LoanRepository
	charges   port.AccrualStore
	publisher port.EventPublisher
	notifier  port.Notifier
	engine    *service.InterestAccrualEngine
	runner    *BatchRunner
	logger    *slog.Logger
}

// NewAccrueOverdueInterestUseCase wires dependencies.
func NewAccrueOverdueInterestUseCase(
	loanRepo port.LoanRepository,
	charges port.AccrualStore,
	publisher port.EventPublisher,
	notifier port.Notifier,
	engine *service.InterestAccrualEngine,
	runner *BatchRunner,
	logger *slog.Logger,
) *AccrueOverdueInterestUseCase {
	return &AccrueOverdueInterestUseCase{
		loanRepo:  loanRepo,
		charges:   charges,
		publisher: publisher,
		notifier:  notifier,
		engine:    engine,
		runner:    runner,
		logger:    logger,
	}
}

func (uc *AccrueOverdueInterestUseCase) Name() string { return JobAccrueOverdueInterest }

// Execute runs the daily accrual.
func (uc *AccrueOverdueInterestUseCase) Execute(ctx context.Context, req dto.JobRequest) (dto.JobSummary, error) {
	req = normalizeJobRequest(req)

	loans, err := uc.loanRepo.FindAccrualCandidates(ctx, scopeOf(req), req.AsOf, uc.engine.IncludeOverdue())
	if err != nil {
		return dto.JobSummary{}, fmt.Errorf("find accrual candidates: %w", err)
	}

	items := make([]batchItem[model.Loan], 0, len(loans))
	for _, l := range loans {
		items = append(items, batchItem[model.Loan]{id: l.ID(), weight: 1, value: l})
	}

	return runBatch(ctx, uc.runner, JobAccrueOverdueInterest, req, items, func(ctx context.Context, loan model.Loan) (string, error) {
		return uc.accrue(ctx, loan, req.AsOf)
	}), nil
}

func (uc *AccrueOverdueInterestUseCase) accrue(ctx context.Context, loan model.Loan, today time.Time) (string, error) {
	if !uc.engine.IsCandidate(loan, today) {
		return OutcomeSkipped, nil
	}

	exists, err := uc.charges.ExistsForDate(ctx, loan.ID(), today)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("check existing charge: %w", err)
	}
	if exists {
		return OutcomeSkipped, nil
	}

	res, err := uc.engine.Accrue(loan, today, time.Now().UTC())
	if err != nil {
		return OutcomeFailed, err
	}

	posted, err := uc.charges.PostInterestCharge(ctx, res.Loan, res.Charge)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("post interest charge: %w", err)
	}
	if !posted {
		uc.logger.DebugContext(ctx, "interest already charged by a concurrent run",
			"loan_id", loan.ID(), "error", model.ErrChargeExists)
		return OutcomeSkipped, nil
	}

	if err := uc.publisher.Publish(ctx, res.Loan.DomainEvents()...); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish interest events", "loan_id", loan.ID(), "error", err)
	}
	if err := uc.notifier.Notify(ctx, res.Intents...); err != nil {
		uc.logger.WarnContext(ctx, "failed to dispatch interest notifications", "loan_id", loan.ID(), "error", err)
	}

	uc.logger.InfoContext(ctx, "overdue interest charged",
		"loan_id", loan.ID(),
		"days_overdue", res.DaysOverdue,
		"daily_interest", res.Charge.InterestAmount.StringFixed(2),
	)
	return OutcomeProcessed, nil
}
