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

// CheckMinimumPaymentsUseCase flags loans with a missed minimum payment and
// escalates those whose grace period lapsed.
type CheckMinimumPaymentsUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	notifier  port.Notifier
	engine    *service.MinimumPaymentRiskEngine
	runner    *BatchRunner
	logger    *slog.Logger
}

// NewCheckMinimumPaymentsUseCase wires dependencies.
func NewCheckMinimumPaymentsUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	notifier port.Notifier,
	engine *service.MinimumPaymentRiskEngine,
	runner *BatchRunner,
	logger *slog.Logger,
) *CheckMinimumPaymentsUseCase {
	return &CheckMinimumPaymentsUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		notifier:  notifier,
		engine:    engine,
		runner:    runner,
		logger:    logger,
	}
}

func (uc *CheckMinimumPaymentsUseCase) Name() string { return JobCheckMinimumPayments }

// Execute runs the daily risk check.
func (uc *CheckMinimumPaymentsUseCase) Execute(ctx context.Context, req dto.JobRequest) (dto.JobSummary, error) {
	req = normalizeJobRequest(req)

	loans, err := uc.loanRepo.FindMinimumPaymentCandidates(ctx, scopeOf(req))
	if err != nil {
		return dto.JobSummary{}, fmt.Errorf("find minimum payment candidates: %w", err)
	}

	items := make([]batchItem[model.Loan], 0, len(loans))
	for _, l := range loans {
		items = append(items, batchItem[model.Loan]{id: l.ID(), weight: 1, value: l})
	}

	return runBatch(ctx, uc.runner, JobCheckMinimumPayments, req, items, func(ctx context.Context, loan model.Loan) (string, error) {
		return uc.check(ctx, loan, req.AsOf)
	}), nil
}

func (uc *CheckMinimumPaymentsUseCase) check(ctx context.Context, loan model.Loan, today time.Time) (string, error) {
	res, err := uc.engine.Check(loan, today, time.Now().UTC())
	if err != nil {
		return OutcomeFailed, fmt.Errorf("check loan: %w", err)
	}
	if res.Action == service.RiskUnchanged {
		return OutcomeSkipped, nil
	}

	if err := uc.loanRepo.Save(ctx, res.Loan); err != nil {
		return OutcomeFailed, fmt.Errorf("save loan: %w", err)
	}
	if err := uc.publisher.Publish(ctx, res.Loan.DomainEvents()...); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish risk events", "loan_id", loan.ID(), "error", err)
	}
	if err := uc.notifier.Notify(ctx, res.Intents...); err != nil {
		uc.logger.WarnContext(ctx, "failed to dispatch risk notifications", "loan_id", loan.ID(), "error", err)
	}

	uc.logger.InfoContext(ctx, "minimum payment risk updated",
		"loan_id", loan.ID(),
		"action", string(res.Action),
		"consecutive_missed_payments", res.Loan.ConsecutiveMissedPayments(),
	)
	return OutcomeProcessed, nil
}
