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

// UpdateInstallmentStatusesUseCase refreshes days overdue, late fees and
// statuses of past-due installments, and moves their loans to OVERDUE when
// an installment falls behind.
type UpdateInstallmentStatusesUseCase struct {
	installments port.InstallmentRepository
	loanRepo     port.LoanRepository
	publisher    port.EventPublisher
	ledger       *service.InstallmentLedger
	runner       *BatchRunner
	logger       *slog.Logger
}

// NewUpdateInstallmentStatusesUseCase wires dependencies.
func NewUpdateInstallmentStatusesUseCase(
	installments port.InstallmentRepository,
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	ledger *service.InstallmentLedger,
	runner *BatchRunner,
	logger *slog.Logger,
) *UpdateInstallmentStatusesUseCase {
	return &UpdateInstallmentStatusesUseCase{
		installments: installments,
		loanRepo:     loanRepo,
		publisher:    publisher,
		ledger:       ledger,
		runner:       runner,
		logger:       logger,
	}
}

func (uc *UpdateInstallmentStatusesUseCase) Name() string { return JobUpdateInstallmentStatuses }

// Execute runs the daily installment update. Installments of one loan are
// handled together so the loan is written at most once; counts in the
// summary are per installment.
func (uc *UpdateInstallmentStatusesUseCase) Execute(ctx context.Context, req dto.JobRequest) (dto.JobSummary, error) {
	req = normalizeJobRequest(req)

	insts, err := uc.installments.FindUnpaidPastDue(ctx, scopeOf(req), req.AsOf)
	if err != nil {
		return dto.JobSummary{}, fmt.Errorf("find past-due installments: %w", err)
	}

	byLoan := make(map[string][]model.Installment)
	var order []string
	for _, inst := range insts {
		if _, seen := byLoan[inst.LoanID]; !seen {
			order = append(order, inst.LoanID)
		}
		byLoan[inst.LoanID] = append(byLoan[inst.LoanID], inst)
	}

	items := make([]batchItem[[]model.Installment], 0, len(order))
	for _, loanID := range order {
		group := byLoan[loanID]
		items = append(items, batchItem[[]model.Installment]{id: loanID, weight: len(group), value: group})
	}

	return runBatch(ctx, uc.runner, JobUpdateInstallmentStatuses, req, items, func(ctx context.Context, group []model.Installment) (string, error) {
		return uc.updateLoan(ctx, group, req.AsOf)
	}), nil
}

func (uc *UpdateInstallmentStatusesUseCase) updateLoan(ctx context.Context, group []model.Installment, asOf time.Time) (string, error) {
	loanID := group[0].LoanID
	loan, err := uc.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("find loan: %w", err)
	}
	if loan.Status().IsTerminal() {
		return OutcomeSkipped, nil
	}

	now := time.Now().UTC()
	anyOverdue := false
	for _, inst := range group {
		next, becameOverdue := uc.ledger.Evaluate(inst, loan, asOf, now)
		if err := uc.installments.Save(ctx, next); err != nil {
			return OutcomeFailed, fmt.Errorf("save installment %s: %w", inst.ID, err)
		}
		anyOverdue = anyOverdue || becameOverdue
	}

	if !anyOverdue {
		return OutcomeProcessed, nil
	}

	marked, changed := loan.MarkOverdue("installment overdue", now)
	if !changed {
		return OutcomeProcessed, nil
	}
	if err := uc.loanRepo.Save(ctx, marked); err != nil {
		return OutcomeFailed, fmt.Errorf("save loan: %w", err)
	}
	if err := uc.publisher.Publish(ctx, marked.DomainEvents()...); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish overdue event", "loan_id", loanID, "error", err)
	}
	uc.logger.InfoContext(ctx, "loan marked overdue by installment", "loan_id", loanID)
	return OutcomeProcessed, nil
}
