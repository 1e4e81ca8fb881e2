package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// ProcessPaymentEventUseCase reacts to a payment mutation: the loan balance is
// always reconciled, and a newly completed payment that covers the minimum
// monthly amount also counts as the cycle's minimum payment.
type ProcessPaymentEventUseCase struct {
	reconcile *ReconcileLoanBalanceUseCase
	minimum   *RecordMinimumPaymentUseCase
	loanRepo  port.LoanRepository
	logger    *slog.Logger
}

// NewProcessPaymentEventUseCase wires dependencies.
func NewProcessPaymentEventUseCase(
	reconcile *ReconcileLoanBalanceUseCase,
	minimum *RecordMinimumPaymentUseCase,
	loanRepo port.LoanRepository,
	logger *slog.Logger,
) *ProcessPaymentEventUseCase {
	return &ProcessPaymentEventUseCase{
		reconcile: reconcile,
		minimum:   minimum,
		loanRepo:  loanRepo,
		logger:    logger,
	}
}

// Execute handles one event.
func (uc *ProcessPaymentEventUseCase) Execute(ctx context.Context, evt dto.PaymentEvent) error {
	if evt.LoanID == "" {
		return model.NewValidationError("loan_id", "payment event %s has no loan", evt.PaymentID)
	}

	res, err := uc.reconcile.Execute(ctx, dto.ReconcileLoanRequest{LoanID: evt.LoanID})
	if err != nil {
		return fmt.Errorf("reconcile loan %s: %w", evt.LoanID, err)
	}
	uc.logger.InfoContext(ctx, "loan balance reconciled",
		"loan_id", evt.LoanID,
		"payment_id", evt.PaymentID,
		"action", evt.Action,
		"status", res.Status,
		"balance_remaining", res.BalanceRemaining.StringFixed(2),
	)

	if evt.Action != dto.PaymentCreated || evt.Status != valueobject.PaymentStatusCompleted.String() {
		return nil
	}

	loan, err := uc.loanRepo.FindByID(ctx, evt.LoanID)
	if err != nil {
		return fmt.Errorf("find loan: %w", err)
	}
	if !loan.RequiresMinimumPayment() || loan.Status().IsTerminal() ||
		evt.Amount.LessThan(loan.MinimumMonthlyPayment()) {
		return nil
	}

	if _, err := uc.minimum.Execute(ctx, dto.RecordMinimumPaymentRequest{
		LoanID: evt.LoanID,
		PaidOn: evt.PaymentDate,
		Amount: evt.Amount,
	}); err != nil {
		return fmt.Errorf("record minimum payment: %w", err)
	}
	return nil
}
