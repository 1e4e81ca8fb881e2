package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
)

// RecordMinimumPaymentUseCase clears a loan's at-risk state after a
// qualifying minimum payment and advances its next due date.
type RecordMinimumPaymentUseCase struct {
	loanRepo    port.LoanRepository
	publisher   port.EventPublisher
	resetMissed bool
}

// NewRecordMinimumPaymentUseCase wires dependencies. resetMissed zeroes the
// consecutive-miss counter on every recorded payment.
func NewRecordMinimumPaymentUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher, resetMissed bool) *RecordMinimumPaymentUseCase {
	return &RecordMinimumPaymentUseCase{
		loanRepo:    loanRepo,
		publisher:   publisher,
		resetMissed: resetMissed,
	}
}

// Execute records the payment. Recording a payment whose cycle is already
// paid is a no-op that returns the loan as stored.
func (uc *RecordMinimumPaymentUseCase) Execute(ctx context.Context, req dto.RecordMinimumPaymentRequest) (dto.LoanResponse, error) {
	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	if !req.Amount.IsZero() && req.Amount.LessThan(loan.MinimumMonthlyPayment()) {
		return dto.LoanResponse{}, model.NewValidationError("amount",
			"%s is below the minimum monthly payment %s", req.Amount.StringFixed(2), loan.MinimumMonthlyPayment().StringFixed(2))
	}

	paidOn := req.PaidOn
	if paidOn.IsZero() {
		paidOn = now
	}
	updated, err := loan.RecordMinimumPayment(paidOn, uc.resetMissed, now)
	if errors.Is(err, model.ErrMinimumPaymentCovered) {
		return toLoanResponse(loan), nil
	}
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("record minimum payment: %w", err)
	}

	if err := uc.loanRepo.Save(ctx, updated); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}
	if err := uc.publisher.Publish(ctx, updated.DomainEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toLoanResponse(updated), nil
}
