package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/service"
)

// ReconcileLoanBalanceUseCase recomputes a loan's paid amount and balance
// after its payments changed, and moves the collateral when the loan is
// settled or reopened. It publishes loan events only and never triggers
// payment notifications.
type ReconcileLoanBalanceUseCase struct {
	loanRepo   port.LoanRepository
	payments   port.PaymentRepository
	items      port.ItemRepository
	publisher  port.EventPublisher
	reconciler *service.BalanceReconciler
}

// NewReconcileLoanBalanceUseCase wires dependencies.
func NewReconcileLoanBalanceUseCase(
	loanRepo port.LoanRepository,
	payments port.PaymentRepository,
	items port.ItemRepository,
	publisher port.EventPublisher,
	reconciler *service.BalanceReconciler,
) *ReconcileLoanBalanceUseCase {
	return &ReconcileLoanBalanceUseCase{
		loanRepo:   loanRepo,
		payments:   payments,
		items:      items,
		publisher:  publisher,
		reconciler: reconciler,
	}
}

// Execute reconciles one loan.
func (uc *ReconcileLoanBalanceUseCase) Execute(ctx context.Context, req dto.ReconcileLoanRequest) (dto.ReconcileLoanResponse, error) {
	now := time.Now().UTC()

	// 1. Load the loan and its payments.
	loan, err := uc.loanRepo.FindByID(ctx, req.LoanID)
	if err != nil {
		return dto.ReconcileLoanResponse{}, fmt.Errorf("find loan: %w", err)
	}
	payments, err := uc.payments.FindByLoanID(ctx, req.LoanID)
	if err != nil {
		return dto.ReconcileLoanResponse{}, fmt.Errorf("find payments: %w", err)
	}

	// 2. Recompute.
	previous := loan.Status()
	reconciled := uc.reconciler.Reconcile(loan, payments, now)

	resp := dto.ReconcileLoanResponse{
		LoanID:           reconciled.ID(),
		AmountPaid:       reconciled.AmountPaid(),
		BalanceRemaining: reconciled.BalanceRemaining(),
		PreviousStatus:   previous.String(),
		Status:           reconciled.Status().String(),
	}

	// 3. Persist, together with the collateral when the status moved.
	saved := false
	if !reconciled.Status().Equal(previous) {
		item, err := uc.items.FindByID(ctx, reconciled.ItemID())
		if err != nil {
			return dto.ReconcileLoanResponse{}, fmt.Errorf("find item: %w", err)
		}
		if moved, changed := service.ApplyLoanStatusSideEffects(reconciled, previous, item, now); changed {
			if err := uc.loanRepo.SaveWithItem(ctx, reconciled, moved); err != nil {
				return dto.ReconcileLoanResponse{}, fmt.Errorf("save loan with item: %w", err)
			}
			resp.ItemStatus = moved.Status.String()
			saved = true
		}
	}
	if !saved {
		if err := uc.loanRepo.Save(ctx, reconciled); err != nil {
			return dto.ReconcileLoanResponse{}, fmt.Errorf("save loan: %w", err)
		}
	}

	// 4. Publish events.
	if err := uc.publisher.Publish(ctx, reconciled.DomainEvents()...); err != nil {
		return dto.ReconcileLoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return resp, nil
}
