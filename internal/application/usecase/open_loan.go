package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/service"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

// OpenLoanUseCase issues a loan against an available item and reserves the
// item as collateral. Nothing is written when validation fails.
type OpenLoanUseCase struct {
	customers port.CustomerRepository
	items     port.ItemRepository
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
}

// NewOpenLoanUseCase wires dependencies.
func NewOpenLoanUseCase(
	customers port.CustomerRepository,
	items port.ItemRepository,
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
) *OpenLoanUseCase {
	return &OpenLoanUseCase{
		customers: customers,
		items:     items,
		loanRepo:  loanRepo,
		publisher: publisher,
	}
}

// Execute opens the loan.
func (uc *OpenLoanUseCase) Execute(ctx context.Context, req dto.OpenLoanRequest) (dto.LoanResponse, error) {
	now := time.Now().UTC()

	// 1. Validate the parties.
	if _, err := uc.customers.FindByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return dto.LoanResponse{}, model.NewValidationError("customer_id", "customer %s does not exist", req.CustomerID)
		}
		return dto.LoanResponse{}, fmt.Errorf("find customer: %w", err)
	}
	item, err := uc.items.FindByID(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return dto.LoanResponse{}, model.NewValidationError("item_id", "item %s does not exist", req.ItemID)
		}
		return dto.LoanResponse{}, fmt.Errorf("find item: %w", err)
	}
	if !item.Status.IsPledgeable() {
		return dto.LoanResponse{}, model.NewValidationError("item_id", "item %s is %s, not available for a loan", item.ID, item.Status)
	}

	// 2. Create the loan.
	var overdue decimal.NullDecimal
	if req.InterestRateOverdue != nil {
		overdue = decimal.NewNullDecimal(*req.InterestRateOverdue)
	}
	loan, err := model.NewLoan(model.OpenLoanParams{
		BranchID:               req.BranchID,
		CustomerID:             req.CustomerID,
		ItemID:                 req.ItemID,
		LoanAmount:             req.LoanAmount,
		InterestRate:           req.InterestRate,
		InterestRateOverdue:    overdue,
		TermMonths:             req.TermMonths,
		LoanDate:               req.LoanDate,
		RequiresMinimumPayment: req.RequiresMinimumPayment,
		MinimumMonthlyPayment:  req.MinimumMonthlyPayment,
		GracePeriodDays:        req.GracePeriodDays,
		WithInstallments:       req.WithInstallments,
	}, now)
	if err != nil {
		return dto.LoanResponse{}, err
	}

	// 3. Reserve the item and persist both.
	reserved, _ := service.ApplyLoanStatusSideEffects(loan, valueobject.LoanStatus{}, item, now)
	if err := uc.loanRepo.SaveWithItem(ctx, loan, reserved); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}

	// 4. Publish events.
	if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toLoanResponse(loan), nil
}

func toLoanResponse(l model.Loan) dto.LoanResponse {
	return dto.LoanResponse{
		ID:                        l.ID(),
		BranchID:                  l.BranchID(),
		CustomerID:                l.CustomerID(),
		ItemID:                    l.ItemID(),
		LoanAmount:                l.LoanAmount(),
		InterestAmount:            l.InterestAmount(),
		TotalAmount:               l.TotalAmount(),
		AmountPaid:                l.AmountPaid(),
		BalanceRemaining:          l.BalanceRemaining(),
		Status:                    l.Status().String(),
		DueDate:                   l.DueDate(),
		PaidDate:                  l.PaidDate(),
		NextMinimumPaymentDate:    l.NextMinimumPaymentDate(),
		IsAtRisk:                  l.IsAtRisk(),
		ConsecutiveMissedPayments: l.ConsecutiveMissedPayments(),
		Installments:              len(l.Installments()),
	}
}
