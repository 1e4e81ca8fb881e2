package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/service"
)

// ForfeitLoanUseCase defaults a loan and transfers its collateral.
type ForfeitLoanUseCase struct {
	loanRepo  port.LoanRepository
	items     port.ItemRepository
	publisher port.EventPublisher
}

// NewForfeitLoanUseCase wires dependencies.
func NewForfeitLoanUseCase(loanRepo port.LoanRepository, items port.ItemRepository, publisher port.EventPublisher) *ForfeitLoanUseCase {
	return &ForfeitLoanUseCase{loanRepo: loanRepo, items: items, publisher: publisher}
}

// Execute forfeits the loan.
func (uc *ForfeitLoanUseCase) Execute(ctx context.Context, req dto.ForfeitLoanRequest) (dto.LoanResponse, error) {
	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}
	previous := loan.Status()

	forfeited, err := loan.Forfeit(now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("forfeit loan %s (%s): %w", loan.ID(), previous, err)
	}

	item, err := uc.items.FindByID(ctx, loan.ItemID())
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find item: %w", err)
	}
	moved, _ := service.ApplyLoanStatusSideEffects(forfeited, previous, item, now)

	if err := uc.loanRepo.SaveWithItem(ctx, forfeited, moved); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan with item: %w", err)
	}
	if err := uc.publisher.Publish(ctx, forfeited.DomainEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return toLoanResponse(forfeited), nil
}
