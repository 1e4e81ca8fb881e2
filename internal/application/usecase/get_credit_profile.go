package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pawnline/loanengine/internal/application/dto"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/service"
	"github.com/pawnline/loanengine/pkg/money"
)

// GetCreditProfileUseCase scores a customer on demand without persisting.
type GetCreditProfileUseCase struct {
	customers port.CustomerRepository
	profiles  *profileLoader
	engine    *service.CreditScoreEngine
}

// NewGetCreditProfileUseCase wires dependencies.
func NewGetCreditProfileUseCase(
	customers port.CustomerRepository,
	loanRepo port.LoanRepository,
	payments port.PaymentRepository,
	engine *service.CreditScoreEngine,
) *GetCreditProfileUseCase {
	return &GetCreditProfileUseCase{
		customers: customers,
		profiles:  &profileLoader{loanRepo: loanRepo, payments: payments},
		engine:    engine,
	}
}

// Execute computes the score, its factors and the recommended limit.
func (uc *GetCreditProfileUseCase) Execute(ctx context.Context, req dto.GetCreditProfileRequest) (dto.CreditProfileResponse, error) {
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	customer, err := uc.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return dto.CreditProfileResponse{}, fmt.Errorf("find customer: %w", err)
	}
	profile, err := uc.profiles.load(ctx, customer, money.Date(asOf))
	if err != nil {
		return dto.CreditProfileResponse{}, err
	}

	assessment := uc.engine.CalculateCreditScore(profile)
	resp := dto.CreditProfileResponse{
		CustomerID:             customer.ID(),
		Score:                  assessment.Score,
		Rating:                 assessment.Rating.String(),
		StoredScore:            customer.CreditScore(),
		CreditLimit:            customer.CreditLimit(),
		RecommendedCreditLimit: uc.engine.RecommendedCreditLimit(profile, assessment.Score),
	}
	for _, f := range assessment.Factors {
		resp.Factors = append(resp.Factors, dto.ScoreFactorResponse{Name: f.Name, Points: f.Points.Round(2)})
	}
	return resp, nil
}
