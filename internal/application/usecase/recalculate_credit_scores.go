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

// RecalculateCreditScoresUseCase rescores every customer. Each rescored
// customer is written with a fresh scoring time; when adjustLimits is set the
// credit limit also moves to the recommended amount.
type RecalculateCreditScoresUseCase struct {
	customers    port.CustomerRepository
	profiles     *profileLoader
	publisher    port.EventPublisher
	engine       *service.CreditScoreEngine
	adjustLimits bool
	runner       *BatchRunner
	logger       *slog.Logger
}

// NewRecalculateCreditScoresUseCase wires dependencies. With adjustLimits
// false the credit limit stays operator-owned.
func NewRecalculateCreditScoresUseCase(
	customers port.CustomerRepository,
	loanRepo port.LoanRepository,
	payments port.PaymentRepository,
	publisher port.EventPublisher,
	engine *service.CreditScoreEngine,
	adjustLimits bool,
	runner *BatchRunner,
	logger *slog.Logger,
) *RecalculateCreditScoresUseCase {
	return &RecalculateCreditScoresUseCase{
		customers:    customers,
		profiles:     &profileLoader{loanRepo: loanRepo, payments: payments},
		publisher:    publisher,
		engine:       engine,
		adjustLimits: adjustLimits,
		runner:       runner,
		logger:       logger,
	}
}

func (uc *RecalculateCreditScoresUseCase) Name() string { return JobRecalculateCreditScores }

// Execute runs the weekly rescoring.
func (uc *RecalculateCreditScoresUseCase) Execute(ctx context.Context, req dto.JobRequest) (dto.JobSummary, error) {
	req = normalizeJobRequest(req)

	customers, err := uc.customers.FindAll(ctx, scopeOf(req))
	if err != nil {
		return dto.JobSummary{}, fmt.Errorf("find customers: %w", err)
	}

	items := make([]batchItem[model.Customer], 0, len(customers))
	for _, c := range customers {
		items = append(items, batchItem[model.Customer]{id: c.ID(), weight: 1, value: c})
	}

	return runBatch(ctx, uc.runner, JobRecalculateCreditScores, req, items, func(ctx context.Context, c model.Customer) (string, error) {
		return uc.rescore(ctx, c, req.AsOf)
	}), nil
}

func (uc *RecalculateCreditScoresUseCase) rescore(ctx context.Context, c model.Customer, asOf time.Time) (string, error) {
	profile, err := uc.profiles.load(ctx, c, asOf)
	if err != nil {
		return OutcomeFailed, err
	}

	now := time.Now().UTC()
	assessment := uc.engine.CalculateCreditScore(profile)
	updated, _ := c.ApplyCreditScore(assessment.Score, now)
	if uc.adjustLimits {
		updated, _ = updated.ApplyCreditLimit(uc.engine.RecommendedCreditLimit(profile, assessment.Score), now)
	}

	if err := uc.customers.Save(ctx, updated); err != nil {
		return OutcomeFailed, fmt.Errorf("save customer: %w", err)
	}
	if evts := updated.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, evts...); err != nil {
			uc.logger.WarnContext(ctx, "failed to publish customer events", "customer_id", c.ID(), "error", err)
		}
	}
	return OutcomeProcessed, nil
}

// profileLoader assembles a CreditProfile from the repositories.
type profileLoader struct {
	loanRepo port.LoanRepository
	payments port.PaymentRepository
}

func (p *profileLoader) load(ctx context.Context, c model.Customer, asOf time.Time) (service.CreditProfile, error) {
	loans, err := p.loanRepo.FindByCustomerID(ctx, c.ID())
	if err != nil {
		return service.CreditProfile{}, fmt.Errorf("find loans: %w", err)
	}
	payments, err := p.payments.FindByCustomerID(ctx, c.ID())
	if err != nil {
		return service.CreditProfile{}, fmt.Errorf("find payments: %w", err)
	}
	return service.CreditProfile{Customer: c, Loans: loans, Payments: payments, AsOf: asOf}, nil
}
