package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/money"
)

// AccrualResult is the outcome of charging one day of overdue interest.
type AccrualResult struct {
	Loan        model.Loan
	Charge      model.InterestCharge
	DaysOverdue int
	Intents     []model.NotificationIntent
}

// InterestAccrualEngine computes daily overdue-interest charges.
type InterestAccrualEngine struct {
	includeOverdue bool
}

// NewInterestAccrualEngine creates an engine. With includeOverdue set, loans
// already in OVERDUE keep accruing daily; otherwise only ACTIVE loans past
// their due date are charged.
func NewInterestAccrualEngine(includeOverdue bool) *InterestAccrualEngine {
	return &InterestAccrualEngine{includeOverdue: includeOverdue}
}

// IncludeOverdue reports whether OVERDUE loans are accrual candidates.
func (e *InterestAccrualEngine) IncludeOverdue() bool { return e.includeOverdue }

// IsCandidate reports whether the loan should be charged for today.
func (e *InterestAccrualEngine) IsCandidate(loan model.Loan, today time.Time) bool {
	status := loan.Status()
	eligible := status.Equal(valueobject.LoanStatusActive) ||
		(e.includeOverdue && status.Equal(valueobject.LoanStatusOverdue))
	return eligible &&
		money.Date(loan.DueDate()).Before(money.Date(today)) &&
		loan.BalanceRemaining().IsPositive()
}

// DailyInterest is balance × (rate / 100) / 30 rounded to cents, where rate
// is the overdue rate when set and the normal monthly rate otherwise.
func (e *InterestAccrualEngine) DailyInterest(loan model.Loan) decimal.Decimal {
	return money.Cents(money.PercentOf(loan.BalanceRemaining(), loan.OverdueRate()).Div(money.Thirty))
}

// Accrue charges one day of overdue interest for today. The caller is
// responsible for the once-per-day guard.
func (e *InterestAccrualEngine) Accrue(loan model.Loan, today, now time.Time) (AccrualResult, error) {
	if !e.IsCandidate(loan, today) {
		return AccrualResult{}, fmt.Errorf("loan %s is not eligible for overdue interest", loan.ID())
	}

	chargeDate := money.Date(today)
	daily := e.DailyInterest(loan)
	days := money.DaysBetween(loan.DueDate(), chargeDate)

	charge := model.InterestCharge{
		ID:              uuid.New().String(),
		LoanID:          loan.ID(),
		ChargeDate:      chargeDate,
		DaysOverdue:     days,
		InterestRate:    loan.OverdueRate(),
		PrincipalAmount: loan.BalanceRemaining(),
		InterestAmount:  daily,
		IsApplied:       true,
		CreatedAt:       now,
	}

	charged, err := loan.ChargeInterest(charge, now)
	if err != nil {
		return AccrualResult{}, fmt.Errorf("charge loan %s: %w", loan.ID(), err)
	}

	return AccrualResult{
		Loan:        charged,
		Charge:      charge,
		DaysOverdue: days,
		Intents:     model.OverdueInterestIntents(charged, days, daily),
	}, nil
}
