package service

import (
	"time"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/money"
)

// RiskAction is what a risk check did to a loan.
type RiskAction string

const (
	RiskUnchanged RiskAction = "unchanged"
	RiskFlagged   RiskAction = "flagged"
	RiskEscalated RiskAction = "escalated"
)

// RiskResult is the outcome of checking one loan.
type RiskResult struct {
	Loan    model.Loan
	Action  RiskAction
	Intents []model.NotificationIntent
}

// MinimumPaymentRiskEngine tracks monthly minimum-payment compliance.
//
//	NOT_AT_RISK --(payment overdue)--> AT_RISK, grace period opens
//	AT_RISK --(grace expired)--> AT_RISK, missed counter +1, grace reopens
//	AT_RISK --(qualifying payment)--> NOT_AT_RISK (Loan.RecordMinimumPayment)
type MinimumPaymentRiskEngine struct{}

func NewMinimumPaymentRiskEngine() *MinimumPaymentRiskEngine {
	return &MinimumPaymentRiskEngine{}
}

// IsCandidate reports whether the loan is subject to minimum-payment tracking.
func (e *MinimumPaymentRiskEngine) IsCandidate(loan model.Loan) bool {
	status := loan.Status()
	return loan.RequiresMinimumPayment() &&
		(status.Equal(valueobject.LoanStatusActive) || status.Equal(valueobject.LoanStatusOverdue)) &&
		loan.NextMinimumPaymentDate() != nil &&
		loan.BalanceRemaining().IsPositive()
}

// IsPaymentOverdue reports whether the current cycle's minimum payment is
// past due and unpaid. A payment dated on or after the cycle start counts.
func (e *MinimumPaymentRiskEngine) IsPaymentOverdue(loan model.Loan, today time.Time) bool {
	next := loan.NextMinimumPaymentDate()
	if next == nil || !money.Date(*next).Before(money.Date(today)) {
		return false
	}
	last := loan.LastMinimumPaymentDate()
	cycleStart := money.Date(*next).AddDate(0, -1, 0)
	return last == nil || money.Date(*last).Before(cycleStart)
}

// Check applies at most one transition to the loan. Loans that do not meet
// a trigger are returned untouched with RiskUnchanged.
func (e *MinimumPaymentRiskEngine) Check(loan model.Loan, today, now time.Time) (RiskResult, error) {
	unchanged := RiskResult{Loan: loan, Action: RiskUnchanged}
	if !e.IsCandidate(loan) {
		return unchanged, nil
	}

	if !loan.IsAtRisk() {
		if !e.IsPaymentOverdue(loan, today) {
			return unchanged, nil
		}
		flagged, err := loan.FlagAtRisk(today, now)
		if err != nil {
			return unchanged, err
		}
		return RiskResult{
			Loan:    flagged,
			Action:  RiskFlagged,
			Intents: []model.NotificationIntent{model.AtRiskIntent(flagged)},
		}, nil
	}

	graceEnd := loan.GracePeriodEndDate()
	if graceEnd == nil || !money.Date(today).After(money.Date(*graceEnd)) {
		return unchanged, nil
	}
	escalated, err := loan.EscalateMissedPayment(today, now)
	if err != nil {
		return unchanged, err
	}
	return RiskResult{
		Loan:    escalated,
		Action:  RiskEscalated,
		Intents: []model.NotificationIntent{model.EscalationIntent(escalated)},
	}, nil
}
