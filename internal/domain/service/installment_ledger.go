package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	"github.com/pawnline/loanengine/pkg/money"
)

// LateFeePolicy configures installment late fees.
type LateFeePolicy struct {
	// CapRatio limits the fee to CapRatio × remaining. Zero means uncapped.
	CapRatio decimal.Decimal
}

// InstallmentLedger recomputes installment status and late fees.
type InstallmentLedger struct {
	policy LateFeePolicy
}

func NewInstallmentLedger(policy LateFeePolicy) *InstallmentLedger {
	return &InstallmentLedger{policy: policy}
}

// LateFee applies the daily overdue-interest rule to the unpaid part of an
// installment: remaining × (rate / 100) / 30 × days, rounded to cents. It is
// zero when nothing is owed or nothing is late, and grows with days overdue.
func (l *InstallmentLedger) LateFee(remaining, monthlyRate decimal.Decimal, daysOverdue int) decimal.Decimal {
	if daysOverdue <= 0 || !remaining.IsPositive() || !monthlyRate.IsPositive() {
		return decimal.Zero
	}
	fee := money.PercentOf(remaining, monthlyRate).Div(money.Thirty).Mul(decimal.NewFromInt(int64(daysOverdue)))
	if l.policy.CapRatio.IsPositive() {
		fee = money.Min(fee, remaining.Mul(l.policy.CapRatio))
	}
	return money.Cents(fee)
}

// StatusFor derives an installment's status from what has been paid and
// whether it is past due.
func StatusFor(inst model.Installment, asOf time.Time) valueobject.InstallmentStatus {
	switch {
	case inst.PaidAmount.GreaterThanOrEqual(inst.Amount):
		return valueobject.InstallmentStatusPaid
	case inst.PaidAmount.IsPositive():
		return valueobject.InstallmentStatusPartiallyPaid
	case money.Date(inst.DueDate).Before(money.Date(asOf)):
		return valueobject.InstallmentStatusOverdue
	default:
		return valueobject.InstallmentStatusPending
	}
}

// Evaluate recomputes days overdue, late fee, balance and status for inst
// as of asOf. The bool reports a transition into OVERDUE.
func (l *InstallmentLedger) Evaluate(inst model.Installment, loan model.Loan, asOf, now time.Time) (model.Installment, bool) {
	next := inst
	days := money.DaysBetween(inst.DueDate, asOf)
	if days < 0 {
		days = 0
	}
	remaining := inst.Remaining()

	next.DaysOverdue = days
	next.LateFee = l.LateFee(remaining, loan.OverdueRate(), days)
	next.BalanceRemaining = remaining.Add(next.LateFee)
	next.Status = StatusFor(inst, asOf)
	next.UpdatedAt = now

	becameOverdue := next.Status.Equal(valueobject.InstallmentStatusOverdue) &&
		!inst.Status.Equal(valueobject.InstallmentStatusOverdue)
	return next, becameOverdue
}
