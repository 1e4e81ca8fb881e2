package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	aggregateLoan     = "Loan"
	aggregateCustomer = "Customer"
)

// ---------------------------------------------------------------------------
// Loan lifecycle events
// ---------------------------------------------------------------------------

// LoanOpened is raised when a loan is issued against a pledged item.
type LoanOpened struct {
	events.BaseEvent
	CustomerID  string          `json:"customer_id"`
	ItemID      string          `json:"item_id"`
	LoanAmount  decimal.Decimal `json:"loan_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     time.Time       `json:"due_date"`
}

func NewLoanOpened(loanID, branchID, customerID, itemID string, amount, total decimal.Decimal, dueDate, now time.Time) LoanOpened {
	return LoanOpened{
		BaseEvent:   events.NewBaseEvent("loanengine.loan.opened", loanID, aggregateLoan, branchID, now),
		CustomerID:  customerID,
		ItemID:      itemID,
		LoanAmount:  amount,
		TotalAmount: total,
		DueDate:     dueDate,
	}
}

// LoanInterestCharged is raised when a daily overdue-interest charge is posted.
type LoanInterestCharged struct {
	events.BaseEvent
	ChargeDate       time.Time       `json:"charge_date"`
	DaysOverdue      int             `json:"days_overdue"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	DailyInterest    decimal.Decimal `json:"daily_interest"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

func NewLoanInterestCharged(
	loanID, branchID string,
	chargeDate time.Time, daysOverdue int,
	rate, daily, balance decimal.Decimal,
	now time.Time,
) LoanInterestCharged {
	return LoanInterestCharged{
		BaseEvent:        events.NewBaseEvent("loanengine.loan.interest_charged", loanID, aggregateLoan, branchID, now),
		ChargeDate:       chargeDate,
		DaysOverdue:      daysOverdue,
		InterestRate:     rate,
		DailyInterest:    daily,
		BalanceRemaining: balance,
	}
}

// LoanMarkedOverdue is raised when an installment falls behind on an active loan.
type LoanMarkedOverdue struct {
	events.BaseEvent
	Reason string `json:"reason"`
}

func NewLoanMarkedOverdue(loanID, branchID, reason string, now time.Time) LoanMarkedOverdue {
	return LoanMarkedOverdue{
		BaseEvent: events.NewBaseEvent("loanengine.loan.marked_overdue", loanID, aggregateLoan, branchID, now),
		Reason:    reason,
	}
}

// LoanBalanceReconciled is raised after the balance is recomputed from payments.
type LoanBalanceReconciled struct {
	events.BaseEvent
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
	Status           string          `json:"status"`
}

func NewLoanBalanceReconciled(loanID, branchID string, paid, balance decimal.Decimal, status string, now time.Time) LoanBalanceReconciled {
	return LoanBalanceReconciled{
		BaseEvent:        events.NewBaseEvent("loanengine.loan.balance_reconciled", loanID, aggregateLoan, branchID, now),
		AmountPaid:       paid,
		BalanceRemaining: balance,
		Status:           status,
	}
}

// LoanPaidOff is raised when the balance reaches zero.
type LoanPaidOff struct {
	events.BaseEvent
	ItemID string `json:"item_id"`
}

func NewLoanPaidOff(loanID, branchID, itemID string, now time.Time) LoanPaidOff {
	return LoanPaidOff{
		BaseEvent: events.NewBaseEvent("loanengine.loan.paid_off", loanID, aggregateLoan, branchID, now),
		ItemID:    itemID,
	}
}

// LoanReopened is raised when a reversed payment takes a paid loan back to
// active or overdue.
type LoanReopened struct {
	events.BaseEvent
	Status           string          `json:"status"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

func NewLoanReopened(loanID, branchID, status string, balance decimal.Decimal, now time.Time) LoanReopened {
	return LoanReopened{
		BaseEvent:        events.NewBaseEvent("loanengine.loan.reopened", loanID, aggregateLoan, branchID, now),
		Status:           status,
		BalanceRemaining: balance,
	}
}

// LoanForfeited is raised when the collateral passes to the business.
type LoanForfeited struct {
	events.BaseEvent
	ItemID           string          `json:"item_id"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

func NewLoanForfeited(loanID, branchID, itemID string, balance decimal.Decimal, now time.Time) LoanForfeited {
	return LoanForfeited{
		BaseEvent:        events.NewBaseEvent("loanengine.loan.forfeited", loanID, aggregateLoan, branchID, now),
		ItemID:           itemID,
		BalanceRemaining: balance,
	}
}

// ---------------------------------------------------------------------------
// Minimum payment events
// ---------------------------------------------------------------------------

// LoanFlaggedAtRisk is raised when a minimum payment is first found overdue.
type LoanFlaggedAtRisk struct {
	events.BaseEvent
	MissedDueDate      time.Time `json:"missed_due_date"`
	GracePeriodEndDate time.Time `json:"grace_period_end_date"`
}

func NewLoanFlaggedAtRisk(loanID, branchID string, missed, graceEnd, now time.Time) LoanFlaggedAtRisk {
	return LoanFlaggedAtRisk{
		BaseEvent:          events.NewBaseEvent("loanengine.loan.flagged_at_risk", loanID, aggregateLoan, branchID, now),
		MissedDueDate:      missed,
		GracePeriodEndDate: graceEnd,
	}
}

// MinimumPaymentEscalated is raised when a grace period lapses without payment.
type MinimumPaymentEscalated struct {
	events.BaseEvent
	ConsecutiveMissedPayments int       `json:"consecutive_missed_payments"`
	GracePeriodEndDate        time.Time `json:"grace_period_end_date"`
}

func NewMinimumPaymentEscalated(loanID, branchID string, missed int, graceEnd, now time.Time) MinimumPaymentEscalated {
	return MinimumPaymentEscalated{
		BaseEvent:                 events.NewBaseEvent("loanengine.loan.minimum_payment_escalated", loanID, aggregateLoan, branchID, now),
		ConsecutiveMissedPayments: missed,
		GracePeriodEndDate:        graceEnd,
	}
}

// MinimumPaymentRecorded is raised when a qualifying minimum payment clears
// the at-risk flag.
type MinimumPaymentRecorded struct {
	events.BaseEvent
	PaidOn                 time.Time `json:"paid_on"`
	NextMinimumPaymentDate time.Time `json:"next_minimum_payment_date"`
}

func NewMinimumPaymentRecorded(loanID, branchID string, paidOn, next, now time.Time) MinimumPaymentRecorded {
	return MinimumPaymentRecorded{
		BaseEvent:              events.NewBaseEvent("loanengine.loan.minimum_payment_recorded", loanID, aggregateLoan, branchID, now),
		PaidOn:                 paidOn,
		NextMinimumPaymentDate: next,
	}
}

// ---------------------------------------------------------------------------
// Customer events
// ---------------------------------------------------------------------------

// CreditScoreRecalculated is raised when the weekly scoring run changes a
// customer's score or rating.
type CreditScoreRecalculated struct {
	events.BaseEvent
	Score  *int   `json:"score"`
	Rating string `json:"rating,omitempty"`
}

func NewCreditScoreRecalculated(customerID, branchID string, score *int, rating string, now time.Time) CreditScoreRecalculated {
	return CreditScoreRecalculated{
		BaseEvent: events.NewBaseEvent("loanengine.customer.credit_score_recalculated", customerID, aggregateCustomer, branchID, now),
		Score:     score,
		Rating:    rating,
	}
}

// CreditLimitAdjusted is raised when the weekly scoring run moves a
// customer's credit limit to the recommended amount.
type CreditLimitAdjusted struct {
	events.BaseEvent
	PreviousLimit decimal.Decimal `json:"previous_limit"`
	Limit         decimal.Decimal `json:"limit"`
}

func NewCreditLimitAdjusted(customerID, branchID string, previous, limit decimal.Decimal, now time.Time) CreditLimitAdjusted {
	return CreditLimitAdjusted{
		BaseEvent:     events.NewBaseEvent("loanengine.customer.credit_limit_adjusted", customerID, aggregateCustomer, branchID, now),
		PreviousLimit: previous,
		Limit:         limit,
	}
}
