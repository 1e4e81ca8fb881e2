package model

import (
	"github.com/shopspring/decimal"
)

// NotificationKind tags a NotificationIntent. Delivery adapters select their
// template by kind.
type NotificationKind string

const (
	NotifyOverdueInterestAdmin    NotificationKind = "overdue_interest_admin"
	NotifyOverdueInterestCustomer NotificationKind = "overdue_interest_customer"
	NotifyMinimumPaymentAtRisk    NotificationKind = "minimum_payment_at_risk"
	NotifyMinimumPaymentEscalated NotificationKind = "minimum_payment_escalated"
)

// RecipientRole says who should receive a notification.
type RecipientRole string

const (
	RecipientAdmin    RecipientRole = "admin"
	RecipientCustomer RecipientRole = "customer"
)

// Recipient addresses a notification. For admins ID is the branch.
type Recipient struct {
	Role RecipientRole `json:"role"`
	ID   string        `json:"id"`
}

// NotificationIntent is a decision to notify someone. Delivery happens
// outside the engine.
type NotificationIntent struct {
	Kind      NotificationKind  `json:"kind"`
	Recipient Recipient         `json:"recipient"`
	LoanID    string            `json:"loan_id"`
	Payload   map[string]string `json:"payload"`
}

// OverdueInterestIntents builds the admin and customer intents for one
// posted interest charge.
func OverdueInterestIntents(loan Loan, daysOverdue int, daily decimal.Decimal) []NotificationIntent {
	payload := map[string]string{
		"days_overdue":      itoa(daysOverdue),
		"daily_interest":    daily.StringFixed(2),
		"balance_remaining": loan.BalanceRemaining().StringFixed(2),
		"due_date":          loan.DueDate().Format("2006-01-02"),
	}
	return []NotificationIntent{
		{
			Kind:      NotifyOverdueInterestAdmin,
			Recipient: Recipient{Role: RecipientAdmin, ID: loan.BranchID()},
			LoanID:    loan.ID(),
			Payload:   payload,
		},
		{
			Kind:      NotifyOverdueInterestCustomer,
			Recipient: Recipient{Role: RecipientCustomer, ID: loan.CustomerID()},
			LoanID:    loan.ID(),
			Payload:   clonePayload(payload),
		},
	}
}

// AtRiskIntent tells the customer a minimum payment was missed.
func AtRiskIntent(loan Loan) NotificationIntent {
	return NotificationIntent{
		Kind:      NotifyMinimumPaymentAtRisk,
		Recipient: Recipient{Role: RecipientCustomer, ID: loan.CustomerID()},
		LoanID:    loan.ID(),
		Payload: map[string]string{
			"minimum_monthly_payment": loan.MinimumMonthlyPayment().StringFixed(2),
			"grace_period_end_date":   formatDate(loan.GracePeriodEndDate()),
		},
	}
}

// EscalationIntent tells branch staff a grace period lapsed.
func EscalationIntent(loan Loan) NotificationIntent {
	return NotificationIntent{
		Kind:      NotifyMinimumPaymentEscalated,
		Recipient: Recipient{Role: RecipientAdmin, ID: loan.BranchID()},
		LoanID:    loan.ID(),
		Payload: map[string]string{
			"consecutive_missed_payments": itoa(loan.ConsecutiveMissedPayments()),
			"grace_period_end_date":       formatDate(loan.GracePeriodEndDate()),
			"customer_id":                 loan.CustomerID(),
		},
	}
}

func clonePayload(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
