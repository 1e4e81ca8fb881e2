package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Batch jobs
// ---------------------------------------------------------------------------

// JobRequest parameterises a batch run. A zero AsOf means "today"; an empty
// BranchID covers every branch.
type JobRequest struct {
	BranchID string    `json:"branch_id,omitempty"`
	AsOf     time.Time `json:"as_of"`
}

// JobSummary reports the outcome counts of one batch run.
type JobSummary struct {
	Job        string    `json:"job"`
	BranchID   string    `json:"branch_id,omitempty"`
	AsOf       time.Time `json:"as_of"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// OpenLoanRequest carries the data needed to issue a pawn loan.
type OpenLoanRequest struct {
	BranchID            string           `json:"branch_id"`
	CustomerID          string           `json:"customer_id"`
	ItemID              string           `json:"item_id"`
	LoanAmount          decimal.Decimal  `json:"loan_amount"`
	InterestRate        decimal.Decimal  `json:"interest_rate"`
	InterestRateOverdue *decimal.Decimal `json:"interest_rate_overdue,omitempty"`
	TermMonths          int              `json:"term_months"`
	LoanDate            time.Time        `json:"loan_date"`

	RequiresMinimumPayment bool            `json:"requires_minimum_payment"`
	MinimumMonthlyPayment  decimal.Decimal `json:"minimum_monthly_payment"`
	GracePeriodDays        int             `json:"grace_period_days"`
	WithInstallments       bool            `json:"with_installments"`
}

// ReconcileLoanRequest identifies the loan whose payments changed.
type ReconcileLoanRequest struct {
	LoanID string `json:"loan_id"`
}

// RecordMinimumPaymentRequest records a minimum payment. A zero Amount skips
// the qualifying-amount check.
type RecordMinimumPaymentRequest struct {
	LoanID string          `json:"loan_id"`
	PaidOn time.Time       `json:"paid_on"`
	Amount decimal.Decimal `json:"amount"`
}

// ForfeitLoanRequest identifies a loan whose collateral is taken.
type ForfeitLoanRequest struct {
	LoanID string `json:"loan_id"`
}

// GetCreditProfileRequest identifies a customer to score.
type GetCreditProfileRequest struct {
	CustomerID string    `json:"customer_id"`
	AsOf       time.Time `json:"as_of"`
}

// PaymentEvent is a payment mutation published by the cashier module.
type PaymentEvent struct {
	PaymentID   string          `json:"payment_id"`
	LoanID      string          `json:"loan_id"`
	Action      string          `json:"action"` // created, updated, deleted, restored
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
}

// Payment event actions.
const (
	PaymentCreated  = "created"
	PaymentUpdated  = "updated"
	PaymentDeleted  = "deleted"
	PaymentRestored = "restored"
)

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// LoanResponse is the external representation of a loan.
type LoanResponse struct {
	ID                        string          `json:"id"`
	BranchID                  string          `json:"branch_id"`
	CustomerID                string          `json:"customer_id"`
	ItemID                    string          `json:"item_id"`
	LoanAmount                decimal.Decimal `json:"loan_amount"`
	InterestAmount            decimal.Decimal `json:"interest_amount"`
	TotalAmount               decimal.Decimal `json:"total_amount"`
	AmountPaid                decimal.Decimal `json:"amount_paid"`
	BalanceRemaining          decimal.Decimal `json:"balance_remaining"`
	Status                    string          `json:"status"`
	DueDate                   time.Time       `json:"due_date"`
	PaidDate                  *time.Time      `json:"paid_date,omitempty"`
	NextMinimumPaymentDate    *time.Time      `json:"next_minimum_payment_date,omitempty"`
	IsAtRisk                  bool            `json:"is_at_risk"`
	ConsecutiveMissedPayments int             `json:"consecutive_missed_payments"`
	Installments              int             `json:"installments,omitempty"`
}

// ReconcileLoanResponse reports the recomputed figures of a loan.
type ReconcileLoanResponse struct {
	LoanID           string          `json:"loan_id"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
	PreviousStatus   string          `json:"previous_status"`
	Status           string          `json:"status"`
	ItemStatus       string          `json:"item_status,omitempty"`
}

// ScoreFactorResponse is one component of a credit score.
type ScoreFactorResponse struct {
	Name   string          `json:"name"`
	Points decimal.Decimal `json:"points"`
}

// CreditProfileResponse is a customer's freshly computed credit standing.
type CreditProfileResponse struct {
	CustomerID             string                `json:"customer_id"`
	Score                  *int                  `json:"score"`
	Rating                 string                `json:"rating,omitempty"`
	Factors                []ScoreFactorResponse `json:"factors,omitempty"`
	StoredScore            *int                  `json:"stored_score"`
	CreditLimit            decimal.Decimal       `json:"credit_limit"`
	RecommendedCreditLimit decimal.Decimal       `json:"recommended_credit_limit"`
}

// ListJobRunsRequest asks for the latest runs of one job.
type ListJobRunsRequest struct {
	Job   string `json:"job"`
	Limit int    `json:"limit"`
}
