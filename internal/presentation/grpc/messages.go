package grpc

// Amounts travel as decimal strings and dates as YYYY-MM-DD.

type RunJobRequest struct {
	Job      string `json:"job"`
	BranchID string `json:"branch_id"`
	AsOf     string `json:"as_of"`
}

type RunJobResponse struct {
	Summary *JobSummaryMsg `json:"summary"`
}

type ListJobRunsRequest struct {
	Job   string `json:"job"`
	Limit int    `json:"limit"`
}

type ListJobRunsResponse struct {
	Runs []*JobSummaryMsg `json:"runs"`
}

type JobSummaryMsg struct {
	Job        string `json:"job"`
	BranchID   string `json:"branch_id,omitempty"`
	AsOf       string `json:"as_of"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

type OpenLoanRequest struct {
	BranchID               string `json:"branch_id"`
	CustomerID             string `json:"customer_id"`
	ItemID                 string `json:"item_id"`
	LoanAmount             string `json:"loan_amount"`
	InterestRate           string `json:"interest_rate"`
	InterestRateOverdue    string `json:"interest_rate_overdue"`
	TermMonths             int    `json:"term_months"`
	LoanDate               string `json:"loan_date"`
	RequiresMinimumPayment bool   `json:"requires_minimum_payment"`
	MinimumMonthlyPayment  string `json:"minimum_monthly_payment"`
	GracePeriodDays        int    `json:"grace_period_days"`
	WithInstallments       bool   `json:"with_installments"`
}

type ReconcileLoanRequest struct {
	LoanID string `json:"loan_id"`
}

type ReconcileLoanResponse struct {
	LoanID           string `json:"loan_id"`
	AmountPaid       string `json:"amount_paid"`
	BalanceRemaining string `json:"balance_remaining"`
	PreviousStatus   string `json:"previous_status"`
	Status           string `json:"status"`
	ItemStatus       string `json:"item_status,omitempty"`
}

type GetCreditProfileRequest struct {
	CustomerID string `json:"customer_id"`
	AsOf       string `json:"as_of"`
}

type ScoreFactorMsg struct {
	Name   string `json:"name"`
	Points string `json:"points"`
}

type CreditProfileMsg struct {
	CustomerID             string            `json:"customer_id"`
	Score                  *int              `json:"score"`
	Rating                 string            `json:"rating,omitempty"`
	Factors                []*ScoreFactorMsg `json:"factors,omitempty"`
	StoredScore            *int              `json:"stored_score"`
	CreditLimit            string            `json:"credit_limit"`
	RecommendedCreditLimit string            `json:"recommended_credit_limit"`
}

type RecordMinimumPaymentRequest struct {
	LoanID string `json:"loan_id"`
	PaidOn string `json:"paid_on"`
	Amount string `json:"amount"`
}

type ForfeitLoanRequest struct {
	LoanID string `json:"loan_id"`
}

type LoanMsg struct {
	ID                        string `json:"id"`
	BranchID                  string `json:"branch_id"`
	CustomerID                string `json:"customer_id"`
	ItemID                    string `json:"item_id"`
	LoanAmount                string `json:"loan_amount"`
	InterestAmount            string `json:"interest_amount"`
	TotalAmount               string `json:"total_amount"`
	AmountPaid                string `json:"amount_paid"`
	BalanceRemaining          string `json:"balance_remaining"`
	Status                    string `json:"status"`
	DueDate                   string `json:"due_date"`
	PaidDate                  string `json:"paid_date,omitempty"`
	NextMinimumPaymentDate    string `json:"next_minimum_payment_date,omitempty"`
	IsAtRisk                  bool   `json:"is_at_risk"`
	ConsecutiveMissedPayments int    `json:"consecutive_missed_payments"`
	Installments              int    `json:"installments,omitempty"`
}
