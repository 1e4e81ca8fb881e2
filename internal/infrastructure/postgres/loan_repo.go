package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	pgpkg "github.com/pawnline/loanengine/pkg/postgres"
)

var _ port.LoanRepository = (*LoanRepo)(nil)

const loanColumns = `
	id, branch_id, customer_id, item_id,
	loan_amount, interest_rate, interest_rate_overdue, interest_amount,
	total_amount, amount_paid, balance_remaining,
	status, loan_date, due_date, paid_date,
	requires_minimum_payment, minimum_monthly_payment,
	next_minimum_payment_date, last_minimum_payment_date,
	is_at_risk, grace_period_end_date, grace_period_days, consecutive_missed_payments,
	version, created_at, updated_at`

const upsertLoanSQL = `
	INSERT INTO loans (` + loanColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
	ON CONFLICT (id) DO UPDATE SET
		interest_amount             = EXCLUDED.interest_amount,
		total_amount                = EXCLUDED.total_amount,
		amount_paid                 = EXCLUDED.amount_paid,
		balance_remaining           = EXCLUDED.balance_remaining,
		status                      = EXCLUDED.status,
		paid_date                   = EXCLUDED.paid_date,
		next_minimum_payment_date   = EXCLUDED.next_minimum_payment_date,
		last_minimum_payment_date   = EXCLUDED.last_minimum_payment_date,
		is_at_risk                  = EXCLUDED.is_at_risk,
		grace_period_end_date       = EXCLUDED.grace_period_end_date,
		consecutive_missed_payments = EXCLUDED.consecutive_missed_payments,
		version                     = loans.version + 1,
		updated_at                  = EXCLUDED.updated_at
	WHERE loans.version = $24
`

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRepo creates a new PostgreSQL-backed loan repository.
func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

// Save persists a loan and, for a freshly opened loan, its installment plan.
func (r *LoanRepo) Save(ctx context.Context, loan model.Loan) error {
	return pgpkg.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		return saveLoan(ctx, tx, loan)
	})
}

// SaveWithItem persists the loan and its collateral atomically.
func (r *LoanRepo) SaveWithItem(ctx context.Context, loan model.Loan, item model.Item) error {
	return pgpkg.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := saveLoan(ctx, tx, loan); err != nil {
			return err
		}
		return saveItem(ctx, tx, item)
	})
}

func saveLoan(ctx context.Context, q pgpkg.Querier, loan model.Loan) error {
	a := loan.Attributes()
	tag, err := q.Exec(ctx, upsertLoanSQL,
		a.ID, a.BranchID, a.CustomerID, a.ItemID,
		a.LoanAmount, a.InterestRate, a.InterestRateOverdue, a.InterestAmount,
		a.TotalAmount, a.AmountPaid, a.BalanceRemaining,
		a.Status.String(), a.LoanDate, a.DueDate, a.PaidDate,
		a.RequiresMinimumPayment, a.MinimumMonthlyPayment,
		a.NextMinimumPaymentDate, a.LastMinimumPaymentDate,
		a.IsAtRisk, a.GracePeriodEndDate, a.GracePeriodDays, a.ConsecutiveMissedPayments,
		a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("loan %s: %w", a.ID, model.ErrConcurrentUpdate)
	}

	for _, inst := range loan.Installments() {
		if err := insertInstallment(ctx, q, inst); err != nil {
			return err
		}
	}
	return nil
}

// FindByID retrieves a loan by ID.
func (r *LoanRepo) FindByID(ctx context.Context, id string) (model.Loan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if err != nil {
		return model.Loan{}, notFound(err, "loan", id)
	}
	return loan, nil
}

// FindByCustomerID retrieves all loans of a customer, newest first.
func (r *LoanRepo) FindByCustomerID(ctx context.Context, customerID string) ([]model.Loan, error) {
	return r.query(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE customer_id = $1
		ORDER BY loan_date DESC, created_at DESC`, customerID)
}

// FindAccrualCandidates returns loans past their due date with money owed.
func (r *LoanRepo) FindAccrualCandidates(ctx context.Context, scope port.Scope, asOf time.Time, includeOverdue bool) ([]model.Loan, error) {
	statuses := []string{valueobject.LoanStatusActive.String()}
	if includeOverdue {
		statuses = append(statuses, valueobject.LoanStatusOverdue.String())
	}
	return r.query(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE status = ANY($1)
		  AND due_date < $2
		  AND balance_remaining > 0
		  AND ($3 = '' OR branch_id::text = $3)
		ORDER BY due_date, id`, statuses, asOf, scope.BranchID)
}

// FindMinimumPaymentCandidates returns open loans tracked for minimum payments.
func (r *LoanRepo) FindMinimumPaymentCandidates(ctx context.Context, scope port.Scope) ([]model.Loan, error) {
	return r.query(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE requires_minimum_payment
		  AND status IN ('active', 'overdue')
		  AND next_minimum_payment_date IS NOT NULL
		  AND balance_remaining > 0
		  AND ($1 = '' OR branch_id::text = $1)
		ORDER BY next_minimum_payment_date, id`, scope.BranchID)
}

func (r *LoanRepo) query(ctx context.Context, sql string, args ...any) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func scanLoan(s scannable) (model.Loan, error) {
	var (
		a         model.LoanAttributes
		statusStr string
	)
	err := s.Scan(
		&a.ID, &a.BranchID, &a.CustomerID, &a.ItemID,
		&a.LoanAmount, &a.InterestRate, &a.InterestRateOverdue, &a.InterestAmount,
		&a.TotalAmount, &a.AmountPaid, &a.BalanceRemaining,
		&statusStr, &a.LoanDate, &a.DueDate, &a.PaidDate,
		&a.RequiresMinimumPayment, &a.MinimumMonthlyPayment,
		&a.NextMinimumPaymentDate, &a.LastMinimumPaymentDate,
		&a.IsAtRisk, &a.GracePeriodEndDate, &a.GracePeriodDays, &a.ConsecutiveMissedPayments,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Loan{}, fmt.Errorf("scan loan: %w", err)
	}

	status, err := valueobject.NewLoanStatus(statusStr)
	if err != nil {
		return model.Loan{}, fmt.Errorf("parse loan status: %w", err)
	}
	a.Status = status
	return model.ReconstructLoan(a), nil
}
