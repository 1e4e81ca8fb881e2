package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

var _ port.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo reads the cashier's payments table. Soft-deleted rows are
// invisible to the engine.
type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) FindByLoanID(ctx context.Context, loanID string) ([]model.Payment, error) {
	return r.query(ctx, `
		SELECT id, loan_id, customer_id, amount, payment_date, status
		FROM payments
		WHERE loan_id = $1 AND deleted_at IS NULL
		ORDER BY payment_date, id`, loanID)
}

func (r *PaymentRepo) FindByCustomerID(ctx context.Context, customerID string) ([]model.Payment, error) {
	return r.query(ctx, `
		SELECT id, loan_id, customer_id, amount, payment_date, status
		FROM payments
		WHERE customer_id = $1 AND deleted_at IS NULL
		ORDER BY payment_date, id`, customerID)
}

func (r *PaymentRepo) query(ctx context.Context, sql string, args ...any) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var (
			p         model.Payment
			statusStr string
		)
		if err := rows.Scan(&p.ID, &p.LoanID, &p.CustomerID, &p.Amount, &p.PaymentDate, &statusStr); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		status, err := valueobject.NewPaymentStatus(statusStr)
		if err != nil {
			return nil, fmt.Errorf("parse payment status: %w", err)
		}
		p.Status = status
		out = append(out, p)
	}
	return out, rows.Err()
}
