package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	pgpkg "github.com/pawnline/loanengine/pkg/postgres"
)

var _ port.AccrualStore = (*InterestChargeRepo)(nil)

// InterestChargeRepo posts daily interest charges. The UNIQUE (loan_id,
// charge_date) constraint is the final guard against double charging.
type InterestChargeRepo struct {
	pool *pgxpool.Pool
}

// NewInterestChargeRepo creates a new PostgreSQL-backed accrual store.
func NewInterestChargeRepo(pool *pgxpool.Pool) *InterestChargeRepo {
	return &InterestChargeRepo{pool: pool}
}

// ExistsForDate reports whether the loan was already charged on chargeDate.
func (r *InterestChargeRepo) ExistsForDate(ctx context.Context, loanID string, chargeDate time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM interest_charges WHERE loan_id = $1 AND charge_date = $2)`,
		loanID, chargeDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query interest charge: %w", err)
	}
	return exists, nil
}

// PostInterestCharge inserts the charge and saves the charged loan in one
// transaction. A conflicting charge rolls the loan update back.
func (r *InterestChargeRepo) PostInterestCharge(ctx context.Context, loan model.Loan, c model.InterestCharge) (bool, error) {
	err := pgpkg.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO interest_charges (
				id, loan_id, charge_date, days_overdue, interest_rate,
				principal_amount, interest_amount, is_applied, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (loan_id, charge_date) DO NOTHING`,
			c.ID, c.LoanID, c.ChargeDate, c.DaysOverdue, c.InterestRate,
			c.PrincipalAmount, c.InterestAmount, c.IsApplied, c.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert interest charge: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrChargeExists
		}
		return saveLoan(ctx, tx, loan)
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, model.ErrChargeExists), pgpkg.IsUniqueViolation(err):
		return false, nil
	default:
		return false, err
	}
}
