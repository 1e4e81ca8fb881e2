package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	pgpkg "github.com/pawnline/loanengine/pkg/postgres"
)

var _ port.InstallmentRepository = (*InstallmentRepo)(nil)

const installmentColumns = `
	id, loan_id, branch_id, installment_number, due_date,
	amount, principal_amount, interest_amount, paid_amount, balance_remaining,
	days_overdue, late_fee, status, version, updated_at`

// InstallmentRepo implements port.InstallmentRepository.
type InstallmentRepo struct {
	pool *pgxpool.Pool
}

func NewInstallmentRepo(pool *pgxpool.Pool) *InstallmentRepo {
	return &InstallmentRepo{pool: pool}
}

// FindUnpaidPastDue returns every non-paid installment due before asOf.
func (r *InstallmentRepo) FindUnpaidPastDue(ctx context.Context, scope port.Scope, asOf time.Time) ([]model.Installment, error) {
	return r.query(ctx, `
		SELECT `+installmentColumns+`
		FROM installments
		WHERE status <> 'paid'
		  AND due_date < $1
		  AND ($2 = '' OR branch_id::text = $2)
		ORDER BY loan_id, installment_number`, asOf, scope.BranchID)
}

func (r *InstallmentRepo) FindByLoanID(ctx context.Context, loanID string) ([]model.Installment, error) {
	return r.query(ctx, `
		SELECT `+installmentColumns+`
		FROM installments
		WHERE loan_id = $1
		ORDER BY installment_number`, loanID)
}

// Save updates the ledger columns of an installment.
func (r *InstallmentRepo) Save(ctx context.Context, inst model.Installment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE installments
		SET paid_amount       = $2,
		    balance_remaining = $3,
		    days_overdue      = $4,
		    late_fee          = $5,
		    status            = $6,
		    version           = version + 1,
		    updated_at        = $7
		WHERE id = $1 AND version = $8`,
		inst.ID, inst.PaidAmount, inst.BalanceRemaining, inst.DaysOverdue,
		inst.LateFee, inst.Status.String(), inst.UpdatedAt, inst.Version,
	)
	if err != nil {
		return fmt.Errorf("save installment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("installment %s: %w", inst.ID, model.ErrConcurrentUpdate)
	}
	return nil
}

func insertInstallment(ctx context.Context, q pgpkg.Querier, inst model.Installment) error {
	_, err := q.Exec(ctx, `
		INSERT INTO installments (`+installmentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (loan_id, installment_number) DO NOTHING`,
		inst.ID, inst.LoanID, inst.BranchID, inst.InstallmentNumber, inst.DueDate,
		inst.Amount, inst.PrincipalAmount, inst.InterestAmount, inst.PaidAmount, inst.BalanceRemaining,
		inst.DaysOverdue, inst.LateFee, inst.Status.String(), inst.Version, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save installment %d: %w", inst.InstallmentNumber, err)
	}
	return nil
}

func (r *InstallmentRepo) query(ctx context.Context, sql string, args ...any) ([]model.Installment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var out []model.Installment
	for rows.Next() {
		var (
			i         model.Installment
			statusStr string
		)
		if err := rows.Scan(
			&i.ID, &i.LoanID, &i.BranchID, &i.InstallmentNumber, &i.DueDate,
			&i.Amount, &i.PrincipalAmount, &i.InterestAmount, &i.PaidAmount, &i.BalanceRemaining,
			&i.DaysOverdue, &i.LateFee, &statusStr, &i.Version, &i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		status, err := valueobject.NewInstallmentStatus(statusStr)
		if err != nil {
			return nil, fmt.Errorf("parse installment status: %w", err)
		}
		i.Status = status
		out = append(out, i)
	}
	return out, rows.Err()
}
