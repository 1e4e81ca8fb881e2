package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
)

var _ port.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `
	id, branch_id, name, monthly_income, credit_limit,
	credit_score, credit_rating, credit_score_updated_at,
	version, created_at, updated_at`

// CustomerRepo implements port.CustomerRepository. The engine owns only the
// scoring columns; everything else is maintained by the customer module.
type CustomerRepo struct {
	pool *pgxpool.Pool
}

func NewCustomerRepo(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

// Save writes the credit standing (score, rating, scoring time and limit)
// with an optimistic version check.
func (r *CustomerRepo) Save(ctx context.Context, c model.Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET credit_score            = $2,
		    credit_rating           = $3,
		    credit_score_updated_at = $4,
		    credit_limit            = $5,
		    version                 = version + 1,
		    updated_at              = $6
		WHERE id = $1 AND version = $7`,
		c.ID(), c.CreditScore(), nullIfEmpty(c.CreditRating().String()), c.CreditScoreUpdatedAt(),
		c.CreditLimit(), c.UpdatedAt(), c.Version(),
	)
	if err != nil {
		return fmt.Errorf("save customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %s: %w", c.ID(), model.ErrConcurrentUpdate)
	}
	return nil
}

func (r *CustomerRepo) FindByID(ctx context.Context, id string) (model.Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil {
		return model.Customer{}, notFound(err, "customer", id)
	}
	return c, nil
}

// FindAll returns every customer in scope.
func (r *CustomerRepo) FindAll(ctx context.Context, scope port.Scope) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE ($1 = '' OR branch_id::text = $1)
		ORDER BY id`, scope.BranchID)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCustomer(s scannable) (model.Customer, error) {
	var (
		id, branchID, name   string
		income, limit        decimal.Decimal
		score                *int
		rating               *string
		scoredAt             *time.Time
		version              int
		createdAt, updatedAt time.Time
	)
	if err := s.Scan(
		&id, &branchID, &name, &income, &limit,
		&score, &rating, &scoredAt,
		&version, &createdAt, &updatedAt,
	); err != nil {
		return model.Customer{}, fmt.Errorf("scan customer: %w", err)
	}

	var cr valueobject.CreditRating
	if rating != nil {
		parsed, err := valueobject.NewCreditRating(*rating)
		if err != nil {
			return model.Customer{}, fmt.Errorf("parse credit rating: %w", err)
		}
		cr = parsed
	}

	return model.ReconstructCustomer(
		id, branchID, name, income, limit,
		score, cr, scoredAt, version, createdAt, updatedAt,
	), nil
}
