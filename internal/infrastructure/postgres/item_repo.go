package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
	"github.com/pawnline/loanengine/internal/domain/valueobject"
	pgpkg "github.com/pawnline/loanengine/pkg/postgres"
)

var _ port.ItemRepository = (*ItemRepo)(nil)

// ItemRepo reads collateral items. Items are written only together with
// their loan, see LoanRepo.SaveWithItem.
type ItemRepo struct {
	pool *pgxpool.Pool
}

func NewItemRepo(pool *pgxpool.Pool) *ItemRepo {
	return &ItemRepo{pool: pool}
}

func (r *ItemRepo) FindByID(ctx context.Context, id string) (model.Item, error) {
	var (
		it        model.Item
		statusStr string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, branch_id, name, status, version, updated_at FROM items WHERE id = $1`, id,
	).Scan(&it.ID, &it.BranchID, &it.Name, &statusStr, &it.Version, &it.UpdatedAt)
	if err != nil {
		return model.Item{}, notFound(fmt.Errorf("scan item: %w", err), "item", id)
	}
	status, err := valueobject.NewItemStatus(statusStr)
	if err != nil {
		return model.Item{}, fmt.Errorf("parse item status: %w", err)
	}
	it.Status = status
	return it, nil
}

func saveItem(ctx context.Context, q pgpkg.Querier, it model.Item) error {
	tag, err := q.Exec(ctx, `
		UPDATE items
		SET status = $2, version = version + 1, updated_at = $3
		WHERE id = $1 AND version = $4`,
		it.ID, it.Status.String(), it.UpdatedAt, it.Version,
	)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", it.ID, model.ErrConcurrentUpdate)
	}
	return nil
}
