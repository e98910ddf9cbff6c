package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"roomspot-sniper/internal/model"
)

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type SeenRepository struct {
	db DB
}

func NewSeenRepository(db DB) *SeenRepository {
	return &SeenRepository{db: db}
}

func (r *SeenRepository) Load(ctx context.Context) (*model.SeenSet, error) {
	rows, err := r.db.Query(ctx, `SELECT listing_id FROM seen_listings ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query seen listings: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan seen listings: %w", err)
	}
	return model.NewSeenSet(ids), nil
}

// Save replaces the stored set inside one transaction.
func (r *SeenRepository) Save(ctx context.Context, seen *model.SeenSet) error {
	ids := seen.IDs()
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM seen_listings`); err != nil {
			return fmt.Errorf("clear seen listings: %w", err)
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"seen_listings"},
			[]string{"position", "listing_id"},
			pgx.CopyFromSlice(len(ids), func(i int) ([]any, error) {
				return []any{int64(i), ids[i]}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy seen listings: %w", err)
		}
		return nil
	})
}
