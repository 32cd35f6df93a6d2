package rank

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const rankColumns = `rank_id, rank_name, minimum_points, discount_pct`

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Rank, error) {
	var rk Rank
	err := r.db.QueryRowContext(ctx, `SELECT `+rankColumns+` FROM ranks WHERE rank_id = $1`, id).
		Scan(&rk.ID, &rk.Name, &rk.MinimumPoints, &rk.DiscountPct)
	if err != nil {
		if err == sql.ErrNoRows {
			return Rank{}, ErrNotFound
		}
		return Rank{}, fmt.Errorf("get rank %d: %w", id, err)
	}
	return rk, nil
}

func (r *PostgresRepository) Lowest(ctx context.Context) (*Rank, error) {
	return r.one(ctx, `SELECT `+rankColumns+` FROM ranks ORDER BY minimum_points ASC LIMIT 1`)
}

func (r *PostgresRepository) HighestFor(ctx context.Context, points int) (*Rank, error) {
	return r.one(ctx, `SELECT `+rankColumns+` FROM ranks WHERE minimum_points <= $1 ORDER BY minimum_points DESC LIMIT 1`, points)
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*Rank, error) {
	var rk Rank
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&rk.ID, &rk.Name, &rk.MinimumPoints, &rk.DiscountPct)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("select rank: %w", err)
	}
	return &rk, nil
}
