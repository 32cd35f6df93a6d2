package wishlist

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	addWishlistQuery = `
		INSERT INTO wishlist (user_id, product_id, added_at)
		VALUES ($1, $2, NOW())
	`
	removeWishlistQuery = `
		DELETE FROM wishlist
		WHERE user_id = $1 AND product_id = $2
	`
	listWishlistQuery = `
		SELECT product_id
		FROM wishlist
		WHERE user_id = $1
		ORDER BY added_at
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, userID, productID int) error {
	if _, err := r.db.ExecContext(ctx, addWishlistQuery, userID, productID); err != nil {
		// 23505 is unique_violation on (user_id, product_id)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAlreadyInWishlist
		}
		return fmt.Errorf("add to wishlist: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, productID int) error {
	res, err := r.db.ExecContext(ctx, removeWishlistQuery, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if affected == 0 {
		return ErrNotInWishlist
	}
	return nil
}

func (r *PostgresRepository) ListIDs(ctx context.Context, userID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, listWishlistQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wishlist row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
