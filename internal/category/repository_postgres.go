package category

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository provides read access to category rows.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all categories with their subcategories attached.
func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, category_name FROM category ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	byID := make(map[int]*Category)
	order := make([]int, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		byID[c.ID] = &c
		order = append(order, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := r.db.QueryContext(ctx, `SELECT subcategory_id, category_id, subcategory_name FROM subcategory ORDER BY subcategory_id`)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var s Subcategory
		if err := subRows.Scan(&s.ID, &s.CategoryID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		if c, ok := byID[s.CategoryID]; ok {
			c.Subcategories = append(c.Subcategories, s)
		}
	}
	if err := subRows.Err(); err != nil {
		return nil, err
	}

	out := make([]Category, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}
