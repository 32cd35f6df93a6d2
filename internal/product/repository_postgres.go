package product

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `product_id, product_name, base_price, stock, active, subcategory_id, description`

	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE product_id = $1
	`
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE active
		ORDER BY product_id
	`
	listBySubcategoryQuery = `
		SELECT ` + productColumns + `
		FROM product
		WHERE active AND subcategory_id = $1
		ORDER BY product_id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	return r.list(ctx, listProductsQuery)
}

func (r *PostgresRepository) ListBySubcategory(ctx context.Context, subcategoryID int) ([]Product, error) {
	return r.list(ctx, listBySubcategoryQuery, subcategoryID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (Product, error) {
	var (
		p             Product
		subcategoryID sql.NullInt64
		description   sql.NullString
	)
	if err := scanner.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Active, &subcategoryID, &description); err != nil {
		return Product{}, err
	}
	if subcategoryID.Valid {
		v := int(subcategoryID.Int64)
		p.SubcategoryID = &v
	}
	if description.Valid {
		p.Description = &description.String
	}
	return p, nil
}
