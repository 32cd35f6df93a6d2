package promotion

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	promotionColumns = `promotion_id, product_id, discount_pct, promo_code, start_date, end_date, active, rank_id, description`

	activeForProductQuery = `
		SELECT ` + promotionColumns + `
		FROM promotion
		WHERE product_id = $1 AND active AND start_date <= $2 AND end_date > $2
		ORDER BY discount_pct DESC
	`
	voucherByCodeQuery = `
		SELECT ` + promotionColumns + `
		FROM promotion
		WHERE product_id IS NULL AND active AND start_date <= $2 AND end_date > $2
		  AND upper(promo_code) = upper($1)
		LIMIT 1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ActiveForProduct(ctx context.Context, productID int, asOf time.Time) ([]Promotion, error) {
	rows, err := r.db.QueryContext(ctx, activeForProductQuery, productID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list promotions for product %d: %w", productID, err)
	}
	defer rows.Close()

	out := make([]Promotion, 0)
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) VoucherByCode(ctx context.Context, code string, asOf time.Time) (Promotion, error) {
	p, err := scanPromotion(r.db.QueryRowContext(ctx, voucherByCodeQuery, code, asOf))
	if err != nil {
		if err == sql.ErrNoRows {
			return Promotion{}, ErrNotFound
		}
		return Promotion{}, fmt.Errorf("look up voucher: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPromotion(scanner rowScanner) (Promotion, error) {
	var (
		p           Promotion
		productID   sql.NullInt64
		promoCode   sql.NullString
		rankID      sql.NullInt64
		description sql.NullString
	)
	if err := scanner.Scan(&p.ID, &productID, &p.DiscountPct, &promoCode, &p.StartDate, &p.EndDate, &p.Active, &rankID, &description); err != nil {
		return Promotion{}, err
	}
	if productID.Valid {
		v := int(productID.Int64)
		p.ProductID = &v
	}
	if promoCode.Valid {
		p.PromoCode = &promoCode.String
	}
	if rankID.Valid {
		v := int(rankID.Int64)
		p.RankID = &v
	}
	if description.Valid {
		p.Description = &description.String
	}
	return p, nil
}
