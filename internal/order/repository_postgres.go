package order

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopdientu/electro-shop-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns = `order_id, order_number, user_id, recipient, phone, address, note,
		payment_method_id, subtotal, discount, total, voucher_code, status, created_at`

	insertOrderQuery = `
		INSERT INTO orders (order_number, user_id, recipient, phone, address, note,
			payment_method_id, subtotal, discount, total, voucher_code, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING order_id, created_at
	`
	decrementStockQuery = `
		UPDATE product
		SET stock = stock - $1
		WHERE product_id = $2 AND stock >= $1
	`
	currentStockQuery = `
		SELECT stock FROM product WHERE product_id = $1
	`
	insertDetailQuery = `
		INSERT INTO order_details (order_id, product_id, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`
	insertStatusQuery = `
		INSERT INTO order_statuses (order_id, status, note, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	accruePointsQuery = `
		UPDATE users
		SET points = COALESCE(points, 0) + $1
		WHERE user_id = $2
		RETURNING points
	`
	resyncRankQuery = `
		UPDATE users
		SET rank_id = (
			SELECT rank_id FROM ranks
			WHERE minimum_points <= $1
			ORDER BY minimum_points DESC
			LIMIT 1
		)
		WHERE user_id = $2
	`
	getOrderByIDQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_id = $1
	`
	getOrderByNumberQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE upper(order_number) = upper($1)
	`
	listOrdersByUserQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	listDetailsQuery = `
		SELECT product_id, product_name, unit_price, quantity
		FROM order_details
		WHERE order_id = $1
		ORDER BY product_id
	`
	listStatusHistoryQuery = `
		SELECT status, note, created_at
		FROM order_statuses
		WHERE order_id = $1
		ORDER BY created_at
	`
	updateOrderStatusQuery = `
		UPDATE orders SET status = $1 WHERE order_id = $2
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *Order, accruePoints int64) error {
	return database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, insertOrderQuery,
			o.Number, o.UserID, o.Recipient, o.Phone, o.Address, o.Note,
			o.PaymentMethodID, o.Subtotal, o.Discount, o.Total, o.VoucherCode, StatusPending,
		).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		o.Status = StatusPending

		for _, d := range o.Details {
			res, err := tx.ExecContext(ctx, decrementStockQuery, d.Quantity, d.ProductID)
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", d.ProductID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", d.ProductID, err)
			}
			if affected == 0 {
				// conditional update missed: not enough stock, report what is left
				var available int
				if err := tx.QueryRowContext(ctx, currentStockQuery, d.ProductID).Scan(&available); err != nil {
					available = 0
				}
				return &InsufficientStockError{ProductID: d.ProductID, Name: d.Name, Available: available}
			}

			if _, err := tx.ExecContext(ctx, insertDetailQuery,
				o.ID, d.ProductID, d.Name, d.UnitPrice, d.Quantity); err != nil {
				return fmt.Errorf("insert order detail: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, insertStatusQuery, o.ID, StatusPending, ""); err != nil {
			return fmt.Errorf("insert status event: %w", err)
		}

		if o.UserID != nil && accruePoints > 0 {
			var points int64
			if err := tx.QueryRowContext(ctx, accruePointsQuery, accruePoints, *o.UserID).Scan(&points); err != nil {
				return fmt.Errorf("accrue points for user %d: %w", *o.UserID, err)
			}
			if _, err := tx.ExecContext(ctx, resyncRankQuery, points, *o.UserID); err != nil {
				return fmt.Errorf("resync rank for user %d: %w", *o.UserID, err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, getOrderByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	if o.Details, err = r.details(ctx, o.ID); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, getOrderByNumberQuery, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order %s: %w", number, err)
	}
	if o.Details, err = r.details(ctx, o.ID); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Details, err = r.details(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRepository) History(ctx context.Context, orderID int) ([]StatusEvent, error) {
	rows, err := r.db.QueryContext(ctx, listStatusHistoryQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("list status history for order %d: %w", orderID, err)
	}
	defer rows.Close()

	out := make([]StatusEvent, 0)
	for rows.Next() {
		var (
			ev   StatusEvent
			note sql.NullString
		)
		if err := rows.Scan(&ev.Status, &note, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		ev.Note = note.String
		ev.Display = ev.Status.Display()
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID int, next Status, note string) error {
	return database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateOrderStatusQuery, next, orderID)
		if err != nil {
			return fmt.Errorf("update order %d status: %w", orderID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update order %d status: %w", orderID, err)
		}
		if affected == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, insertStatusQuery, orderID, next, note); err != nil {
			return fmt.Errorf("insert status event: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) details(ctx context.Context, orderID int) ([]Detail, error) {
	rows, err := r.db.QueryContext(ctx, listDetailsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("list details for order %d: %w", orderID, err)
	}
	defer rows.Close()

	out := make([]Detail, 0)
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ProductID, &d.Name, &d.UnitPrice, &d.Quantity); err != nil {
			return nil, fmt.Errorf("scan order detail: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(scanner rowScanner) (Order, error) {
	var (
		o           Order
		userID      sql.NullInt64
		note        sql.NullString
		voucherCode sql.NullString
	)
	err := scanner.Scan(&o.ID, &o.Number, &userID, &o.Recipient, &o.Phone, &o.Address, &note,
		&o.PaymentMethodID, &o.Subtotal, &o.Discount, &o.Total, &voucherCode, &o.Status, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	if userID.Valid {
		v := int(userID.Int64)
		o.UserID = &v
	}
	o.Note = note.String
	if voucherCode.Valid {
		o.VoucherCode = &voucherCode.String
	}
	return o, nil
}
