package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnauthorized      = errors.New("order belongs to another user")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyProcessed  = errors.New("order can no longer be cancelled")
)

// InsufficientStockError reports the product that blocked checkout and
// how many units were actually available.
type InsufficientStockError struct {
	ProductID int
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %q has only %d in stock", e.Name, e.Available)
}

// Detail is one purchased line, price captured at checkout.
type Detail struct {
	ProductID int             `json:"productID"`
	Name      string          `json:"productName"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func (d Detail) LineTotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// Order is a placed order. UserID is nil for guest checkout; guest
// contact details live in the session side-channel, not here.
type Order struct {
	ID              int             `json:"orderID"`
	Number          string          `json:"orderNumber"`
	UserID          *int            `json:"userID,omitempty"`
	Recipient       string          `json:"recipient"`
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	Note            string          `json:"note,omitempty"`
	PaymentMethodID int             `json:"paymentMethodID"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	VoucherCode     *string         `json:"voucherCode,omitempty"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	Details         []Detail        `json:"details"`
}

// StatusEvent is one row of an order's status history.
type StatusEvent struct {
	Status    Status    `json:"status"`
	Display   string    `json:"display"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
