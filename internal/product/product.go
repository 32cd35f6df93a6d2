package product

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

// Product maps to the `product` table. Price is the base price in VND;
// discounts are applied by the pricing engine, never stored here.
// Stock is mutated only by the order repository inside the checkout
// transaction.
type Product struct {
	ID            int             `json:"productId"`
	Name          string          `json:"productName"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Active        bool            `json:"active"`
	SubcategoryID *int            `json:"subcategoryId,omitempty"`
	Description   *string         `json:"description,omitempty"`
}
