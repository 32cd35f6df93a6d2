package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is one cart line. UnitPrice is captured from the pricing engine
// when the line is added and is not re-derived afterwards.
type Item struct {
	ProductID int             `json:"productID"`
	Name      string          `json:"productName"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Snapshot is the full cart state persisted to the session store as one
// blob on every mutation.
type Snapshot struct {
	Items []Item `json:"items"`
}

func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (s Snapshot) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

func (s Snapshot) find(productID int) int {
	for i, it := range s.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Snapshot) remove(productID int) {
	if i := s.find(productID); i >= 0 {
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
	}
}

// UserKey is the cart key for an authenticated user.
func UserKey(userID int) string { return fmt.Sprintf("user:%d", userID) }

// SessionKey is the cart key for an anonymous session token.
func SessionKey(token string) string { return fmt.Sprintf("session:%s", token) }
