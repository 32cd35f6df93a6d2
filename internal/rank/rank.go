package rank

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("rank not found")

// Rank is a loyalty tier. Tiers are totally ordered by MinimumPoints;
// a user's rank is the highest tier whose threshold their points reach.
type Rank struct {
	ID            int             `json:"rankId"`
	Name          string          `json:"rankName"`
	MinimumPoints int             `json:"minimumPoints"`
	DiscountPct   decimal.Decimal `json:"discountPct"`
}
