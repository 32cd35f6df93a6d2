package promotion

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("promotion not found")

// Promotion is either a product promotion (ProductID set) or a store-wide
// voucher (ProductID nil, redeemed via PromoCode). DiscountPct is validated
// into [0,100] at creation time and not re-checked on the hot path.
type Promotion struct {
	ID          int             `json:"promotionId"`
	ProductID   *int            `json:"productId,omitempty"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	PromoCode   *string         `json:"promoCode,omitempty"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	Active      bool            `json:"active"`
	RankID      *int            `json:"rankId,omitempty"`
	Description *string         `json:"description,omitempty"`
}

// ActiveAt reports whether the validity window covers t.
// The window is [StartDate, EndDate): the end date is exclusive.
func (p Promotion) ActiveAt(t time.Time) bool {
	return p.Active && !t.Before(p.StartDate) && t.Before(p.EndDate)
}

// AppliesToRank checks the optional rank restriction.
func (p Promotion) AppliesToRank(rankID *int) bool {
	if p.RankID == nil {
		return true
	}
	return rankID != nil && *rankID == *p.RankID
}
