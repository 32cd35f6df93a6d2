package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopdientu/electro-shop-backend/internal/product"
	"github.com/shopdientu/electro-shop-backend/internal/promotion"
)

var (
	ErrInvalidCode   = errors.New("voucher code is invalid or expired")
	ErrMinimumNotMet = errors.New("order subtotal is below the voucher minimum")
)

// Voucher policy: a flat discount unlocked by a minimum subtotal.
// Amounts are VND. The promotion's percentage field does not apply to
// vouchers; the flat amount is the storefront's rule.
var (
	VoucherMinSubtotal = decimal.NewFromInt(20_000_000)
	VoucherDiscount    = decimal.NewFromInt(1_000_000)
)

var oneHundred = decimal.NewFromInt(100)

// Buyer carries the discount-relevant slice of the current user.
// The zero value is an anonymous buyer with no rank discount.
type Buyer struct {
	RankID  *int
	RankPct decimal.Decimal
}

// Engine computes effective unit prices and resolves voucher codes.
type Engine struct {
	promos promotion.Repository
}

func NewEngine(promos promotion.Repository) *Engine {
	return &Engine{promos: promos}
}

// EffectiveUnitPrice applies the best product promotion valid at asOf and
// the buyer's rank discount to the base price. The two sources do not
// stack: the larger percentage wins. The result is never negative and
// never exceeds the base price.
func (e *Engine) EffectiveUnitPrice(ctx context.Context, p product.Product, asOf time.Time, buyer Buyer) (decimal.Decimal, error) {
	promos, err := e.promos.ActiveForProduct(ctx, p.ID, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load promotions for product %d: %w", p.ID, err)
	}

	best := decimal.Zero
	for _, promo := range promos {
		if !promo.ActiveAt(asOf) || !promo.AppliesToRank(buyer.RankID) {
			continue
		}
		if promo.DiscountPct.GreaterThan(best) {
			best = promo.DiscountPct
		}
	}
	if buyer.RankPct.GreaterThan(best) {
		best = buyer.RankPct
	}

	price := p.Price.Mul(oneHundred.Sub(best)).Div(oneHundred)
	if price.IsNegative() {
		price = decimal.Zero
	}
	return price, nil
}

// Voucher is a successfully resolved promo code.
type Voucher struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// ResolveVoucher matches code (trimmed, case-insensitive) against the
// store-wide promotions valid at asOf. It fails with ErrInvalidCode when
// no such promotion exists and ErrMinimumNotMet when the subtotal does
// not reach the voucher threshold.
func (e *Engine) ResolveVoucher(ctx context.Context, code string, subtotal decimal.Decimal, asOf time.Time) (Voucher, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return Voucher{}, ErrInvalidCode
	}

	promo, err := e.promos.VoucherByCode(ctx, normalized, asOf)
	if err != nil {
		if errors.Is(err, promotion.ErrNotFound) {
			return Voucher{}, ErrInvalidCode
		}
		return Voucher{}, fmt.Errorf("look up voucher: %w", err)
	}
	if subtotal.LessThan(VoucherMinSubtotal) {
		return Voucher{}, ErrMinimumNotMet
	}

	resolved := strings.ToUpper(normalized)
	if promo.PromoCode != nil {
		resolved = strings.ToUpper(*promo.PromoCode)
	}
	return Voucher{Code: resolved, Discount: VoucherDiscount}, nil
}
