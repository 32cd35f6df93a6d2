package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopdientu/electro-shop-backend/internal/cart"
	"github.com/shopdientu/electro-shop-backend/internal/pricing"
	"github.com/shopdientu/electro-shop-backend/internal/product"
	"github.com/shopdientu/electro-shop-backend/internal/promotion"
	"github.com/shopdientu/electro-shop-backend/internal/rank"
)

type fakeDirectory map[int]string

func (d fakeDirectory) EmailByID(_ context.Context, userID int) (string, error) {
	email, ok := d[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return email, nil
}

type recordingPublisher struct {
	created   []Order
	cancelled []Order
}

func (p *recordingPublisher) OrderCreated(_ context.Context, o Order) {
	p.created = append(p.created, o)
}

func (p *recordingPublisher) OrderCancelled(_ context.Context, o Order) {
	p.cancelled = append(p.cancelled, o)
}

type fixture struct {
	service  *Service
	repo     *InMemoryRepository
	carts    *cart.Service
	products *product.InMemoryRepository
	guests   *InMemoryGuestContactStore
	events   *recordingPublisher
}

func newFixture(products []product.Product, promos []promotion.Promotion) *fixture {
	catalog := product.NewInMemoryRepository(products)
	engine := pricing.NewEngine(promotion.NewInMemoryRepository(promos))
	carts := cart.NewService(cart.NewInMemoryRepository(), catalog, engine)
	repo := NewInMemoryRepository(catalog)
	repo.Ranks = []rank.Rank{
		{ID: 1, Name: "Đồng", MinimumPoints: 0},
		{ID: 2, Name: "Bạc", MinimumPoints: 10_000},
		{ID: 3, Name: "Vàng", MinimumPoints: 50_000},
	}
	guests := NewInMemoryGuestContactStore()
	events := &recordingPublisher{}
	directory := fakeDirectory{7: "owner@example.com"}
	return &fixture{
		service:  NewService(repo, carts, engine, directory, guests, events),
		repo:     repo,
		carts:    carts,
		products: catalog,
		guests:   guests,
		events:   events,
	}
}

func intptr(v int) *int { return &v }

func vnd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func storewideVoucher(code string) promotion.Promotion {
	return promotion.Promotion{
		ID:          1,
		PromoCode:   &code,
		DiscountPct: vnd(5),
		StartDate:   time.Now().Add(-time.Hour),
		EndDate:     time.Now().Add(time.Hour),
		Active:      true,
	}
}

func TestPlaceOrderDecrementsStockAndAccruesPoints(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Laptop", Price: vnd(12_000_000), Stock: 10, Active: true},
	}, nil)
	ctx := context.Background()
	key := cart.UserKey(7)
	if _, err := f.carts.Add(ctx, key, pricing.Buyer{}, 1, 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	o, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:   key,
		UserID:    intptr(7),
		Recipient: "Nguyen Van A",
		Phone:     "0901234567",
		Address:   "123 Le Loi, Q1, TP.HCM",
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if !strings.HasPrefix(o.Number, "ORD") || len(o.Number) != 15 {
		t.Errorf("unexpected order number format: %s", o.Number)
	}
	if o.Status != StatusPending {
		t.Errorf("expected status pending, got %s", o.Status)
	}
	if !o.Total.Equal(vnd(24_000_000)) {
		t.Errorf("expected total 24000000, got %s", o.Total)
	}

	p, _ := f.products.GetByID(ctx, 1)
	if p.Stock != 8 {
		t.Errorf("expected stock 8 after checkout, got %d", p.Stock)
	}

	snap, _ := f.carts.Get(ctx, key)
	if len(snap.Items) != 0 {
		t.Errorf("expected cart to be cleared, got %+v", snap.Items)
	}

	acct := f.repo.Accounts[7]
	if acct == nil || acct.Points != 24_000 {
		t.Fatalf("expected 24000 points accrued, got %+v", acct)
	}
	if acct.RankID == nil || *acct.RankID != 2 {
		t.Errorf("expected rank 2 after accrual, got %v", acct.RankID)
	}

	history, err := f.repo.History(ctx, o.ID)
	if err != nil || len(history) != 1 || history[0].Status != StatusPending {
		t.Errorf("expected one pending history event, got %+v (err %v)", history, err)
	}
	if len(f.events.created) != 1 {
		t.Errorf("expected one created event, got %d", len(f.events.created))
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(nil, nil)
	_, err := f.service.PlaceOrder(context.Background(), PlaceOrderParams{
		CartKey:   cart.UserKey(7),
		UserID:    intptr(7),
		Recipient: "A",
		Phone:     "0900000000",
		Address:   "somewhere",
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrderInsufficientStockLeavesEverythingIntact(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Laptop", Price: vnd(1_000_000), Stock: 5, Active: true},
	}, nil)
	ctx := context.Background()
	key := cart.UserKey(7)
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 3)

	// another checkout drains the shelf before this one commits
	f.products.AdjustStock(1, -4)

	_, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:   key,
		UserID:    intptr(7),
		Recipient: "A",
		Phone:     "0900000000",
		Address:   "somewhere",
	})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 1 {
		t.Errorf("expected 1 available, got %d", stockErr.Available)
	}

	p, _ := f.products.GetByID(ctx, 1)
	if p.Stock != 1 {
		t.Errorf("expected stock unchanged at 1, got %d", p.Stock)
	}
	snap, _ := f.carts.Get(ctx, key)
	if len(snap.Items) != 1 {
		t.Errorf("expected cart preserved after failed checkout, got %+v", snap.Items)
	}
	if f.repo.Accounts[7] != nil {
		t.Errorf("expected no points accrued, got %+v", f.repo.Accounts[7])
	}
}

func TestPlaceOrderWithVoucher(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Laptop", Price: vnd(12_500_000), Stock: 10, Active: true},
	}, []promotion.Promotion{storewideVoucher("SUMMER24")})
	ctx := context.Background()
	key := cart.UserKey(7)
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 2)

	o, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:     key,
		UserID:      intptr(7),
		Recipient:   "A",
		Phone:       "0900000000",
		Address:     "somewhere",
		VoucherCode: "  summer24 ",
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if !o.Subtotal.Equal(vnd(25_000_000)) {
		t.Errorf("expected subtotal 25000000, got %s", o.Subtotal)
	}
	if !o.Discount.Equal(vnd(1_000_000)) {
		t.Errorf("expected discount 1000000, got %s", o.Discount)
	}
	if !o.Total.Equal(vnd(24_000_000)) {
		t.Errorf("expected total 24000000, got %s", o.Total)
	}
	if o.VoucherCode == nil || *o.VoucherCode != "SUMMER24" {
		t.Errorf("expected voucher code SUMMER24, got %v", o.VoucherCode)
	}
	if acct := f.repo.Accounts[7]; acct == nil || acct.Points != 24_000 {
		t.Errorf("expected points from paid total, got %+v", acct)
	}
}

func TestPlaceOrderVoucherBelowMinimum(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Mouse", Price: vnd(500_000), Stock: 10, Active: true},
	}, []promotion.Promotion{storewideVoucher("SUMMER24")})
	ctx := context.Background()
	key := cart.UserKey(7)
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 1)

	_, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:     key,
		UserID:      intptr(7),
		Recipient:   "A",
		Phone:       "0900000000",
		Address:     "somewhere",
		VoucherCode: "SUMMER24",
	})
	if !errors.Is(err, pricing.ErrMinimumNotMet) {
		t.Fatalf("expected ErrMinimumNotMet, got %v", err)
	}
	p, _ := f.products.GetByID(ctx, 1)
	if p.Stock != 10 {
		t.Errorf("expected stock untouched, got %d", p.Stock)
	}
}

func TestPlaceOrderGuestAndTrack(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Phone", Price: vnd(5_000_000), Stock: 4, Active: true},
	}, nil)
	ctx := context.Background()
	key := cart.SessionKey("guest-token")
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 1)

	o, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:    key,
		Recipient:  "Guest Buyer",
		Phone:      "0987654321",
		Address:    "456 Tran Hung Dao",
		GuestEmail: "guest@example.com",
	})
	if err != nil {
		t.Fatalf("guest PlaceOrder returned error: %v", err)
	}
	if o.UserID != nil {
		t.Errorf("expected no user on guest order, got %v", o.UserID)
	}
	if len(f.repo.Accounts) != 0 {
		t.Errorf("expected no loyalty accrual for guest, got %+v", f.repo.Accounts)
	}

	tracked, history, err := f.service.Track(ctx, o.Number, "GUEST@example.com")
	if err != nil {
		t.Fatalf("Track returned error: %v", err)
	}
	if tracked.ID != o.ID || len(history) != 1 {
		t.Errorf("unexpected tracked order %d / history %+v", tracked.ID, history)
	}

	if _, _, err := f.service.Track(ctx, o.Number, "stranger@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong email, got %v", err)
	}
}

func TestPlaceOrderGuestRequiresEmail(t *testing.T) {
	f := newFixture(nil, nil)
	_, err := f.service.PlaceOrder(context.Background(), PlaceOrderParams{
		CartKey:   cart.SessionKey("t"),
		Recipient: "A",
		Phone:     "0900000000",
		Address:   "somewhere",
	})
	if err == nil {
		t.Fatal("expected validation error for guest without email")
	}
}

func TestTrackAccountOrderMatchesOwnerEmail(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Phone", Price: vnd(5_000_000), Stock: 4, Active: true},
	}, nil)
	ctx := context.Background()
	key := cart.UserKey(7)
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 1)

	o, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:   key,
		UserID:    intptr(7),
		Recipient: "A",
		Phone:     "0900000000",
		Address:   "somewhere",
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if _, _, err := f.service.Track(ctx, o.Number, "Owner@Example.com"); err != nil {
		t.Fatalf("expected owner email to match, got %v", err)
	}
	if _, _, err := f.service.Track(ctx, o.Number, "other@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong email, got %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Phone", Price: vnd(5_000_000), Stock: 4, Active: true},
	}, nil)
	ctx := context.Background()
	key := cart.UserKey(7)
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 1)

	o, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:   key,
		UserID:    intptr(7),
		Recipient: "A",
		Phone:     "0900000000",
		Address:   "somewhere",
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if _, err := f.service.CancelOrder(ctx, o.ID, Requester{UserID: intptr(99)}, ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for stranger, got %v", err)
	}

	cancelled, err := f.service.CancelOrder(ctx, o.ID, Requester{UserID: intptr(7)}, "changed my mind")
	if err != nil {
		t.Fatalf("CancelOrder returned error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}

	// cancellation does not return units to the shelf
	p, _ := f.products.GetByID(ctx, 1)
	if p.Stock != 3 {
		t.Errorf("expected stock to stay at 3, got %d", p.Stock)
	}

	if _, err := f.service.CancelOrder(ctx, o.ID, Requester{UserID: intptr(7)}, ""); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed on second cancel, got %v", err)
	}
	if len(f.events.cancelled) != 1 {
		t.Errorf("expected one cancelled event, got %d", len(f.events.cancelled))
	}

	history, _ := f.service.History(ctx, o.ID)
	if len(history) != 2 || history[1].Status != StatusCancelled || history[1].Note != "changed my mind" {
		t.Errorf("expected a single cancellation event with the reason, got %+v", history)
	}
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Phone", Price: vnd(5_000_000), Stock: 4, Active: true},
	}, nil)
	ctx := context.Background()
	key := cart.UserKey(7)
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 1)

	o, err := f.service.PlaceOrder(ctx, PlaceOrderParams{
		CartKey:   key,
		UserID:    intptr(7),
		Recipient: "A",
		Phone:     "0900000000",
		Address:   "somewhere",
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}

	if _, err := f.service.UpdateStatus(ctx, o.ID, StatusCompleted, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending -> completed, got %v", err)
	}

	updated, err := f.service.UpdateStatus(ctx, o.ID, StatusProcessing, "confirmed")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != StatusProcessing {
		t.Errorf("expected processing status, got %s", updated.Status)
	}

	if _, err := f.service.UpdateStatus(ctx, o.ID, StatusCancelled, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for processing -> cancelled, got %v", err)
	}

	history, _ := f.service.History(ctx, o.ID)
	if len(history) != 2 || history[1].Status != StatusProcessing {
		t.Errorf("expected pending then processing history, got %+v", history)
	}
}

func TestCheckoutRetriesWithoutVoucherAfterMinimumFailure(t *testing.T) {
	f := newFixture([]product.Product{
		{ID: 1, Name: "Cable", Price: vnd(100), Stock: 10, Active: true},
	}, []promotion.Promotion{storewideVoucher("SUMMER24")})
	ctx := context.Background()
	key := cart.UserKey(7)
	f.carts.Add(ctx, key, pricing.Buyer{}, 1, 2)

	params := PlaceOrderParams{
		CartKey:     key,
		UserID:      intptr(7),
		Recipient:   "A",
		Phone:       "0900000000",
		Address:     "somewhere",
		VoucherCode: "SUMMER24",
	}
	if _, err := f.service.PlaceOrder(ctx, params); !errors.Is(err, pricing.ErrMinimumNotMet) {
		t.Fatalf("expected ErrMinimumNotMet, got %v", err)
	}

	// the rejection changed nothing, so the same cart checks out cleanly
	// once the code is dropped
	params.VoucherCode = ""
	o, err := f.service.PlaceOrder(ctx, params)
	if err != nil {
		t.Fatalf("PlaceOrder without voucher returned error: %v", err)
	}
	if !o.Total.Equal(vnd(200)) || !o.Discount.IsZero() {
		t.Errorf("expected total 200 with no discount, got total %s discount %s", o.Total, o.Discount)
	}

	p, _ := f.products.GetByID(ctx, 1)
	if p.Stock != 8 {
		t.Errorf("expected stock 8 after checkout, got %d", p.Stock)
	}
}

func TestAccruedPoints(t *testing.T) {
	cases := []struct {
		total int64
		want  int64
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{24_999_999, 24_999},
	}
	for _, tc := range cases {
		if got := accruedPoints(vnd(tc.total)); got != tc.want {
			t.Errorf("accruedPoints(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}
