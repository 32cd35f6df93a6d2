package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopdientu/electro-shop-backend/internal/cart"
	"github.com/shopdientu/electro-shop-backend/internal/pricing"
)

// CartStore is the slice of the cart service checkout needs. Satisfied
// by cart.Service.
type CartStore interface {
	Get(ctx context.Context, key string) (cart.Snapshot, error)
	Clear(ctx context.Context, key string) error
}

// VoucherResolver validates promo codes against a subtotal. Satisfied by
// pricing.Engine.
type VoucherResolver interface {
	ResolveVoucher(ctx context.Context, code string, subtotal decimal.Decimal, asOf time.Time) (pricing.Voucher, error)
}

// UserDirectory looks up the account email used to authorize tracking.
// Satisfied by user.Service.
type UserDirectory interface {
	EmailByID(ctx context.Context, userID int) (string, error)
}

// EventPublisher emits order lifecycle events. Failures never affect the
// order itself.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o Order)
	OrderCancelled(ctx context.Context, o Order)
}

var pointsPerVND = decimal.NewFromInt(1000)

// Service orchestrates checkout and the order lifecycle.
type Service struct {
	repo     Repository
	carts    CartStore
	vouchers VoucherResolver
	users    UserDirectory
	guests   GuestContactStore
	events   EventPublisher
	now      func() time.Time
}

func NewService(repo Repository, carts CartStore, vouchers VoucherResolver,
	users UserDirectory, guests GuestContactStore, events EventPublisher) *Service {
	return &Service{
		repo:     repo,
		carts:    carts,
		vouchers: vouchers,
		users:    users,
		guests:   guests,
		events:   events,
		now:      time.Now,
	}
}

// Requester is the authenticated (or anonymous) caller of an order
// operation.
type Requester struct {
	UserID *int
	Admin  bool
}

type PlaceOrderParams struct {
	CartKey         string
	UserID          *int
	Recipient       string
	Phone           string
	Address         string
	Note            string
	PaymentMethodID int
	VoucherCode     string
	GuestEmail      string
}

func (p PlaceOrderParams) validate() error {
	if strings.TrimSpace(p.Recipient) == "" ||
		strings.TrimSpace(p.Phone) == "" ||
		strings.TrimSpace(p.Address) == "" {
		return errors.New("recipient, phone and address are required")
	}
	if p.UserID == nil && strings.TrimSpace(p.GuestEmail) == "" {
		return errors.New("guest checkout requires an email address")
	}
	return nil
}

// PlaceOrder turns the cart at params.CartKey into an order. The order
// row, its details, the stock decrement, the initial status event and
// the loyalty accrual commit atomically; the cart is cleared only after
// the commit succeeds.
func (s *Service) PlaceOrder(ctx context.Context, params PlaceOrderParams) (Order, error) {
	if err := params.validate(); err != nil {
		return Order{}, err
	}

	snap, err := s.carts.Get(ctx, params.CartKey)
	if err != nil {
		return Order{}, fmt.Errorf("load cart: %w", err)
	}
	if len(snap.Items) == 0 {
		return Order{}, ErrEmptyCart
	}

	subtotal := snap.Total()
	discount := decimal.Zero
	var voucherCode *string
	if code := strings.TrimSpace(params.VoucherCode); code != "" {
		voucher, err := s.vouchers.ResolveVoucher(ctx, code, subtotal, s.now())
		if err != nil {
			return Order{}, err
		}
		discount = voucher.Discount
		voucherCode = &voucher.Code
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	details := make([]Detail, 0, len(snap.Items))
	for _, it := range snap.Items {
		details = append(details, Detail{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	o := Order{
		Number:          s.newOrderNumber(),
		UserID:          params.UserID,
		Recipient:       strings.TrimSpace(params.Recipient),
		Phone:           strings.TrimSpace(params.Phone),
		Address:         strings.TrimSpace(params.Address),
		Note:            strings.TrimSpace(params.Note),
		PaymentMethodID: params.PaymentMethodID,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           total,
		VoucherCode:     voucherCode,
		Details:         details,
	}

	if err := s.repo.Create(ctx, &o, accruedPoints(total)); err != nil {
		return Order{}, err
	}

	if params.UserID == nil {
		contact := GuestContact{Email: strings.TrimSpace(params.GuestEmail), Phone: o.Phone}
		if err := s.guests.Put(ctx, o.ID, contact); err != nil {
			return Order{}, fmt.Errorf("save guest contact: %w", err)
		}
	}

	if err := s.carts.Clear(ctx, params.CartKey); err != nil {
		return Order{}, fmt.Errorf("clear cart: %w", err)
	}

	if s.events != nil {
		s.events.OrderCreated(ctx, o)
	}
	return o, nil
}

// accruedPoints is the loyalty accrual for an order: one point per
// thousand VND of the paid total, rounded down.
func accruedPoints(total decimal.Decimal) int64 {
	return total.Div(pointsPerVND).Floor().IntPart()
}

// newOrderNumber builds ORD<yymmdd><6 random digits>.
func (s *Service) newOrderNumber() string {
	return fmt.Sprintf("ORD%s%06d", s.now().Format("060102"), rand.Intn(1_000_000))
}

// GetByID returns the order when the requester owns it or is an admin.
func (s *Service) GetByID(ctx context.Context, id int, req Requester) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !req.Admin {
		if o.UserID == nil || req.UserID == nil || *o.UserID != *req.UserID {
			return Order{}, ErrUnauthorized
		}
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Track returns an order and its status history for an order number and
// the email that placed it. Account orders match the account email;
// guest orders match the contact captured at checkout. A wrong email
// reports not-found rather than confirming the order exists.
func (s *Service) Track(ctx context.Context, number, email string) (Order, []StatusEvent, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Order{}, nil, ErrNotFound
	}

	o, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return Order{}, nil, err
	}

	if o.UserID != nil {
		owner, err := s.users.EmailByID(ctx, *o.UserID)
		if err != nil {
			return Order{}, nil, fmt.Errorf("look up order owner: %w", err)
		}
		if !strings.EqualFold(owner, email) {
			return Order{}, nil, ErrNotFound
		}
	} else {
		contact, ok, err := s.guests.Get(ctx, o.ID)
		if err != nil {
			return Order{}, nil, err
		}
		if !ok || !strings.EqualFold(contact.Email, email) {
			return Order{}, nil, ErrNotFound
		}
	}

	history, err := s.repo.History(ctx, o.ID)
	if err != nil {
		return Order{}, nil, err
	}
	return o, history, nil
}

// CancelOrder moves a pending order to cancelled. Only the owner or an
// admin may cancel, and only while the order is still pending. Stock is
// not restored.
func (s *Service) CancelOrder(ctx context.Context, id int, req Requester, reason string) (Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !req.Admin {
		if o.UserID == nil || req.UserID == nil || *o.UserID != *req.UserID {
			return Order{}, ErrUnauthorized
		}
	}
	if o.Status != StatusPending {
		return Order{}, ErrAlreadyProcessed
	}

	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "cancelled by customer"
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled, reason); err != nil {
		return Order{}, err
	}
	o.Status = StatusCancelled

	if s.events != nil {
		s.events.OrderCancelled(ctx, o)
	}
	return o, nil
}

// UpdateStatus is the admin path through the status machine.
func (s *Service) UpdateStatus(ctx context.Context, id int, next Status, note string) (Order, error) {
	if !next.Valid() {
		return Order{}, ErrInvalidTransition
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !o.Status.CanTransitionTo(next) {
		return Order{}, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, next, note); err != nil {
		return Order{}, err
	}
	o.Status = next

	if next == StatusCancelled && s.events != nil {
		s.events.OrderCancelled(ctx, o)
	}
	return o, nil
}

func (s *Service) History(ctx context.Context, orderID int) ([]StatusEvent, error) {
	return s.repo.History(ctx, orderID)
}
