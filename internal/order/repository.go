package order

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopdientu/electro-shop-backend/internal/product"
	"github.com/shopdientu/electro-shop-backend/internal/rank"
)

// Repository persists orders. Create is atomic: stock decrement, order
// row, detail rows, the initial status event and loyalty accrual either
// all happen or none do.
type Repository interface {
	// Create fills o.ID, o.Status and o.CreatedAt. accruePoints is the
	// loyalty accrual for o.UserID (ignored for guest orders). Returns
	// *InsufficientStockError when a line cannot be fulfilled.
	Create(ctx context.Context, o *Order, accruePoints int64) error
	GetByID(ctx context.Context, id int) (Order, error)
	GetByNumber(ctx context.Context, number string) (Order, error)
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	History(ctx context.Context, orderID int) ([]StatusEvent, error)
	// UpdateStatus writes the new status and appends a history event.
	// Transition legality is the service's concern.
	UpdateStatus(ctx context.Context, orderID int, next Status, note string) error
}

// LoyaltyAccount mirrors the points/rank columns of a user row for the
// in-memory repository.
type LoyaltyAccount struct {
	Points int64
	RankID *int
}

// InMemoryRepository simulates the checkout transaction against an
// in-memory catalog. Used for tests.
type InMemoryRepository struct {
	mu       sync.Mutex
	nextID   int
	orders   map[int]Order
	history  map[int][]StatusEvent
	products *product.InMemoryRepository
	Accounts map[int]*LoyaltyAccount
	Ranks    []rank.Rank
	now      func() time.Time
}

func NewInMemoryRepository(products *product.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{
		nextID:   1,
		orders:   make(map[int]Order),
		history:  make(map[int][]StatusEvent),
		products: products,
		Accounts: make(map[int]*LoyaltyAccount),
		now:      time.Now,
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, o *Order, accruePoints int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// decrement stock line by line, undoing on failure
	taken := make([]Detail, 0, len(o.Details))
	for _, d := range o.Details {
		p, err := r.products.GetByID(ctx, d.ProductID)
		if err != nil {
			r.restock(taken)
			return err
		}
		if p.Stock < d.Quantity {
			r.restock(taken)
			return &InsufficientStockError{ProductID: d.ProductID, Name: d.Name, Available: p.Stock}
		}
		if err := r.products.AdjustStock(d.ProductID, -d.Quantity); err != nil {
			r.restock(taken)
			return err
		}
		taken = append(taken, d)
	}

	o.ID = r.nextID
	r.nextID++
	o.Status = StatusPending
	o.CreatedAt = r.now()
	r.orders[o.ID] = *o
	r.history[o.ID] = []StatusEvent{{
		Status:    StatusPending,
		Display:   StatusPending.Display(),
		CreatedAt: o.CreatedAt,
	}}

	if o.UserID != nil && accruePoints > 0 {
		acct, ok := r.Accounts[*o.UserID]
		if !ok {
			acct = &LoyaltyAccount{}
			r.Accounts[*o.UserID] = acct
		}
		acct.Points += accruePoints
		acct.RankID = r.rankFor(acct.Points)
	}
	return nil
}

func (r *InMemoryRepository) restock(taken []Detail) {
	for _, d := range taken {
		r.products.AdjustStock(d.ProductID, d.Quantity)
	}
}

func (r *InMemoryRepository) rankFor(points int64) *int {
	var best *int
	bestMin := int64(-1)
	for i := range r.Ranks {
		min := int64(r.Ranks[i].MinimumPoints)
		if min <= points && min > bestMin {
			bestMin = min
			best = &r.Ranks[i].ID
		}
	}
	return best
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *InMemoryRepository) GetByNumber(_ context.Context, number string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if strings.EqualFold(o.Number, number) {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryRepository) History(_ context.Context, orderID int) ([]StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[orderID]; !ok {
		return nil, ErrNotFound
	}
	events := make([]StatusEvent, len(r.history[orderID]))
	copy(events, r.history[orderID])
	return events, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, orderID int, next Status, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = next
	r.orders[orderID] = o
	r.history[orderID] = append(r.history[orderID], StatusEvent{
		Status:    next,
		Display:   next.Display(),
		Note:      note,
		CreatedAt: r.now(),
	})
	return nil
}
