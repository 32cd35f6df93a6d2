package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopdientu/electro-shop-backend/internal/pricing"
	"github.com/shopdientu/electro-shop-backend/internal/product"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Catalog is the read-only product lookup the cart needs when a new line
// is added.
type Catalog interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

// Pricer captures the unit price for a new cart line. Satisfied by
// pricing.Engine.
type Pricer interface {
	EffectiveUnitPrice(ctx context.Context, p product.Product, asOf time.Time, buyer pricing.Buyer) (decimal.Decimal, error)
}

// Service owns cart mutations. Every mutation persists the updated
// snapshot immediately; stock is validated by the caller before Add, not
// here.
type Service struct {
	repo    Repository
	catalog Catalog
	pricer  Pricer
	now     func() time.Time
}

func NewService(repo Repository, catalog Catalog, pricer Pricer) *Service {
	return &Service{repo: repo, catalog: catalog, pricer: pricer, now: time.Now}
}

func (s *Service) Get(ctx context.Context, key string) (Snapshot, error) {
	return s.repo.Load(ctx, key)
}

// Add puts qty units of a product into the cart. An existing line keeps
// its captured price and only its quantity grows; a new line captures the
// effective unit price at call time.
func (s *Service) Add(ctx context.Context, key string, buyer pricing.Buyer, productID, qty int) (Snapshot, error) {
	if qty < 1 {
		return Snapshot{}, ErrInvalidQuantity
	}

	snap, err := s.repo.Load(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}

	if i := snap.find(productID); i >= 0 {
		snap.Items[i].Quantity += qty
	} else {
		p, err := s.catalog.GetByID(ctx, productID)
		if err != nil {
			return Snapshot{}, err
		}
		if !p.Active {
			return Snapshot{}, product.ErrNotFound
		}
		price, err := s.pricer.EffectiveUnitPrice(ctx, p, s.now(), buyer)
		if err != nil {
			return Snapshot{}, fmt.Errorf("price product %d: %w", productID, err)
		}
		snap.Items = append(snap.Items, Item{ProductID: p.ID, Name: p.Name, UnitPrice: price, Quantity: qty})
	}

	if err := s.repo.Save(ctx, key, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SetQuantity replaces a line's quantity; qty <= 0 removes the line.
func (s *Service) SetQuantity(ctx context.Context, key string, productID, qty int) (Snapshot, error) {
	snap, err := s.repo.Load(ctx, key)
	if err != nil {
		return Snapshot{}, err
	}

	if qty <= 0 {
		snap.remove(productID)
	} else if i := snap.find(productID); i >= 0 {
		snap.Items[i].Quantity = qty
	}

	if err := s.repo.Save(ctx, key, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) Remove(ctx context.Context, key string, productID int) (Snapshot, error) {
	return s.SetQuantity(ctx, key, productID, 0)
}

func (s *Service) Clear(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// MergeCarts folds the anonymous session cart into the user's cart at
// login or registration: union by product id, quantities summed, the
// user cart's captured price wins on conflict. The anonymous cart is
// deleted afterwards.
func (s *Service) MergeCarts(ctx context.Context, userID int, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	userKey := UserKey(userID)
	anonKey := SessionKey(sessionToken)

	anon, err := s.repo.Load(ctx, anonKey)
	if err != nil {
		return err
	}
	if len(anon.Items) == 0 {
		return s.repo.Delete(ctx, anonKey)
	}

	snap, err := s.repo.Load(ctx, userKey)
	if err != nil {
		return err
	}
	for _, it := range anon.Items {
		if i := snap.find(it.ProductID); i >= 0 {
			snap.Items[i].Quantity += it.Quantity
		} else {
			snap.Items = append(snap.Items, it)
		}
	}

	if err := s.repo.Save(ctx, userKey, snap); err != nil {
		return err
	}
	return s.repo.Delete(ctx, anonKey)
}
