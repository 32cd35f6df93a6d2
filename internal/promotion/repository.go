package promotion

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Repository provides read access to promotions.
type Repository interface {
	// ActiveForProduct returns product promotions valid at asOf.
	ActiveForProduct(ctx context.Context, productID int, asOf time.Time) ([]Promotion, error)
	// VoucherByCode returns the store-wide promotion matching code
	// (case-insensitive) valid at asOf, or ErrNotFound.
	VoucherByCode(ctx context.Context, code string, asOf time.Time) (Promotion, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu         sync.RWMutex
	promotions []Promotion
}

func NewInMemoryRepository(seed []Promotion) *InMemoryRepository {
	r := &InMemoryRepository{promotions: make([]Promotion, 0, len(seed))}
	r.promotions = append(r.promotions, seed...)
	return r
}

func (r *InMemoryRepository) ActiveForProduct(_ context.Context, productID int, asOf time.Time) ([]Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Promotion, 0)
	for _, p := range r.promotions {
		if p.ProductID != nil && *p.ProductID == productID && p.ActiveAt(asOf) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) VoucherByCode(_ context.Context, code string, asOf time.Time) (Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.promotions {
		if p.ProductID != nil || p.PromoCode == nil || !p.ActiveAt(asOf) {
			continue
		}
		if strings.EqualFold(*p.PromoCode, code) {
			return p, nil
		}
	}
	return Promotion{}, ErrNotFound
}
