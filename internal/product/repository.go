package product

import (
	"context"
	"fmt"
	"sync"
)

// Repository provides read access to the catalog.
type Repository interface {
	GetByID(ctx context.Context, id int) (Product, error)
	List(ctx context.Context) ([]Product, error)
	ListBySubcategory(ctx context.Context, subcategoryID int) ([]Product, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	products map[int]Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{products: make(map[int]Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p
	}
	return r
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) List(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *InMemoryRepository) ListBySubcategory(_ context.Context, subcategoryID int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0)
	for _, p := range r.products {
		if p.SubcategoryID != nil && *p.SubcategoryID == subcategoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

// AdjustStock changes a product's stock by delta. It exists so the
// in-memory order repository can mirror the checkout transaction; the
// Repository interface stays read-only on purpose.
func (r *InMemoryRepository) AdjustStock(id, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	if p.Stock+delta < 0 {
		return fmt.Errorf("stock for product %d would go negative", id)
	}
	p.Stock += delta
	r.products[id] = p
	return nil
}
