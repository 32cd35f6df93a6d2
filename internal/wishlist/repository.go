package wishlist

import (
	"context"
	"sync"
)

// Repository stores each user's saved product ids in insertion order.
type Repository interface {
	Add(ctx context.Context, userID, productID int) error
	Remove(ctx context.Context, userID, productID int) error
	ListIDs(ctx context.Context, userID int) ([]int, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.RWMutex
	lists map[int][]int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{lists: make(map[int][]int)}
}

func (r *InMemoryRepository) Add(_ context.Context, userID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.lists[userID] {
		if id == productID {
			return ErrAlreadyInWishlist
		}
	}
	r.lists[userID] = append(r.lists[userID], productID)
	return nil
}

func (r *InMemoryRepository) Remove(_ context.Context, userID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.lists[userID]
	for i, id := range list {
		if id == productID {
			r.lists[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotInWishlist
}

func (r *InMemoryRepository) ListIDs(_ context.Context, userID int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, len(r.lists[userID]))
	copy(out, r.lists[userID])
	return out, nil
}
