package cart

import (
	"context"
	"sync"
)

// Repository is the session-backed snapshot store. Carts have no
// durability beyond the session lifetime; Load of an unknown key returns
// an empty snapshot, not an error.
type Repository interface {
	Load(ctx context.Context, key string) (Snapshot, error)
	Save(ctx context.Context, key string, snap Snapshot) error
	Delete(ctx context.Context, key string) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{snaps: make(map[string]Snapshot)}
}

func (r *InMemoryRepository) Load(_ context.Context, key string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snaps[key]
	if !ok {
		return Snapshot{}, nil
	}
	copied := Snapshot{Items: make([]Item, len(snap.Items))}
	copy(copied.Items, snap.Items)
	return copied, nil
}

func (r *InMemoryRepository) Save(_ context.Context, key string, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := Snapshot{Items: make([]Item, len(snap.Items))}
	copy(copied.Items, snap.Items)
	r.snaps[key] = copied
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, key)
	return nil
}
