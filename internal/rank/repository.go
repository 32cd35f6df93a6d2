package rank

import (
	"context"
	"sort"
	"sync"
)

// Repository provides read access to loyalty tiers.
type Repository interface {
	GetByID(ctx context.Context, id int) (Rank, error)
	// Lowest returns the tier with the smallest threshold (the default
	// tier for new users), or nil when no tiers are configured.
	Lowest(ctx context.Context) (*Rank, error)
	// HighestFor returns the highest tier whose threshold is <= points,
	// or nil when no tier qualifies.
	HighestFor(ctx context.Context, points int) (*Rank, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.RWMutex
	ranks []Rank
}

func NewInMemoryRepository(seed []Rank) *InMemoryRepository {
	r := &InMemoryRepository{ranks: make([]Rank, 0, len(seed))}
	r.ranks = append(r.ranks, seed...)
	sort.Slice(r.ranks, func(i, j int) bool { return r.ranks[i].MinimumPoints < r.ranks[j].MinimumPoints })
	return r
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Rank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rk := range r.ranks {
		if rk.ID == id {
			return rk, nil
		}
	}
	return Rank{}, ErrNotFound
}

func (r *InMemoryRepository) Lowest(_ context.Context) (*Rank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.ranks) == 0 {
		return nil, nil
	}
	rk := r.ranks[0]
	return &rk, nil
}

func (r *InMemoryRepository) HighestFor(_ context.Context, points int) (*Rank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Rank
	for i := range r.ranks {
		if r.ranks[i].MinimumPoints <= points {
			rk := r.ranks[i]
			best = &rk
		}
	}
	return best, nil
}
