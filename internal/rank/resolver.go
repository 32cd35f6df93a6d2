package rank

import (
	"context"
	"fmt"
)

// UserRankWriter persists a recomputed rank for a user. Implemented by the
// user repository; defined here so this package does not import it.
type UserRankWriter interface {
	SetUserRank(ctx context.Context, userID, rankID int) error
}

// Resolver maps accumulated points to the highest qualifying tier and
// keeps the cached rank on the user row in sync.
type Resolver struct {
	repo  Repository
	users UserRankWriter
}

func NewResolver(repo Repository, users UserRankWriter) *Resolver {
	return &Resolver{repo: repo, users: users}
}

// Resolve returns the highest tier whose threshold is <= points, or nil
// when the rank table is empty or no tier qualifies.
func (r *Resolver) Resolve(ctx context.Context, points int) (*Rank, error) {
	return r.repo.HighestFor(ctx, points)
}

// SyncUser recomputes the user's rank from points and writes it only when
// the cached rank id differs, so repeated calls with unchanged points are
// no-op writes. It returns the resolved rank and whether a write happened.
func (r *Resolver) SyncUser(ctx context.Context, userID, points int, currentRankID *int) (*Rank, bool, error) {
	rk, err := r.Resolve(ctx, points)
	if err != nil {
		return nil, false, fmt.Errorf("resolve rank: %w", err)
	}
	if rk == nil {
		return nil, false, nil
	}
	if currentRankID != nil && *currentRankID == rk.ID {
		return rk, false, nil
	}
	if err := r.users.SetUserRank(ctx, userID, rk.ID); err != nil {
		return rk, false, fmt.Errorf("persist rank for user %d: %w", userID, err)
	}
	return rk, true, nil
}
