package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopdientu/electro-shop-backend/internal/pricing"
	"github.com/shopdientu/electro-shop-backend/internal/rank"
)

type Service struct {
	repo     Repository
	ranks    rank.Repository
	resolver *rank.Resolver
}

func NewService(repo Repository, ranks rank.Repository, resolver *rank.Resolver) *Service {
	return &Service{repo: repo, ranks: ranks, resolver: resolver}
}

// Register creates a customer account on the lowest loyalty tier.
func (s *Service) Register(ctx context.Context, u User) (User, error) {
	u.Email = strings.TrimSpace(u.Email)
	if _, err := s.repo.GetByEmail(ctx, u.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u.Password = string(hashed)
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	u.Points = 0

	lowest, err := s.ranks.Lowest(ctx)
	if err != nil {
		return User{}, fmt.Errorf("resolve default rank: %w", err)
	}
	if lowest != nil {
		u.RankID = &lowest.ID
	}

	return s.repo.Create(ctx, u)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// EmailByID feeds the order tracking authorization check.
func (s *Service) EmailByID(ctx context.Context, userID int) (string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// BuyerFor returns the pricing view of a user: their cached rank and its
// discount percentage. Users without a rank price as anonymous buyers.
func (s *Service) BuyerFor(ctx context.Context, userID int) (pricing.Buyer, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return pricing.Buyer{}, err
	}
	if u.RankID == nil {
		return pricing.Buyer{}, nil
	}
	rk, err := s.ranks.GetByID(ctx, *u.RankID)
	if err != nil {
		if errors.Is(err, rank.ErrNotFound) {
			return pricing.Buyer{}, nil
		}
		return pricing.Buyer{}, err
	}
	return pricing.Buyer{RankID: u.RankID, RankPct: rk.DiscountPct}, nil
}

// Profile returns the user with the rank cache freshly synced against
// their points, so a stale rank_id heals on read.
func (s *Service) Profile(ctx context.Context, userID int) (User, *rank.Rank, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, nil, err
	}
	rk, updated, err := s.resolver.SyncUser(ctx, u.ID, u.Points, u.RankID)
	if err != nil {
		return User{}, nil, err
	}
	if updated && rk != nil {
		u.RankID = &rk.ID
	}
	return u, rk, nil
}
