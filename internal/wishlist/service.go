package wishlist

import (
	"context"
	"errors"

	"github.com/shopdientu/electro-shop-backend/internal/product"
)

// Catalog is the read-only product lookup used to validate and resolve
// saved ids.
type Catalog interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

func (s *Service) Add(ctx context.Context, userID, productID int) error {
	p, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return product.ErrNotFound
	}
	return s.repo.Add(ctx, userID, productID)
}

func (s *Service) Remove(ctx context.Context, userID, productID int) error {
	return s.repo.Remove(ctx, userID, productID)
}

// List resolves the saved ids against the catalog. Products that have
// been removed since they were saved are silently dropped.
func (s *Service) List(ctx context.Context, userID int) ([]product.Product, error) {
	ids, err := s.repo.ListIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.catalog.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
