package product

import "context"

// Service is the catalog lookup used by the cart and pricing layers.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListBySubcategory(ctx context.Context, subcategoryID int) ([]Product, error) {
	return s.repo.ListBySubcategory(ctx, subcategoryID)
}
