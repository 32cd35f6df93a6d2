package wishlist

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shopdientu/electro-shop-backend/internal/product"
)

func newTestService(products ...product.Product) *Service {
	return NewService(NewInMemoryRepository(), product.NewInMemoryRepository(products))
}

func TestAddAndList(t *testing.T) {
	svc := newTestService(
		product.Product{ID: 1, Name: "Laptop", Price: decimal.NewFromInt(1000), Active: true},
		product.Product{ID: 2, Name: "Mouse", Price: decimal.NewFromInt(100), Active: true},
	)
	ctx := context.Background()

	if err := svc.Add(ctx, 7, 1); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := svc.Add(ctx, 7, 2); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := svc.Add(ctx, 7, 1); !errors.Is(err, ErrAlreadyInWishlist) {
		t.Fatalf("expected ErrAlreadyInWishlist, got %v", err)
	}

	list, err := svc.List(ctx, 7)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Errorf("expected products 1 and 2 in order, got %+v", list)
	}
}

func TestAddUnknownOrInactiveProduct(t *testing.T) {
	svc := newTestService(
		product.Product{ID: 2, Name: "Discontinued", Active: false},
	)
	ctx := context.Background()

	if err := svc.Add(ctx, 7, 99); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown product, got %v", err)
	}
	if err := svc.Add(ctx, 7, 2); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive product, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	svc := newTestService(
		product.Product{ID: 1, Name: "Laptop", Active: true},
	)
	ctx := context.Background()
	svc.Add(ctx, 7, 1)

	if err := svc.Remove(ctx, 7, 1); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := svc.Remove(ctx, 7, 1); !errors.Is(err, ErrNotInWishlist) {
		t.Fatalf("expected ErrNotInWishlist, got %v", err)
	}
}
