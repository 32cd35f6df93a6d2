package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shopdientu/electro-shop-backend/internal/pricing"
	"github.com/shopdientu/electro-shop-backend/internal/product"
	"github.com/shopdientu/electro-shop-backend/internal/promotion"
)

func newTestService(products ...product.Product) (*Service, *product.InMemoryRepository) {
	catalog := product.NewInMemoryRepository(products)
	engine := pricing.NewEngine(promotion.NewInMemoryRepository(nil))
	return NewService(NewInMemoryRepository(), catalog, engine), catalog
}

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAddNewLineCapturesPrice(t *testing.T) {
	svc, _ := newTestService(
		product.Product{ID: 1, Name: "Laptop", Price: price(25_000_000), Stock: 5, Active: true},
	)

	snap, err := svc.Add(context.Background(), UserKey(7), pricing.Buyer{}, 1, 2)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snap.Items))
	}
	if snap.Items[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", snap.Items[0].Quantity)
	}
	if !snap.Items[0].UnitPrice.Equal(price(25_000_000)) {
		t.Errorf("expected unit price 25000000, got %s", snap.Items[0].UnitPrice)
	}
}

func TestAddExistingLineIncrementsQuantity(t *testing.T) {
	svc, _ := newTestService(
		product.Product{ID: 1, Name: "Laptop", Price: price(1000), Stock: 10, Active: true},
	)
	key := SessionKey("abc")
	ctx := context.Background()

	if _, err := svc.Add(ctx, key, pricing.Buyer{}, 1, 1); err != nil {
		t.Fatalf("first Add returned error: %v", err)
	}
	snap, err := svc.Add(ctx, key, pricing.Buyer{}, 1, 3)
	if err != nil {
		t.Fatalf("second Add returned error: %v", err)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snap.Items))
	}
	if snap.Items[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", snap.Items[0].Quantity)
	}
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Add(context.Background(), UserKey(1), pricing.Buyer{}, 1, 0); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddRejectsInactiveProduct(t *testing.T) {
	svc, _ := newTestService(
		product.Product{ID: 2, Name: "Discontinued", Price: price(500), Stock: 3, Active: false},
	)
	if _, err := svc.Add(context.Background(), UserKey(1), pricing.Buyer{}, 2, 1); err != product.ErrNotFound {
		t.Fatalf("expected ErrNotFound for inactive product, got %v", err)
	}
}

func TestAddAppliesRankDiscountToNewLine(t *testing.T) {
	svc, _ := newTestService(
		product.Product{ID: 1, Name: "Phone", Price: price(1000), Stock: 5, Active: true},
	)
	rankID := 3
	buyer := pricing.Buyer{RankID: &rankID, RankPct: decimal.NewFromInt(10)}

	snap, err := svc.Add(context.Background(), UserKey(1), buyer, 1, 1)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !snap.Items[0].UnitPrice.Equal(price(900)) {
		t.Errorf("expected discounted unit price 900, got %s", snap.Items[0].UnitPrice)
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newTestService(
		product.Product{ID: 1, Name: "Mouse", Price: price(200), Stock: 9, Active: true},
		product.Product{ID: 2, Name: "Keyboard", Price: price(400), Stock: 9, Active: true},
	)
	key := UserKey(5)
	ctx := context.Background()

	svc.Add(ctx, key, pricing.Buyer{}, 1, 1)
	svc.Add(ctx, key, pricing.Buyer{}, 2, 1)

	snap, err := svc.SetQuantity(ctx, key, 1, 0)
	if err != nil {
		t.Fatalf("SetQuantity returned error: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].ProductID != 2 {
		t.Fatalf("expected only product 2 to remain, got %+v", snap.Items)
	}
}

func TestSnapshotTotalAndItemCount(t *testing.T) {
	snap := Snapshot{Items: []Item{
		{ProductID: 1, UnitPrice: price(1500), Quantity: 2},
		{ProductID: 2, UnitPrice: price(300), Quantity: 3},
	}}
	if !snap.Total().Equal(price(3900)) {
		t.Errorf("expected total 3900, got %s", snap.Total())
	}
	if snap.ItemCount() != 5 {
		t.Errorf("expected item count 5, got %d", snap.ItemCount())
	}
}

func TestMergeCartsSumsQuantitiesAndKeepsUserPrice(t *testing.T) {
	svc, _ := newTestService(
		product.Product{ID: 1, Name: "Laptop", Price: price(1000), Stock: 20, Active: true},
		product.Product{ID: 2, Name: "Charger", Price: price(250), Stock: 20, Active: true},
	)
	ctx := context.Background()
	userKey := UserKey(9)
	token := "anon-token"

	// user line added earlier at a promo price
	repo := svc.repo
	repo.Save(ctx, userKey, Snapshot{Items: []Item{
		{ProductID: 1, Name: "Laptop", UnitPrice: price(800), Quantity: 1},
	}})
	repo.Save(ctx, SessionKey(token), Snapshot{Items: []Item{
		{ProductID: 1, Name: "Laptop", UnitPrice: price(1000), Quantity: 2},
		{ProductID: 2, Name: "Charger", UnitPrice: price(250), Quantity: 1},
	}})

	if err := svc.MergeCarts(ctx, 9, token); err != nil {
		t.Fatalf("MergeCarts returned error: %v", err)
	}

	snap, _ := repo.Load(ctx, userKey)
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(snap.Items))
	}
	if i := snap.find(1); snap.Items[i].Quantity != 3 || !snap.Items[i].UnitPrice.Equal(price(800)) {
		t.Errorf("expected product 1 qty 3 at user price 800, got qty %d price %s",
			snap.Items[i].Quantity, snap.Items[i].UnitPrice)
	}
	if i := snap.find(2); snap.Items[i].Quantity != 1 {
		t.Errorf("expected product 2 qty 1, got %d", snap.Items[i].Quantity)
	}

	anon, _ := repo.Load(ctx, SessionKey(token))
	if len(anon.Items) != 0 {
		t.Errorf("expected anonymous cart to be deleted, got %+v", anon.Items)
	}
}

func TestMergeCartsEmptySessionIsNoop(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.MergeCarts(context.Background(), 9, ""); err != nil {
		t.Fatalf("MergeCarts with empty token returned error: %v", err)
	}
}

func TestClearDeletesCart(t *testing.T) {
	svc, _ := newTestService(
		product.Product{ID: 1, Name: "Mouse", Price: price(200), Stock: 9, Active: true},
	)
	key := UserKey(4)
	ctx := context.Background()
	svc.Add(ctx, key, pricing.Buyer{}, 1, 1)

	if err := svc.Clear(ctx, key); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	snap, _ := svc.Get(ctx, key)
	if len(snap.Items) != 0 {
		t.Errorf("expected empty cart after clear, got %+v", snap.Items)
	}
}
