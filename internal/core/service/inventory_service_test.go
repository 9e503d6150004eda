package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantum/stock-ledger/internal/core/domain"
)

func newTestInventoryService(repo *memInventoryRepo) *InventoryService {
	return NewInventoryService(repo, newMemCache(), zap.NewNop())
}

func TestCreateItem_SetsOpeningBalance(t *testing.T) {
	repo := newMemInventoryRepo()
	svc := newTestInventoryService(repo)

	item, err := svc.CreateItem(context.Background(), uuid.New(), domain.InventoryItem{
		Name:     "flour",
		Category: "dry goods",
		Unit:     "kg",
		Quantity: dec("42.5"),
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	if item.ID == uuid.Nil {
		t.Error("expected generated item id")
	}
	if !item.Quantity.Equal(dec("42.5")) {
		t.Errorf("expected opening balance 42.5, got %s", item.Quantity)
	}
	if item.Version != 0 {
		t.Errorf("expected version 0, got %d", item.Version)
	}
}

func TestCreateItem_NegativeOpeningRejected(t *testing.T) {
	repo := newMemInventoryRepo()
	svc := newTestInventoryService(repo)

	_, err := svc.CreateItem(context.Background(), uuid.New(), domain.InventoryItem{
		Name:     "flour",
		Unit:     "kg",
		Quantity: dec("-1"),
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

func TestUpdateItemDetails_DoesNotTouchBalance(t *testing.T) {
	repo := newMemInventoryRepo()
	itemID := repo.seed("flour", dec("100"), dec("10"))
	svc := newTestInventoryService(repo)

	updated, err := svc.UpdateItemDetails(context.Background(), itemID, domain.InventoryItem{
		Name:         "bread flour",
		Category:     "dry goods",
		Unit:         "kg",
		ReorderLevel: dec("20"),
		PricePerUnit: dec("1.2"),
		Quantity:     dec("9999"), // ignored
	})
	if err != nil {
		t.Fatalf("UpdateItemDetails failed: %v", err)
	}

	if updated.Name != "bread flour" {
		t.Errorf("expected renamed item, got %q", updated.Name)
	}
	if !updated.Quantity.Equal(dec("100")) {
		t.Errorf("details update moved the balance: %s", updated.Quantity)
	}
	if !repo.balance(itemID).Equal(dec("100")) {
		t.Errorf("stored balance changed: %s", repo.balance(itemID))
	}
}

func TestDeleteItem_RefusedWithLedgerHistory(t *testing.T) {
	repo := newMemInventoryRepo()
	itemID := repo.seed("flour", dec("100"), dec("10"))
	svc := newTestInventoryService(repo)
	movements := newTestMovementService(repo)

	if _, err := movements.RecordUsage(context.Background(), itemID, dec("1"), "order"); err != nil {
		t.Fatal(err)
	}

	err := svc.DeleteItem(context.Background(), itemID)
	if !errors.Is(err, ErrItemHasHistory) {
		t.Fatalf("expected ErrItemHasHistory, got: %v", err)
	}

	// The item and its ledger remain readable.
	if _, err := svc.GetItem(context.Background(), itemID); err != nil {
		t.Errorf("item vanished after refused delete: %v", err)
	}
}

func TestDeleteItem_AllowedWithoutHistory(t *testing.T) {
	repo := newMemInventoryRepo()
	itemID := repo.seed("flour", dec("100"), dec("10"))
	svc := newTestInventoryService(repo)

	if err := svc.DeleteItem(context.Background(), itemID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	_, err := svc.GetItem(context.Background(), itemID)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound after delete, got: %v", err)
	}
}

func TestDeleteItem_NotFound(t *testing.T) {
	repo := newMemInventoryRepo()
	svc := newTestInventoryService(repo)

	err := svc.DeleteItem(context.Background(), uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got: %v", err)
	}
}

func TestGetBalance_ServedFromCache(t *testing.T) {
	repo := newMemInventoryRepo()
	itemID := repo.seed("flour", dec("100"), dec("10"))
	cache := newMemCache()
	svc := NewInventoryService(repo, cache, zap.NewNop())

	// A mirrored value wins over the stored row.
	if err := cache.SetBalance(context.Background(), itemID, dec("97")); err != nil {
		t.Fatal(err)
	}

	balance, err := svc.GetBalance(context.Background(), itemID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(dec("97")) {
		t.Errorf("expected cached balance 97, got %s", balance)
	}
}

func TestGetBalance_MissBackfillsFromStorage(t *testing.T) {
	repo := newMemInventoryRepo()
	itemID := repo.seed("flour", dec("100"), dec("10"))
	cache := newMemCache()
	svc := NewInventoryService(repo, cache, zap.NewNop())

	balance, err := svc.GetBalance(context.Background(), itemID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(dec("100")) {
		t.Errorf("expected stored balance 100, got %s", balance)
	}

	cached, hit, err := cache.GetBalance(context.Background(), itemID)
	if err != nil {
		t.Fatal(err)
	}
	if !hit || !cached.Equal(dec("100")) {
		t.Errorf("miss did not backfill the cache: hit=%v balance=%s", hit, cached)
	}
}

func TestGetBalance_NotFound(t *testing.T) {
	repo := newMemInventoryRepo()
	svc := newTestInventoryService(repo)

	_, err := svc.GetBalance(context.Background(), uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got: %v", err)
	}
}

func TestListItemsByRestaurant(t *testing.T) {
	repo := newMemInventoryRepo()
	svc := newTestInventoryService(repo)
	restaurantID := uuid.New()

	for _, name := range []string{"flour", "cheese"} {
		if _, err := svc.CreateItem(context.Background(), restaurantID, domain.InventoryItem{
			Name: name, Unit: "kg", Quantity: decimal.Zero,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.CreateItem(context.Background(), uuid.New(), domain.InventoryItem{
		Name: "other-restaurant", Unit: "kg", Quantity: decimal.Zero,
	}); err != nil {
		t.Fatal(err)
	}

	items, err := svc.ListItemsByRestaurant(context.Background(), restaurantID)
	if err != nil {
		t.Fatalf("ListItemsByRestaurant failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}
