package port

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/quantum/stock-ledger/internal/core/domain"
)

var (
	// ErrVersionConflict is returned when a conditional write lost the
	// race against a concurrent movement on the same item.
	ErrVersionConflict = errors.New("inventory version conflict")

	// ErrLedgerNotEmpty is returned when deleting an item that still
	// has stock transactions referencing it.
	ErrLedgerNotEmpty = errors.New("stock transactions reference this item")
)

type InventoryRepository interface {
	CreateItem(ctx context.Context, item domain.InventoryItem) error

	// GetItem returns nil when the item does not exist.
	GetItem(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)

	ListItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.InventoryItem, error)

	// UpdateItemDetails updates descriptive fields only; the balance
	// moves exclusively through ApplyMovement.
	UpdateItemDetails(ctx context.Context, item domain.InventoryItem) error

	// DeleteItem removes an item with no ledger history. It returns
	// ErrLedgerNotEmpty when transactions still reference the item.
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// ApplyMovement writes the item's new balance and appends the
	// ledger entry in one transaction. The item carries the version it
	// was read at; ErrVersionConflict signals a stale read.
	ApplyMovement(ctx context.Context, item domain.InventoryItem, entry domain.StockTransaction) error

	// ListTransactions returns an item's ledger entries in the order
	// they were recorded.
	ListTransactions(ctx context.Context, itemID uuid.UUID) ([]domain.StockTransaction, error)
}
