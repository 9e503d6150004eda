package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem holds the current stock balance for one ingredient or
// supply. The balance moves only through recorded stock movements; the
// Version field backs the optimistic lock on the balance.
type InventoryItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Category     string
	Unit         string
	Quantity     decimal.Decimal
	ReorderLevel decimal.Decimal
	PricePerUnit decimal.Decimal
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BelowReorderLevel reports whether the balance has dropped to the
// point where the item should be restocked.
func (i *InventoryItem) BelowReorderLevel() bool {
	return i.Quantity.Cmp(i.ReorderLevel) <= 0
}
