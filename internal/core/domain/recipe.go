package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ingredient links a menu item to an inventory item and the quantity
// consumed per unit of the menu item sold. Recipes are owned by the
// menu subsystem; the ledger only reads them.
type Ingredient struct {
	ID              uuid.UUID
	MenuItemID      uuid.UUID
	ItemID          uuid.UUID
	QuantityPerUnit decimal.Decimal
}
