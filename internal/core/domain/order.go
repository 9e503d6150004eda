package domain

import "github.com/google/uuid"

// Order is the slice of a dine-in order the ledger cares about: the
// line items whose recipes drive ingredient usage. The rest of the
// order (table, waiter, payments) lives in the host service.
type Order struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Items        []OrderItem
}

type OrderItem struct {
	MenuItemID   uuid.UUID
	MenuItemName string
	Quantity     int
}
