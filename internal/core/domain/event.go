package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StockEventType string

const (
	StockEventMovement StockEventType = "STOCK_MOVEMENT"
	StockEventLowStock StockEventType = "LOW_STOCK"
)

// StockEvent is published after a movement commits. Low-stock events
// carry the same snapshot with the LOW_STOCK type so consumers can
// alert without re-reading the item.
type StockEvent struct {
	Type         StockEventType  `json:"type"`
	ItemID       uuid.UUID       `json:"item_id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	Kind         MovementKind    `json:"kind"`
	Delta        decimal.Decimal `json:"delta"`
	Balance      decimal.Decimal `json:"balance"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	Note         string          `json:"note,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
