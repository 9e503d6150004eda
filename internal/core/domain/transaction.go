package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementKind string

const (
	MovementPurchase   MovementKind = "PURCHASE"
	MovementUsage      MovementKind = "USAGE"
	MovementAdjustment MovementKind = "ADJUSTMENT"
)

// StockTransaction is one entry in the append-only stock ledger.
// Delta is signed: positive entries increase the balance, negative
// entries decrease it. Entries are never updated or deleted; the sum of
// all deltas for an item reconciles to that item's current balance.
type StockTransaction struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	Delta      decimal.Decimal
	Kind       MovementKind
	Note       string
	RecordedAt time.Time
}
