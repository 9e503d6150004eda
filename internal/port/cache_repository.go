package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CacheRepository interface {
	// SetBalance mirrors an item's committed balance for fast reads
	SetBalance(ctx context.Context, itemID uuid.UUID, balance decimal.Decimal) error

	// GetBalance returns the mirrored balance; ok is false on a miss
	GetBalance(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, bool, error)

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ClearIdempotency releases a previously set idempotency key
	ClearIdempotency(ctx context.Context, key string) error
}
