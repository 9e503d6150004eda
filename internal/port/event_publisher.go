package port

import (
	"context"

	"github.com/quantum/stock-ledger/internal/core/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.StockEvent) error
}
