package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quantum/stock-ledger/internal/core/domain"
)

type PurchaseOrderRepository interface {
	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error

	// GetPurchaseOrder returns nil when the purchase order does not
	// exist. Line items are loaded with the order.
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)

	ListPurchaseOrdersByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.PurchaseOrder, error)

	// TransitionStatus flips the status conditionally on the current
	// one, so concurrent receivers settle a RECEIVED transition at most
	// once. ErrVersionConflict signals a lost race.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.PurchaseOrderStatus, at time.Time) error

	// MarkLineCredited stamps a line as credited, conditionally on it
	// not being credited yet. ErrVersionConflict signals another
	// receiver claimed the line first.
	MarkLineCredited(ctx context.Context, lineID uuid.UUID, at time.Time) error

	// ClearLineCredited releases a credited stamp so a failed credit
	// can be retried.
	ClearLineCredited(ctx context.Context, lineID uuid.UUID) error
}
