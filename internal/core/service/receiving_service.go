package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/port"
)

var (
	ErrPurchaseOrderNotFound = errors.New("purchase order not found")
	ErrUnknownStatus         = errors.New("unknown purchase order status")
	ErrInvalidTransition     = errors.New("invalid purchase order status transition")
)

// ReceivingService owns purchase orders and their status transitions.
// The PENDING to RECEIVED edge, and only that edge, credits stock with
// one purchase movement per line item.
type ReceivingService struct {
	orders    port.PurchaseOrderRepository
	inventory port.InventoryRepository
	movements *MovementService
	logger    *zap.Logger
}

func NewReceivingService(orders port.PurchaseOrderRepository, inventory port.InventoryRepository, movements *MovementService, logger *zap.Logger) *ReceivingService {
	return &ReceivingService{
		orders:    orders,
		inventory: inventory,
		movements: movements,
		logger:    logger,
	}
}

// CreatePurchaseOrder registers a new PENDING order after verifying
// every line references a real inventory item.
func (s *ReceivingService) CreatePurchaseOrder(ctx context.Context, restaurantID uuid.UUID, supplier string, items []domain.PurchaseOrderItem) (*domain.PurchaseOrder, error) {
	for _, line := range items {
		item, err := s.inventory.GetItem(ctx, line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("resolve inventory item %s: %w", line.ItemID, err)
		}
		if item == nil {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, line.ItemID)
		}
		if line.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("%w: purchase order quantity %s for item %s must be greater than zero",
				ErrInvalidQuantity, line.Quantity, line.ItemID)
		}
	}

	now := time.Now().UTC()
	po := domain.PurchaseOrder{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Supplier:     supplier,
		Status:       domain.PurchaseOrderPending,
		Items:        make([]domain.PurchaseOrderItem, len(items)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, line := range items {
		line.ID = uuid.New()
		po.Items[i] = line
	}

	if err := s.orders.CreatePurchaseOrder(ctx, po); err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	return &po, nil
}

func (s *ReceivingService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	po, err := s.orders.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load purchase order: %w", err)
	}
	if po == nil {
		return nil, fmt.Errorf("%w: %s", ErrPurchaseOrderNotFound, id)
	}
	return po, nil
}

func (s *ReceivingService) ListPurchaseOrdersByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.PurchaseOrder, error) {
	return s.orders.ListPurchaseOrdersByRestaurant(ctx, restaurantID)
}

// UpdateStatus validates the requested token against the transition
// table and flips the status conditionally, so two concurrent receive
// calls credit stock at most once. Re-saving RECEIVED on an order whose
// crediting failed midway resumes the uncredited lines.
func (s *ReceivingService) UpdateStatus(ctx context.Context, id uuid.UUID, token string) (*domain.PurchaseOrder, error) {
	next, ok := domain.ParsePurchaseOrderStatus(token)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, token)
	}

	po, err := s.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	// A RECEIVED order with uncredited lines is a receive that failed
	// midway. Re-saving RECEIVED resumes crediting those lines instead
	// of rejecting the transition.
	if next == domain.PurchaseOrderReceived && po.Status == domain.PurchaseOrderReceived && po.HasUncreditedLines() {
		if err := s.creditReceivedStock(ctx, po); err != nil {
			return nil, err
		}
		return po, nil
	}

	if !po.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, po.Status, next)
	}

	now := time.Now().UTC()
	if err := s.orders.TransitionStatus(ctx, id, po.Status, next, now); err != nil {
		if errors.Is(err, port.ErrVersionConflict) {
			// Someone else settled the order first.
			return nil, fmt.Errorf("%w: purchase order %s is no longer %s", ErrInvalidTransition, id, po.Status)
		}
		return nil, fmt.Errorf("transition purchase order %s: %w", id, err)
	}

	po.Status = next
	po.UpdatedAt = now

	if next == domain.PurchaseOrderReceived {
		if err := s.creditReceivedStock(ctx, po); err != nil {
			return nil, err
		}
	}
	return po, nil
}

// creditReceivedStock records one purchase movement per uncredited
// line. Each line is claimed with a conditional credited stamp before
// its movement, so concurrent receivers credit it at most once; a
// failed movement releases the claim and surfaces the error, leaving
// the line creditable by a repeated RECEIVED request.
func (s *ReceivingService) creditReceivedStock(ctx context.Context, po *domain.PurchaseOrder) error {
	note := "received purchase order " + po.ID.String()
	now := time.Now().UTC()

	for i := range po.Items {
		line := &po.Items[i]
		if line.CreditedAt != nil {
			continue
		}

		if err := s.orders.MarkLineCredited(ctx, line.ID, now); err != nil {
			if errors.Is(err, port.ErrVersionConflict) {
				// Another receiver claimed this line.
				continue
			}
			return fmt.Errorf("claim line %s of purchase order %s: %w", line.ID, po.ID, err)
		}

		if _, err := s.movements.RecordPurchase(ctx, line.ItemID, line.Quantity, note); err != nil {
			if clearErr := s.orders.ClearLineCredited(ctx, line.ID); clearErr != nil {
				s.logger.Error("failed to release credit claim",
					zap.String("purchase_order_id", po.ID.String()),
					zap.String("line_id", line.ID.String()),
					zap.Error(clearErr))
			}
			s.logger.Error("failed to credit received stock",
				zap.String("purchase_order_id", po.ID.String()),
				zap.String("item_id", line.ItemID.String()),
				zap.Error(err))
			return fmt.Errorf("credit item %s for purchase order %s: %w", line.ItemID, po.ID, err)
		}

		at := now
		line.CreditedAt = &at
	}

	s.logger.Info("purchase order received",
		zap.String("purchase_order_id", po.ID.String()),
		zap.Int("lines", len(po.Items)))
	return nil
}
