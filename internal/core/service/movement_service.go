package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/port"
)

var (
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("stock movement lost concurrent update race")
)

// maxConflictRetries bounds how often a movement is replayed after a
// version conflict before the conflict surfaces to the caller.
const maxConflictRetries = 3

// MovementService is the only component that mutates inventory
// balances. Every balance change is paired with exactly one ledger
// entry, committed atomically by the repository under a version check.
type MovementService struct {
	repo   port.InventoryRepository
	cache  port.CacheRepository
	events chan domain.StockEvent
	logger *zap.Logger
}

func NewMovementService(repo port.InventoryRepository, cache port.CacheRepository, queueSize int, logger *zap.Logger) *MovementService {
	return &MovementService{
		repo:   repo,
		cache:  cache,
		events: make(chan domain.StockEvent, queueSize),
		logger: logger,
	}
}

// RecordPurchase increases an item's balance and appends a PURCHASE
// ledger entry with a positive delta.
func (s *MovementService) RecordPurchase(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, note string) (*domain.InventoryItem, error) {
	return s.apply(ctx, itemID, domain.MovementPurchase, note, func(item *domain.InventoryItem) (decimal.Decimal, error) {
		if quantity.Sign() <= 0 {
			return decimal.Zero, fmt.Errorf("%w: purchase quantity %s must be greater than zero", ErrInvalidQuantity, quantity)
		}
		return quantity, nil
	})
}

// RecordUsage decreases an item's balance and appends a USAGE ledger
// entry with a negative delta. Usage never drives the balance negative.
func (s *MovementService) RecordUsage(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, note string) (*domain.InventoryItem, error) {
	return s.apply(ctx, itemID, domain.MovementUsage, note, func(item *domain.InventoryItem) (decimal.Decimal, error) {
		if quantity.Sign() <= 0 {
			return decimal.Zero, fmt.Errorf("%w: usage quantity %s must be greater than zero", ErrInvalidQuantity, quantity)
		}
		if quantity.Cmp(item.Quantity) > 0 {
			return decimal.Zero, fmt.Errorf("%w: item %q has %s %s, requested %s", ErrInsufficientStock,
				item.Name, item.Quantity, item.Unit, quantity)
		}
		return quantity.Neg(), nil
	})
}

// RecordAdjustment sets the balance to newQuantity exactly and appends
// an ADJUSTMENT entry with the resulting delta, which may be zero.
func (s *MovementService) RecordAdjustment(ctx context.Context, itemID uuid.UUID, newQuantity decimal.Decimal, note string) (*domain.InventoryItem, error) {
	return s.apply(ctx, itemID, domain.MovementAdjustment, note, func(item *domain.InventoryItem) (decimal.Decimal, error) {
		if newQuantity.Sign() < 0 {
			return decimal.Zero, fmt.Errorf("%w: adjusted quantity %s must not be negative", ErrInvalidQuantity, newQuantity)
		}
		return newQuantity.Sub(item.Quantity), nil
	})
}

// ListTransactions returns an item's ledger entries in recorded order.
func (s *MovementService) ListTransactions(ctx context.Context, itemID uuid.UUID) ([]domain.StockTransaction, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load inventory item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	entries, err := s.repo.ListTransactions(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for item %s: %w", itemID, err)
	}
	return entries, nil
}

// apply runs the read-validate-write sequence for one movement and
// replays it on version conflicts. deltaFn validates the request
// against the freshly read item and returns the signed delta.
func (s *MovementService) apply(ctx context.Context, itemID uuid.UUID, kind domain.MovementKind, note string,
	deltaFn func(item *domain.InventoryItem) (decimal.Decimal, error)) (*domain.InventoryItem, error) {

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		item, err := s.repo.GetItem(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("load inventory item: %w", err)
		}
		if item == nil {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}

		delta, err := deltaFn(item)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		updated := *item
		updated.Quantity = item.Quantity.Add(delta)
		updated.UpdatedAt = now

		entry := domain.StockTransaction{
			ID:         uuid.New(),
			ItemID:     item.ID,
			Delta:      delta,
			Kind:       kind,
			Note:       note,
			RecordedAt: now,
		}

		if err := s.repo.ApplyMovement(ctx, updated, entry); err != nil {
			if errors.Is(err, port.ErrVersionConflict) {
				lastErr = err
				s.logger.Debug("movement lost version race, retrying",
					zap.String("item_id", itemID.String()),
					zap.String("kind", string(kind)),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, fmt.Errorf("apply %s movement: %w", kind, err)
		}
		updated.Version++

		s.afterCommit(ctx, &updated, entry)
		return &updated, nil
	}

	return nil, fmt.Errorf("%w: item %s after %d attempts: %v", ErrConflict, itemID, maxConflictRetries, lastErr)
}

// afterCommit mirrors the new balance into the cache and enqueues the
// movement event. Both are best-effort; the ledger already holds the
// truth.
func (s *MovementService) afterCommit(ctx context.Context, item *domain.InventoryItem, entry domain.StockTransaction) {
	if err := s.cache.SetBalance(ctx, item.ID, item.Quantity); err != nil {
		s.logger.Warn("failed to mirror balance to cache",
			zap.String("item_id", item.ID.String()), zap.Error(err))
	}

	event := domain.StockEvent{
		Type:         domain.StockEventMovement,
		ItemID:       item.ID,
		RestaurantID: item.RestaurantID,
		Kind:         entry.Kind,
		Delta:        entry.Delta,
		Balance:      item.Quantity,
		ReorderLevel: item.ReorderLevel,
		Note:         entry.Note,
		OccurredAt:   entry.RecordedAt,
	}
	s.enqueue(event)

	if entry.Delta.Sign() < 0 && item.BelowReorderLevel() {
		s.logger.Warn("item at or below reorder level",
			zap.String("item_id", item.ID.String()),
			zap.String("name", item.Name),
			zap.String("balance", item.Quantity.String()),
			zap.String("reorder_level", item.ReorderLevel.String()))
		low := event
		low.Type = domain.StockEventLowStock
		s.enqueue(low)
	}
}

func (s *MovementService) enqueue(event domain.StockEvent) {
	select {
	case s.events <- event:
	default:
		// A full queue must not block a committed movement.
		s.logger.Warn("event queue full, dropping stock event",
			zap.String("item_id", event.ItemID.String()),
			zap.String("type", string(event.Type)))
	}
}

// Events exposes committed stock events for the publisher workers.
func (s *MovementService) Events() <-chan domain.StockEvent {
	return s.events
}

func (s *MovementService) Close() {
	close(s.events)
}
