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

var ErrItemHasHistory = errors.New("inventory item has ledger history")

// InventoryService handles item registration and descriptive updates.
// It never touches the balance; that is the movement service's job.
type InventoryService struct {
	repo   port.InventoryRepository
	cache  port.CacheRepository
	logger *zap.Logger
}

func NewInventoryService(repo port.InventoryRepository, cache port.CacheRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{repo: repo, cache: cache, logger: logger}
}

// CreateItem registers an item under a restaurant. The opening
// quantity becomes the starting balance without a ledger entry;
// corrections afterwards go through adjustments.
func (s *InventoryService) CreateItem(ctx context.Context, restaurantID uuid.UUID, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if item.Quantity.Sign() < 0 {
		return nil, fmt.Errorf("%w: opening quantity %s must not be negative", ErrInvalidQuantity, item.Quantity)
	}

	now := time.Now().UTC()
	item.ID = uuid.New()
	item.RestaurantID = restaurantID
	item.Version = 0
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}

	if err := s.cache.SetBalance(ctx, item.ID, item.Quantity); err != nil {
		s.logger.Warn("failed to mirror opening balance to cache",
			zap.String("item_id", item.ID.String()), zap.Error(err))
	}

	s.logger.Info("inventory item created",
		zap.String("item_id", item.ID.String()),
		zap.String("name", item.Name),
		zap.String("restaurant_id", restaurantID.String()))
	return &item, nil
}

func (s *InventoryService) GetItem(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load inventory item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

func (s *InventoryService) ListItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.InventoryItem, error) {
	return s.repo.ListItemsByRestaurant(ctx, restaurantID)
}

// GetBalance returns an item's current balance, served from the cache
// mirror when it holds the item and backfilled from storage on a miss.
func (s *InventoryService) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	balance, hit, err := s.cache.GetBalance(ctx, id)
	if err != nil {
		s.logger.Warn("balance cache read failed",
			zap.String("item_id", id.String()), zap.Error(err))
	} else if hit {
		return balance, nil
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.cache.SetBalance(ctx, item.ID, item.Quantity); err != nil {
		s.logger.Warn("failed to mirror balance to cache",
			zap.String("item_id", item.ID.String()), zap.Error(err))
	}
	return item.Quantity, nil
}

// UpdateItemDetails replaces the descriptive fields of an item. The
// quantity in the payload is ignored.
func (s *InventoryService) UpdateItemDetails(ctx context.Context, id uuid.UUID, update domain.InventoryItem) (*domain.InventoryItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = update.Name
	item.Category = update.Category
	item.Unit = update.Unit
	item.ReorderLevel = update.ReorderLevel
	item.PricePerUnit = update.PricePerUnit
	item.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateItemDetails(ctx, *item); err != nil {
		return nil, fmt.Errorf("update inventory item %s: %w", id, err)
	}
	return item, nil
}

// DeleteItem removes an item, refusing while ledger entries still
// reference it so the audit trail stays readable.
func (s *InventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetItem(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, port.ErrLedgerNotEmpty) {
			return fmt.Errorf("%w: %s", ErrItemHasHistory, id)
		}
		return fmt.Errorf("delete inventory item %s: %w", id, err)
	}
	return nil
}
