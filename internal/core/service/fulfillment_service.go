package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/port"
)

var ErrOrderAlreadyConsumed = errors.New("order already consumed ingredients")

// FulfillmentService turns a created order's line items into inventory
// usage, one movement per ingredient per line.
type FulfillmentService struct {
	movements *MovementService
	recipes   port.RecipeRepository
	cache     port.CacheRepository
	logger    *zap.Logger
}

func NewFulfillmentService(movements *MovementService, recipes port.RecipeRepository, cache port.CacheRepository, logger *zap.Logger) *FulfillmentService {
	return &FulfillmentService{
		movements: movements,
		recipes:   recipes,
		cache:     cache,
		logger:    logger,
	}
}

// ConsumeForOrder records one usage movement per recipe ingredient of
// every line item, in line then recipe order. The movements are
// independent: the first failure aborts the remaining ingredients and
// propagates, while earlier movements stand in the ledger. The
// idempotency key stays set after a partial application so a retried
// order id cannot consume the surviving ingredients twice; a failure
// before any movement releases the key, keeping the order retryable.
func (s *FulfillmentService) ConsumeForOrder(ctx context.Context, order domain.Order) error {
	key := "order:consumed:" + order.ID.String()
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return fmt.Errorf("order consumption idempotency check: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrderAlreadyConsumed, order.ID)
	}

	applied := 0
	for _, line := range order.Items {
		ingredients, err := s.recipes.IngredientsForMenuItem(ctx, line.MenuItemID)
		if err != nil {
			s.releaseIfUnused(ctx, key, applied)
			return fmt.Errorf("load recipe for menu item %s: %w", line.MenuItemID, err)
		}

		for _, ing := range ingredients {
			used := ing.QuantityPerUnit.Mul(decimal.NewFromInt(int64(line.Quantity)))
			note := fmt.Sprintf("used for order %s, menu item %s", order.ID, line.MenuItemName)

			if _, err := s.movements.RecordUsage(ctx, ing.ItemID, used, note); err != nil {
				s.releaseIfUnused(ctx, key, applied)
				s.logger.Error("order consumption aborted",
					zap.String("order_id", order.ID.String()),
					zap.String("menu_item", line.MenuItemName),
					zap.String("item_id", ing.ItemID.String()),
					zap.Error(err))
				return fmt.Errorf("consume ingredient %s for order %s: %w", ing.ItemID, order.ID, err)
			}
			applied++
		}
	}

	return nil
}

// releaseIfUnused drops the idempotency key when a failed consumption
// recorded no movements, so a clean retry is not locked out until the
// key's TTL expires.
func (s *FulfillmentService) releaseIfUnused(ctx context.Context, key string, applied int) {
	if applied > 0 {
		return
	}
	if err := s.cache.ClearIdempotency(ctx, key); err != nil {
		s.logger.Warn("failed to release order idempotency key",
			zap.String("key", key), zap.Error(err))
	}
}
