package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/port"
)

// memInventoryRepo is an in-memory InventoryRepository with the same
// version-check semantics as the MySQL adapter, safe for concurrent
// test callers.
type memInventoryRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]domain.InventoryItem
	entries map[uuid.UUID][]domain.StockTransaction

	// applyErrs, when non-empty, is popped on each ApplyMovement call
	// before the real write. Used to inject version conflicts.
	applyErrs []error
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{
		items:   make(map[uuid.UUID]domain.InventoryItem),
		entries: make(map[uuid.UUID][]domain.StockTransaction),
	}
}

func (m *memInventoryRepo) seed(name string, quantity, reorderLevel decimal.Decimal) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.items[id] = domain.InventoryItem{
		ID:           id,
		RestaurantID: uuid.New(),
		Name:         name,
		Unit:         "kg",
		Quantity:     quantity,
		ReorderLevel: reorderLevel,
	}
	return id
}

func (m *memInventoryRepo) CreateItem(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *memInventoryRepo) GetItem(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *memInventoryRepo) ListItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []domain.InventoryItem
	for _, item := range m.items {
		if item.RestaurantID == restaurantID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *memInventoryRepo) UpdateItemDetails(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[item.ID]
	if !ok {
		return nil
	}
	item.Quantity = current.Quantity
	item.Version = current.Version
	m.items[item.ID] = item
	return nil
}

func (m *memInventoryRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries[id]) > 0 {
		return port.ErrLedgerNotEmpty
	}
	delete(m.items, id)
	return nil
}

func (m *memInventoryRepo) ApplyMovement(ctx context.Context, item domain.InventoryItem, entry domain.StockTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.applyErrs) > 0 {
		err := m.applyErrs[0]
		m.applyErrs = m.applyErrs[1:]
		if err != nil {
			return err
		}
	}

	current, ok := m.items[item.ID]
	if !ok || current.Version != item.Version {
		return port.ErrVersionConflict
	}

	item.Version++
	m.items[item.ID] = item
	m.entries[item.ID] = append(m.entries[item.ID], entry)
	return nil
}

func (m *memInventoryRepo) ListTransactions(ctx context.Context, itemID uuid.UUID) ([]domain.StockTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]domain.StockTransaction, len(m.entries[itemID]))
	copy(entries, m.entries[itemID])
	return entries, nil
}

func (m *memInventoryRepo) balance(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Quantity
}

type memCache struct {
	mu          sync.Mutex
	balances    map[uuid.UUID]decimal.Decimal
	idempotency map[string]bool
}

func newMemCache() *memCache {
	return &memCache{
		balances:    make(map[uuid.UUID]decimal.Decimal),
		idempotency: make(map[string]bool),
	}
}

func (c *memCache) SetBalance(ctx context.Context, itemID uuid.UUID, balance decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[itemID] = balance
	return nil
}

func (c *memCache) GetBalance(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	balance, ok := c.balances[itemID]
	if !ok {
		return decimal.Zero, false, nil
	}
	return balance, true, nil
}

func (c *memCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.idempotency[key] {
		return false, nil
	}
	c.idempotency[key] = true
	return true, nil
}

func (c *memCache) ClearIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.idempotency, key)
	return nil
}

type memRecipeRepo struct {
	recipes map[uuid.UUID][]domain.Ingredient
}

func newMemRecipeRepo() *memRecipeRepo {
	return &memRecipeRepo{recipes: make(map[uuid.UUID][]domain.Ingredient)}
}

func (r *memRecipeRepo) addIngredient(menuItemID, itemID uuid.UUID, perUnit decimal.Decimal) {
	r.recipes[menuItemID] = append(r.recipes[menuItemID], domain.Ingredient{
		ID:              uuid.New(),
		MenuItemID:      menuItemID,
		ItemID:          itemID,
		QuantityPerUnit: perUnit,
	})
}

func (r *memRecipeRepo) IngredientsForMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]domain.Ingredient, error) {
	return r.recipes[menuItemID], nil
}

type memPurchaseOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.PurchaseOrder
}

func newMemPurchaseOrderRepo() *memPurchaseOrderRepo {
	return &memPurchaseOrderRepo{orders: make(map[uuid.UUID]domain.PurchaseOrder)}
}

func (r *memPurchaseOrderRepo) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[po.ID] = po
	return nil
}

func (r *memPurchaseOrderRepo) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	po, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &po, nil
}

func (r *memPurchaseOrderRepo) ListPurchaseOrdersByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []domain.PurchaseOrder
	for _, po := range r.orders {
		if po.RestaurantID == restaurantID {
			orders = append(orders, po)
		}
	}
	return orders, nil
}

func (r *memPurchaseOrderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.PurchaseOrderStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	po, ok := r.orders[id]
	if !ok || po.Status != from {
		return port.ErrVersionConflict
	}
	po.Status = to
	po.UpdatedAt = at
	r.orders[id] = po
	return nil
}

func (r *memPurchaseOrderRepo) MarkLineCredited(ctx context.Context, lineID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, po := range r.orders {
		for i := range po.Items {
			if po.Items[i].ID != lineID {
				continue
			}
			if po.Items[i].CreditedAt != nil {
				return port.ErrVersionConflict
			}
			stamp := at
			po.Items[i].CreditedAt = &stamp
			r.orders[id] = po
			return nil
		}
	}
	return port.ErrVersionConflict
}

func (r *memPurchaseOrderRepo) ClearLineCredited(ctx context.Context, lineID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, po := range r.orders {
		for i := range po.Items {
			if po.Items[i].ID == lineID {
				po.Items[i].CreditedAt = nil
				r.orders[id] = po
				return nil
			}
		}
	}
	return nil
}
