package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/port"
)

// MySQLAdapter implements the inventory, purchase order and recipe
// repositories on MySQL. Balance writes ride a version-checked UPDATE
// in the same transaction as the ledger INSERT.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.InventoryItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items
			(id, restaurant_id, name, category, unit, quantity, reorder_level, price_per_unit, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID.String(), item.RestaurantID.String(), item.Name, item.Category, item.Unit,
		item.Quantity, item.ReorderLevel, item.PricePerUnit, item.Version,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inventory item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, name, category, unit, quantity, reorder_level, price_per_unit, version, created_at, updated_at
		FROM inventory_items WHERE id = ?`, id.String())

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}
	return item, nil
}

func (m *MySQLAdapter) ListItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, category, unit, quantity, reorder_level, price_per_unit, version, created_at, updated_at
		FROM inventory_items WHERE restaurant_id = ? ORDER BY name`, restaurantID.String())
	if err != nil {
		return nil, fmt.Errorf("query inventory items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) UpdateItemDetails(ctx context.Context, item domain.InventoryItem) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = ?, category = ?, unit = ?, reorder_level = ?, price_per_unit = ?, updated_at = ?
		WHERE id = ?`,
		item.Name, item.Category, item.Unit, item.ReorderLevel, item.PricePerUnit,
		item.UpdatedAt, item.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var refs int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stock_transactions WHERE item_id = ?`, id.String()).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count ledger entries: %w", err)
	}
	if refs > 0 {
		return port.ErrLedgerNotEmpty
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	return tx.Commit()
}

func (m *MySQLAdapter) ApplyMovement(ctx context.Context, item domain.InventoryItem, entry domain.StockTransaction) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		item.Quantity, item.UpdatedAt, item.ID.String(), item.Version,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrVersionConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_transactions (id, item_id, delta, kind, note, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.ItemID.String(), entry.Delta, string(entry.Kind),
		entry.Note, entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListTransactions(ctx context.Context, itemID uuid.UUID) ([]domain.StockTransaction, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, item_id, delta, kind, note, recorded_at
		FROM stock_transactions WHERE item_id = ? ORDER BY seq`, itemID.String())
	if err != nil {
		return nil, fmt.Errorf("query stock transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.StockTransaction
	for rows.Next() {
		var (
			entry        domain.StockTransaction
			entryID      string
			entryItemID  string
			kind         string
			note         sql.NullString
		)
		if err := rows.Scan(&entryID, &entryItemID, &entry.Delta, &kind, &note, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		if entry.ID, err = uuid.Parse(entryID); err != nil {
			return nil, fmt.Errorf("parse transaction id: %w", err)
		}
		if entry.ItemID, err = uuid.Parse(entryItemID); err != nil {
			return nil, fmt.Errorf("parse transaction item id: %w", err)
		}
		entry.Kind = domain.MovementKind(kind)
		entry.Note = note.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (m *MySQLAdapter) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (id, restaurant_id, supplier, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		po.ID.String(), po.RestaurantID.String(), po.Supplier, string(po.Status),
		po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	for _, line := range po.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchase_order_items (id, purchase_order_id, item_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			line.ID.String(), po.ID.String(), line.ItemID.String(), line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var (
		po    domain.PurchaseOrder
		poID  string
		resID string
		state string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, supplier, status, created_at, updated_at
		FROM purchase_orders WHERE id = ?`, id.String(),
	).Scan(&poID, &resID, &po.Supplier, &state, &po.CreatedAt, &po.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query purchase order: %w", err)
	}

	if po.ID, err = uuid.Parse(poID); err != nil {
		return nil, fmt.Errorf("parse purchase order id: %w", err)
	}
	if po.RestaurantID, err = uuid.Parse(resID); err != nil {
		return nil, fmt.Errorf("parse purchase order restaurant id: %w", err)
	}
	po.Status = domain.PurchaseOrderStatus(state)

	if po.Items, err = m.purchaseOrderItems(ctx, po.ID); err != nil {
		return nil, err
	}
	return &po, nil
}

func (m *MySQLAdapter) ListPurchaseOrdersByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]domain.PurchaseOrder, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id FROM purchase_orders WHERE restaurant_id = ? ORDER BY created_at`, restaurantID.String())
	if err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan purchase order id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse purchase order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var orders []domain.PurchaseOrder
	for _, id := range ids {
		po, err := m.GetPurchaseOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		if po != nil {
			orders = append(orders, *po)
		}
	}
	return orders, nil
}

func (m *MySQLAdapter) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.PurchaseOrderStatus, at time.Time) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE purchase_orders SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), at, id.String(), string(from),
	)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

func (m *MySQLAdapter) MarkLineCredited(ctx context.Context, lineID uuid.UUID, at time.Time) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE purchase_order_items SET credited_at = ?
		WHERE id = ? AND credited_at IS NULL`,
		at, lineID.String(),
	)
	if err != nil {
		return fmt.Errorf("mark purchase order line credited: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrVersionConflict
	}
	return nil
}

func (m *MySQLAdapter) ClearLineCredited(ctx context.Context, lineID uuid.UUID) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE purchase_order_items SET credited_at = NULL WHERE id = ?`, lineID.String())
	if err != nil {
		return fmt.Errorf("clear purchase order line credit: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) IngredientsForMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]domain.Ingredient, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, menu_item_id, item_id, quantity_per_unit
		FROM ingredients WHERE menu_item_id = ? ORDER BY seq`, menuItemID.String())
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []domain.Ingredient
	for rows.Next() {
		var (
			ing    domain.Ingredient
			ingID  string
			menuID string
			itemID string
		)
		if err := rows.Scan(&ingID, &menuID, &itemID, &ing.QuantityPerUnit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		if ing.ID, err = uuid.Parse(ingID); err != nil {
			return nil, fmt.Errorf("parse ingredient id: %w", err)
		}
		if ing.MenuItemID, err = uuid.Parse(menuID); err != nil {
			return nil, fmt.Errorf("parse ingredient menu item id: %w", err)
		}
		if ing.ItemID, err = uuid.Parse(itemID); err != nil {
			return nil, fmt.Errorf("parse ingredient item id: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

func (m *MySQLAdapter) purchaseOrderItems(ctx context.Context, poID uuid.UUID) ([]domain.PurchaseOrderItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, item_id, quantity, unit_price, credited_at
		FROM purchase_order_items WHERE purchase_order_id = ? ORDER BY seq`, poID.String())
	if err != nil {
		return nil, fmt.Errorf("query purchase order lines: %w", err)
	}
	defer rows.Close()

	var items []domain.PurchaseOrderItem
	for rows.Next() {
		var (
			line     domain.PurchaseOrderItem
			lineID   string
			itemID   string
			credited sql.NullTime
		)
		if err := rows.Scan(&lineID, &itemID, &line.Quantity, &line.UnitPrice, &credited); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		if credited.Valid {
			at := credited.Time
			line.CreditedAt = &at
		}
		if line.ID, err = uuid.Parse(lineID); err != nil {
			return nil, fmt.Errorf("parse purchase order line id: %w", err)
		}
		if line.ItemID, err = uuid.Parse(itemID); err != nil {
			return nil, fmt.Errorf("parse purchase order line item id: %w", err)
		}
		items = append(items, line)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.InventoryItem, error) {
	var (
		item  domain.InventoryItem
		id    string
		resID string
	)
	err := row.Scan(&id, &resID, &item.Name, &item.Category, &item.Unit,
		&item.Quantity, &item.ReorderLevel, &item.PricePerUnit, &item.Version,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse item id: %w", err)
	}
	if item.RestaurantID, err = uuid.Parse(resID); err != nil {
		return nil, fmt.Errorf("parse item restaurant id: %w", err)
	}
	return &item, nil
}
