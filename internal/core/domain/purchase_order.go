package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderStatus string

const (
	PurchaseOrderPending   PurchaseOrderStatus = "PENDING"
	PurchaseOrderReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderCancelled PurchaseOrderStatus = "CANCELLED"
)

// ParsePurchaseOrderStatus matches a status token case-insensitively
// against the closed status set.
func ParsePurchaseOrderStatus(token string) (PurchaseOrderStatus, bool) {
	switch PurchaseOrderStatus(strings.ToUpper(strings.TrimSpace(token))) {
	case PurchaseOrderPending:
		return PurchaseOrderPending, true
	case PurchaseOrderReceived:
		return PurchaseOrderReceived, true
	case PurchaseOrderCancelled:
		return PurchaseOrderCancelled, true
	}
	return "", false
}

// CanTransitionTo encodes the purchase order state machine. PENDING may
// move to RECEIVED (which credits stock) or CANCELLED; both of those
// are terminal.
func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	if s != PurchaseOrderPending {
		return false
	}
	return next == PurchaseOrderReceived || next == PurchaseOrderCancelled
}

type PurchaseOrder struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Supplier     string
	Status       PurchaseOrderStatus
	Items        []PurchaseOrderItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PurchaseOrderItem struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal

	// CreditedAt is set once the line's quantity has been credited to
	// stock. Nil on a RECEIVED order marks a receive that failed midway.
	CreditedAt *time.Time
}

// HasUncreditedLines reports whether any line still has stock to
// credit.
func (p *PurchaseOrder) HasUncreditedLines() bool {
	for _, it := range p.Items {
		if it.CreditedAt == nil {
			return true
		}
	}
	return false
}

// TotalAmount is the sum of quantity times unit price over all lines.
func (p *PurchaseOrder) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.Quantity.Mul(it.UnitPrice))
	}
	return total
}
