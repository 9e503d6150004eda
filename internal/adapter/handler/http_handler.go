package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/core/service"
)

type HTTPHandler struct {
	inventory   *service.InventoryService
	movements   *service.MovementService
	receiving   *service.ReceivingService
	fulfillment *service.FulfillmentService
}

func NewHTTPHandler(inventory *service.InventoryService, movements *service.MovementService,
	receiving *service.ReceivingService, fulfillment *service.FulfillmentService) *HTTPHandler {
	return &HTTPHandler{
		inventory:   inventory,
		movements:   movements,
		receiving:   receiving,
		fulfillment: fulfillment,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/inventory/{restaurantId}", h.CreateItem)
	mux.HandleFunc("GET /api/inventory/{restaurantId}", h.ListItems)
	mux.HandleFunc("GET /api/inventory/item/{itemId}", h.GetItem)
	mux.HandleFunc("PUT /api/inventory/item/{itemId}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/inventory/item/{itemId}", h.DeleteItem)
	mux.HandleFunc("POST /api/inventory/item/{itemId}/add", h.AddStock)
	mux.HandleFunc("POST /api/inventory/item/{itemId}/use", h.UseStock)
	mux.HandleFunc("POST /api/inventory/item/{itemId}/adjust", h.AdjustStock)
	mux.HandleFunc("GET /api/inventory/item/{itemId}/transactions", h.ListTransactions)
	mux.HandleFunc("GET /api/inventory/item/{itemId}/balance", h.GetBalance)

	mux.HandleFunc("POST /api/purchase-orders/{restaurantId}", h.CreatePurchaseOrder)
	mux.HandleFunc("GET /api/purchase-orders/{restaurantId}", h.ListPurchaseOrders)
	mux.HandleFunc("PUT /api/purchase-orders/{orderId}/status", h.UpdatePurchaseOrderStatus)

	mux.HandleFunc("POST /api/orders/consume", h.ConsumeOrder)
}

type itemRequest struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

type itemResponse struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type movementRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Note     string          `json:"note"`
}

type adjustmentRequest struct {
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Note        string          `json:"note"`
}

type balanceResponse struct {
	ItemID  uuid.UUID       `json:"item_id"`
	Balance decimal.Decimal `json:"balance"`
}

type transactionResponse struct {
	ID         uuid.UUID       `json:"id"`
	ItemID     uuid.UUID       `json:"item_id"`
	Delta      decimal.Decimal `json:"delta"`
	Kind       string          `json:"kind"`
	Note       string          `json:"note,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type purchaseOrderRequest struct {
	Supplier string                     `json:"supplier"`
	Items    []purchaseOrderLineRequest `json:"items"`
}

type purchaseOrderLineRequest struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type purchaseOrderResponse struct {
	ID           uuid.UUID                  `json:"id"`
	RestaurantID uuid.UUID                  `json:"restaurant_id"`
	Supplier     string                     `json:"supplier"`
	Status       string                     `json:"status"`
	TotalAmount  decimal.Decimal            `json:"total_amount"`
	Items        []purchaseOrderLineRequest `json:"items"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type consumeOrderRequest struct {
	OrderID      uuid.UUID              `json:"order_id"`
	RestaurantID uuid.UUID              `json:"restaurant_id"`
	Items        []consumeOrderLineItem `json:"items"`
}

type consumeOrderLineItem struct {
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	MenuItemName string    `json:"menu_item_name"`
	Quantity     int       `json:"quantity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathUUID(w, r, "restaurantId")
	if !ok {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name and unit are required"})
		return
	}

	item, err := h.inventory.CreateItem(r.Context(), restaurantID, domain.InventoryItem{
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		PricePerUnit: req.PricePerUnit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathUUID(w, r, "restaurantId")
	if !ok {
		return
	}

	items, err := h.inventory.ListItemsByRestaurant(r.Context(), restaurantID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toItemResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	item, err := h.inventory.GetItem(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.inventory.UpdateItemDetails(r.Context(), itemID, domain.InventoryItem{
		Name:         req.Name,
		Category:     req.Category,
		Unit:         req.Unit,
		ReorderLevel: req.ReorderLevel,
		PricePerUnit: req.PricePerUnit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.inventory.DeleteItem(r.Context(), itemID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, h.movements.RecordPurchase)
}

func (h *HTTPHandler) UseStock(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, h.movements.RecordUsage)
}

func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := h.movements.RecordAdjustment(r.Context(), itemID, req.NewQuantity, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *HTTPHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	balance, err := h.inventory.GetBalance(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{ItemID: itemID, Balance: balance})
}

func (h *HTTPHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	entries, err := h.movements.ListTransactions(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, transactionResponse{
			ID:         entry.ID,
			ItemID:     entry.ItemID,
			Delta:      entry.Delta,
			Kind:       string(entry.Kind),
			Note:       entry.Note,
			RecordedAt: entry.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) CreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathUUID(w, r, "restaurantId")
	if !ok {
		return
	}

	var req purchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "purchase order needs at least one line item"})
		return
	}

	lines := make([]domain.PurchaseOrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		lines = append(lines, domain.PurchaseOrderItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	po, err := h.receiving.CreatePurchaseOrder(r.Context(), restaurantID, req.Supplier, lines)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchaseOrderResponse(po))
}

func (h *HTTPHandler) ListPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathUUID(w, r, "restaurantId")
	if !ok {
		return
	}

	orders, err := h.receiving.ListPurchaseOrdersByRestaurant(r.Context(), restaurantID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]purchaseOrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toPurchaseOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) UpdatePurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "orderId")
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	po, err := h.receiving.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchaseOrderResponse(po))
}

func (h *HTTPHandler) ConsumeOrder(w http.ResponseWriter, r *http.Request) {
	var req consumeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.OrderID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "order_id is required"})
		return
	}

	order := domain.Order{
		ID:           req.OrderID,
		RestaurantID: req.RestaurantID,
		Items:        make([]domain.OrderItem, 0, len(req.Items)),
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "line item quantity must be positive"})
			return
		}
		order.Items = append(order.Items, domain.OrderItem{
			MenuItemID:   line.MenuItemID,
			MenuItemName: line.MenuItemName,
			Quantity:     line.Quantity,
		})
	}

	if err := h.fulfillment.ConsumeForOrder(r.Context(), order); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "consumed"})
}

func (h *HTTPHandler) recordMovement(w http.ResponseWriter, r *http.Request,
	record func(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, note string) (*domain.InventoryItem, error)) {
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	item, err := record(r.Context(), itemID, req.Quantity, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrItemNotFound), errors.Is(err, service.ErrPurchaseOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrUnknownStatus):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOrderAlreadyConsumed),
		errors.Is(err, service.ErrItemHasHistory):
		status = http.StatusConflict
	case errors.Is(err, service.ErrConflict):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func toItemResponse(item *domain.InventoryItem) itemResponse {
	return itemResponse{
		ID:           item.ID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Category:     item.Category,
		Unit:         item.Unit,
		Quantity:     item.Quantity,
		ReorderLevel: item.ReorderLevel,
		PricePerUnit: item.PricePerUnit,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func toPurchaseOrderResponse(po *domain.PurchaseOrder) purchaseOrderResponse {
	items := make([]purchaseOrderLineRequest, 0, len(po.Items))
	for _, line := range po.Items {
		items = append(items, purchaseOrderLineRequest{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return purchaseOrderResponse{
		ID:           po.ID,
		RestaurantID: po.RestaurantID,
		Supplier:     po.Supplier,
		Status:       string(po.Status),
		TotalAmount:  po.TotalAmount(),
		Items:        items,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
