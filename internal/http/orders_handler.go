package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ZClee128/xieka/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrdersHandler struct {
	store   *store.Store
	timeout time.Duration
}

func NewOrdersHandler(s *store.Store, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		store:   s,
		timeout: timeout,
	}
}

type CreateOrderRequestDTO struct {
	// ItemIDs selects cart lines to order; empty means the whole cart.
	ItemIDs []string `json:"item_ids"`
}

type BuyNowRequestDTO struct {
	ProductID string `json:"product_id"`
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Orders())
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	itemIDs := make([]uuid.UUID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_item_id", "item_ids must be valid ids")
			return
		}
		itemIDs = append(itemIDs, id)
	}

	order, err := h.store.CreateOrder(ctx, itemIDs)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BuyNowRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid id")
		return
	}

	order, err := h.store.BuyNow(ctx, productID)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// PayOrder marks a pending order as paid. The UI renders the payment screen
// as a QR of the order id; scanning is out of scope, this endpoint is the
// confirmation callback.
func (h *OrdersHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a valid id")
		return
	}

	if err := h.store.MarkPaid(ctx, orderID); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.store.Orders())
}
