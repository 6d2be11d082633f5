package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ZClee128/xieka/internal/domain"
	"github.com/ZClee128/xieka/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CartHandler struct {
	store   *store.Store
	timeout time.Duration
}

func NewCartHandler(s *store.Store, timeout time.Duration) *CartHandler {
	return &CartHandler{
		store:   s,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items []domain.CartItem `json:"items"`
	Total float64           `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items: h.store.CartItems(),
		Total: h.store.CartTotal(),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid id")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if _, err := h.store.AddToCart(ctx, productID, req.Quantity); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CartResponseDTO{
		Items: h.store.CartItems(),
		Total: h.store.CartTotal(),
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID, err := uuid.Parse(chi.URLParam(r, "item_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a valid id")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.store.UpdateQuantity(ctx, itemID, req.Quantity); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items: h.store.CartItems(),
		Total: h.store.CartTotal(),
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID, err := uuid.Parse(chi.URLParam(r, "item_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id must be a valid id")
		return
	}

	if err := h.store.RemoveFromCart(ctx, itemID); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items: h.store.CartItems(),
		Total: h.store.CartTotal(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleStoreError translates store sentinel errors into HTTP status codes.
func handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "not_authenticated", err.Error())
	case errors.Is(err, store.ErrInvalidCredential):
		respondError(w, http.StatusUnauthorized, "invalid_credential", err.Error())
	case errors.Is(err, store.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrInvalidQuantity), errors.Is(err, store.ErrEmptyOrder):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
