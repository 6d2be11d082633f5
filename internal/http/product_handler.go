package http

import (
	"net/http"

	"github.com/ZClee128/xieka/internal/store"
)

type ProductHandler struct {
	store *store.Store
}

func NewProductHandler(s *store.Store) *ProductHandler {
	return &ProductHandler{store: s}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Catalog())
}
