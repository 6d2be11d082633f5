package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ZClee128/xieka/internal/store"
)

type AuthHandler struct {
	store   *store.Store
	timeout time.Duration
}

func NewAuthHandler(s *store.Store, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		store:   s,
		timeout: timeout,
	}
}

type RequestCodeDTO struct {
	Email string `json:"email"`
}

type LoginRequestDTO struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RequestCodeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_email", "email is required")
		return
	}

	if err := h.store.RequestCode(ctx, req.Email); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email and code are required")
		return
	}

	user, err := h.store.Login(ctx, req.Email, req.Code)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Logout(ctx); err != nil {
		handleStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.store.CurrentUser()
	if !ok {
		respondError(w, http.StatusUnauthorized, "not_authenticated", "no active session")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
