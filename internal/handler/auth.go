// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// AuthHandler handles registration, login and password reset.
type AuthHandler struct {
	accounts *service.AccountService
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts *service.AccountService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   log,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	resp, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	resp, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	resp, err := h.accounts.RequestPasswordReset(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword handles POST /api/v1/auth/password-update
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), &req); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
