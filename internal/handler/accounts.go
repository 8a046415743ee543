package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/internal/storage"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// AccountHandler handles profile endpoints.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *service.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   log,
	}
}

// Me handles GET /api/v1/accounts/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Get handles GET /api/v1/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	// Public view hides contact details.
	account.Email = ""
	account.Phone = ""
	writeJSON(w, http.StatusOK, account)
}

// Update handles PATCH /api/v1/accounts/me
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	account, err := h.accounts.UpdateProfile(r.Context(), middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// UploadAvatar handles PUT /api/v1/accounts/me/avatar
func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, storage.MaxUploadBytes+1))
	if err != nil {
		writeError(w, apierror.BadRequest("failed to read upload"))
		return
	}

	account, err := h.accounts.UploadAvatar(r.Context(), middleware.GetAccountID(r.Context()), r.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Deactivate handles DELETE /api/v1/accounts/me
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Deactivate(r.Context(), middleware.GetAccountID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateByID handles DELETE /api/v1/accounts/{id} (admin only).
func (h *AccountHandler) DeactivateByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.accounts.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
