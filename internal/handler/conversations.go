package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// ConversationHandler handles chat endpoints.
type ConversationHandler struct {
	chats  *service.ChatService
	logger *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(chats *service.ChatService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		chats:  chats,
		logger: log,
	}
}

// Start handles POST /api/v1/conversations
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}
	if err := middleware.ValidateID(req.RecipientID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	conv, err := h.chats.Start(r.Context(), middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.chats.List(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Messages handles GET /api/v1/conversations/{id}/messages
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	resp, err := h.chats.Messages(r.Context(), id, middleware.GetAccountID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/conversations/{id}/messages
func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	msg, err := h.chats.Send(r.Context(), id, middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// MarkRead handles POST /api/v1/conversations/{id}/read
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.chats.MarkRead(r.Context(), id, middleware.GetAccountID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
