package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// BidHandler handles auction bid endpoints.
type BidHandler struct {
	bids   *service.BidService
	logger *logger.Logger
}

// NewBidHandler creates a new bid handler.
func NewBidHandler(bids *service.BidService, log *logger.Logger) *BidHandler {
	return &BidHandler{
		bids:   bids,
		logger: log,
	}
}

// Place handles POST /api/v1/listings/{id}/bids
func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(listingID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	var req model.PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	bid, err := h.bids.Place(r.Context(), listingID, middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bid)
}

// ListByListing handles GET /api/v1/listings/{id}/bids
func (h *BidHandler) ListByListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(listingID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	resp, err := h.bids.ListByListing(r.Context(), listingID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Mine handles GET /api/v1/bids
func (h *BidHandler) Mine(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bids.ListByBidder(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Accept handles POST /api/v1/bids/{id}/accept
func (h *BidHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	bid, err := h.bids.Accept(r.Context(), id, middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bid)
}
