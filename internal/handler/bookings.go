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

// BookingHandler handles booking endpoints.
type BookingHandler struct {
	bookings *service.BookingService
	logger   *logger.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookings *service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		logger:   log,
	}
}

// Quote handles POST /api/v1/listings/{id}/quote
func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(listingID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	var req model.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	quote, err := h.bookings.Quote(r.Context(), listingID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// Create handles POST /api/v1/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}
	if err := middleware.ValidateID(req.ListingID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	booking, err := h.bookings.Create(r.Context(), middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// Get handles GET /api/v1/bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	booking, err := h.bookings.Get(r.Context(), id, middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// List handles GET /api/v1/bookings. The role query parameter selects the
// renter view (default) or the owner view.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())

	var (
		resp *model.ListBookingsResponse
		err  error
	)
	if r.URL.Query().Get("role") == "owner" {
		resp, err = h.bookings.ListByOwner(r.Context(), accountID)
	} else {
		resp, err = h.bookings.ListByRenter(r.Context(), accountID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /api/v1/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	var req struct {
		Status model.BookingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	booking, err := h.bookings.UpdateStatus(r.Context(), id, middleware.GetAccountID(r.Context()), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}
