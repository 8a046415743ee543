package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/search"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/internal/storage"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// ListingHandler handles listing endpoints.
type ListingHandler struct {
	listings *service.ListingService
	reviews  *service.ReviewService
	logger   *logger.Logger
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(listings *service.ListingService, reviews *service.ReviewService, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		reviews:  reviews,
		logger:   log,
	}
}

// Search handles GET /api/v1/listings
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := search.Filter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Location: q.Get("location"),
	}

	if v := q.Get("min_price_cents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinPriceCents = &cents
		}
	}
	if v := q.Get("max_price_cents"); v != "" {
		if cents, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxPriceCents = &cents
		}
	}
	if v := q.Get("min_rating"); v != "" {
		if rating, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinRating = &rating
		}
	}
	if q.Get("insurance") == "true" {
		filter.InsuranceRequired = true
	}
	if v := q.Get("operator"); v != "" {
		filter.OperatorMode = search.OperatorMode(v)
	}
	if v := q.Get("pricing_type"); v != "" {
		filter.PricingType = model.PricingType(v)
	}

	sortKey := search.SortRelevance
	if v := q.Get("sort"); v != "" {
		sortKey = search.SortKey(v)
	}

	resp, err := h.listings.Search(r.Context(), filter, sortKey)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	listing, err := h.listings.Create(r.Context(), middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, listing)
}

// Get handles GET /api/v1/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// Mine handles GET /api/v1/listings/mine
func (h *ListingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listings.ListByOwner(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update handles PATCH /api/v1/listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	var req model.UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}

	listing, err := h.listings.Update(r.Context(), id, middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// Archive handles DELETE /api/v1/listings/{id}
func (h *ListingHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.listings.Archive(r.Context(), id, middleware.GetAccountID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto handles PUT /api/v1/listings/{id}/photo
func (h *ListingHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, storage.MaxUploadBytes+1))
	if err != nil {
		writeError(w, apierror.BadRequest("failed to read upload"))
		return
	}

	listing, err := h.listings.UploadPhoto(r.Context(), id, middleware.GetAccountID(r.Context()), r.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// Favorite handles PUT /api/v1/listings/{id}/favorite
func (h *ListingHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.listings.Favorite(r.Context(), id, middleware.GetAccountID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unfavorite handles DELETE /api/v1/listings/{id}/favorite
func (h *ListingHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	if err := h.listings.Unfavorite(r.Context(), id, middleware.GetAccountID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reviews handles GET /api/v1/listings/{id}/reviews
func (h *ListingHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	resp, err := h.reviews.ListByListing(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
