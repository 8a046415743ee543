package handler

import (
	"encoding/json"
	"net/http"

	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviews *service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		logger:  log,
	}
}

// Create handles POST /api/v1/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.BadRequest("invalid request body"))
		return
	}
	if err := middleware.ValidateID(req.BookingID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	review, err := h.reviews.Create(r.Context(), middleware.GetAccountID(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}
