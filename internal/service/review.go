package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// ReviewService handles post-rental feedback.
type ReviewService struct {
	reviews  repository.ReviewRepository
	bookings repository.BookingRepository
	logger   *logger.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	bookings repository.BookingRepository,
	log *logger.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		bookings: bookings,
		logger:   log,
	}
}

// Create leaves a review against a completed booking. The reviewer must be a
// party to the booking; the other party is the reviewee. Creating the review
// recomputes the listing rating and the reviewee's trust metrics.
func (s *ReviewService) Create(ctx context.Context, reviewerID string, req *model.CreateReviewRequest) (*model.Review, error) {
	if err := middleware.ValidateRating(req.Rating); err != nil {
		return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "rating", Message: err.Error()})
	}

	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("booking not found")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.Status != model.BookingStatusCompleted {
		return nil, apierror.BadRequest("only completed bookings can be reviewed")
	}

	var revieweeID string
	switch reviewerID {
	case booking.RenterID:
		revieweeID = booking.OwnerID
	case booking.OwnerID:
		revieweeID = booking.RenterID
	default:
		return nil, apierror.Forbidden("only booking participants can leave a review")
	}

	review := &model.Review{
		ID:         uuid.Must(uuid.NewV7()).String(),
		BookingID:  booking.ID,
		ListingID:  booking.ListingID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict("booking already reviewed")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("listing_id", review.ListingID),
		zap.Int("rating", review.Rating),
	)

	return review, nil
}

// ListByListing returns the reviews on a listing, newest first.
func (s *ReviewService) ListByListing(ctx context.Context, listingID string) (*model.ListReviewsResponse, error) {
	reviews, err := s.reviews.ListByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return &model.ListReviewsResponse{Reviews: reviews, Total: len(reviews)}, nil
}
