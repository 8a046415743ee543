package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/pricing"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
	"github.com/toolshare/marketplace-api/pkg/metrics"
)

// allowedTransitions maps each booking status to the statuses it may move to.
var allowedTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingStatusPending:  {model.BookingStatusAccepted, model.BookingStatusDeclined, model.BookingStatusCancelled},
	model.BookingStatusAccepted: {model.BookingStatusActive, model.BookingStatusCancelled},
	model.BookingStatusActive:   {model.BookingStatusCompleted},
}

// BookingService handles quotes and the booking lifecycle.
type BookingService struct {
	bookings      repository.BookingRepository
	listings      repository.ListingRepository
	notifications *NotificationService
	logger        *logger.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(
	bookings repository.BookingRepository,
	listings repository.ListingRepository,
	notifications *NotificationService,
	log *logger.Logger,
) *BookingService {
	return &BookingService{
		bookings:      bookings,
		listings:      listings,
		notifications: notifications,
		logger:        log,
	}
}

// Quote computes a cost breakdown for a listing without creating a booking.
func (s *BookingService) Quote(ctx context.Context, listingID string, req *model.QuoteRequest) (*pricing.Quote, error) {
	listing, err := s.activeListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	input, err := s.pricingInput(listing, req.StartDate, req.EndDate, req.IncludeOperator, req.IncludeInsurance, req.InsuranceTier)
	if err != nil {
		return nil, err
	}

	quote := pricing.Compute(*input)
	if quote.DurationDays <= 0 {
		return nil, apierror.BadRequest("rental period must span at least one day")
	}
	return &quote, nil
}

// Create reserves a listing for the renter, freezing the cost breakdown.
func (s *BookingService) Create(ctx context.Context, renterID string, req *model.CreateBookingRequest) (*model.Booking, error) {
	listing, err := s.activeListing(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	if listing.OwnerID == renterID {
		return nil, apierror.BadRequest("cannot book your own listing")
	}
	if req.StartDate.Before(listing.AvailableFrom) || req.EndDate.After(listing.AvailableTo) {
		return nil, apierror.BadRequest("requested dates fall outside the listing's availability")
	}

	input, err := s.pricingInput(listing, req.StartDate, req.EndDate, req.IncludeOperator, req.IncludeInsurance, req.InsuranceTier)
	if err != nil {
		return nil, err
	}

	quote := pricing.Compute(*input)
	if quote.DurationDays <= 0 {
		return nil, apierror.BadRequest("rental period must span at least one day")
	}

	now := time.Now().UTC()
	booking := &model.Booking{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ListingID: listing.ID,
		RenterID:  renterID,
		OwnerID:   listing.OwnerID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,

		IncludeOperator:  req.IncludeOperator,
		IncludeInsurance: req.IncludeInsurance,
		InsuranceTier:    req.InsuranceTier,

		DurationDays:       quote.DurationDays,
		ToolCostCents:      quote.ToolCostCents,
		OperatorCostCents:  quote.OperatorCostCents,
		InsuranceCostCents: quote.InsuranceCostCents,
		PlatformFeeCents:   quote.PlatformFeeCents,
		TaxCents:           quote.TaxCents,
		TotalCents:         quote.TotalCents,

		Status:    model.BookingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues(string(model.BookingStatusPending)).Inc()
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("listing_id", listing.ID),
		zap.Int64("total_cents", booking.TotalCents),
	)

	s.notifications.Notify(ctx, listing.OwnerID, model.NotificationBookingRequest,
		"New booking request",
		fmt.Sprintf("%s has been requested for %d days", listing.Title, booking.DurationDays))

	return booking, nil
}

func (s *BookingService) pricingInput(listing *model.Listing, start, end time.Time, withOperator, withInsurance bool, tier string) (*pricing.Input, error) {
	if listing.PricingType != model.PricingFixed {
		return nil, apierror.BadRequest("auction listings are booked by winning a bid")
	}
	if withOperator && !listing.OperatorAvailable {
		return nil, apierror.BadRequest("listing does not offer an operator")
	}
	if withInsurance && !listing.InsuranceOffered {
		return nil, apierror.BadRequest("listing does not offer insurance")
	}

	insuranceTier := pricing.TierBasic
	if withInsurance {
		switch tier {
		case "", string(pricing.TierBasic):
		case string(pricing.TierPremium):
			insuranceTier = pricing.TierPremium
		default:
			return nil, apierror.Validation("invalid insurance tier", apierror.FieldError{Field: "insurance_tier", Message: "must be basic or premium"})
		}
	}

	return &pricing.Input{
		DailyRateCents: listing.DailyRateCents,
		Start:          start,
		End:            end,

		IncludeOperator:         withOperator,
		OperatorHourlyRateCents: listing.OperatorHourlyRateCents,

		IncludeInsurance:           withInsurance,
		InsuranceTier:              insuranceTier,
		InsuranceBasicDailyCents:   listing.InsuranceBasicDailyCents,
		InsurancePremiumDailyCents: listing.InsurancePremiumDailyCents,
	}, nil
}

// Get returns a booking visible to the given account (renter or owner).
func (s *BookingService) Get(ctx context.Context, id, accountID string) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("booking not found")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking.RenterID != accountID && booking.OwnerID != accountID {
		return nil, apierror.Forbidden("")
	}
	return booking, nil
}

// UpdateStatus moves a booking along its lifecycle. Owners accept, decline,
// activate and complete; renters may cancel before the rental starts.
func (s *BookingService) UpdateStatus(ctx context.Context, id, accountID string, next model.BookingStatus) (*model.Booking, error) {
	booking, err := s.Get(ctx, id, accountID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(booking.Status, next) {
		return nil, apierror.Conflict(fmt.Sprintf("cannot move booking from %s to %s", booking.Status, next))
	}

	switch next {
	case model.BookingStatusAccepted, model.BookingStatusDeclined, model.BookingStatusActive, model.BookingStatusCompleted:
		if booking.OwnerID != accountID {
			return nil, apierror.Forbidden("only the owner can make this change")
		}
	case model.BookingStatusCancelled:
		if booking.RenterID != accountID {
			return nil, apierror.Forbidden("only the renter can cancel")
		}
	}

	if err := s.bookings.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	booking.Status = next
	booking.UpdatedAt = time.Now().UTC()

	metrics.BookingsTotal.WithLabelValues(string(next)).Inc()
	s.logger.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("status", string(next)),
	)

	switch next {
	case model.BookingStatusAccepted:
		s.notifications.Notify(ctx, booking.RenterID, model.NotificationBookingDecision,
			"Booking accepted", "Your booking request was accepted")
	case model.BookingStatusDeclined:
		s.notifications.Notify(ctx, booking.RenterID, model.NotificationBookingDecision,
			"Booking declined", "Your booking request was declined")
	case model.BookingStatusCancelled:
		s.notifications.Notify(ctx, booking.OwnerID, model.NotificationBookingDecision,
			"Booking cancelled", "The renter cancelled a booking")
	}

	return booking, nil
}

func transitionAllowed(from, to model.BookingStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ListByRenter returns the account's bookings as a renter.
func (s *BookingService) ListByRenter(ctx context.Context, renterID string) (*model.ListBookingsResponse, error) {
	bookings, err := s.bookings.ListByRenter(ctx, renterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return &model.ListBookingsResponse{Bookings: bookings, Total: len(bookings)}, nil
}

// ListByOwner returns bookings against the account's listings.
func (s *BookingService) ListByOwner(ctx context.Context, ownerID string) (*model.ListBookingsResponse, error) {
	bookings, err := s.bookings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return &model.ListBookingsResponse{Bookings: bookings, Total: len(bookings)}, nil
}

func (s *BookingService) activeListing(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("listing not found")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing.Status != model.ListingStatusActive {
		return nil, apierror.NotFound("listing not found")
	}
	return listing, nil
}
