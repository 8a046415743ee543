package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/cache"
	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/internal/search"
	"github.com/toolshare/marketplace-api/internal/storage"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
	"github.com/toolshare/marketplace-api/pkg/metrics"
)

const activeListingsCacheKey = "listings:active"

// ListingService handles listing publication, search and favorites.
type ListingService struct {
	listings repository.ListingRepository
	cache    cache.Cache
	cacheTTL time.Duration
	store    *storage.Store
	logger   *logger.Logger
}

// NewListingService creates a new listing service.
func NewListingService(
	listings repository.ListingRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	store *storage.Store,
	log *logger.Logger,
) *ListingService {
	return &ListingService{
		listings: listings,
		cache:    c,
		cacheTTL: cacheTTL,
		store:    store,
		logger:   log,
	}
}

// Create publishes a new listing owned by ownerID.
func (s *ListingService) Create(ctx context.Context, ownerID string, req *model.CreateListingRequest) (*model.Listing, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing := &model.Listing{
		ID:          uuid.Must(uuid.NewV7()).String(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		PricingType: req.PricingType,

		DailyRateCents:  req.DailyRateCents,
		HourlyRateCents: req.HourlyRateCents,
		WeeklyRateCents: req.WeeklyRateCents,
		ReserveBidCents: req.ReserveBidCents,

		OperatorAvailable:       req.OperatorAvailable,
		OperatorHourlyRateCents: req.OperatorHourlyRateCents,

		InsuranceOffered:           req.InsuranceOffered,
		InsuranceBasicDailyCents:   req.InsuranceBasicDailyCents,
		InsurancePremiumDailyCents: req.InsurancePremiumDailyCents,

		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		Status:        model.ListingStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.invalidateCache(ctx)
	metrics.ListingsTotal.WithLabelValues(string(listing.PricingType)).Inc()
	s.logger.Info("listing published",
		zap.String("listing_id", listing.ID),
		zap.String("owner_id", ownerID),
		zap.String("pricing_type", string(listing.PricingType)),
	)

	return listing, nil
}

func (s *ListingService) validateCreate(req *model.CreateListingRequest) error {
	if err := middleware.ValidateListingTitle(req.Title); err != nil {
		return apierror.Validation(err.Error(), apierror.FieldError{Field: "title", Message: err.Error()})
	}
	if err := middleware.ValidateDescription(req.Description); err != nil {
		return apierror.Validation(err.Error(), apierror.FieldError{Field: "description", Message: err.Error()})
	}
	if err := middleware.ValidateDateRange(req.AvailableFrom, req.AvailableTo); err != nil {
		return apierror.Validation(err.Error(), apierror.FieldError{Field: "available_from", Message: err.Error()})
	}

	switch req.PricingType {
	case model.PricingFixed:
		if req.DailyRateCents <= 0 {
			return apierror.Validation("daily rate required", apierror.FieldError{Field: "daily_rate_cents", Message: "must be positive for fixed pricing"})
		}
	case model.PricingBidding:
		if req.ReserveBidCents < 0 {
			return apierror.Validation("invalid reserve", apierror.FieldError{Field: "reserve_bid_cents", Message: "cannot be negative"})
		}
	default:
		return apierror.Validation("invalid pricing type", apierror.FieldError{Field: "pricing_type", Message: "must be fixed or bidding"})
	}

	if req.OperatorAvailable && req.OperatorHourlyRateCents <= 0 {
		return apierror.Validation("operator rate required", apierror.FieldError{Field: "operator_hourly_rate_cents", Message: "must be positive when operator is available"})
	}
	if req.InsuranceOffered && req.InsuranceBasicDailyCents <= 0 {
		return apierror.Validation("insurance rate required", apierror.FieldError{Field: "insurance_basic_daily_cents", Message: "must be positive when insurance is offered"})
	}
	return nil
}

// Get returns a listing and bumps its view count.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("listing not found")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	if err := s.listings.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn("failed to bump view count", zap.String("listing_id", id), zap.Error(err))
	} else {
		listing.ViewCount++
	}

	return listing, nil
}

// Search returns active listings matching the filter, ordered by the sort
// key. The active set is served cache-aside.
func (s *ListingService) Search(ctx context.Context, f search.Filter, key search.SortKey) (*model.ListListingsResponse, error) {
	listings, err := s.activeListings(ctx)
	if err != nil {
		return nil, err
	}

	results := search.Apply(listings, f, key)
	return &model.ListListingsResponse{
		Listings: results,
		Total:    len(results),
	}, nil
}

func (s *ListingService) activeListings(ctx context.Context) ([]model.Listing, error) {
	if data, err := s.cache.Get(ctx, activeListingsCacheKey); err == nil {
		var listings []model.Listing
		if err := json.Unmarshal(data, &listings); err == nil {
			metrics.CacheOperations.WithLabelValues("hit").Inc()
			return listings, nil
		}
	}
	metrics.CacheOperations.WithLabelValues("miss").Inc()

	listings, err := s.listings.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	if data, err := json.Marshal(listings); err == nil {
		if err := s.cache.Set(ctx, activeListingsCacheKey, data, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache listings", zap.Error(err))
		}
	}

	return listings, nil
}

func (s *ListingService) invalidateCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, activeListingsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate listing cache", zap.Error(err))
	}
}

// ListByOwner returns all listings owned by ownerID, including archived ones.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) (*model.ListListingsResponse, error) {
	listings, err := s.listings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return &model.ListListingsResponse{Listings: listings, Total: len(listings)}, nil
}

// Update applies partial edits. Only the owner may edit a listing.
func (s *ListingService) Update(ctx context.Context, id, accountID string, req *model.UpdateListingRequest) (*model.Listing, error) {
	listing, err := s.ownedListing(ctx, id, accountID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if err := middleware.ValidateListingTitle(*req.Title); err != nil {
			return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "title", Message: err.Error()})
		}
		listing.Title = *req.Title
	}
	if req.Description != nil {
		if err := middleware.ValidateDescription(*req.Description); err != nil {
			return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "description", Message: err.Error()})
		}
		listing.Description = *req.Description
	}
	if req.Category != nil {
		listing.Category = *req.Category
	}
	if req.Location != nil {
		listing.Location = *req.Location
	}
	if req.ImageURL != nil {
		listing.ImageURL = *req.ImageURL
	}
	if req.DailyRateCents != nil {
		if listing.PricingType != model.PricingFixed {
			return nil, apierror.BadRequest("daily rate only applies to fixed-price listings")
		}
		if *req.DailyRateCents <= 0 {
			return nil, apierror.Validation("invalid daily rate", apierror.FieldError{Field: "daily_rate_cents", Message: "must be positive"})
		}
		listing.DailyRateCents = *req.DailyRateCents
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	s.invalidateCache(ctx)
	return listing, nil
}

// Archive soft-deletes a listing. Only the owner may archive it.
func (s *ListingService) Archive(ctx context.Context, id, accountID string) error {
	if _, err := s.ownedListing(ctx, id, accountID); err != nil {
		return err
	}

	if err := s.listings.Archive(ctx, id); err != nil {
		return fmt.Errorf("failed to archive listing: %w", err)
	}

	s.invalidateCache(ctx)
	s.logger.Info("listing archived", zap.String("listing_id", id))
	return nil
}

// UploadPhoto stores a listing photo and records its URL.
func (s *ListingService) UploadPhoto(ctx context.Context, id, accountID, contentType string, data []byte) (*model.Listing, error) {
	listing, err := s.ownedListing(ctx, id, accountID)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, apierror.BadRequest("uploads are not enabled")
	}

	url, err := s.store.Upload(ctx, "listings", contentType, data)
	if err != nil {
		return nil, apierror.BadRequest(err.Error())
	}

	previous := listing.ImageURL
	listing.ImageURL = url
	listing.UpdatedAt = time.Now().UTC()
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	if previous != "" && previous != url {
		if err := s.store.Delete(ctx, previous); err != nil {
			s.logger.Warn("failed to delete replaced photo",
				zap.String("listing_id", id),
				zap.Error(err),
			)
		}
	}

	s.invalidateCache(ctx)
	return listing, nil
}

// Favorite marks a listing as favorited by accountID.
func (s *ListingService) Favorite(ctx context.Context, listingID, accountID string) error {
	if err := s.listings.AddFavorite(ctx, listingID, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("listing not found")
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

// Unfavorite removes a favorite.
func (s *ListingService) Unfavorite(ctx context.Context, listingID, accountID string) error {
	if err := s.listings.RemoveFavorite(ctx, listingID, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("listing not found")
		}
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *ListingService) ownedListing(ctx context.Context, id, accountID string) (*model.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("listing not found")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing.OwnerID != accountID {
		return nil, apierror.Forbidden("only the owner can modify a listing")
	}
	return listing, nil
}
