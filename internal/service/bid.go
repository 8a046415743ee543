package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/bidding"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
	"github.com/toolshare/marketplace-api/pkg/metrics"
)

// BidService handles auction bidding.
type BidService struct {
	bids          repository.BidRepository
	listings      repository.ListingRepository
	notifications *NotificationService
	publisher     StreamPublisher
	logger        *logger.Logger
}

// NewBidService creates a new bid service.
func NewBidService(
	bids repository.BidRepository,
	listings repository.ListingRepository,
	notifications *NotificationService,
	publisher StreamPublisher,
	log *logger.Logger,
) *BidService {
	return &BidService{
		bids:          bids,
		listings:      listings,
		notifications: notifications,
		publisher:     publisher,
		logger:        log,
	}
}

// Place validates and places a bid. The listing's current bid is advanced by
// compare-and-swap: if another bid lands between validation and placement the
// caller gets a conflict and must re-read the listing and retry.
func (s *BidService) Place(ctx context.Context, listingID, bidderID string, req *model.PlaceBidRequest) (*model.Bid, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("listing not found")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	if listing.Status != model.ListingStatusActive {
		return nil, apierror.NotFound("listing not found")
	}
	if listing.PricingType != model.PricingBidding {
		return nil, apierror.BadRequest("listing is not open for bidding")
	}
	if listing.OwnerID == bidderID {
		return nil, apierror.BadRequest("cannot bid on your own listing")
	}

	if err := bidding.Validate(req.AmountCents, listing.CurrentBidCents, listing.ReserveBidCents); err != nil {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return nil, apierror.BadRequest(err.Error())
	}

	// Identify the current leader before they get marked outbid.
	var outbidAccount string
	if listing.CurrentBidCents > 0 {
		existing, err := s.bids.ListByListing(ctx, listingID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bids: %w", err)
		}
		for _, b := range existing {
			if b.Status == model.BidStatusActive {
				outbidAccount = b.BidderID
				break
			}
		}
	}

	now := time.Now().UTC()
	bid := &model.Bid{
		ID:          uuid.Must(uuid.NewV7()).String(),
		ListingID:   listingID,
		BidderID:    bidderID,
		AmountCents: req.AmountCents,
		Status:      model.BidStatusActive,
		ExpiresAt:   now.Add(bidding.ExpiryWindow),
		CreatedAt:   now,
	}

	if err := s.bids.Place(ctx, bid, listing.CurrentBidCents); err != nil {
		if errors.Is(err, repository.ErrBidConflict) {
			metrics.BidsTotal.WithLabelValues("conflict").Inc()
			return nil, apierror.Conflict("another bid was placed first; refresh and try again")
		}
		return nil, fmt.Errorf("failed to place bid: %w", err)
	}

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("bid placed",
		zap.String("bid_id", bid.ID),
		zap.String("listing_id", listingID),
		zap.Int64("amount_cents", bid.AmountCents),
	)

	if _, err := s.publisher.PublishBidEvent(ctx, &model.BidEvent{
		BidID:            bid.ID,
		ListingID:        listingID,
		BidderID:         bidderID,
		AmountCents:      bid.AmountCents,
		PreviousBidCents: listing.CurrentBidCents,
		CreatedAt:        now,
	}); err != nil {
		s.logger.Warn("failed to publish bid event", zap.String("bid_id", bid.ID), zap.Error(err))
	}

	s.notifications.Notify(ctx, listing.OwnerID, model.NotificationBidPlaced,
		"New bid received",
		fmt.Sprintf("A bid of %s was placed on %s", formatCents(bid.AmountCents), listing.Title))

	if outbidAccount != "" && outbidAccount != bidderID {
		s.notifications.Notify(ctx, outbidAccount, model.NotificationBidOutbid,
			"You have been outbid",
			fmt.Sprintf("A higher bid was placed on %s", listing.Title))
	}

	return bid, nil
}

// Accept lets the listing owner accept a bid, closing the auction.
func (s *BidService) Accept(ctx context.Context, bidID, accountID string) (*model.Bid, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("bid not found")
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	listing, err := s.listings.GetByID(ctx, bid.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if listing.OwnerID != accountID {
		return nil, apierror.Forbidden("only the owner can accept a bid")
	}
	if bid.Status != model.BidStatusActive {
		return nil, apierror.Conflict("bid is no longer active")
	}

	if err := s.bids.Accept(ctx, bidID); err != nil {
		return nil, fmt.Errorf("failed to accept bid: %w", err)
	}
	bid.Status = model.BidStatusWon

	// The auction is over: retire the listing so no further bids land.
	if err := s.listings.Archive(ctx, bid.ListingID); err != nil {
		return nil, fmt.Errorf("failed to close listing: %w", err)
	}

	s.logger.Info("bid accepted",
		zap.String("bid_id", bidID),
		zap.String("listing_id", bid.ListingID),
	)

	s.notifications.Notify(ctx, bid.BidderID, model.NotificationBidWon,
		"Bid accepted",
		fmt.Sprintf("Your bid of %s on %s was accepted", formatCents(bid.AmountCents), listing.Title))

	return bid, nil
}

// ListByListing returns bids on a listing, highest first.
func (s *BidService) ListByListing(ctx context.Context, listingID string) (*model.ListBidsResponse, error) {
	bids, err := s.bids.ListByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return &model.ListBidsResponse{Bids: bids, Total: len(bids)}, nil
}

// ListByBidder returns the account's bids.
func (s *BidService) ListByBidder(ctx context.Context, bidderID string) (*model.ListBidsResponse, error) {
	bids, err := s.bids.ListByBidder(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return &model.ListBidsResponse{Bids: bids, Total: len(bids)}, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
