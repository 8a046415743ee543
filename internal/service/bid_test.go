package service

import (
	"context"
	"testing"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
)

func TestPlaceBidAdvancesListingAndNotifies(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	alice := seedAccount(t, db, model.RoleRenter)
	listing := seedAuctionListing(t, db, owner, 12000)

	listings := repository.NewSQLiteListingRepository(db)
	svc := NewBidService(
		repository.NewSQLiteBidRepository(db),
		listings,
		newNotificationService(db, pub),
		pub,
		newTestLogger(),
	)

	ctx := context.Background()
	bid, err := svc.Place(ctx, listing.ID, alice, &model.PlaceBidRequest{AmountCents: 12500})
	if err != nil {
		t.Fatalf("failed to place bid: %v", err)
	}
	if bid.Status != model.BidStatusActive {
		t.Fatalf("expected active got %s", bid.Status)
	}

	got, err := listings.GetByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to get listing: %v", err)
	}
	if got.CurrentBidCents != 12500 {
		t.Fatalf("expected current bid 12500 got %d", got.CurrentBidCents)
	}

	if len(pub.bidEvents) != 1 || pub.bidEvents[0].AmountCents != 12500 {
		t.Fatalf("expected one bid event, got %+v", pub.bidEvents)
	}
	if len(pub.notifications) != 1 || pub.notifications[0].AccountID != owner {
		t.Fatalf("expected owner notification, got %+v", pub.notifications)
	}
}

func TestPlaceBidBelowReserveRejected(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	alice := seedAccount(t, db, model.RoleRenter)
	listing := seedAuctionListing(t, db, owner, 12000)

	svc := NewBidService(
		repository.NewSQLiteBidRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		pub,
		newTestLogger(),
	)

	_, err := svc.Place(context.Background(), listing.ID, alice, &model.PlaceBidRequest{AmountCents: 11999})
	if err == nil {
		t.Fatal("expected rejection below reserve")
	}
	if apierror.From(err).StatusCode != 400 {
		t.Fatalf("expected 400 got %d", apierror.From(err).StatusCode)
	}
	if len(pub.bidEvents) != 0 {
		t.Fatal("rejected bid must not publish an event")
	}
}

func TestOutbidNotifiesPreviousLeader(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	alice := seedAccount(t, db, model.RoleRenter)
	bob := seedAccount(t, db, model.RoleRenter)
	listing := seedAuctionListing(t, db, owner, 0)

	svc := NewBidService(
		repository.NewSQLiteBidRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		pub,
		newTestLogger(),
	)

	ctx := context.Background()
	if _, err := svc.Place(ctx, listing.ID, alice, &model.PlaceBidRequest{AmountCents: 10000}); err != nil {
		t.Fatalf("failed to place first bid: %v", err)
	}
	if _, err := svc.Place(ctx, listing.ID, bob, &model.PlaceBidRequest{AmountCents: 11000}); err != nil {
		t.Fatalf("failed to place second bid: %v", err)
	}

	var outbid bool
	for _, n := range pub.notifications {
		if n.AccountID == alice && n.Kind == model.NotificationBidOutbid {
			outbid = true
		}
	}
	if !outbid {
		t.Fatal("expected outbid notification for previous leader")
	}
}

func TestPlaceBidOnFixedListingRejected(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	alice := seedAccount(t, db, model.RoleRenter)
	listing := seedFixedListing(t, db, owner, 4500)

	svc := NewBidService(
		repository.NewSQLiteBidRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		pub,
		newTestLogger(),
	)

	if _, err := svc.Place(context.Background(), listing.ID, alice, &model.PlaceBidRequest{AmountCents: 5000}); err == nil {
		t.Fatal("expected rejection on fixed-price listing")
	}
}

func TestAcceptBid(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	alice := seedAccount(t, db, model.RoleRenter)
	bob := seedAccount(t, db, model.RoleRenter)
	listing := seedAuctionListing(t, db, owner, 0)

	listings := repository.NewSQLiteListingRepository(db)
	svc := NewBidService(
		repository.NewSQLiteBidRepository(db),
		listings,
		newNotificationService(db, pub),
		pub,
		newTestLogger(),
	)

	ctx := context.Background()
	bid, err := svc.Place(ctx, listing.ID, alice, &model.PlaceBidRequest{AmountCents: 10000})
	if err != nil {
		t.Fatalf("failed to place bid: %v", err)
	}

	// Only the owner may accept.
	if _, err := svc.Accept(ctx, bid.ID, alice); err == nil {
		t.Fatal("expected forbidden for non-owner accept")
	}

	accepted, err := svc.Accept(ctx, bid.ID, owner)
	if err != nil {
		t.Fatalf("failed to accept bid: %v", err)
	}
	if accepted.Status != model.BidStatusWon {
		t.Fatalf("expected won got %s", accepted.Status)
	}

	var won bool
	for _, n := range pub.notifications {
		if n.AccountID == alice && n.Kind == model.NotificationBidWon {
			won = true
		}
	}
	if !won {
		t.Fatal("expected bid won notification for bidder")
	}

	// The win closes the auction: the listing is retired and later bids
	// bounce.
	got, err := listings.GetByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to get listing: %v", err)
	}
	if got.Status != model.ListingStatusArchived {
		t.Fatalf("expected archived listing after win, got %s", got.Status)
	}
	if _, err := svc.Place(ctx, listing.ID, bob, &model.PlaceBidRequest{AmountCents: 20000}); err == nil {
		t.Fatal("expected rejection of bid on closed auction")
	}
}
