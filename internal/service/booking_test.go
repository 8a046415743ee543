package service

import (
	"context"
	"testing"
	"time"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
)

func TestQuoteBareRental(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	listing := seedFixedListing(t, db, owner, 4500)

	svc := NewBookingService(
		repository.NewSQLiteBookingRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		newTestLogger(),
	)

	start := time.Now().UTC()
	quote, err := svc.Quote(context.Background(), listing.ID, &model.QuoteRequest{
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to quote: %v", err)
	}

	if quote.DurationDays != 2 {
		t.Fatalf("expected 2 days got %d", quote.DurationDays)
	}
	if quote.ToolCostCents != 9000 || quote.PlatformFeeCents != 900 || quote.TaxCents != 720 {
		t.Fatalf("unexpected breakdown: %+v", quote)
	}
	if quote.TotalCents != 10620 {
		t.Fatalf("expected total 10620 got %d", quote.TotalCents)
	}
}

func TestQuoteWithOperator(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	listing := seedFixedListing(t, db, owner, 4500)

	svc := NewBookingService(
		repository.NewSQLiteBookingRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		newTestLogger(),
	)

	start := time.Now().UTC()
	quote, err := svc.Quote(context.Background(), listing.ID, &model.QuoteRequest{
		StartDate:       start,
		EndDate:         start.Add(48 * time.Hour),
		IncludeOperator: true,
	})
	if err != nil {
		t.Fatalf("failed to quote: %v", err)
	}

	// 2 days x 8h x $20/h operator on top of the $45/day rental.
	if quote.OperatorCostCents != 32000 {
		t.Fatalf("expected operator 32000 got %d", quote.OperatorCostCents)
	}
	if quote.PlatformFeeCents != 4100 || quote.TaxCents != 3280 {
		t.Fatalf("unexpected fee/tax: %+v", quote)
	}
	if quote.TotalCents != 48380 {
		t.Fatalf("expected total 48380 got %d", quote.TotalCents)
	}
}

func TestQuoteRejectsInvalidRange(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	listing := seedFixedListing(t, db, owner, 4500)

	svc := NewBookingService(
		repository.NewSQLiteBookingRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		newTestLogger(),
	)

	start := time.Now().UTC()
	_, err := svc.Quote(context.Background(), listing.ID, &model.QuoteRequest{
		StartDate: start,
		EndDate:   start.Add(-24 * time.Hour),
	})
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	if apierror.From(err).StatusCode != 400 {
		t.Fatalf("expected 400 got %d", apierror.From(err).StatusCode)
	}
}

func TestCreateBookingFreezesBreakdownAndNotifiesOwner(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	renter := seedAccount(t, db, model.RoleRenter)
	listing := seedFixedListing(t, db, owner, 4500)

	svc := NewBookingService(
		repository.NewSQLiteBookingRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		newTestLogger(),
	)

	start := time.Now().UTC()
	booking, err := svc.Create(context.Background(), renter, &model.CreateBookingRequest{
		ListingID: listing.ID,
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	if booking.Status != model.BookingStatusPending {
		t.Fatalf("expected pending got %s", booking.Status)
	}
	if booking.TotalCents != 10620 {
		t.Fatalf("expected frozen total 10620 got %d", booking.TotalCents)
	}
	if booking.OwnerID != owner || booking.RenterID != renter {
		t.Fatalf("unexpected parties: %+v", booking)
	}

	if len(pub.notifications) != 1 || pub.notifications[0].AccountID != owner {
		t.Fatalf("expected booking request notification for owner, got %+v", pub.notifications)
	}
	if pub.notifications[0].Kind != model.NotificationBookingRequest {
		t.Fatalf("expected booking_request got %s", pub.notifications[0].Kind)
	}
}

func TestCreateBookingRejectsOwnListing(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	listing := seedFixedListing(t, db, owner, 4500)

	svc := NewBookingService(
		repository.NewSQLiteBookingRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		newTestLogger(),
	)

	start := time.Now().UTC()
	_, err := svc.Create(context.Background(), owner, &model.CreateBookingRequest{
		ListingID: listing.ID,
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
	})
	if err == nil {
		t.Fatal("expected error booking own listing")
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	pub := &stubPublisher{}
	owner := seedAccount(t, db, model.RoleOwner)
	renter := seedAccount(t, db, model.RoleRenter)
	listing := seedFixedListing(t, db, owner, 4500)

	svc := NewBookingService(
		repository.NewSQLiteBookingRepository(db),
		repository.NewSQLiteListingRepository(db),
		newNotificationService(db, pub),
		newTestLogger(),
	)

	ctx := context.Background()
	start := time.Now().UTC()
	booking, err := svc.Create(ctx, renter, &model.CreateBookingRequest{
		ListingID: listing.ID,
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}

	// Renter cannot accept their own request.
	if _, err := svc.UpdateStatus(ctx, booking.ID, renter, model.BookingStatusAccepted); err == nil {
		t.Fatal("expected forbidden for renter accepting")
	}

	// Owner accepts, activates, completes.
	for _, status := range []model.BookingStatus{
		model.BookingStatusAccepted,
		model.BookingStatusActive,
		model.BookingStatusCompleted,
	} {
		if _, err := svc.UpdateStatus(ctx, booking.ID, owner, status); err != nil {
			t.Fatalf("failed to move to %s: %v", status, err)
		}
	}

	// Completed is terminal.
	if _, err := svc.UpdateStatus(ctx, booking.ID, owner, model.BookingStatusActive); err == nil {
		t.Fatal("expected conflict on terminal booking")
	}

	// Renter got notified of the acceptance.
	var accepted bool
	for _, n := range pub.notifications {
		if n.AccountID == renter && n.Kind == model.NotificationBookingDecision {
			accepted = true
		}
	}
	if !accepted {
		t.Fatal("expected booking decision notification for renter")
	}
}
