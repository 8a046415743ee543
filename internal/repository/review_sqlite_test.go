package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/toolshare/marketplace-api/internal/model"
)

func seedFixedListing(t *testing.T, db *sql.DB, id, ownerID string) {
	t.Helper()
	now := time.Now().UTC()
	err := NewSQLiteListingRepository(db).Create(context.Background(), &model.Listing{
		ID: id, OwnerID: ownerID, Title: "Fixed Tool",
		PricingType: model.PricingFixed, DailyRateCents: 4500,
		AvailableFrom: now, AvailableTo: now.AddDate(0, 1, 0),
		Status: model.ListingStatusActive, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
}

func seedBooking(t *testing.T, db *sql.DB, id, listingID, renterID, ownerID string) {
	t.Helper()
	now := time.Now().UTC()
	err := NewSQLiteBookingRepository(db).Create(context.Background(), &model.Booking{
		ID: id, ListingID: listingID, RenterID: renterID, OwnerID: ownerID,
		StartDate: now, EndDate: now.AddDate(0, 0, 2), DurationDays: 2,
		ToolCostCents: 9000, PlatformFeeCents: 900, TaxCents: 720, TotalCents: 10620,
		Status: model.BookingStatusCompleted, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to seed booking: %v", err)
	}
}

func newReview(bookingID, listingID, reviewerID, revieweeID string, rating int) *model.Review {
	return &model.Review{
		ID:         uuid.Must(uuid.NewV7()).String(),
		BookingID:  bookingID,
		ListingID:  listingID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     rating,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestReviewAggregates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "owner")
	seedAccount(t, db, "renter1")
	seedAccount(t, db, "renter2")
	seedFixedListing(t, db, "tool1", "owner")
	seedBooking(t, db, "b1", "tool1", "renter1", "owner")
	seedBooking(t, db, "b2", "tool1", "renter2", "owner")

	reviews := NewSQLiteReviewRepository(db)
	if err := reviews.Create(ctx, newReview("b1", "tool1", "renter1", "owner", 5)); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}
	if err := reviews.Create(ctx, newReview("b2", "tool1", "renter2", "owner", 4)); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}

	listing, err := NewSQLiteListingRepository(db).GetByID(ctx, "tool1")
	if err != nil {
		t.Fatalf("failed to get listing: %v", err)
	}
	if listing.Rating != 4.5 || listing.ReviewCount != 2 {
		t.Fatalf("expected rating 4.5 / 2 reviews, got %f / %d", listing.Rating, listing.ReviewCount)
	}

	owner, err := NewSQLiteAccountRepository(db).GetByID(ctx, "owner")
	if err != nil {
		t.Fatalf("failed to get owner: %v", err)
	}
	if owner.Rating != 4.5 || owner.ReviewCount != 2 {
		t.Fatalf("expected owner rating 4.5 / 2 reviews, got %f / %d", owner.Rating, owner.ReviewCount)
	}
	if owner.TrustScore != 90 {
		t.Fatalf("expected trust score 90 got %d", owner.TrustScore)
	}
}

func TestReviewDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "owner")
	seedAccount(t, db, "renter1")
	seedFixedListing(t, db, "tool1", "owner")
	seedBooking(t, db, "b1", "tool1", "renter1", "owner")

	reviews := NewSQLiteReviewRepository(db)
	if err := reviews.Create(ctx, newReview("b1", "tool1", "renter1", "owner", 5)); err != nil {
		t.Fatalf("failed to create review: %v", err)
	}
	err := reviews.Create(ctx, newReview("b1", "tool1", "renter1", "owner", 3))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate got %v", err)
	}

	exists, err := reviews.ExistsForBooking(ctx, "b1", "renter1")
	if err != nil || !exists {
		t.Fatalf("expected review to exist, got exists=%v err=%v", exists, err)
	}
}

func TestBookingLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, db, "owner")
	seedAccount(t, db, "renter1")
	seedFixedListing(t, db, "tool1", "owner")
	seedBooking(t, db, "b1", "tool1", "renter1", "owner")

	bookings := NewSQLiteBookingRepository(db)
	if err := bookings.UpdateStatus(ctx, "b1", model.BookingStatusCancelled); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}

	got, err := bookings.GetByID(ctx, "b1")
	if err != nil {
		t.Fatalf("failed to get booking: %v", err)
	}
	if got.Status != model.BookingStatusCancelled {
		t.Fatalf("expected cancelled got %s", got.Status)
	}
	if got.TotalCents != 10620 {
		t.Fatalf("expected frozen total 10620 got %d", got.TotalCents)
	}

	if err := bookings.UpdateStatus(ctx, "missing", model.BookingStatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
