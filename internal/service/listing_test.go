package service

import (
	"context"
	"testing"
	"time"

	"github.com/toolshare/marketplace-api/internal/cache"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/internal/search"
	"github.com/toolshare/marketplace-api/pkg/apierror"
)

func newListingService(t *testing.T) (*ListingService, string) {
	t.Helper()
	db := newTestDB(t)
	owner := seedAccount(t, db, model.RoleOwner)

	c := cache.NewMemoryCache()
	t.Cleanup(c.Close)

	svc := NewListingService(
		repository.NewSQLiteListingRepository(db),
		c,
		time.Minute,
		nil,
		newTestLogger(),
	)
	return svc, owner
}

func createListingRequest() *model.CreateListingRequest {
	now := time.Now().UTC()
	return &model.CreateListingRequest{
		Title:          "Concrete Mixer",
		Description:    "200L drum mixer, recently serviced",
		Category:       "concrete",
		Location:       "Salem, OR",
		PricingType:    model.PricingFixed,
		DailyRateCents: 6500,
		AvailableFrom:  now,
		AvailableTo:    now.AddDate(0, 1, 0),
	}
}

func TestCreateListingAndSearch(t *testing.T) {
	svc, owner := newListingService(t)
	ctx := context.Background()

	listing, err := svc.Create(ctx, owner, createListingRequest())
	if err != nil {
		t.Fatalf("failed to create listing: %v", err)
	}
	if listing.Status != model.ListingStatusActive {
		t.Fatalf("expected active got %s", listing.Status)
	}

	resp, err := svc.Search(ctx, search.Filter{Query: "MIXER"}, search.SortRelevance)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if resp.Total != 1 || resp.Listings[0].ID != listing.ID {
		t.Fatalf("expected the new listing, got %+v", resp)
	}

	// Second search is served from cache and sees the same results.
	resp, err = svc.Search(ctx, search.Filter{Query: "mixer"}, search.SortRelevance)
	if err != nil {
		t.Fatalf("failed to search (cached): %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected cached hit, got %+v", resp)
	}
}

func TestCreateListingValidation(t *testing.T) {
	svc, owner := newListingService(t)
	ctx := context.Background()

	req := createListingRequest()
	req.DailyRateCents = 0
	if _, err := svc.Create(ctx, owner, req); apierror.From(err).StatusCode != 400 {
		t.Fatalf("expected 400 for missing daily rate, got %v", err)
	}

	req = createListingRequest()
	req.PricingType = "hourly"
	if _, err := svc.Create(ctx, owner, req); apierror.From(err).StatusCode != 400 {
		t.Fatalf("expected 400 for bad pricing type, got %v", err)
	}

	req = createListingRequest()
	req.AvailableTo = req.AvailableFrom.Add(-time.Hour)
	if _, err := svc.Create(ctx, owner, req); apierror.From(err).StatusCode != 400 {
		t.Fatalf("expected 400 for inverted availability, got %v", err)
	}
}

func TestArchiveHidesFromSearch(t *testing.T) {
	svc, owner := newListingService(t)
	ctx := context.Background()

	listing, err := svc.Create(ctx, owner, createListingRequest())
	if err != nil {
		t.Fatalf("failed to create listing: %v", err)
	}

	// Non-owner cannot archive.
	if err := svc.Archive(ctx, listing.ID, "00000000-0000-0000-0000-000000000000"); apierror.From(err).StatusCode != 403 {
		t.Fatalf("expected 403 for non-owner, got %v", err)
	}

	if err := svc.Archive(ctx, listing.ID, owner); err != nil {
		t.Fatalf("failed to archive: %v", err)
	}

	resp, err := svc.Search(ctx, search.Filter{}, search.SortRelevance)
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if resp.Total != 0 {
		t.Fatalf("archived listing still visible: %+v", resp)
	}

	// Still visible to the owner's own view.
	mine, err := svc.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("failed to list own listings: %v", err)
	}
	if mine.Total != 1 || mine.Listings[0].Status != model.ListingStatusArchived {
		t.Fatalf("expected archived listing in owner view, got %+v", mine)
	}
}

func TestGetBumpsViewCount(t *testing.T) {
	svc, owner := newListingService(t)
	ctx := context.Background()

	listing, err := svc.Create(ctx, owner, createListingRequest())
	if err != nil {
		t.Fatalf("failed to create listing: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Get(ctx, listing.ID); err != nil {
			t.Fatalf("failed to get listing: %v", err)
		}
	}

	got, err := svc.Get(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to get listing: %v", err)
	}
	if got.ViewCount != 4 {
		t.Fatalf("expected view count 4 got %d", got.ViewCount)
	}
}

func TestFavoriteIsIdempotent(t *testing.T) {
	svc, owner := newListingService(t)
	ctx := context.Background()

	listing, err := svc.Create(ctx, owner, createListingRequest())
	if err != nil {
		t.Fatalf("failed to create listing: %v", err)
	}

	fan := "00000000-0000-0000-0000-000000000001"
	if err := svc.Favorite(ctx, listing.ID, fan); err != nil {
		t.Fatalf("failed to favorite: %v", err)
	}
	if err := svc.Favorite(ctx, listing.ID, fan); err != nil {
		t.Fatalf("repeat favorite should be a no-op: %v", err)
	}

	got, err := svc.Get(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to get listing: %v", err)
	}
	if got.FavoriteCount != 1 {
		t.Fatalf("expected favorite count 1 got %d", got.FavoriteCount)
	}

	if err := svc.Unfavorite(ctx, listing.ID, fan); err != nil {
		t.Fatalf("failed to unfavorite: %v", err)
	}
	got, err = svc.Get(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to get listing: %v", err)
	}
	if got.FavoriteCount != 0 {
		t.Fatalf("expected favorite count 0 got %d", got.FavoriteCount)
	}
}
