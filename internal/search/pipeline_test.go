package search

import (
	"testing"
	"time"

	"github.com/toolshare/marketplace-api/internal/model"
)

func sampleListings() []model.Listing {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.Listing{
		{
			ID: "l1", Title: "Cordless Drill", Description: "18V hammer drill",
			Category: "power tools", Location: "Austin, TX",
			PricingType: model.PricingFixed, DailyRateCents: 2500,
			Rating: 4.8, OperatorAvailable: false, InsuranceOffered: true,
			CreatedAt: base,
		},
		{
			ID: "l2", Title: "Mini Excavator", Description: "1.5t digger with operator support",
			Category: "heavy equipment", Location: "Dallas, TX",
			PricingType: model.PricingFixed, DailyRateCents: 45000,
			Rating: 4.2, OperatorAvailable: true, InsuranceOffered: true,
			CreatedAt: base.AddDate(0, 0, 2),
		},
		{
			ID: "l3", Title: "Vintage DRILL press", Description: "floor standing",
			Category: "workshop", Location: "Houston, TX",
			PricingType: model.PricingBidding, ReserveBidCents: 12000, CurrentBidCents: 10000,
			Rating: 3.9, OperatorAvailable: false, InsuranceOffered: false,
			CreatedAt: base.AddDate(0, 0, 1),
		},
		{
			ID: "l4", Title: "Tile Saw", Description: "wet saw",
			Category: "power tools", Location: "Austin, TX",
			PricingType: model.PricingFixed, DailyRateCents: 4000,
			Rating: 4.8, OperatorAvailable: true, InsuranceOffered: false,
			CreatedAt: base.AddDate(0, 0, 3),
		},
	}
}

func ids(listings []model.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func assertIDs(t *testing.T, got []model.Listing, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v got %v", want, g)
		}
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	in := sampleListings()
	upper := Apply(in, Filter{Query: "DRILL"}, SortRelevance)
	lower := Apply(in, Filter{Query: "drill"}, SortRelevance)

	assertIDs(t, upper, "l1", "l3")
	assertIDs(t, lower, "l1", "l3")
}

func TestFiltersAndCombined(t *testing.T) {
	in := sampleListings()
	minRating := 4.5
	got := Apply(in, Filter{Category: "power tools", MinRating: &minRating}, SortRelevance)
	assertIDs(t, got, "l1", "l4")

	// Every result must satisfy the predicate.
	for _, l := range got {
		if l.Category != "power tools" || l.Rating < minRating {
			t.Fatalf("result %s violates filter", l.ID)
		}
	}
}

func TestFilterPriceRange(t *testing.T) {
	in := sampleListings()
	min, max := int64(3000), int64(20000)
	got := Apply(in, Filter{MinPriceCents: &min, MaxPriceCents: &max}, SortRelevance)
	// l4 at 4000 and l3 valued at its current bid 10000.
	assertIDs(t, got, "l3", "l4")
}

func TestFilterOperatorAndInsurance(t *testing.T) {
	in := sampleListings()

	got := Apply(in, Filter{OperatorMode: OperatorRequired}, SortRelevance)
	assertIDs(t, got, "l2", "l4")

	got = Apply(in, Filter{OperatorMode: OperatorNotNeeded}, SortRelevance)
	assertIDs(t, got, "l1", "l2", "l3", "l4")

	got = Apply(in, Filter{InsuranceRequired: true}, SortRelevance)
	assertIDs(t, got, "l1", "l2")
}

func TestFilterPricingType(t *testing.T) {
	in := sampleListings()
	got := Apply(in, Filter{PricingType: model.PricingBidding}, SortRelevance)
	assertIDs(t, got, "l3")
}

func TestSortPriceLowNonDecreasing(t *testing.T) {
	in := sampleListings()
	got := Apply(in, Filter{PricingType: model.PricingFixed}, SortPriceLow)

	assertIDs(t, got, "l1", "l4", "l2")
	for i := 1; i < len(got); i++ {
		if got[i].DailyRateCents < got[i-1].DailyRateCents {
			t.Fatalf("daily rates not non-decreasing: %v", ids(got))
		}
	}
}

func TestSortNewest(t *testing.T) {
	got := Apply(sampleListings(), Filter{}, SortNewest)
	assertIDs(t, got, "l4", "l2", "l3", "l1")
}

func TestSortRatingStable(t *testing.T) {
	// l1 and l4 tie at 4.8; stable sort keeps input order between them.
	got := Apply(sampleListings(), Filter{}, SortRating)
	assertIDs(t, got, "l1", "l4", "l2", "l3")
}

func TestInputNotMutated(t *testing.T) {
	in := sampleListings()
	Apply(in, Filter{Query: "drill"}, SortPriceHigh)

	assertIDs(t, in, "l1", "l2", "l3", "l4")
}

func TestEmptyResults(t *testing.T) {
	got := Apply(sampleListings(), Filter{Query: "no such tool"}, SortRelevance)
	if len(got) != 0 {
		t.Fatalf("expected empty result got %v", ids(got))
	}

	got = Apply(nil, Filter{}, SortNewest)
	if len(got) != 0 {
		t.Fatalf("expected empty result for empty input got %v", ids(got))
	}
}
