// Package search derives filtered, sorted views of in-memory listing
// slices. The pipeline never mutates its input.
package search

import (
	"sort"
	"strings"

	"github.com/toolshare/marketplace-api/internal/model"
)

// SortKey selects the ordering of results.
type SortKey string

const (
	// SortRelevance preserves input order.
	SortRelevance SortKey = "relevance"
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// OperatorMode filters on operator support.
type OperatorMode string

const (
	OperatorRequired  OperatorMode = "required"
	OperatorAvailable OperatorMode = "available"
	OperatorNotNeeded OperatorMode = "not_needed"
)

// Filter is the criteria set applied to a listing slice. Zero values mean
// "no constraint", never "match none".
type Filter struct {
	// Query matches case-insensitively against title, description and
	// category, OR-combined across the three fields.
	Query string

	Category string
	// Location is a case-insensitive substring match.
	Location string

	// Price bounds compare the listing's price value in cents (see
	// priceValue). Nil means unbounded.
	MinPriceCents *int64
	MaxPriceCents *int64

	MinRating *float64

	InsuranceRequired bool
	OperatorMode      OperatorMode
	PricingType       model.PricingType
}

// Apply returns a new slice holding the listings that satisfy every set
// criterion, ordered by the sort key. Sorts are stable for equal keys.
func Apply(listings []model.Listing, f Filter, key SortKey) []model.Listing {
	out := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if f.matches(&l) {
			out = append(out, l)
		}
	}
	sortListings(out, key)
	return out
}

func (f Filter) matches(l *model.Listing) bool {
	if f.Query != "" && !matchesQuery(l, f.Query) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(l.Category, f.Category) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(f.Location)) {
		return false
	}
	price := priceValue(l)
	if f.MinPriceCents != nil && price < *f.MinPriceCents {
		return false
	}
	if f.MaxPriceCents != nil && price > *f.MaxPriceCents {
		return false
	}
	if f.MinRating != nil && l.Rating < *f.MinRating {
		return false
	}
	if f.InsuranceRequired && !l.InsuranceOffered {
		return false
	}
	switch f.OperatorMode {
	case OperatorRequired, OperatorAvailable:
		if !l.OperatorAvailable {
			return false
		}
	}
	if f.PricingType != "" && l.PricingType != f.PricingType {
		return false
	}
	return true
}

func matchesQuery(l *model.Listing, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(l.Title), q) ||
		strings.Contains(strings.ToLower(l.Description), q) ||
		strings.Contains(strings.ToLower(l.Category), q)
}

// priceValue is the comparison value used by price filters and sorts: the
// daily rate for fixed-pricing listings, and for auction listings the
// current bid, falling back to the reserve bid while no bid exists.
func priceValue(l *model.Listing) int64 {
	if l.PricingType == model.PricingBidding {
		if l.CurrentBidCents > 0 {
			return l.CurrentBidCents
		}
		return l.ReserveBidCents
	}
	return l.DailyRateCents
}

func sortListings(listings []model.Listing, key SortKey) {
	switch key {
	case SortPriceLow:
		sort.SliceStable(listings, func(i, j int) bool {
			return priceValue(&listings[i]) < priceValue(&listings[j])
		})
	case SortPriceHigh:
		sort.SliceStable(listings, func(i, j int) bool {
			return priceValue(&listings[i]) > priceValue(&listings[j])
		})
	case SortRating:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Rating > listings[j].Rating
		})
	case SortNewest:
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		})
	default:
		// relevance: preserve input order
	}
}
