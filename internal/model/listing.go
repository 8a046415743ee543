package model

import (
	"time"
)

// PricingType is the tagged pricing variant of a listing. Exactly one
// variant is active per listing.
type PricingType string

const (
	// PricingFixed prices the listing at a flat daily rate with optional
	// hourly and weekly rates.
	PricingFixed PricingType = "fixed"
	// PricingBidding prices the listing via competitive bidding with a
	// current bid and a reserve bid.
	PricingBidding PricingType = "bidding"
)

// ListingStatus represents the lifecycle state of a listing. Listings are
// archived, never hard-deleted.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusArchived ListingStatus = "archived"
)

// Listing represents a rentable item published by an owner.
type Listing struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url,omitempty"`

	PricingType PricingType `json:"pricing_type"`

	// Fixed-pricing fields (cents). Hourly and weekly rates are optional.
	DailyRateCents  int64 `json:"daily_rate_cents,omitempty"`
	HourlyRateCents int64 `json:"hourly_rate_cents,omitempty"`
	WeeklyRateCents int64 `json:"weekly_rate_cents,omitempty"`

	// Auction fields (cents). CurrentBidCents is zero for a fresh auction;
	// any accepted bid must meet or exceed ReserveBidCents.
	CurrentBidCents int64 `json:"current_bid_cents,omitempty"`
	ReserveBidCents int64 `json:"reserve_bid_cents,omitempty"`

	// Operator support add-on.
	OperatorAvailable       bool  `json:"operator_available"`
	OperatorHourlyRateCents int64 `json:"operator_hourly_rate_cents,omitempty"`

	// Insurance add-on, priced per day by tier.
	InsuranceOffered            bool  `json:"insurance_offered"`
	InsuranceBasicDailyCents    int64 `json:"insurance_basic_daily_cents,omitempty"`
	InsurancePremiumDailyCents  int64 `json:"insurance_premium_daily_cents,omitempty"`

	AvailableFrom time.Time `json:"available_from"`
	AvailableTo   time.Time `json:"available_to"`

	// Aggregate stats.
	Rating        float64 `json:"rating"`
	ReviewCount   int     `json:"review_count"`
	ViewCount     int     `json:"view_count"`
	FavoriteCount int     `json:"favorite_count"`

	Status    ListingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CreateListingRequest is the request to publish a listing.
type CreateListingRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Location    string      `json:"location"`
	ImageURL    string      `json:"image_url,omitempty"`
	PricingType PricingType `json:"pricing_type"`

	DailyRateCents  int64 `json:"daily_rate_cents,omitempty"`
	HourlyRateCents int64 `json:"hourly_rate_cents,omitempty"`
	WeeklyRateCents int64 `json:"weekly_rate_cents,omitempty"`
	ReserveBidCents int64 `json:"reserve_bid_cents,omitempty"`

	OperatorAvailable       bool  `json:"operator_available"`
	OperatorHourlyRateCents int64 `json:"operator_hourly_rate_cents,omitempty"`

	InsuranceOffered           bool  `json:"insurance_offered"`
	InsuranceBasicDailyCents   int64 `json:"insurance_basic_daily_cents,omitempty"`
	InsurancePremiumDailyCents int64 `json:"insurance_premium_daily_cents,omitempty"`

	AvailableFrom time.Time `json:"available_from"`
	AvailableTo   time.Time `json:"available_to"`
}

// UpdateListingRequest is the request to edit listing fields. Nil pointers
// mean "leave unchanged".
type UpdateListingRequest struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Category       *string `json:"category,omitempty"`
	Location       *string `json:"location,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
	DailyRateCents *int64  `json:"daily_rate_cents,omitempty"`
}

// ListListingsResponse is the response for listing searches.
type ListListingsResponse struct {
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}
