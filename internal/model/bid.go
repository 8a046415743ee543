package model

import (
	"time"
)

// BidStatus represents the state of a bid.
type BidStatus string

const (
	BidStatusActive  BidStatus = "active"
	BidStatusOutbid  BidStatus = "outbid"
	BidStatusWon     BidStatus = "won"
	BidStatusExpired BidStatus = "expired"
)

// Bid represents a time-limited monetary offer against an auction listing.
type Bid struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	BidderID    string    `json:"bidder_id"`
	AmountCents int64     `json:"amount_cents"`
	Status      BidStatus `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlaceBidRequest is the request to place a bid on an auction listing.
type PlaceBidRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

// ListBidsResponse is the response for listing bids.
type ListBidsResponse struct {
	Bids  []Bid `json:"bids"`
	Total int   `json:"total"`
}

// BidEvent is published to the marketplace stream when a bid is accepted.
type BidEvent struct {
	BidID            string    `json:"bid_id"`
	ListingID        string    `json:"listing_id"`
	BidderID         string    `json:"bidder_id"`
	AmountCents      int64     `json:"amount_cents"`
	PreviousBidCents int64     `json:"previous_bid_cents"`
	CreatedAt        time.Time `json:"created_at"`
}
