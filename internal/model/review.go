package model

import (
	"time"
)

// Review represents feedback left against a completed booking. Creating one
// recomputes the listing rating and the reviewee's trust metrics.
type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	ListingID  string    `json:"listing_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateReviewRequest is the request to leave a review for a booking.
type CreateReviewRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// ListReviewsResponse is the response for listing reviews.
type ListReviewsResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}
