package model

import (
	"time"
)

// BookingStatus represents the lifecycle state of a booking. Completed and
// cancelled are terminal.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusDeclined  BookingStatus = "declined"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a reservation linking a renter to a listing for a date
// range, carrying the cost breakdown computed at creation time.
type Booking struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	RenterID  string `json:"renter_id"`
	OwnerID   string `json:"owner_id"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	IncludeOperator  bool   `json:"include_operator"`
	IncludeInsurance bool   `json:"include_insurance"`
	InsuranceTier    string `json:"insurance_tier,omitempty"`

	// Itemized cost breakdown, frozen at creation.
	DurationDays       int   `json:"duration_days"`
	ToolCostCents      int64 `json:"tool_cost_cents"`
	OperatorCostCents  int64 `json:"operator_cost_cents"`
	InsuranceCostCents int64 `json:"insurance_cost_cents"`
	PlatformFeeCents   int64 `json:"platform_fee_cents"`
	TaxCents           int64 `json:"tax_cents"`
	TotalCents         int64 `json:"total_cents"`

	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CreateBookingRequest is the request to reserve a listing.
type CreateBookingRequest struct {
	ListingID        string    `json:"listing_id"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	IncludeOperator  bool      `json:"include_operator"`
	IncludeInsurance bool      `json:"include_insurance"`
	InsuranceTier    string    `json:"insurance_tier,omitempty"`
}

// QuoteRequest asks for a cost breakdown without creating a booking.
type QuoteRequest struct {
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	IncludeOperator  bool      `json:"include_operator"`
	IncludeInsurance bool      `json:"include_insurance"`
	InsuranceTier    string    `json:"insurance_tier,omitempty"`
}

// ListBookingsResponse is the response for listing bookings.
type ListBookingsResponse struct {
	Bookings []Booking `json:"bookings"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}
