package model

import (
	"time"
)

// NotificationKind classifies a notification.
type NotificationKind string

const (
	NotificationBidPlaced       NotificationKind = "bid_placed"
	NotificationBidOutbid       NotificationKind = "bid_outbid"
	NotificationBidWon          NotificationKind = "bid_won"
	NotificationBookingRequest  NotificationKind = "booking_request"
	NotificationBookingDecision NotificationKind = "booking_decision"
	NotificationNewMessage      NotificationKind = "new_message"
)

// Notification represents a per-account event surfaced in the UI.
type Notification struct {
	ID        string           `json:"id"`
	AccountID string           `json:"account_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// ListNotificationsResponse is the response for listing notifications.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Unread        int            `json:"unread"`
}
