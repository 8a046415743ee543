// Package repository provides SQLite-backed persistence for the marketplace.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/toolshare/marketplace-api/internal/model"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a uniqueness violation (e.g. email already
	// registered).
	ErrDuplicate = errors.New("already exists")

	// ErrBidConflict indicates the listing's current bid moved between
	// validation and placement; the caller lost the race.
	ErrBidConflict = errors.New("current bid changed concurrently")
)

// AccountRepository defines account data access methods.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Deactivate(ctx context.Context, id string) error

	CreateResetToken(ctx context.Context, accountID, token string, expiresAt time.Time) error
	// ConsumeResetToken resolves a valid, unexpired token to its account
	// and invalidates it.
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

// ListingRepository defines listing data access methods.
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	Archive(ctx context.Context, id string) error
	// ListActive returns all active listings; filtering and sorting happen
	// in the search pipeline.
	ListActive(ctx context.Context) ([]model.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Listing, error)
	IncrementViewCount(ctx context.Context, id string) error
	AddFavorite(ctx context.Context, listingID, accountID string) error
	RemoveFavorite(ctx context.Context, listingID, accountID string) error
}

// BookingRepository defines booking data access methods.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error
	ListByRenter(ctx context.Context, renterID string) ([]model.Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Booking, error)
}

// BidRepository defines bid data access methods.
type BidRepository interface {
	// Place inserts the bid, marks previously active bids on the listing
	// as outbid, and advances the listing's current bid — all in one
	// transaction. The current-bid update is a compare-and-swap against
	// expectedCurrentCents; ErrBidConflict is returned if another bid won
	// the race.
	Place(ctx context.Context, bid *model.Bid, expectedCurrentCents int64) error
	GetByID(ctx context.Context, id string) (*model.Bid, error)
	Accept(ctx context.Context, id string) error
	ListByListing(ctx context.Context, listingID string) ([]model.Bid, error)
	ListByBidder(ctx context.Context, bidderID string) ([]model.Bid, error)
	// ExpireOverdue flips active bids past their expiry to expired and
	// returns how many were affected.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// ChatRepository defines conversation and message data access methods.
type ChatRepository interface {
	// GetOrCreateConversation returns the conversation between the two
	// participants, creating it on first contact. The second return value
	// reports whether it was created.
	GetOrCreateConversation(ctx context.Context, a, b, listingID string) (*model.Conversation, bool, error)
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversations(ctx context.Context, accountID string) ([]model.Conversation, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error)
	// MarkRead marks all messages in the conversation not authored by
	// readerID as read.
	MarkRead(ctx context.Context, conversationID, readerID string) error
}

// ReviewRepository defines review data access methods.
type ReviewRepository interface {
	// Create inserts the review and recomputes the listing's rating and
	// the reviewee's trust metrics in the same transaction.
	Create(ctx context.Context, review *model.Review) error
	ListByListing(ctx context.Context, listingID string) ([]model.Review, error)
	ExistsForBooking(ctx context.Context, bookingID, reviewerID string) (bool, error)
}

// NotificationRepository defines notification data access methods.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, accountID string) (int, error)
	MarkRead(ctx context.Context, id, accountID string) error
	MarkAllRead(ctx context.Context, accountID string) error
}
