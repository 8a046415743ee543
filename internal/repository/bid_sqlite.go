package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toolshare/marketplace-api/internal/model"
)

// SQLiteBidRepository implements BidRepository using SQLite.
type SQLiteBidRepository struct {
	db *sql.DB
}

// NewSQLiteBidRepository creates a new SQLite bid repository.
func NewSQLiteBidRepository(db *sql.DB) *SQLiteBidRepository {
	return &SQLiteBidRepository{db: db}
}

const bidColumns = `id, tool_id, bidder_id, amount_cents, status, expires_at, created_at`

func scanBid(row interface{ Scan(...any) error }) (*model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.ID, &b.ListingID, &b.BidderID, &b.AmountCents, &b.Status, &b.ExpiresAt, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan bid: %w", err)
	}
	return &b, nil
}

// Place inserts the bid and advances the listing's current bid atomically.
// The listing update is a compare-and-swap: it only succeeds if the current
// bid still equals expectedCurrentCents, so two near-simultaneous bids
// cannot both win. The loser gets ErrBidConflict and must revalidate.
func (r *SQLiteBidRepository) Place(ctx context.Context, bid *model.Bid, expectedCurrentCents int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE tools SET current_bid_cents = ?, updated_at = ?
		 WHERE id = ? AND pricing_type = ? AND status = ? AND current_bid_cents = ?`,
		bid.AmountCents, time.Now().UTC(),
		bid.ListingID, model.PricingBidding, model.ListingStatusActive, expectedCurrentCents,
	)
	if err != nil {
		return fmt.Errorf("failed to advance current bid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBidConflict
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bids SET status = ? WHERE tool_id = ? AND status = ?`,
		model.BidStatusOutbid, bid.ListingID, model.BidStatusActive); err != nil {
		return fmt.Errorf("failed to mark outbid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bids (`+bidColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bid.ID, bid.ListingID, bid.BidderID, bid.AmountCents, bid.Status, bid.ExpiresAt, bid.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}

	return tx.Commit()
}

// GetByID retrieves a bid by ID.
func (r *SQLiteBidRepository) GetByID(ctx context.Context, id string) (*model.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = ?`
	return scanBid(r.db.QueryRowContext(ctx, query, id))
}

// Accept marks an active bid as won.
func (r *SQLiteBidRepository) Accept(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bids SET status = ? WHERE id = ? AND status = ?`,
		model.BidStatusWon, id, model.BidStatusActive)
	if err != nil {
		return fmt.Errorf("failed to accept bid: %w", err)
	}
	return requireRow(res)
}

// ListByListing returns a listing's bids, highest first.
func (r *SQLiteBidRepository) ListByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE tool_id = ? ORDER BY amount_cents DESC`
	return r.queryBids(ctx, query, listingID)
}

// ListByBidder returns a bidder's bids, newest first.
func (r *SQLiteBidRepository) ListByBidder(ctx context.Context, bidderID string) ([]model.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE bidder_id = ? ORDER BY created_at DESC`
	return r.queryBids(ctx, query, bidderID)
}

func (r *SQLiteBidRepository) queryBids(ctx context.Context, query string, args ...any) ([]model.Bid, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	return bids, rows.Err()
}

// ExpireOverdue flips active bids past their expiry to expired.
func (r *SQLiteBidRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bids SET status = ? WHERE status = ? AND expires_at <= ?`,
		model.BidStatusExpired, model.BidStatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire bids: %w", err)
	}
	return res.RowsAffected()
}
