package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/toolshare/marketplace-api/internal/model"
)

// SQLiteReviewRepository implements ReviewRepository using SQLite.
type SQLiteReviewRepository struct {
	db *sql.DB
}

// NewSQLiteReviewRepository creates a new SQLite review repository.
func NewSQLiteReviewRepository(db *sql.DB) *SQLiteReviewRepository {
	return &SQLiteReviewRepository{db: db}
}

// Create inserts the review and recomputes the listing rating and the
// reviewee's trust metrics in the same transaction, so aggregates can never
// drift from the review rows.
func (r *SQLiteReviewRepository) Create(ctx context.Context, rev *model.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, booking_id, tool_id, reviewer_id, reviewee_id, rating, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.BookingID, rev.ListingID, rev.ReviewerID, rev.RevieweeID, rev.Rating, rev.Comment, rev.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tools SET
			rating = (SELECT AVG(rating) FROM reviews WHERE tool_id = ?),
			review_count = (SELECT COUNT(*) FROM reviews WHERE tool_id = ?)
		 WHERE id = ?`,
		rev.ListingID, rev.ListingID, rev.ListingID); err != nil {
		return fmt.Errorf("failed to update listing aggregates: %w", err)
	}

	// Trust score scales the average rating to 0-100.
	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET
			rating = (SELECT AVG(rating) FROM reviews WHERE reviewee_id = ?),
			review_count = (SELECT COUNT(*) FROM reviews WHERE reviewee_id = ?),
			trust_score = (SELECT CAST(AVG(rating) * 20 AS INTEGER) FROM reviews WHERE reviewee_id = ?)
		 WHERE id = ?`,
		rev.RevieweeID, rev.RevieweeID, rev.RevieweeID, rev.RevieweeID); err != nil {
		return fmt.Errorf("failed to update account aggregates: %w", err)
	}

	return tx.Commit()
}

// ListByListing returns a listing's reviews, newest first.
func (r *SQLiteReviewRepository) ListByListing(ctx context.Context, listingID string) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, tool_id, reviewer_id, reviewee_id, rating, comment, created_at
		 FROM reviews WHERE tool_id = ? ORDER BY created_at DESC`, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ID, &rev.BookingID, &rev.ListingID, &rev.ReviewerID,
			&rev.RevieweeID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

// ExistsForBooking reports whether the reviewer already reviewed the booking.
func (r *SQLiteReviewRepository) ExistsForBooking(ctx context.Context, bookingID, reviewerID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM reviews WHERE booking_id = ? AND reviewer_id = ?`,
		bookingID, reviewerID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return true, nil
}
