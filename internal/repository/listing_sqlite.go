package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toolshare/marketplace-api/internal/model"
)

// SQLiteListingRepository implements ListingRepository using SQLite.
type SQLiteListingRepository struct {
	db *sql.DB
}

// NewSQLiteListingRepository creates a new SQLite listing repository.
func NewSQLiteListingRepository(db *sql.DB) *SQLiteListingRepository {
	return &SQLiteListingRepository{db: db}
}

const listingColumns = `id, owner_id, title, description, category, location, image_url,
	pricing_type, daily_rate_cents, hourly_rate_cents, weekly_rate_cents,
	current_bid_cents, reserve_bid_cents,
	operator_available, operator_hourly_rate_cents,
	insurance_offered, insurance_basic_daily_cents, insurance_premium_daily_cents,
	available_from, available_to,
	rating, review_count, view_count, favorite_count, status, created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*model.Listing, error) {
	var l model.Listing
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Category, &l.Location, &l.ImageURL,
		&l.PricingType, &l.DailyRateCents, &l.HourlyRateCents, &l.WeeklyRateCents,
		&l.CurrentBidCents, &l.ReserveBidCents,
		&l.OperatorAvailable, &l.OperatorHourlyRateCents,
		&l.InsuranceOffered, &l.InsuranceBasicDailyCents, &l.InsurancePremiumDailyCents,
		&l.AvailableFrom, &l.AvailableTo,
		&l.Rating, &l.ReviewCount, &l.ViewCount, &l.FavoriteCount, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}
	return &l, nil
}

// Create inserts a new listing.
func (r *SQLiteListingRepository) Create(ctx context.Context, l *model.Listing) error {
	query := `INSERT INTO tools (` + listingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.OwnerID, l.Title, l.Description, l.Category, l.Location, l.ImageURL,
		l.PricingType, l.DailyRateCents, l.HourlyRateCents, l.WeeklyRateCents,
		l.CurrentBidCents, l.ReserveBidCents,
		l.OperatorAvailable, l.OperatorHourlyRateCents,
		l.InsuranceOffered, l.InsuranceBasicDailyCents, l.InsurancePremiumDailyCents,
		l.AvailableFrom, l.AvailableTo,
		l.Rating, l.ReviewCount, l.ViewCount, l.FavoriteCount, l.Status, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// GetByID retrieves a listing by ID.
func (r *SQLiteListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM tools WHERE id = ?`
	return scanListing(r.db.QueryRowContext(ctx, query, id))
}

// Update persists owner-editable fields.
func (r *SQLiteListingRepository) Update(ctx context.Context, l *model.Listing) error {
	query := `UPDATE tools SET
		title = ?, description = ?, category = ?, location = ?, image_url = ?,
		daily_rate_cents = ?, hourly_rate_cents = ?, weekly_rate_cents = ?,
		operator_available = ?, operator_hourly_rate_cents = ?,
		insurance_offered = ?, insurance_basic_daily_cents = ?, insurance_premium_daily_cents = ?,
		available_from = ?, available_to = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		l.Title, l.Description, l.Category, l.Location, l.ImageURL,
		l.DailyRateCents, l.HourlyRateCents, l.WeeklyRateCents,
		l.OperatorAvailable, l.OperatorHourlyRateCents,
		l.InsuranceOffered, l.InsuranceBasicDailyCents, l.InsurancePremiumDailyCents,
		l.AvailableFrom, l.AvailableTo, time.Now().UTC(),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return requireRow(res)
}

// Archive retires a listing. Listings are never hard-deleted.
func (r *SQLiteListingRepository) Archive(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tools SET status = ?, updated_at = ? WHERE id = ?`,
		model.ListingStatusArchived, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to archive listing: %w", err)
	}
	return requireRow(res)
}

// ListActive returns all active listings ordered by creation time.
func (r *SQLiteListingRepository) ListActive(ctx context.Context) ([]model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM tools WHERE status = ? ORDER BY created_at DESC`
	return r.queryListings(ctx, query, model.ListingStatusActive)
}

// ListByOwner returns an owner's listings, archived included.
func (r *SQLiteListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM tools WHERE owner_id = ? ORDER BY created_at DESC`
	return r.queryListings(ctx, query, ownerID)
}

func (r *SQLiteListingRepository) queryListings(ctx context.Context, query string, args ...any) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// IncrementViewCount bumps the view counter.
func (r *SQLiteListingRepository) IncrementViewCount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tools SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return requireRow(res)
}

// AddFavorite records a favorite and bumps the counter. Adding twice is a
// no-op.
func (r *SQLiteListingRepository) AddFavorite(ctx context.Context, listingID, accountID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO favorites (tool_id, profile_id) VALUES (?, ?)`, listingID, accountID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "PRIMARY KEY constraint") {
			return nil
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tools SET favorite_count = favorite_count + 1 WHERE id = ?`, listingID); err != nil {
		return fmt.Errorf("failed to bump favorite count: %w", err)
	}

	return tx.Commit()
}

// RemoveFavorite removes a favorite and lowers the counter.
func (r *SQLiteListingRepository) RemoveFavorite(ctx context.Context, listingID, accountID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM favorites WHERE tool_id = ? AND profile_id = ?`, listingID, accountID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tools SET favorite_count = MAX(favorite_count - 1, 0) WHERE id = ?`, listingID); err != nil {
		return fmt.Errorf("failed to lower favorite count: %w", err)
	}

	return tx.Commit()
}
