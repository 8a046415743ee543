package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toolshare/marketplace-api/internal/model"
)

// SQLiteBookingRepository implements BookingRepository using SQLite.
type SQLiteBookingRepository struct {
	db *sql.DB
}

// NewSQLiteBookingRepository creates a new SQLite booking repository.
func NewSQLiteBookingRepository(db *sql.DB) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{db: db}
}

const bookingColumns = `id, tool_id, renter_id, owner_id, start_date, end_date,
	include_operator, include_insurance, insurance_tier,
	duration_days, tool_cost_cents, operator_cost_cents, insurance_cost_cents,
	platform_fee_cents, tax_cents, total_cents, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.ListingID, &b.RenterID, &b.OwnerID, &b.StartDate, &b.EndDate,
		&b.IncludeOperator, &b.IncludeInsurance, &b.InsuranceTier,
		&b.DurationDays, &b.ToolCostCents, &b.OperatorCostCents, &b.InsuranceCostCents,
		&b.PlatformFeeCents, &b.TaxCents, &b.TotalCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return &b, nil
}

// Create inserts a new booking with its frozen cost breakdown.
func (r *SQLiteBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.ListingID, b.RenterID, b.OwnerID, b.StartDate, b.EndDate,
		b.IncludeOperator, b.IncludeInsurance, b.InsuranceTier,
		b.DurationDays, b.ToolCostCents, b.OperatorCostCents, b.InsuranceCostCents,
		b.PlatformFeeCents, b.TaxCents, b.TotalCents, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by ID.
func (r *SQLiteBookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return scanBooking(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus advances the booking lifecycle.
func (r *SQLiteBookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return requireRow(res)
}

// ListByRenter returns a renter's bookings, newest first.
func (r *SQLiteBookingRepository) ListByRenter(ctx context.Context, renterID string) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE renter_id = ? ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, renterID)
}

// ListByOwner returns bookings against an owner's listings, newest first.
func (r *SQLiteBookingRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE owner_id = ? ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, ownerID)
}

func (r *SQLiteBookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
