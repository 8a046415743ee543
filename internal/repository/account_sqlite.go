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

// SQLiteAccountRepository implements AccountRepository using SQLite.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewSQLiteAccountRepository creates a new SQLite account repository.
func NewSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, full_name, phone, avatar_url, role,
	email_verified, phone_verified, identity_verified,
	rating, review_count, trust_score, currency, status, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Phone, &a.AvatarURL, &a.Role,
		&a.EmailVerified, &a.PhoneVerified, &a.IdentityVerified,
		&a.Rating, &a.ReviewCount, &a.TrustScore, &a.Currency, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &a, nil
}

// Create inserts a new account.
func (r *SQLiteAccountRepository) Create(ctx context.Context, a *model.Account) error {
	query := `INSERT INTO profiles (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.FullName, a.Phone, a.AvatarURL, a.Role,
		a.EmailVerified, a.PhoneVerified, a.IdentityVerified,
		a.Rating, a.ReviewCount, a.TrustScore, a.Currency, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM profiles WHERE id = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an account by email.
func (r *SQLiteAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM profiles WHERE email = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// Update persists mutable profile fields and aggregates.
func (r *SQLiteAccountRepository) Update(ctx context.Context, a *model.Account) error {
	query := `UPDATE profiles SET
		full_name = ?, phone = ?, avatar_url = ?,
		email_verified = ?, phone_verified = ?, identity_verified = ?,
		rating = ?, review_count = ?, trust_score = ?, currency = ?, status = ?, updated_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		a.FullName, a.Phone, a.AvatarURL,
		a.EmailVerified, a.PhoneVerified, a.IdentityVerified,
		a.Rating, a.ReviewCount, a.TrustScore, a.Currency, a.Status, time.Now().UTC(),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireRow(res)
}

// UpdatePassword replaces the stored password hash.
func (r *SQLiteAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(res)
}

// Deactivate soft-deactivates the account. Accounts are never hard-deleted.
func (r *SQLiteAccountRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET status = ?, updated_at = ? WHERE id = ?`,
		model.AccountStatusDeactivated, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	return requireRow(res)
}

// CreateResetToken stores a password-reset token.
func (r *SQLiteAccountRepository) CreateResetToken(ctx context.Context, accountID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens (token, profile_id, expires_at) VALUES (?, ?, ?)`,
		token, accountID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken resolves and invalidates a reset token.
func (r *SQLiteAccountRepository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var accountID string
	err = tx.QueryRowContext(ctx,
		`SELECT profile_id FROM reset_tokens WHERE token = ? AND used = 0 AND expires_at > ?`,
		token, time.Now().UTC()).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to look up reset token: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE reset_tokens SET used = 1 WHERE token = ?`, token); err != nil {
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return accountID, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
