// Package model defines data structures for the rental marketplace.
package model

import (
	"time"
)

// Role represents an account role.
type Role string

const (
	RoleRenter   Role = "renter"
	RoleOwner    Role = "owner"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// AccountStatus represents the lifecycle state of an account. Accounts are
// deactivated, never hard-deleted.
type AccountStatus string

const (
	AccountStatusActive      AccountStatus = "active"
	AccountStatusDeactivated AccountStatus = "deactivated"
)

// Account represents a registered user profile.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Role         Role   `json:"role"`

	EmailVerified    bool `json:"email_verified"`
	PhoneVerified    bool `json:"phone_verified"`
	IdentityVerified bool `json:"identity_verified"`

	// Aggregate trust metrics, maintained by review aggregation.
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	TrustScore  int     `json:"trust_score"`

	// Display-currency preference, readable from any screen.
	Currency string `json:"currency"`

	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RegisterRequest is the request to create a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// LoginRequest is the request to sign in with credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"account"`
}

// UpdateProfileRequest is the request to edit profile fields. Nil pointers
// mean "leave unchanged".
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Currency *string `json:"currency,omitempty"`
}

// PasswordResetRequest asks for a reset link to be issued.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetResponse carries the reset link the caller is redirected to.
type PasswordResetResponse struct {
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordUpdateRequest sets a new password using a reset token.
type PasswordUpdateRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
