package middleware

import (
	"errors"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword validates a password.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 72 { // bcrypt input limit
		return errors.New("password exceeds maximum length")
	}
	return nil
}

// ValidateFullName validates an account display name.
func ValidateFullName(name string) error {
	if name == "" {
		return errors.New("full name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 128 {
		return errors.New("full name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("full name must be valid UTF-8")
	}
	return nil
}

// ValidateListingTitle validates a listing title.
func ValidateListingTitle(title string) error {
	if title == "" {
		return errors.New("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateDescription validates a listing description.
func ValidateDescription(desc string) error {
	if len(desc) > 10000 {
		return errors.New("description exceeds maximum length")
	}
	if !utf8.ValidString(desc) {
		return errors.New("description must be valid UTF-8")
	}
	return nil
}

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 10000 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateRating validates a review rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

// ValidateDateRange validates a rental period.
func ValidateDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return errors.New("start and end dates are required")
	}
	if !end.After(start) {
		return errors.New("end date must be after start date")
	}
	return nil
}

// ValidateID validates a resource ID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid ID format")
	}
	return nil
}
