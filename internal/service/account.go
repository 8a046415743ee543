// Package service implements marketplace business logic on top of the
// repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/toolshare/marketplace-api/internal/config"
	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/internal/storage"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// AccountService handles registration, authentication and profile management.
type AccountService struct {
	accounts repository.AccountRepository
	store    *storage.Store
	authCfg  config.AuthConfig
	logger   *logger.Logger
}

// NewAccountService creates a new account service. store may be nil when
// object storage is not configured; avatar uploads are then rejected.
func NewAccountService(
	accounts repository.AccountRepository,
	store *storage.Store,
	authCfg config.AuthConfig,
	log *logger.Logger,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		store:    store,
		authCfg:  authCfg,
		logger:   log,
	}
}

// Register creates a new account and returns a signed token.
func (s *AccountService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if err := middleware.ValidateEmail(req.Email); err != nil {
		return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "email", Message: err.Error()})
	}
	if err := middleware.ValidatePassword(req.Password); err != nil {
		return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "password", Message: err.Error()})
	}
	if err := middleware.ValidateFullName(req.FullName); err != nil {
		return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "full_name", Message: err.Error()})
	}

	role := req.Role
	switch role {
	case "":
		role = model.RoleRenter
	case model.RoleRenter, model.RoleOwner, model.RoleOperator:
	default:
		return nil, apierror.Validation("invalid role", apierror.FieldError{Field: "role", Message: "must be renter, owner or operator"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &model.Account{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         role,
		Currency:     "USD",
		Status:       model.AccountStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apierror.Conflict("email already registered")
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)),
	)

	return s.issueToken(account)
}

// Login authenticates with email and password.
func (s *AccountService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if account.Status != model.AccountStatusActive {
		return nil, apierror.Unauthorized("account is deactivated")
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return nil, apierror.Unauthorized("invalid credentials")
	}

	return s.issueToken(account)
}

func (s *AccountService) issueToken(account *model.Account) (*model.AuthResponse, error) {
	expiresAt := time.Now().Add(s.authCfg.TokenTTL)

	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: account.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.authCfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &model.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account,
	}, nil
}

// Get returns an account profile.
func (s *AccountService) Get(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("account not found")
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// UpdateProfile applies partial profile edits.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, req *model.UpdateProfileRequest) (*model.Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if err := middleware.ValidateFullName(*req.FullName); err != nil {
			return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "full_name", Message: err.Error()})
		}
		account.FullName = *req.FullName
	}
	if req.Phone != nil {
		account.Phone = *req.Phone
	}
	if req.Currency != nil {
		if len(*req.Currency) != 3 {
			return nil, apierror.Validation("invalid currency", apierror.FieldError{Field: "currency", Message: "must be a 3-letter code"})
		}
		account.Currency = *req.Currency
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return account, nil
}

// UploadAvatar stores an avatar image and records its URL on the profile.
func (s *AccountService) UploadAvatar(ctx context.Context, id, contentType string, data []byte) (*model.Account, error) {
	if s.store == nil {
		return nil, apierror.BadRequest("uploads are not enabled")
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.store.Upload(ctx, "avatars", contentType, data)
	if err != nil {
		return nil, apierror.BadRequest(err.Error())
	}

	previous := account.AvatarURL
	account.AvatarURL = url
	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	if previous != "" && previous != url {
		if err := s.store.Delete(ctx, previous); err != nil {
			s.logger.Warn("failed to delete replaced avatar",
				zap.String("account_id", id),
				zap.Error(err),
			)
		}
	}
	return account, nil
}

// RequestPasswordReset issues a reset token for the account, if it exists.
// The response is identical whether or not the email is registered.
func (s *AccountService) RequestPasswordReset(ctx context.Context, req *model.PasswordResetRequest) (*model.PasswordResetResponse, error) {
	expiresAt := time.Now().UTC().Add(s.authCfg.ResetTokenTTL)
	resp := &model.PasswordResetResponse{
		ResetURL:  s.authCfg.ResetRedirectURL,
		ExpiresAt: expiresAt,
	}

	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	token := uuid.New().String()
	if err := s.accounts.CreateResetToken(ctx, account.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	resp.ResetURL = fmt.Sprintf("%s?token=%s", s.authCfg.ResetRedirectURL, token)

	s.logger.Info("password reset requested", zap.String("account_id", account.ID))
	return resp, nil
}

// ResetPassword sets a new password using a previously issued reset token.
func (s *AccountService) ResetPassword(ctx context.Context, req *model.PasswordUpdateRequest) error {
	if err := middleware.ValidatePassword(req.NewPassword); err != nil {
		return apierror.Validation(err.Error(), apierror.FieldError{Field: "new_password", Message: err.Error()})
	}

	accountID, err := s.accounts.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.BadRequest("invalid or expired reset token")
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, accountID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password reset completed", zap.String("account_id", accountID))
	return nil
}

// Deactivate soft-deletes the account.
func (s *AccountService) Deactivate(ctx context.Context, id string) error {
	if err := s.accounts.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("account not found")
		}
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	s.logger.Info("account deactivated", zap.String("account_id", id))
	return nil
}
