package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/toolshare/marketplace-api/internal/config"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
)

func newAccountService(t *testing.T) *AccountService {
	t.Helper()
	db := newTestDB(t)
	return NewAccountService(
		repository.NewSQLiteAccountRepository(db),
		nil,
		config.AuthConfig{
			JWTSecret:        "test-secret",
			TokenTTL:         time.Hour,
			ResetTokenTTL:    time.Hour,
			ResetRedirectURL: "http://localhost:3000/reset-password",
		},
		newTestLogger(),
	)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "maria@example.com",
		Password: "correct horse battery",
		FullName: "Maria Santos",
		Role:     model.RoleOwner,
	})
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if resp.Token == "" || resp.Account.ID == "" {
		t.Fatalf("expected token and account, got %+v", resp)
	}
	if resp.Account.Role != model.RoleOwner {
		t.Fatalf("expected owner role got %s", resp.Account.Role)
	}

	login, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "maria@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}
	if login.Account.ID != resp.Account.ID {
		t.Fatal("login returned a different account")
	}

	if _, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "maria@example.com",
		Password: "wrong",
	}); apierror.From(err).StatusCode != 401 {
		t.Fatalf("expected 401 for bad password, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	req := &model.RegisterRequest{
		Email:    "dup@example.com",
		Password: "password123",
		FullName: "First",
	}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if _, err := svc.Register(ctx, req); apierror.From(err).StatusCode != 409 {
		t.Fatalf("expected 409 for duplicate email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	cases := []model.RegisterRequest{
		{Email: "not-an-email", Password: "password123", FullName: "X"},
		{Email: "a@example.com", Password: "short", FullName: "X"},
		{Email: "a@example.com", Password: "password123", FullName: ""},
		{Email: "a@example.com", Password: "password123", FullName: "X", Role: model.RoleAdmin},
	}
	for _, req := range cases {
		if _, err := svc.Register(ctx, &req); apierror.From(err).StatusCode != 400 {
			t.Fatalf("expected 400 for %+v, got %v", req, err)
		}
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "reset@example.com",
		Password: "original pass",
		FullName: "Reset Me",
	}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	resp, err := svc.RequestPasswordReset(ctx, &model.PasswordResetRequest{Email: "reset@example.com"})
	if err != nil {
		t.Fatalf("failed to request reset: %v", err)
	}

	u, err := url.Parse(resp.ResetURL)
	if err != nil {
		t.Fatalf("invalid reset URL: %v", err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatal("expected token in reset URL")
	}

	if err := svc.ResetPassword(ctx, &model.PasswordUpdateRequest{
		Token:       token,
		NewPassword: "brand new pass",
	}); err != nil {
		t.Fatalf("failed to reset password: %v", err)
	}

	if _, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "reset@example.com",
		Password: "brand new pass",
	}); err != nil {
		t.Fatalf("failed to login with new password: %v", err)
	}

	// Token is single-use.
	if err := svc.ResetPassword(ctx, &model.PasswordUpdateRequest{
		Token:       token,
		NewPassword: "another pass 123",
	}); apierror.From(err).StatusCode != 400 {
		t.Fatalf("expected 400 for reused token, got %v", err)
	}
}

func TestPasswordResetUnknownEmailIsOpaque(t *testing.T) {
	svc := newAccountService(t)

	resp, err := svc.RequestPasswordReset(context.Background(), &model.PasswordResetRequest{Email: "nobody@example.com"})
	if err != nil {
		t.Fatalf("expected opaque success, got %v", err)
	}
	if strings.Contains(resp.ResetURL, "token=") {
		t.Fatal("unknown email must not yield a token")
	}
}

func TestDeactivateBlocksLogin(t *testing.T) {
	svc := newAccountService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "gone@example.com",
		Password: "password123",
		FullName: "Going Away",
	})
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	if err := svc.Deactivate(ctx, resp.Account.ID); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	if _, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "gone@example.com",
		Password: "password123",
	}); apierror.From(err).StatusCode != 401 {
		t.Fatalf("expected 401 after deactivation, got %v", err)
	}
}
