package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// stubPublisher records published events in place of the NATS stream.
type stubPublisher struct {
	mu            sync.Mutex
	messages      []*model.Message
	bidEvents     []*model.BidEvent
	notifications []*model.Notification
}

func (p *stubPublisher) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return uint64(len(p.messages)), nil
}

func (p *stubPublisher) PublishBidEvent(ctx context.Context, event *model.BidEvent) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bidEvents = append(p.bidEvents, event)
	return uint64(len(p.bidEvents)), nil
}

func (p *stubPublisher) PublishNotification(ctx context.Context, n *model.Notification) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
	return uint64(len(p.notifications)), nil
}

func seedAccount(t *testing.T, db *sql.DB, role model.Role) string {
	t.Helper()
	id := uuid.Must(uuid.NewV7()).String()
	now := time.Now().UTC()
	err := repository.NewSQLiteAccountRepository(db).Create(context.Background(), &model.Account{
		ID: id, Email: id + "@example.com", PasswordHash: "x",
		FullName: "Test Account", Role: role, Currency: "USD",
		Status: model.AccountStatusActive, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return id
}

func seedFixedListing(t *testing.T, db *sql.DB, ownerID string, dailyRateCents int64) *model.Listing {
	t.Helper()
	now := time.Now().UTC()
	listing := &model.Listing{
		ID: uuid.Must(uuid.NewV7()).String(), OwnerID: ownerID,
		Title: "Tile Saw", Category: "saws", Location: "Portland, OR",
		PricingType: model.PricingFixed, DailyRateCents: dailyRateCents,
		OperatorAvailable: true, OperatorHourlyRateCents: 2000,
		InsuranceOffered: true, InsuranceBasicDailyCents: 500, InsurancePremiumDailyCents: 1200,
		AvailableFrom: now.AddDate(0, 0, -1), AvailableTo: now.AddDate(0, 2, 0),
		Status: model.ListingStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	if err := repository.NewSQLiteListingRepository(db).Create(context.Background(), listing); err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return listing
}

func seedAuctionListing(t *testing.T, db *sql.DB, ownerID string, reserveCents int64) *model.Listing {
	t.Helper()
	now := time.Now().UTC()
	listing := &model.Listing{
		ID: uuid.Must(uuid.NewV7()).String(), OwnerID: ownerID,
		Title: "Mini Excavator", Category: "excavation", Location: "Bend, OR",
		PricingType: model.PricingBidding, ReserveBidCents: reserveCents,
		AvailableFrom: now.AddDate(0, 0, -1), AvailableTo: now.AddDate(0, 2, 0),
		Status: model.ListingStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	if err := repository.NewSQLiteListingRepository(db).Create(context.Background(), listing); err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	return listing
}

func newNotificationService(db *sql.DB, pub *stubPublisher) *NotificationService {
	return NewNotificationService(repository.NewSQLiteNotificationRepository(db), pub, newTestLogger())
}
