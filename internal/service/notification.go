package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
)

// StreamPublisher publishes marketplace events for live subscribers. It is
// satisfied by the NATS stream manager.
type StreamPublisher interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
	PublishBidEvent(ctx context.Context, event *model.BidEvent) (uint64, error)
	PublishNotification(ctx context.Context, n *model.Notification) (uint64, error)
}

// NotificationService persists notifications and fans them out on the
// marketplace stream.
type NotificationService struct {
	notifications repository.NotificationRepository
	publisher     StreamPublisher
	logger        *logger.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	notifications repository.NotificationRepository,
	publisher StreamPublisher,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		publisher:     publisher,
		logger:        log,
	}
}

// Notify records a notification for an account and publishes it for live
// subscribers. Delivery failures are logged, never surfaced to the caller;
// the triggering operation has already succeeded.
func (s *NotificationService) Notify(ctx context.Context, accountID string, kind model.NotificationKind, title, body string) {
	n := &model.Notification{
		ID:        uuid.Must(uuid.NewV7()).String(),
		AccountID: accountID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error("failed to persist notification",
			zap.String("account_id", accountID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}

	if _, err := s.publisher.PublishNotification(ctx, n); err != nil {
		s.logger.Warn("failed to publish notification",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
	}
}

// List returns recent notifications with the unread count.
func (s *NotificationService) List(ctx context.Context, accountID string, limit int) (*model.ListNotificationsResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	notifications, err := s.notifications.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.notifications.CountUnread(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &model.ListNotificationsResponse{
		Notifications: notifications,
		Unread:        unread,
	}, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, accountID string) error {
	if err := s.notifications.MarkRead(ctx, id, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.NotFound("notification not found")
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every notification for the account as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, accountID string) error {
	if err := s.notifications.MarkAllRead(ctx, accountID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
