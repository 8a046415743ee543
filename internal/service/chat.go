package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/middleware"
	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
	"github.com/toolshare/marketplace-api/pkg/metrics"
)

// ChatService handles conversations and messages.
type ChatService struct {
	chats         repository.ChatRepository
	accounts      repository.AccountRepository
	notifications *NotificationService
	publisher     StreamPublisher
	logger        *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(
	chats repository.ChatRepository,
	accounts repository.AccountRepository,
	notifications *NotificationService,
	publisher StreamPublisher,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		chats:         chats,
		accounts:      accounts,
		notifications: notifications,
		publisher:     publisher,
		logger:        log,
	}
}

// Start opens (or returns) the conversation between the caller and another
// account. Conversations are created lazily on first contact.
func (s *ChatService) Start(ctx context.Context, accountID string, req *model.StartConversationRequest) (*model.Conversation, error) {
	if req.RecipientID == accountID {
		return nil, apierror.BadRequest("cannot start a conversation with yourself")
	}

	if _, err := s.accounts.GetByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("recipient not found")
		}
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}

	conv, created, err := s.chats.GetOrCreateConversation(ctx, accountID, req.RecipientID, req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}

	if created {
		s.logger.Info("conversation started",
			zap.String("conversation_id", conv.ID),
			zap.String("listing_id", req.ListingID),
		)
	}

	return conv, nil
}

// List returns the caller's conversations, most recently active first.
func (s *ChatService) List(ctx context.Context, accountID string) (*model.ListConversationsResponse, error) {
	conversations, err := s.chats.ListConversations(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return &model.ListConversationsResponse{
		Conversations: conversations,
		Total:         len(conversations),
	}, nil
}

// Send appends a message to a conversation and publishes it for live
// subscribers.
func (s *ChatService) Send(ctx context.Context, conversationID, senderID string, req *model.SendMessageRequest) (*model.Message, error) {
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		return nil, apierror.Validation(err.Error(), apierror.FieldError{Field: "content", Message: err.Error()})
	}

	conv, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        req.Content,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	seq, err := s.publisher.PublishMessage(ctx, msg)
	if err != nil {
		s.logger.Warn("failed to publish message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	} else {
		msg.Sequence = seq
	}

	metrics.MessagesTotal.Inc()

	recipient := conv.ParticipantA
	if recipient == senderID {
		recipient = conv.ParticipantB
	}
	s.notifications.Notify(ctx, recipient, model.NotificationNewMessage,
		"New message", truncate(req.Content, 120))

	return msg, nil
}

// Messages returns a page of conversation history, oldest first.
func (s *ChatService) Messages(ctx context.Context, conversationID, accountID string, limit, offset int) (*model.ListMessagesResponse, error) {
	if _, err := s.participantConversation(ctx, conversationID, accountID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	// Fetch one extra row to learn whether more pages exist.
	messages, err := s.chats.ListMessages(ctx, conversationID, limit+1, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	return &model.ListMessagesResponse{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

// MarkRead marks all messages from the other participant as read.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, accountID string) error {
	if _, err := s.participantConversation(ctx, conversationID, accountID); err != nil {
		return err
	}

	if err := s.chats.MarkRead(ctx, conversationID, accountID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

func (s *ChatService) participantConversation(ctx context.Context, conversationID, accountID string) (*model.Conversation, error) {
	conv, err := s.chats.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("conversation not found")
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv.ParticipantA != accountID && conv.ParticipantB != accountID {
		return nil, apierror.Forbidden("")
	}
	return conv, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
