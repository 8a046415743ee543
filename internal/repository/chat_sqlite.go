package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toolshare/marketplace-api/internal/model"
)

// SQLiteChatRepository implements ChatRepository using SQLite.
type SQLiteChatRepository struct {
	db *sql.DB
}

// NewSQLiteChatRepository creates a new SQLite chat repository.
func NewSQLiteChatRepository(db *sql.DB) *SQLiteChatRepository {
	return &SQLiteChatRepository{db: db}
}

// orderPair returns the participant pair in canonical order so one row
// serves both directions of a conversation.
func orderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// GetOrCreateConversation returns the conversation between two accounts,
// creating it lazily on first contact.
func (r *SQLiteChatRepository) GetOrCreateConversation(ctx context.Context, a, b, listingID string) (*model.Conversation, bool, error) {
	pa, pb := orderPair(a, b)

	conv, err := r.getConversationByPair(ctx, pa, pb)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	conv = &model.Conversation{
		ID:           uuid.Must(uuid.NewV7()).String(),
		ParticipantA: pa,
		ParticipantB: pb,
		ListingID:    listingID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chats (id, participant_a, participant_b, tool_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.ParticipantA, conv.ParticipantB, conv.ListingID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, true, nil
}

func (r *SQLiteChatRepository) getConversationByPair(ctx context.Context, pa, pb string) (*model.Conversation, error) {
	return scanConversation(r.db.QueryRowContext(ctx,
		`SELECT id, participant_a, participant_b, tool_id, created_at, updated_at
		 FROM chats WHERE participant_a = ? AND participant_b = ?`, pa, pb))
}

// GetConversation retrieves a conversation by ID.
func (r *SQLiteChatRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return scanConversation(r.db.QueryRowContext(ctx,
		`SELECT id, participant_a, participant_b, tool_id, created_at, updated_at
		 FROM chats WHERE id = ?`, id))
}

func scanConversation(row interface{ Scan(...any) error }) (*model.Conversation, error) {
	var c model.Conversation
	err := row.Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.ListingID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return &c, nil
}

// ListConversations returns an account's conversations, most recently
// updated first, each decorated with its last message and the account's
// unread count.
func (r *SQLiteChatRepository) ListConversations(ctx context.Context, accountID string) ([]model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, participant_a, participant_b, tool_id, created_at, updated_at
		 FROM chats WHERE participant_a = ? OR participant_b = ?
		 ORDER BY updated_at DESC`, accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range convs {
		last, err := r.lastMessage(ctx, convs[i].ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		convs[i].LastMessage = last

		unread, err := r.countUnread(ctx, convs[i].ID, accountID)
		if err != nil {
			return nil, err
		}
		convs[i].UnreadCount = unread
	}
	return convs, nil
}

func (r *SQLiteChatRepository) lastMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	return scanMessage(r.db.QueryRowContext(ctx,
		`SELECT id, chat_id, sender_id, content, read, created_at
		 FROM messages WHERE chat_id = ? ORDER BY created_at DESC LIMIT 1`, conversationID))
}

func (r *SQLiteChatRepository) countUnread(ctx context.Context, conversationID, readerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ? AND sender_id != ? AND read = 0`,
		conversationID, readerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return n, nil
}

func scanMessage(row interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Read, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return &m, nil
}

// CreateMessage inserts a message and touches the conversation timestamp.
func (r *SQLiteChatRepository) CreateMessage(ctx context.Context, m *model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, sender_id, content, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.Content, m.Read, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ?`, m.CreatedAt, m.ConversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return tx.Commit()
}

// ListMessages returns a conversation's messages in chronological order.
func (r *SQLiteChatRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, chat_id, sender_id, content, read, created_at
		 FROM messages WHERE chat_id = ?
		 ORDER BY created_at ASC LIMIT ? OFFSET ?`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// MarkRead marks every message from the other participant as read.
func (r *SQLiteChatRepository) MarkRead(ctx context.Context, conversationID, readerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = 1 WHERE chat_id = ? AND sender_id != ? AND read = 0`,
		conversationID, readerID)
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	return nil
}
