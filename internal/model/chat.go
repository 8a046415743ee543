package model

import (
	"time"
)

// Conversation represents a thread between two accounts, created lazily on
// first contact.
type Conversation struct {
	ID           string    `json:"id"`
	ParticipantA string    `json:"participant_a"`
	ParticipantB string    `json:"participant_b"`
	ListingID    string    `json:"listing_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count,omitempty"`
}

// Message represents a single chat message.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`

	// Stream sequence, populated when the message flows through the
	// marketplace stream.
	Sequence uint64 `json:"sequence,omitempty"`
}

// StartConversationRequest opens (or returns) the conversation with another
// account, optionally anchored to a listing.
type StartConversationRequest struct {
	RecipientID string `json:"recipient_id"`
	ListingID   string `json:"listing_id,omitempty"`
}

// SendMessageRequest is the request to send a chat message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}
