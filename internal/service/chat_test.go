package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/internal/repository"
)

func newChatService(t *testing.T) (*ChatService, *stubPublisher, string, string) {
	t.Helper()
	db := newTestDB(t)
	pub := &stubPublisher{}
	alice := seedAccount(t, db, model.RoleRenter)
	bob := seedAccount(t, db, model.RoleOwner)

	svc := NewChatService(
		repository.NewSQLiteChatRepository(db),
		repository.NewSQLiteAccountRepository(db),
		newNotificationService(db, pub),
		pub,
		newTestLogger(),
	)
	return svc, pub, alice, bob
}

func TestStartConversationIsIdempotent(t *testing.T) {
	svc, _, alice, bob := newChatService(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, alice, &model.StartConversationRequest{RecipientID: bob})
	if err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}

	// Starting from the other side returns the same thread.
	second, err := svc.Start(ctx, bob, &model.StartConversationRequest{RecipientID: alice})
	if err != nil {
		t.Fatalf("failed to reopen conversation: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same conversation, got %s and %s", first.ID, second.ID)
	}
}

func TestStartConversationWithSelfRejected(t *testing.T) {
	svc, _, alice, _ := newChatService(t)

	if _, err := svc.Start(context.Background(), alice, &model.StartConversationRequest{RecipientID: alice}); err == nil {
		t.Fatal("expected rejection of self-conversation")
	}
}

func TestSendMessageNotifiesRecipient(t *testing.T) {
	svc, pub, alice, bob := newChatService(t)
	ctx := context.Background()

	conv, err := svc.Start(ctx, alice, &model.StartConversationRequest{RecipientID: bob})
	if err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}

	msg, err := svc.Send(ctx, conv.ID, alice, &model.SendMessageRequest{Content: "is the saw free this weekend?"})
	if err != nil {
		t.Fatalf("failed to send message: %v", err)
	}
	if msg.Sequence == 0 {
		t.Fatal("expected stream sequence on sent message")
	}

	if len(pub.messages) != 1 {
		t.Fatalf("expected one published message got %d", len(pub.messages))
	}
	if len(pub.notifications) != 1 || pub.notifications[0].AccountID != bob {
		t.Fatalf("expected new message notification for recipient, got %+v", pub.notifications)
	}

	// Outsiders cannot read the thread.
	if _, err := svc.Messages(ctx, conv.ID, "00000000-0000-0000-0000-000000000000", 10, 0); err == nil {
		t.Fatal("expected forbidden for non-participant")
	}

	resp, err := svc.Messages(ctx, conv.ID, bob, 10, 0)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != "is the saw free this weekend?" {
		t.Fatalf("unexpected messages: %+v", resp.Messages)
	}
	if resp.Messages[0].Read {
		t.Fatal("expected message unread before MarkRead")
	}

	if err := svc.MarkRead(ctx, conv.ID, bob); err != nil {
		t.Fatalf("failed to mark read: %v", err)
	}

	resp, err = svc.Messages(ctx, conv.ID, bob, 10, 0)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if !resp.Messages[0].Read {
		t.Fatal("expected message read after MarkRead")
	}
}

func TestNotificationPreviewKeepsRuneBoundary(t *testing.T) {
	svc, pub, alice, bob := newChatService(t)
	ctx := context.Background()

	conv, err := svc.Start(ctx, alice, &model.StartConversationRequest{RecipientID: bob})
	if err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}

	// Multi-byte content long enough to be cut down for the preview.
	content := strings.Repeat("привет ", 30)
	if _, err := svc.Send(ctx, conv.ID, alice, &model.SendMessageRequest{Content: content}); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	if len(pub.notifications) != 1 {
		t.Fatalf("expected one notification got %d", len(pub.notifications))
	}
	body := pub.notifications[0].Body
	if len(body) >= len(content) {
		t.Fatalf("expected truncated preview, got %d bytes", len(body))
	}
	if !utf8.ValidString(body) {
		t.Fatalf("preview is not valid UTF-8: %q", body)
	}
}

func TestTruncateOnRuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.n); got != c.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestMessagesPagination(t *testing.T) {
	svc, _, alice, bob := newChatService(t)
	ctx := context.Background()

	conv, err := svc.Start(ctx, alice, &model.StartConversationRequest{RecipientID: bob})
	if err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.Send(ctx, conv.ID, alice, &model.SendMessageRequest{Content: "hello"}); err != nil {
			t.Fatalf("failed to send message: %v", err)
		}
	}

	resp, err := svc.Messages(ctx, conv.ID, bob, 3, 0)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(resp.Messages) != 3 || !resp.HasMore {
		t.Fatalf("expected 3 messages with more, got %d hasMore=%v", len(resp.Messages), resp.HasMore)
	}

	resp, err = svc.Messages(ctx, conv.ID, bob, 3, 3)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(resp.Messages) != 2 || resp.HasMore {
		t.Fatalf("expected final page of 2, got %d hasMore=%v", len(resp.Messages), resp.HasMore)
	}
}
