package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/toolshare/marketplace-api/internal/model"
	"github.com/toolshare/marketplace-api/pkg/metrics"
)

const (
	// StreamName is the name of the marketplace event stream.
	StreamName = "MARKETPLACE"

	// SubjectPrefix is the prefix for all marketplace subjects.
	SubjectPrefix = "mkt"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the marketplace stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Chat messages, bid events and notifications",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a chat message.
func MessageSubject(conversationID string) string {
	return fmt.Sprintf("%s.chat.%s.msg", SubjectPrefix, conversationID)
}

// BidSubject returns the subject for bid events on a listing.
func BidSubject(listingID string) string {
	return fmt.Sprintf("%s.bid.%s", SubjectPrefix, listingID)
}

// NotificationSubject returns the subject for an account's notifications.
func NotificationSubject(accountID string) string {
	return fmt.Sprintf("%s.notif.%s", SubjectPrefix, accountID)
}

// PublishMessage publishes a chat message to JetStream and returns its
// stream sequence.
func (m *StreamManager) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, MessageSubject(msg.ConversationID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.StreamEventsPublished.WithLabelValues("chat_message").Inc()
	return ack.Sequence, nil
}

// PublishBidEvent publishes a bid event for a listing.
func (m *StreamManager) PublishBidEvent(ctx context.Context, event *model.BidEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal bid event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, BidSubject(event.ListingID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish bid event: %w", err)
	}

	metrics.StreamEventsPublished.WithLabelValues("bid").Inc()
	return ack.Sequence, nil
}

// PublishNotification publishes a notification to the recipient's subject.
func (m *StreamManager) PublishNotification(ctx context.Context, n *model.Notification) (uint64, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal notification: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, NotificationSubject(n.AccountID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish notification: %w", err)
	}

	metrics.StreamEventsPublished.WithLabelValues("notification").Inc()
	return ack.Sequence, nil
}

// StreamEvent is a raw event delivered to a live subscriber.
type StreamEvent struct {
	Subject  string
	Sequence uint64
	Data     []byte
}

// Subscribe creates an ephemeral consumer for the given filter subjects,
// delivering only events published after the subscription starts. The
// returned channel is never closed: a delivery callback may still be
// in flight when the subscription is torn down, so receivers exit on ctx
// cancellation and the stop function signals the callback to drop events.
func (m *StreamManager) Subscribe(ctx context.Context, filterSubjects ...string) (<-chan StreamEvent, func(), error) {
	js := m.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubjects:    filterSubjects,
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	events := make(chan StreamEvent, 64)
	done := make(chan struct{})

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		ev := StreamEvent{Subject: msg.Subject(), Data: msg.Data()}
		if meta, err := msg.Metadata(); err == nil {
			ev.Sequence = meta.Sequence.Stream
		}
		deliver(ctx, events, done, ev)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			cc.Stop()
		})
	}

	return events, stop, nil
}

// deliver hands an event to the subscriber. It gives up once the
// subscription is stopped or the context is cancelled, so a delivery
// racing with teardown is dropped instead of blocking or panicking.
func deliver(ctx context.Context, events chan<- StreamEvent, done <-chan struct{}, ev StreamEvent) {
	select {
	case events <- ev:
	case <-done:
	case <-ctx.Done():
	}
}

// FetchMessages retrieves chat messages for a conversation from the stream,
// starting after the given sequence.
func (m *StreamManager) FetchMessages(ctx context.Context, conversationID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error) {
	js := m.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: MessageSubject(conversationID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []model.Message
	var lastSequence uint64

	for msg := range batch.Messages() {
		var message model.Message
		if err := json.Unmarshal(msg.Data(), &message); err != nil {
			continue
		}

		if meta, err := msg.Metadata(); err == nil {
			message.Sequence = meta.Sequence.Stream
			lastSequence = meta.Sequence.Stream
		}

		messages = append(messages, message)
	}

	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, 0, false, fmt.Errorf("batch error: %w", batch.Error())
	}

	hasMore := len(messages) == limit

	return messages, lastSequence, hasMore, nil
}
