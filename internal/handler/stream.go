package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/middleware"
	natsclient "github.com/toolshare/marketplace-api/internal/nats"
	"github.com/toolshare/marketplace-api/internal/service"
	"github.com/toolshare/marketplace-api/pkg/apierror"
	"github.com/toolshare/marketplace-api/pkg/logger"
	"github.com/toolshare/marketplace-api/pkg/metrics"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	chats         *service.ChatService
	streamManager *natsclient.StreamManager
	logger        *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(
	chats *service.ChatService,
	streamManager *natsclient.StreamManager,
	log *logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		chats:         chats,
		streamManager: streamManager,
		logger:        log,
	}
}

// replayCompleteEvent marks the end of history replay.
type replayCompleteEvent struct {
	MessageCount int `json:"message_count"`
}

// heartbeatEvent keeps idle connections alive.
type heartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// Conversation handles GET /api/v1/conversations/{id}/stream
// Replays stored history, then follows the live stream. Message events
// carry the stream sequence as their SSE id, so a reconnecting client
// (Last-Event-ID, or an explicit after_sequence parameter) catches up
// from the stream instead of replaying the full history.
func (h *StreamHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierror.Internal("streaming not supported"))
		return
	}

	// Authorize before any SSE output; Messages enforces participation.
	if _, err := h.chats.Messages(ctx, conversationID, accountID, 1, 0); err != nil {
		writeError(w, err)
		return
	}

	// Subscribe before replay so nothing lands in the gap between them.
	events, stop, err := h.streamManager.Subscribe(ctx, natsclient.MessageSubject(conversationID))
	if err != nil {
		h.logger.Error("failed to subscribe to conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		writeError(w, apierror.Internal(""))
		return
	}
	defer stop()

	setSSEHeaders(w)
	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"conversation_id": conversationID,
	})

	var replayed int
	if afterSeq := resumeSequence(r); afterSeq > 0 {
		// Reconnect: catch up from the stream after the last seen event.
		for {
			messages, lastSeq, hasMore, err := h.streamManager.FetchMessages(ctx, conversationID, afterSeq, 100)
			if err != nil {
				sendSSEEvent(w, flusher, "error", apierror.From(err))
				return
			}
			for _, msg := range messages {
				sendSSEEventID(w, flusher, "message", msg.Sequence, msg)
				replayed++
			}
			if !hasMore {
				break
			}
			afterSeq = lastSeq
		}
	} else {
		// First attach: replay history from storage.
		offset := 0
		for {
			resp, err := h.chats.Messages(ctx, conversationID, accountID, 100, offset)
			if err != nil {
				sendSSEEvent(w, flusher, "error", apierror.From(err))
				return
			}
			for _, msg := range resp.Messages {
				select {
				case <-ctx.Done():
					return
				default:
				}
				sendSSEEvent(w, flusher, "message", msg)
				replayed++
			}
			if !resp.HasMore {
				break
			}
			offset += len(resp.Messages)
		}
	}

	sendSSEEvent(w, flusher, "replay_complete", &replayCompleteEvent{MessageCount: replayed})

	h.logger.Info("conversation stream attached",
		zap.String("conversation_id", conversationID),
		zap.Int("messages_replayed", replayed),
	)

	h.follow(ctx, w, flusher, events, "message")
}

// Notifications handles GET /api/v1/stream
// Follows the caller's live notification feed.
func (h *StreamHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierror.Internal("streaming not supported"))
		return
	}

	events, stop, err := h.streamManager.Subscribe(ctx, natsclient.NotificationSubject(accountID))
	if err != nil {
		h.logger.Error("failed to subscribe to notifications",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		writeError(w, apierror.Internal(""))
		return
	}
	defer stop()

	setSSEHeaders(w)
	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{"account_id": accountID})

	h.follow(ctx, w, flusher, events, "notification")
}

// Bids handles GET /api/v1/listings/{id}/bids/stream
// Follows live bid activity on an auction listing.
func (h *StreamHandler) Bids(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(listingID); err != nil {
		writeError(w, apierror.BadRequest(err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierror.Internal("streaming not supported"))
		return
	}

	events, stop, err := h.streamManager.Subscribe(ctx, natsclient.BidSubject(listingID))
	if err != nil {
		h.logger.Error("failed to subscribe to bids",
			zap.String("listing_id", listingID),
			zap.Error(err),
		)
		writeError(w, apierror.Internal(""))
		return
	}
	defer stop()

	setSSEHeaders(w)
	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{"listing_id": listingID})

	h.follow(ctx, w, flusher, events, "bid")
}

// follow forwards live stream events as SSE until the client disconnects.
func (h *StreamHandler) follow(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, events <-chan natsclient.StreamEvent, eventName string) {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-events:
			sendSSERaw(w, flusher, eventName, ev.Sequence, ev.Data)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &heartbeatEvent{Timestamp: time.Now()})
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// resumeSequence returns the last stream sequence the client saw: the
// Last-Event-ID header set by EventSource on reconnect, or an explicit
// after_sequence query parameter. Zero means a fresh attach.
func resumeSequence(r *http.Request) uint64 {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("after_sequence")
	}
	seq, _ := strconv.ParseUint(v, 10, 64)
	return seq
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	return sendSSEEventID(w, flusher, event, 0, data)
}

func sendSSEEventID(w http.ResponseWriter, flusher http.Flusher, event string, id uint64, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return sendSSERaw(w, flusher, event, id, jsonData)
}

func sendSSERaw(w http.ResponseWriter, flusher http.Flusher, event string, id uint64, data []byte) error {
	if id > 0 {
		fmt.Fprintf(w, "id: %d\n", id)
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
	return nil
}
