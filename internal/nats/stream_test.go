package nats

import (
	"context"
	"testing"
	"time"
)

func TestDeliverToSubscriber(t *testing.T) {
	events := make(chan StreamEvent, 1)
	done := make(chan struct{})

	deliver(context.Background(), events, done, StreamEvent{Sequence: 7})

	select {
	case ev := <-events:
		if ev.Sequence != 7 {
			t.Fatalf("expected sequence 7 got %d", ev.Sequence)
		}
	default:
		t.Fatal("expected event on channel")
	}
}

func TestDeliverDropsAfterStop(t *testing.T) {
	// Unbuffered channel with no reader: only the done signal lets
	// deliver return.
	events := make(chan StreamEvent)
	done := make(chan struct{})
	close(done)

	finished := make(chan struct{})
	go func() {
		deliver(context.Background(), events, done, StreamEvent{Sequence: 1})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("deliver blocked after stop")
	}
}

func TestDeliverDropsOnContextCancel(t *testing.T) {
	events := make(chan StreamEvent)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finished := make(chan struct{})
	go func() {
		deliver(ctx, events, done, StreamEvent{Sequence: 1})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("deliver blocked after cancellation")
	}
}
