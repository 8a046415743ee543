package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/toolshare/marketplace-api/internal/repository"
	"github.com/toolshare/marketplace-api/pkg/logger"
	"github.com/toolshare/marketplace-api/pkg/metrics"
)

// BidExpirer periodically flips overdue active bids to expired.
type BidExpirer struct {
	bids     repository.BidRepository
	interval time.Duration
	logger   *logger.Logger

	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	running  bool
	mu       sync.Mutex
}

// NewBidExpirer creates a bid expirer. A zero interval defaults to 5 minutes.
func NewBidExpirer(bids repository.BidRepository, interval time.Duration, log *logger.Logger) *BidExpirer {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &BidExpirer{
		bids:     bids,
		interval: interval,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the expiry loop.
func (e *BidExpirer) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(e.interval)
	e.mu.Unlock()

	e.logger.Info("bid expirer started", zap.Duration("interval", e.interval))

	go e.run()
}

func (e *BidExpirer) run() {
	for {
		select {
		case <-e.ticker.C:
			e.expire()
		case <-e.stopCh:
			e.logger.Info("bid expirer stopped")
			return
		}
	}
}

func (e *BidExpirer) expire() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := e.bids.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		e.logger.Error("bid expiry run failed", zap.Error(err))
		return
	}

	if n > 0 {
		metrics.BidsTotal.WithLabelValues("expired").Add(float64(n))
		e.logger.Info("expired overdue bids", zap.Int64("count", n))
	}
}

// Stop stops the expiry loop.
func (e *BidExpirer) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.ticker != nil {
			e.ticker.Stop()
		}
		close(e.stopCh)
		e.running = false
	})
}

// RunNow triggers an immediate expiry pass.
func (e *BidExpirer) RunNow(ctx context.Context) (int64, error) {
	return e.bids.ExpireOverdue(ctx, time.Now().UTC())
}
