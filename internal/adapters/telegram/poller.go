package telegram

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// UpdateSource yields updates by offset.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller feeds long-polled updates into a queue.
type Poller struct {
	source     UpdateSource
	queue      Enqueuer
	timeout    time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     *zap.Logger
}

// NewPoller creates a poller using long-poll timeout.
func NewPoller(source UpdateSource, queue Enqueuer, timeout time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		source:     source,
		queue:      queue,
		timeout:    timeout,
		minBackoff: time.Second,
		maxBackoff: time.Minute,
		logger:     logger,
	}
}

// WithBackoff overrides the retry delay bounds.
func (p *Poller) WithBackoff(initial, limit time.Duration) *Poller {
	p.minBackoff, p.maxBackoff = initial, limit
	return p
}

// Run polls until ctx is cancelled (returning nil) or the token is held by
// another consumer (returning ErrConflict).
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	backoff := p.minBackoff

	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrConflict) {
				p.logger.Error("another instance is polling this bot", zap.Error(err))
				return err
			}

			p.logger.Warn("getUpdates failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, p.maxBackoff)
			continue
		}
		backoff = p.minBackoff

		for _, u := range updates {
			offset = u.UpdateID + 1

			ev, ok := ToEvent(u)
			if !ok {
				p.logger.Debug("dropping unsupported update", zap.Int64("update_id", u.UpdateID))
				continue
			}
			if err := p.queue.Enqueue(ctx, ev); err != nil {
				// Only cancellation or a stopped queue end up here.
				return nil
			}
		}
	}
}
