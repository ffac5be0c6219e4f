package telegram

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/bpbot/internal/ports/primary"
)

// ErrQueueClosed is returned by Enqueue once the queue stopped running.
var ErrQueueClosed = errors.New("dispatch queue closed")

// Enqueuer accepts inbound events for dispatch.
type Enqueuer interface {
	Enqueue(ctx context.Context, ev primary.Event) error
}

// Queue dispatches events on a fixed set of workers. An identity always
// hashes to the same worker, so its events are handled one at a time in
// arrival order while other identities proceed in parallel.
type Queue struct {
	handler primary.ConversationService
	lanes   []chan primary.Event
	done    chan struct{}
	logger  *zap.Logger
}

// NewQueue creates a queue with workers lanes, each buffering up to buffer
// events.
func NewQueue(handler primary.ConversationService, workers, buffer int, logger *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	lanes := make([]chan primary.Event, workers)
	for i := range lanes {
		lanes[i] = make(chan primary.Event, buffer)
	}
	return &Queue{
		handler: handler,
		lanes:   lanes,
		done:    make(chan struct{}),
		logger:  logger,
	}
}

func (q *Queue) lane(identityID int64) chan primary.Event {
	return q.lanes[uint64(identityID)%uint64(len(q.lanes))]
}

// Enqueue blocks until the event is accepted, ctx is done or the queue stops.
func (q *Queue) Enqueue(ctx context.Context, ev primary.Event) error {
	select {
	case q.lane(ev.IdentityID) <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	}
}

// Run starts the workers and blocks until ctx is cancelled. Events still
// buffered at that point are dropped; they only carry unfinished forms.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.done)

	g, ctx := errgroup.WithContext(ctx)
	for i, lane := range q.lanes {
		log := q.logger.With(zap.Int("worker", i))
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-lane:
					q.handle(ctx, log, ev)
				}
			}
		})
	}
	return g.Wait()
}

func (q *Queue) handle(ctx context.Context, log *zap.Logger, ev primary.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked",
				zap.Int64("identity_id", ev.IdentityID),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := q.handler.HandleEvent(ctx, ev); err != nil {
		log.Error("failed to handle event",
			zap.Int64("identity_id", ev.IdentityID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err))
	}
}
