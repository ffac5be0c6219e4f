package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/bpbot/internal/ports/primary"
)

type pollResult struct {
	updates []Update
	err     error
}

// scriptedSource replays results, then blocks until cancelled.
type scriptedSource struct {
	mu      sync.Mutex
	script  []pollResult
	offsets []int64
	idle    chan struct{} // receives once the script is exhausted
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	if len(s.script) > 0 {
		next := s.script[0]
		s.script = s.script[1:]
		s.mu.Unlock()
		return next.updates, next.err
	}
	s.mu.Unlock()

	if s.idle != nil {
		s.idle <- struct{}{}
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

type collectingQueue struct {
	mu     sync.Mutex
	events []primary.Event
	notify chan struct{}
}

func (q *collectingQueue) Enqueue(ctx context.Context, ev primary.Event) error {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
	if q.notify != nil {
		q.notify <- struct{}{}
	}
	return nil
}

func textUpdate(id int64, from int64, text string) Update {
	return Update{UpdateID: id, Message: &Message{From: &User{ID: from}, Chat: Chat{ID: from}, Text: text}}
}

func TestPoller_AdvancesOffsetAndEnqueues(t *testing.T) {
	source := &scriptedSource{script: []pollResult{
		{updates: []Update{textUpdate(100, 1, "/start"), {UpdateID: 101}}},
		{err: errors.New("connection reset")},
		{updates: []Update{textUpdate(102, 2, "hello")}},
	}, idle: make(chan struct{}, 1)}
	queue := &collectingQueue{notify: make(chan struct{}, 4)}
	poller := NewPoller(source, queue, time.Second, zap.NewNop()).WithBackoff(time.Millisecond, 2*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	<-queue.notify
	<-queue.notify
	<-source.idle
	cancel()
	require.NoError(t, <-done)

	require.Len(t, queue.events, 2)
	assert.Equal(t, "start", queue.events[0].Command)
	assert.Equal(t, int64(2), queue.events[1].IdentityID)

	source.mu.Lock()
	defer source.mu.Unlock()
	// 0 initially, 102 after the first batch (unsupported update still
	// advances), 102 again after the transient error, 103 after the last.
	assert.Equal(t, []int64{0, 102, 102, 103}, source.offsets)
}

func TestPoller_ConflictIsFatal(t *testing.T) {
	source := &scriptedSource{script: []pollResult{
		{err: errors.Join(ErrConflict, errors.New("terminated by other getUpdates request"))},
	}}
	poller := NewPoller(source, &collectingQueue{}, time.Second, zap.NewNop())

	err := poller.Run(context.Background())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPoller_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	poller := NewPoller(&scriptedSource{}, &collectingQueue{}, time.Second, zap.NewNop())
	assert.NoError(t, poller.Run(ctx))
}
