package game

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// =============================================================================
// ROOM ACTORS
// =============================================================================

type task struct {
	fn   func() error
	done chan error
}

// Serializer runs tasks one at a time per key, in submission order. Different
// keys run in parallel. A key holds a drain goroutine only while it has
// queued work.
type Serializer struct {
	mu     sync.Mutex
	queues map[string][]task
	logger *slog.Logger
}

func NewSerializer(logger *slog.Logger) *Serializer {
	return &Serializer{
		queues: make(map[string][]task),
		logger: logger,
	}
}

// Do queues fn behind every task already submitted for key and waits for it.
// A cancelled ctx stops the wait, not the task.
func (s *Serializer) Do(ctx context.Context, key string, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}

	s.mu.Lock()
	q, draining := s.queues[key]
	s.queues[key] = append(q, t)
	if !draining {
		go s.drain(key)
	}
	s.mu.Unlock()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Serializer) drain(key string) {
	for {
		s.mu.Lock()
		q := s.queues[key]
		if len(q) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		t := q[0]
		q[0] = task{}
		s.queues[key] = q[1:]
		s.mu.Unlock()

		t.done <- s.run(key, t.fn)
	}
}

func (s *Serializer) run(key string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[Serializer] task panicked", "key", key, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return fn()
}

// Active reports how many keys currently have a drain goroutine.
func (s *Serializer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

func doValue[T any](ctx context.Context, s *Serializer, key string, fn func() (T, error)) (T, error) {
	var out T
	err := s.Do(ctx, key, func() error {
		v, err := fn()
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
