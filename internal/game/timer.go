package game

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// =============================================================================
// QUESTION DEADLINES
// =============================================================================

type deadline struct {
	index  int
	cancel context.CancelFunc
}

// Deadlines keeps at most one pending question deadline per room.
type Deadlines struct {
	mu     sync.Mutex
	timers map[string]*deadline
	logger *slog.Logger
}

func NewDeadlines(logger *slog.Logger) *Deadlines {
	return &Deadlines{
		timers: make(map[string]*deadline),
		logger: logger,
	}
}

// Arm replaces the room's deadline. onExpire runs on its own goroutine once
// after has elapsed, unless the deadline is cancelled or replaced first.
func (d *Deadlines) Arm(code string, index int, after time.Duration, onExpire func(code string, index int)) {
	ctx, cancel := context.WithTimeout(context.Background(), after)
	dl := &deadline{index: index, cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.timers[code]; ok {
		prev.cancel()
	}
	d.timers[code] = dl
	d.mu.Unlock()

	d.logger.Debug("[Deadlines] armed", "room", code, "question", index, "after", after)

	go func() {
		<-ctx.Done()

		d.mu.Lock()
		current := d.timers[code] == dl
		if current {
			delete(d.timers, code)
		}
		d.mu.Unlock()

		if ctx.Err() != context.DeadlineExceeded || !current {
			return
		}
		d.logger.Info("[Deadlines] question expired", "room", code, "question", index)
		onExpire(code, index)
	}()
}

func (d *Deadlines) Cancel(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if dl, ok := d.timers[code]; ok {
		dl.cancel()
		delete(d.timers, code)
		d.logger.Debug("[Deadlines] cancelled", "room", code, "question", dl.index)
	}
}

// Stop cancels every pending deadline.
func (d *Deadlines) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for code, dl := range d.timers {
		dl.cancel()
		delete(d.timers, code)
	}
}

func (d *Deadlines) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
