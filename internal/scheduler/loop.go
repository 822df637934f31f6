// Package scheduler provides the cooperative frame loop that drives the
// subtitle manager.
//
// A Loop runs everything on one goroutine. Work is either posted from other
// goroutines with Post, or scheduled from loop code with AfterFrames and
// AfterDuration. Each Tick runs posted closures first, then every delayed task
// that has become due, in the order it was scheduled. A task scheduled while a
// tick is running never runs before the next tick.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// TaskID identifies a scheduled task for cancellation.
type TaskID uint64

type task struct {
	id       TaskID
	created  uint64
	frame    uint64
	deadline time.Time
	byFrame  bool
	done     bool
	fn       func()
}

// Loop is a single-threaded cooperative scheduler. Only Post is safe for
// concurrent use; every other method must be called from the loop goroutine.
type Loop struct {
	clock clock.Clock

	mu     sync.Mutex
	posted []func()

	frame   uint64
	nextID  TaskID
	tasks   []*task
	running []*task
}

// New creates a loop using clk for durations. A nil clock uses wall time.
func New(clk clock.Clock) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{clock: clk}
}

// Clock returns the time source used by the loop.
func (l *Loop) Clock() clock.Clock {
	return l.clock
}

// Frame returns the number of completed ticks.
func (l *Loop) Frame() uint64 {
	return l.frame
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues fn to run at the start of the next tick. It is the only entry
// point that may be called from other goroutines.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// AfterFrames schedules fn to run n ticks from now. Values below one are
// treated as one.
func (l *Loop) AfterFrames(n int, fn func()) TaskID {
	if n < 1 {
		n = 1
	}
	return l.schedule(&task{frame: l.frame + uint64(n), byFrame: true, fn: fn})
}

// AfterDuration schedules fn to run on the first tick at or after d has
// elapsed on the loop clock.
func (l *Loop) AfterDuration(d time.Duration, fn func()) TaskID {
	if d < 0 {
		d = 0
	}
	return l.schedule(&task{deadline: l.clock.Now().Add(d), fn: fn})
}

func (l *Loop) schedule(t *task) TaskID {
	l.nextID++
	t.id = l.nextID
	t.created = l.frame
	l.tasks = append(l.tasks, t)
	return t.id
}

// Cancel removes a pending task. Cancelling an unknown or finished task is a no-op.
func (l *Loop) Cancel(id TaskID) {
	for _, t := range l.running {
		if t.id == id {
			t.done = true
			return
		}
	}
	for idx, t := range l.tasks {
		if t.id == id {
			t.done = true
			l.tasks = append(l.tasks[:idx], l.tasks[idx+1:]...)
			return
		}
	}
}

// Pending reports the number of scheduled tasks that have not run yet.
func (l *Loop) Pending() int {
	return len(l.tasks)
}

// Tick advances the loop by one frame.
func (l *Loop) Tick() {
	l.frame++

	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()
	for _, fn := range posted {
		fn()
	}

	now := l.clock.Now()
	var due []*task
	remaining := l.tasks[:0]
	for _, t := range l.tasks {
		if l.isDue(t, now) {
			due = append(due, t)
			continue
		}
		remaining = append(remaining, t)
	}
	// Clear the tail so dropped tasks can be collected.
	for idx := len(remaining); idx < len(l.tasks); idx++ {
		l.tasks[idx] = nil
	}
	l.tasks = remaining

	l.running = due
	for _, t := range due {
		if t.done || t.fn == nil {
			continue
		}
		t.done = true
		t.fn()
	}
	l.running = nil
}

func (l *Loop) isDue(t *task, now time.Time) bool {
	if t.created >= l.frame {
		return false
	}
	if t.byFrame {
		return t.frame <= l.frame
	}
	return !now.Before(t.deadline)
}

// Run ticks the loop frameRate times per second until ctx is done.
func (l *Loop) Run(ctx context.Context, frameRate int) error {
	if frameRate <= 0 {
		frameRate = 60
	}
	ticker := l.clock.Ticker(time.Second / time.Duration(frameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}
