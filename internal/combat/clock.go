package combat

import (
	"context"
	"sync"
	"time"
)

// Clock implements the timed suspension points of a running task.
// Durations are seconds.
type Clock interface {
	Sleep(ctx context.Context, d float64) error
}

// InstantClock never blocks. Battle time still advances by the requested
// durations, so headless runs keep their pacing in the event log.
type InstantClock struct{}

func (InstantClock) Sleep(ctx context.Context, _ float64) error {
	return ctx.Err()
}

// RealClock sleeps wall time, scaled by Speed (2 = twice as fast).
type RealClock struct {
	Speed float64
}

func (c RealClock) Sleep(ctx context.Context, d float64) error {
	if c.Speed > 0 {
		d /= c.Speed
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(d * float64(time.Second)))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ManualClock releases sleepers only when a driver calls Advance, which
// lets tests single-step a running sequence.
type ManualClock struct {
	mu       sync.Mutex
	now      float64
	sleepers []*sleeper
	changed  chan struct{}
}

type sleeper struct {
	until float64
	done  chan struct{}
}

func NewManualClock() *ManualClock {
	return &ManualClock{changed: make(chan struct{})}
}

func (c *ManualClock) Sleep(ctx context.Context, d float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	s := &sleeper{until: c.now + d, done: make(chan struct{})}
	c.sleepers = append(c.sleepers, s)
	c.signal()
	c.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		c.drop(s)
		c.mu.Unlock()
		return ctx.Err()
	}
}

// Advance moves time forward and wakes every sleeper that is due.
func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	kept := c.sleepers[:0]
	for _, s := range c.sleepers {
		if s.until <= c.now+1e-9 {
			close(s.done)
			continue
		}
		kept = append(kept, s)
	}
	c.sleepers = kept
	c.signal()
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleepers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleepers)
}

// WaitSleepers blocks until at least n goroutines are asleep.
func (c *ManualClock) WaitSleepers(ctx context.Context, n int) error {
	for {
		c.mu.Lock()
		if c.changed == nil {
			c.changed = make(chan struct{})
		}
		if len(c.sleepers) >= n {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *ManualClock) signal() {
	if c.changed != nil {
		close(c.changed)
	}
	c.changed = make(chan struct{})
}

func (c *ManualClock) drop(s *sleeper) {
	for i, v := range c.sleepers {
		if v == s {
			c.sleepers = append(c.sleepers[:i], c.sleepers[i+1:]...)
			break
		}
	}
	c.signal()
}
