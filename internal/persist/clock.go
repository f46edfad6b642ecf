package persist

import (
	"sort"
	"sync"
	"time"
)

// Clock is the time source for debounced writes. Production code uses
// RealClock; tests drive a FakeClock.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed, unless the timer is stopped
	// first.
	AfterFunc(d time.Duration, f func()) *Timer
}

type Timer struct {
	stopFunc func() bool
}

// Stop cancels the pending call. It reports false if the call already ran
// or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

func RealClock() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	t := time.AfterFunc(d, f)
	return &Timer{stopFunc: t.Stop}
}

// FakeClock only moves when Advance is called. Due callbacks run
// synchronously inside Advance, in deadline order.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	seq      int
	fn       func()
	done     bool
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	w := &fakeWaiter{deadline: c.now.Add(d), seq: c.seq, fn: f}
	c.waiters = append(c.waiters, w)
	return &Timer{stopFunc: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w.done {
			return false
		}
		w.done = true
		return true
	}}
}

// Pending counts callbacks that have not run or been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.waiters {
		if !w.done {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, running every callback that falls due.
// Callbacks scheduled while advancing run too if they fall inside d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var due *fakeWaiter
		live := c.waiters[:0]
		for _, w := range c.waiters {
			if !w.done {
				live = append(live, w)
			}
		}
		c.waiters = live
		sort.SliceStable(c.waiters, func(i, j int) bool {
			if !c.waiters[i].deadline.Equal(c.waiters[j].deadline) {
				return c.waiters[i].deadline.Before(c.waiters[j].deadline)
			}
			return c.waiters[i].seq < c.waiters[j].seq
		})
		if len(c.waiters) > 0 && !c.waiters[0].deadline.After(end) {
			due = c.waiters[0]
			due.done = true
			if due.deadline.After(c.now) {
				c.now = due.deadline
			}
		}
		if due == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		due.fn()
	}
}
