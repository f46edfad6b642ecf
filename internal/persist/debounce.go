package persist

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of values into few dispatches.
//
// The first value of a burst is dispatched at once. Later values replace a
// single pending slot; the pending value goes out once the input has been
// quiet for wait, and at least every maxWait while input keeps arriving.
// A ceiling dispatch does not end the burst: values pushed after it wait for
// the quiet timer or the next ceiling. Only a push after the burst has gone
// quiet, or after Flush or Cancel, is dispatched immediately.
type Debouncer[T any] struct {
	clock    Clock
	wait     time.Duration
	maxWait  time.Duration
	dispatch func(T)

	mu         sync.Mutex
	active     bool
	pending    T
	hasPending bool
	quiet      *Timer
	ceiling    *Timer
	gen        int
	dispatched int
}

func NewDebouncer[T any](clock Clock, wait, maxWait time.Duration, dispatch func(T)) *Debouncer[T] {
	if wait <= 0 {
		wait = time.Millisecond
	}
	if maxWait < wait {
		maxWait = wait
	}
	return &Debouncer[T]{clock: clock, wait: wait, maxWait: maxWait, dispatch: dispatch}
}

// Push offers a value.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	if !d.active {
		d.active = true
		d.gen++
		gen := d.gen
		d.quiet = d.clock.AfterFunc(d.wait, func() { d.onQuiet(gen) })
		d.ceiling = d.clock.AfterFunc(d.maxWait, func() { d.onCeiling(gen) })
		d.dispatched++
		d.mu.Unlock()
		d.dispatch(v)
		return
	}
	d.pending, d.hasPending = v, true
	d.quiet.Stop()
	gen := d.gen
	d.quiet = d.clock.AfterFunc(d.wait, func() { d.onQuiet(gen) })
	d.mu.Unlock()
}

func (d *Debouncer[T]) take() (T, bool) {
	v, ok := d.pending, d.hasPending
	var zero T
	d.pending, d.hasPending = zero, false
	if ok {
		d.dispatched++
	}
	return v, ok
}

func (d *Debouncer[T]) onQuiet(gen int) {
	d.mu.Lock()
	if gen != d.gen || !d.active {
		d.mu.Unlock()
		return
	}
	v, ok := d.take()
	d.endLocked()
	d.mu.Unlock()
	if ok {
		d.dispatch(v)
	}
}

func (d *Debouncer[T]) onCeiling(gen int) {
	d.mu.Lock()
	if gen != d.gen || !d.active {
		d.mu.Unlock()
		return
	}
	v, ok := d.take()
	d.ceiling = d.clock.AfterFunc(d.maxWait, func() { d.onCeiling(gen) })
	d.mu.Unlock()
	if ok {
		d.dispatch(v)
	}
}

func (d *Debouncer[T]) endLocked() {
	d.active = false
	d.gen++
	if d.quiet != nil {
		d.quiet.Stop()
	}
	if d.ceiling != nil {
		d.ceiling.Stop()
	}
}

// Flush dispatches the pending value now and ends the burst.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	v, ok := d.take()
	d.endLocked()
	d.mu.Unlock()
	if ok {
		d.dispatch(v)
	}
}

// Cancel drops the pending value and ends the burst.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	var zero T
	d.pending, d.hasPending = zero, false
	d.endLocked()
}

// Pending reports whether a value is waiting to go out.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPending
}

// Dispatched counts values handed to the dispatch func.
func (d *Debouncer[T]) Dispatched() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatched
}
