package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// postQueue forwards editor work to the program in the order it was posted.
// Post never blocks: Program.Send waits for Update, and Update may be the
// caller.
type postQueue struct {
	send func(tea.Msg)

	mu     sync.Mutex
	cond   *sync.Cond
	items  []func()
	closed bool
	done   chan struct{}
}

func newPostQueue(send func(tea.Msg)) *postQueue {
	q := &postQueue{send: send, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *postQueue) Post(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, fn)
	q.cond.Signal()
}

// Close stops forwarding. Work still queued is dropped.
func (q *postQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *postQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.mu.Unlock()
		q.send(runMsg(fn))
	}
}
