package persist

import (
	"sync"

	"github.com/golang/glog"
)

// hub fans saved changes out to per-document subscribers. Each subscriber
// has its own goroutine so a slow callback never blocks a save for long.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]*subscriber
}

type subscriber struct {
	ch   chan Change
	done chan struct{}
}

func (h *hub) subscribe(id string, fn func(Change)) func() {
	s := &subscriber{ch: make(chan Change, 16), done: make(chan struct{})}
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[string]map[int]*subscriber)
	}
	h.next++
	key := h.next
	if h.subs[id] == nil {
		h.subs[id] = make(map[int]*subscriber)
	}
	h.subs[id][key] = s
	h.mu.Unlock()

	go func() {
		for {
			select {
			case c := <-s.ch:
				fn(c)
			case <-s.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[id], key)
			h.mu.Unlock()
			close(s.done)
			glog.V(2).Infof("persist: unsubscribed from %s", id)
		})
	}
}

func (h *hub) publish(c Change) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs[c.Doc.UID]))
	for _, s := range h.subs[c.Doc.UID] {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		select {
		case s.ch <- Change{Doc: c.Doc.Clone(), Origin: c.Origin}:
		case <-s.done:
		}
	}
}
