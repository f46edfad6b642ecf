package persist

import (
	"context"
	"fmt"
	"sync"

	"wiredraw/internal/doc"
)

type viewerKey struct {
	doc, user string
}

// MemoryStore keeps documents and viewer states in process. Subscribers are
// notified asynchronously, in save order per subscriber.
type MemoryStore struct {
	mu    sync.Mutex
	docs  map[string]*doc.Document
	views map[viewerKey]ViewerState
	saves int
	hub   hub
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]*doc.Document),
		views: make(map[viewerKey]ViewerState),
	}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*doc.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	return d.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, d *doc.Document, origin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := d.Clone()
	m.mu.Lock()
	m.docs[c.UID] = c
	m.saves++
	m.mu.Unlock()
	m.hub.publish(Change{Doc: c, Origin: origin})
	return nil
}

// Saves counts successful Save calls.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Subscribe(id string, fn func(Change)) func() {
	return m.hub.subscribe(id, fn)
}

func (m *MemoryStore) LoadViewerState(ctx context.Context, docID, userUID string) (ViewerState, bool, error) {
	if err := ctx.Err(); err != nil {
		return ViewerState{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.views[viewerKey{docID, userUID}]
	return vs, ok, nil
}

func (m *MemoryStore) SaveViewerState(ctx context.Context, docID, userUID string, vs ViewerState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[viewerKey{docID, userUID}] = vs
	return nil
}
