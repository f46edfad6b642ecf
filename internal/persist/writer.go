package persist

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"wiredraw/internal/doc"
)

type SyncState int

const (
	Synced SyncState = iota
	Syncing
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case Synced:
		return "synced"
	case Syncing:
		return "syncing"
	case SyncError:
		return "error"
	}
	return "unknown"
}

// NewOrigin returns a tag unique to one writer. Saves carry it so a
// subscriber can tell its own echoes from remote changes.
func NewOrigin() string {
	return ulid.Make().String()
}

type WriterOptions struct {
	Wait    time.Duration
	MaxWait time.Duration
	Clock   Clock
	// Timeout bounds a single store call. Zero means no limit.
	Timeout time.Duration
}

func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		Wait:    300 * time.Millisecond,
		MaxWait: 2 * time.Second,
		Clock:   RealClock(),
		Timeout: 10 * time.Second,
	}
}

type viewerSave struct {
	docID, userUID string
	state          ViewerState
}

type writeJob struct {
	name string
	run  func(ctx context.Context) error
	done chan struct{}
}

// Writer debounces document and viewer-state saves and performs them one
// at a time on its own goroutine.
type Writer struct {
	docs    DocumentStore
	views   ViewerStateStore
	origin  string
	timeout time.Duration

	docDebounce  *Debouncer[*doc.Document]
	viewDebounce *Debouncer[viewerSave]

	sendMu sync.Mutex
	closed bool
	jobs   chan writeJob
	done   chan struct{}

	mu       sync.Mutex
	state    SyncState
	lastErr  error
	inflight int
	listener func(SyncState, error)
	// failures counts failed saves; lastFailure survives later successes.
	failures    int
	lastFailure error
}

// NewWriter starts the write worker. views may be nil.
func NewWriter(docs DocumentStore, views ViewerStateStore, opts WriterOptions) *Writer {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	w := &Writer{
		docs:    docs,
		views:   views,
		origin:  NewOrigin(),
		timeout: opts.Timeout,
		jobs:    make(chan writeJob, 64),
		done:    make(chan struct{}),
	}
	w.docDebounce = NewDebouncer(opts.Clock, opts.Wait, opts.MaxWait, w.enqueueDocument)
	w.viewDebounce = NewDebouncer(opts.Clock, opts.Wait, opts.MaxWait, w.enqueueViewerState)
	go w.run()
	return w
}

func (w *Writer) Origin() string { return w.origin }

func (w *Writer) IsOwnOrigin(origin string) bool { return origin == w.origin }

// OnStateChanged registers the sync-state listener. It may be called from
// any goroutine.
func (w *Writer) OnStateChanged(fn func(SyncState, error)) {
	w.mu.Lock()
	w.listener = fn
	w.mu.Unlock()
}

func (w *Writer) State() (SyncState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.lastErr
}

// SaveDocument schedules a save of a snapshot of d.
func (w *Writer) SaveDocument(d *doc.Document) {
	w.docDebounce.Push(d.Clone())
}

// SaveViewerState schedules a camera save. It is a no-op without a viewer
// state store.
func (w *Writer) SaveViewerState(docID, userUID string, vs ViewerState) {
	if w.views == nil {
		return
	}
	w.viewDebounce.Push(viewerSave{docID: docID, userUID: userUID, state: vs})
}

func (w *Writer) enqueueDocument(d *doc.Document) {
	w.enqueue(writeJob{name: "document " + d.UID, run: func(ctx context.Context) error {
		return w.docs.Save(ctx, d, w.origin)
	}})
}

func (w *Writer) enqueueViewerState(v viewerSave) {
	w.enqueue(writeJob{name: "viewer state " + v.docID, run: func(ctx context.Context) error {
		return w.views.SaveViewerState(ctx, v.docID, v.userUID, v.state)
	}})
}

func (w *Writer) enqueue(j writeJob) bool {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed {
		glog.Warningf("persist: writer closed, dropping %s", j.name)
		return false
	}
	if j.run != nil {
		w.begin()
	}
	w.jobs <- j
	return true
}

func (w *Writer) begin() {
	w.mu.Lock()
	w.inflight++
	changed := w.state != Syncing
	w.state = Syncing
	fn := w.listener
	w.mu.Unlock()
	if changed && fn != nil {
		fn(Syncing, nil)
	}
}

func (w *Writer) finish(name string, err error) {
	w.mu.Lock()
	w.inflight--
	prev := w.state
	switch {
	case err != nil:
		w.state, w.lastErr = SyncError, err
		w.failures++
		w.lastFailure = err
	case w.inflight == 0:
		// A later success clears an earlier failure.
		w.state, w.lastErr = Synced, nil
	}
	state, lastErr, fn := w.state, w.lastErr, w.listener
	w.mu.Unlock()
	if err != nil {
		glog.Errorf("persist: save %s: %v", name, err)
	}
	if fn != nil && (state != prev || err != nil) {
		fn(state, lastErr)
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for j := range w.jobs {
		if j.run != nil {
			w.finish(j.name, w.exec(j))
		}
		if j.done != nil {
			close(j.done)
		}
	}
}

func (w *Writer) exec(j writeJob) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	return j.run(ctx)
}

// Flush sends any debounced saves and waits until every queued save has
// been attempted. It returns the last error of a save that failed while it
// waited.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	before := w.failures
	w.mu.Unlock()

	w.docDebounce.Flush()
	w.viewDebounce.Flush()
	barrier := writeJob{name: "flush", done: make(chan struct{})}
	if !w.enqueue(barrier) {
		return nil
	}
	select {
	case <-barrier.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures != before {
		return w.lastFailure
	}
	return nil
}

// Close flushes pending saves and stops the worker. Later saves are dropped.
func (w *Writer) Close() error {
	err := w.Flush(context.Background())
	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.sendMu.Unlock()
	<-w.done
	return err
}
