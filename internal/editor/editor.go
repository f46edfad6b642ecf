// Package editor assembles the scene, the state synchronizer, the input
// controls, and the persistence collaborators into one embeddable editor.
// Every method must be called from the host's UI loop; work arriving on
// other goroutines is queued and run from Tick or the host's enqueue hook.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/clipboard"
	"wiredraw/internal/control"
	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/history"
	"wiredraw/internal/persist"
	"wiredraw/internal/render"
	"wiredraw/internal/scene"
	"wiredraw/internal/state"
)

var ErrNoDocument = errors.New("editor: no document open")

type Options struct {
	Viewport     scene.Viewport
	Zoom         control.ZoomOptions
	PickRadius   float64
	GridExtent   float64
	HistoryDepth int
	Writer       persist.WriterOptions
	PNG          render.PNGOptions
}

func DefaultOptions() Options {
	return Options{
		Viewport:     scene.Viewport{Width: 800, Height: 600},
		Zoom:         control.DefaultZoomOptions(),
		PickRadius:   6,
		GridExtent:   2048,
		HistoryDepth: history.DefaultLimit,
		Writer:       persist.DefaultWriterOptions(),
		PNG:          render.DefaultPNGOptions(),
	}
}

// Deps are the collaborators the editor loads from and saves to. Views and
// Clipboard may be nil.
type Deps struct {
	Documents persist.DocumentStore
	Parts     persist.PartResolver
	Identity  persist.IdentityProvider
	Views     persist.ViewerStateStore
	Clipboard clipboard.Backend
}

type Editor struct {
	opts Options
	deps Deps

	engine   *scene.Engine
	sync     *state.Synchronizer
	controls *control.Set
	route    *control.Route
	drag     *control.Drag
	box      *control.SelectBox
	sel      *control.Select
	zoom     *control.Zoom
	clip     *clipboard.Service
	history  *history.History
	writer   *persist.Writer

	user        persist.User
	last        *doc.Document
	unsubscribe func()
	restoring   bool

	mu      sync.Mutex
	inbox   []func()
	enqueue func(func())

	syncState persist.SyncState
	syncErr   error

	onDocumentChanged  func(*doc.Document)
	onSelectionChanged func([]string)
	onSyncState        func(persist.SyncState, error)
}

func New(deps Deps, opts Options) *Editor {
	e := &Editor{
		opts:    opts,
		deps:    deps,
		engine:  scene.NewEngine(opts.Viewport),
		history: history.New(opts.HistoryDepth),
	}
	e.sync = state.New(e.engine, opts.GridExtent)
	e.sync.OnDocumentChanged(e.committed)
	e.sync.OnSelectionChanged(func(uids []string) {
		if e.onSelectionChanged != nil {
			e.onSelectionChanged(uids)
		}
	})

	if deps.Clipboard != nil {
		e.clip = clipboard.New(deps.Clipboard, nil)
	}
	e.route = control.NewRoute(e.sync, opts.PickRadius)
	e.drag = control.NewDrag(e.sync, opts.PickRadius)
	e.box = control.NewSelectBox(e.sync)
	e.sel = control.NewSelect(e.sync, e.clip, opts.PickRadius)
	e.zoom = control.NewZoom(e.sync, opts.Zoom)
	e.controls = control.NewSet(e.route, e.drag, e.box, e.sel, e.zoom)
	e.engine.AddUpdater(e.controls)
	e.engine.OnCameraChange(e.cameraChanged)

	e.writer = persist.NewWriter(deps.Documents, deps.Views, opts.Writer)
	e.writer.OnStateChanged(func(s persist.SyncState, err error) {
		e.post(func() { e.syncStateChanged(s, err) })
	})
	return e
}

func (e *Editor) OnDocumentChanged(fn func(*doc.Document))      { e.onDocumentChanged = fn }
func (e *Editor) OnSelectionChanged(fn func([]string))          { e.onSelectionChanged = fn }
func (e *Editor) OnSyncState(fn func(persist.SyncState, error)) { e.onSyncState = fn }

func (e *Editor) Engine() *scene.Engine             { return e.engine }
func (e *Editor) Synchronizer() *state.Synchronizer { return e.sync }
func (e *Editor) History() *history.History         { return e.history }
func (e *Editor) Writer() *persist.Writer           { return e.writer }
func (e *Editor) User() persist.User                { return e.user }
func (e *Editor) Loaded() bool                      { return e.sync.Loaded() }
func (e *Editor) Routing() bool                     { return e.route.Routing() }
func (e *Editor) Camera() scene.Camera              { return e.engine.Camera() }

// SyncState is the last persistence outcome seen on the UI loop.
func (e *Editor) SyncState() (persist.SyncState, error) { return e.syncState, e.syncErr }

func (e *Editor) SelectedUIDs() []string { return e.sync.SelectedUIDs() }

func (e *Editor) ScreenToWorld(p geom.Vec2) geom.Vec2 { return e.engine.ScreenToWorld(p) }

// SetEnqueue installs the hook used to run background results on the UI
// loop. Without one they wait for the next Tick.
func (e *Editor) SetEnqueue(fn func(func())) {
	e.mu.Lock()
	e.enqueue = fn
	e.mu.Unlock()
}

func (e *Editor) Resize(width, height float64) {
	e.engine.SetViewport(scene.Viewport{Width: width, Height: height})
}

func (e *Editor) Pan(dx, dy float64) { e.zoom.Pan(dx, dy) }
func (e *Editor) ZoomIn()            { e.zoom.ZoomIn() }
func (e *Editor) ZoomOut()           { e.zoom.ZoomOut() }

func (e *Editor) DeleteSelection() bool { return e.loadedAnd(e.sync.DeleteSelection) }
func (e *Editor) Copy() bool            { return e.loadedAnd(e.sel.Copy) }
func (e *Editor) Cut() bool             { return e.loadedAnd(e.sel.Cut) }

func (e *Editor) loadedAnd(fn func() bool) bool {
	if !e.sync.Loaded() {
		return false
	}
	return fn()
}

// Document returns a copy of the open document, or nil.
func (e *Editor) Document() *doc.Document {
	if !e.sync.Loaded() {
		return nil
	}
	return e.sync.Snapshot()
}

// Open loads a document, restores this user's camera for it, and starts
// listening for remote changes. An open document is closed first.
func (e *Editor) Open(ctx context.Context, id string) error {
	if e.sync.Loaded() {
		if err := e.Close(ctx); err != nil {
			return err
		}
	}
	user, err := e.deps.Identity.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("editor: current user: %w", err)
	}
	d, err := e.deps.Documents.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("editor: open %s: %w", id, err)
	}
	e.user = user
	e.sync.LoadDocument(d)
	e.last = e.sync.Snapshot()
	e.history.Clear()
	e.restoreCamera(ctx, id)
	e.unsubscribe = e.deps.Documents.Subscribe(id, e.remoteChanged)
	glog.V(1).Infof("editor: opened %s as %s", id, user.UID)
	return nil
}

// Create saves a new empty document owned by the current user and opens it.
func (e *Editor) Create(ctx context.Context, name string) (*doc.Document, error) {
	user, err := e.deps.Identity.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("editor: current user: %w", err)
	}
	d := doc.New(name, user.UID)
	if err := e.deps.Documents.Save(ctx, d, e.writer.Origin()); err != nil {
		return nil, fmt.Errorf("editor: create %s: %w", name, err)
	}
	if err := e.Open(ctx, d.UID); err != nil {
		return nil, err
	}
	return d, nil
}

func (e *Editor) restoreCamera(ctx context.Context, id string) {
	e.restoring = true
	defer func() { e.restoring = false }()
	if e.deps.Views != nil {
		vs, ok, err := e.deps.Views.LoadViewerState(ctx, id, e.user.UID)
		if err != nil {
			glog.Warningf("editor: viewer state for %s: %v", id, err)
		}
		if ok {
			e.zoom.Restore(scene.Camera{
				Position: geom.V(vs.X, vs.Y),
				Target:   geom.V(vs.TargetX, vs.TargetY),
				Zoom:     vs.Zoom,
			})
			return
		}
	}
	e.zoom.ZoomToFit()
}

// Close flushes pending saves and unloads the document.
func (e *Editor) Close(ctx context.Context) error {
	if !e.sync.Loaded() {
		return nil
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	err := e.writer.Flush(ctx)
	e.sync.Unload()
	e.history.Clear()
	e.last = nil
	return err
}

// Shutdown closes the document and stops the writer.
func (e *Editor) Shutdown(ctx context.Context) error {
	err := e.Close(ctx)
	if cerr := e.writer.Close(); err == nil {
		err = cerr
	}
	return err
}

// committed runs for every local edit the synchronizer commits.
func (e *Editor) committed(d *doc.Document) {
	e.history.Record(e.last, d)
	e.published(d)
}

func (e *Editor) published(d *doc.Document) {
	e.last = d.Clone()
	e.writer.SaveDocument(d)
	if e.onDocumentChanged != nil {
		e.onDocumentChanged(d)
	}
}

func (e *Editor) cameraChanged(c scene.Camera) {
	if e.restoring || !e.sync.Loaded() {
		return
	}
	e.writer.SaveViewerState(e.sync.Document().UID, e.user.UID, persist.ViewerState{
		X:       c.Position.X,
		Y:       c.Position.Y,
		TargetX: c.Target.X,
		TargetY: c.Target.Y,
		Zoom:    c.Zoom,
	})
}

// remoteChanged runs on the store's goroutine.
func (e *Editor) remoteChanged(c persist.Change) {
	if e.writer.IsOwnOrigin(c.Origin) {
		glog.V(2).Infof("editor: dropping own echo of %s", c.Doc.UID)
		return
	}
	e.post(func() { e.applyRemote(c.Doc) })
}

// applyRemote merges a change from another writer. Local undo history is
// dropped since it no longer describes the document.
func (e *Editor) applyRemote(d *doc.Document) {
	if !e.sync.Loaded() || e.sync.Document().UID != d.UID {
		return
	}
	if e.last != nil && e.last.SameContent(d) {
		return
	}
	glog.V(1).Infof("editor: remote change to %s", d.UID)
	e.sync.UpdateDocument(d)
	e.last = e.sync.Snapshot()
	e.history.Clear()
	if e.onDocumentChanged != nil {
		e.onDocumentChanged(e.sync.Snapshot())
	}
}

func (e *Editor) syncStateChanged(s persist.SyncState, err error) {
	e.syncState, e.syncErr = s, err
	if e.onSyncState != nil {
		e.onSyncState(s, err)
	}
}

// post runs fn on the UI loop: through the host's enqueue hook when one is
// set, otherwise on the next Tick.
func (e *Editor) post(fn func()) {
	e.mu.Lock()
	hook := e.enqueue
	if hook == nil {
		e.inbox = append(e.inbox, fn)
	}
	e.mu.Unlock()
	if hook != nil {
		hook(fn)
	}
}

func (e *Editor) drain() {
	e.mu.Lock()
	inbox := e.inbox
	e.inbox = nil
	e.mu.Unlock()
	for _, fn := range inbox {
		fn()
	}
}

// Tick runs queued work and advances one frame.
func (e *Editor) Tick(elapsed time.Duration) {
	e.drain()
	if e.sync.Loaded() {
		e.engine.Tick(elapsed)
	}
}

// HandleEvent feeds one input event through the controls. Unconsumed keys
// fall through to the editor's own bindings.
func (e *Editor) HandleEvent(ev control.Event) bool {
	if !e.sync.Loaded() {
		return false
	}
	if e.controls.Dispatch(&ev) {
		return true
	}
	if ev.Kind != control.Key {
		return false
	}
	switch ev.Key {
	case "ctrl+z":
		return e.Undo()
	case "ctrl+y", "ctrl+shift+z":
		return e.Redo()
	}
	return false
}

// PlacePart resolves a part version and drops it at a world point. An
// empty version places the latest one.
func (e *Editor) PlacePart(ctx context.Context, partUID, version string, at geom.Vec2) (*doc.Element, error) {
	if !e.sync.Loaded() {
		return nil, ErrNoDocument
	}
	part, err := e.deps.Parts.ResolvePartVersion(ctx, partUID, version)
	if err != nil {
		return nil, fmt.Errorf("editor: place %s: %w", partUID, err)
	}
	return e.sync.PlacePart(part, at)
}

// Paste drops the clipboard contents at a world point.
func (e *Editor) Paste(at geom.Vec2) (int, error) {
	if !e.sync.Loaded() {
		return 0, ErrNoDocument
	}
	if e.clip == nil {
		return 0, clipboard.ErrEmpty
	}
	return e.clip.Paste(at)
}

func (e *Editor) Undo() bool {
	return e.step(e.history.Undo)
}

func (e *Editor) Redo() bool {
	return e.step(e.history.Redo)
}

func (e *Editor) step(pop func() (*doc.Document, history.ActionType, bool)) bool {
	if !e.sync.Loaded() {
		return false
	}
	d, kind, ok := pop()
	if !ok {
		return false
	}
	glog.V(1).Infof("editor: restoring before/after %s", kind)
	e.sync.UpdateDocument(d)
	e.published(e.sync.Snapshot())
	return true
}

// ZoomToFit frames the selection, or everything when nothing is selected.
func (e *Editor) ZoomToFit() {
	if e.sync.Loaded() {
		e.zoom.ZoomToFit()
		return
	}
	e.engine.ResetCamera()
}

// DuplicateDocument saves a copy of the open document under a new uid and
// returns it. The open document stays open.
func (e *Editor) DuplicateDocument(ctx context.Context) (*doc.Document, error) {
	if !e.sync.Loaded() {
		return nil, ErrNoDocument
	}
	d := e.sync.Snapshot().Duplicate(doc.NewUID())
	d.Name = strings.TrimSpace(d.Name + " copy")
	if err := e.deps.Documents.Save(ctx, d, e.writer.Origin()); err != nil {
		return nil, fmt.Errorf("editor: duplicate: %w", err)
	}
	return d, nil
}

// ExportPNG renders the document content, without grid or selection
// overlays, framed to its bounds.
func (e *Editor) ExportPNG(w io.Writer) error {
	if !e.sync.Loaded() {
		return ErrNoDocument
	}
	p, err := render.NewPNGPainter(e.sync.ContentBounds(), e.opts.PNG)
	if err != nil {
		return err
	}
	e.sync.PaintContent(p)
	return p.EncodePNG(w)
}

// ExportText writes the current view as plain text, one line per cell row.
func (e *Editor) ExportText(w io.Writer) error {
	if !e.sync.Loaded() {
		return ErrNoDocument
	}
	p := render.ForEngine(e.engine)
	e.sync.PaintContent(p)
	for _, line := range p.Lines() {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// Frame paints the full view, grid and control overlays included, as
// styled terminal rows.
func (e *Editor) Frame() []string {
	p := render.ForEngine(e.engine)
	if e.sync.Loaded() {
		e.sync.Paint(p)
		e.controls.Paint(p)
	}
	return p.Styled(render.DefaultStyles())
}
