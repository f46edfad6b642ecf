package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"
	"github.com/vmihailenco/msgpack/v5"

	"wiredraw/internal/doc"
)

const (
	documentExt = ".wdoc"
	viewerExt   = ".view"
)

// ExternalOrigin tags changes picked up from disk by Watch.
const ExternalOrigin = "external"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding: the same document always produces the
	// same bytes, so unchanged saves leave the file content untouched.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("persist: cbor encoder: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("persist: cbor decoder: " + err.Error())
	}
}

// FileStore keeps one CBOR file per document and one msgpack sidecar per
// document and user under a directory. Subscriptions see saves made through
// the same FileStore, and with Watch running also files rewritten by other
// processes.
type FileStore struct {
	dir string
	hub hub

	mu sync.Mutex
	// written holds the bytes last written or seen per document id.
	written map[string][]byte
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir, written: make(map[string][]byte)}, nil
}

func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) documentPath(id string) string {
	return filepath.Join(f.dir, safeName(id)+documentExt)
}

func (f *FileStore) viewerPath(docID, userUID string) string {
	return filepath.Join(f.dir, safeName(docID)+"."+safeName(userUID)+viewerExt)
}

// safeName keeps ids from escaping the store directory.
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, filepath.Base(id))
}

func (f *FileStore) Load(ctx context.Context, id string) (*doc.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.documentPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	var d doc.Document
	if err := decMode.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	// Clone restores any maps the encoding left nil.
	return d.Clone(), nil
}

func (f *FileStore) Save(ctx context.Context, d *doc.Document, origin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encMode.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.UID, err)
	}
	f.mu.Lock()
	err = writeFileAtomic(f.documentPath(d.UID), data)
	if err == nil {
		f.written[safeName(d.UID)] = data
	}
	f.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save %s: %w", d.UID, err)
	}
	glog.V(2).Infof("persist: saved %s (%d bytes)", d.UID, len(data))
	f.hub.publish(Change{Doc: d.Clone(), Origin: origin})
	return nil
}

func (f *FileStore) Subscribe(id string, fn func(Change)) func() {
	return f.hub.subscribe(id, fn)
}

// Watch publishes documents rewritten on disk by other processes until ctx
// is done. Files whose bytes match this store's last write are skipped.
func (f *FileStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("persist: watch %s: %w", f.dir, err)
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return fmt.Errorf("persist: watch %s: %w", f.dir, err)
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && filepath.Ext(evt.Name) == documentExt {
					f.reload(evt.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				glog.Warningf("persist: watch %s: %v", f.dir, err)
			}
		}
	}()
	return nil
}

func (f *FileStore) reload(path string) {
	key := strings.TrimSuffix(filepath.Base(path), documentExt)
	data, err := os.ReadFile(path)
	if err != nil {
		glog.V(1).Infof("persist: reload %s: %v", key, err)
		return
	}
	f.mu.Lock()
	seen := bytes.Equal(f.written[key], data)
	f.mu.Unlock()
	if seen {
		return
	}
	var d doc.Document
	if err := decMode.Unmarshal(data, &d); err != nil {
		// Non-atomic writers trigger events mid-write; the next one retries.
		glog.V(1).Infof("persist: reload %s: %v", key, err)
		return
	}
	f.mu.Lock()
	f.written[key] = data
	f.mu.Unlock()
	glog.V(1).Infof("persist: %s changed on disk", d.UID)
	f.hub.publish(Change{Doc: d.Clone(), Origin: ExternalOrigin})
}

// List returns the ids of every stored document.
func (f *FileStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*"+documentExt))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), documentExt))
	}
	return ids, nil
}

func (f *FileStore) LoadViewerState(ctx context.Context, docID, userUID string) (ViewerState, bool, error) {
	if err := ctx.Err(); err != nil {
		return ViewerState{}, false, err
	}
	data, err := os.ReadFile(f.viewerPath(docID, userUID))
	if errors.Is(err, fs.ErrNotExist) {
		return ViewerState{}, false, nil
	}
	if err != nil {
		return ViewerState{}, false, fmt.Errorf("load viewer state %s: %w", docID, err)
	}
	var vs ViewerState
	if err := msgpack.Unmarshal(data, &vs); err != nil {
		return ViewerState{}, false, fmt.Errorf("decode viewer state %s: %w", docID, err)
	}
	return vs, true, nil
}

func (f *FileStore) SaveViewerState(ctx context.Context, docID, userUID string, vs ViewerState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := msgpack.Marshal(&vs)
	if err != nil {
		return fmt.Errorf("encode viewer state %s: %w", docID, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := writeFileAtomic(f.viewerPath(docID, userUID), data); err != nil {
		return fmt.Errorf("save viewer state %s: %w", docID, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
