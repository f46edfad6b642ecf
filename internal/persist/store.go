// Package persist holds the collaborators the editor loads from and writes
// to: document stores, the part catalog, the identity provider, and the
// debounced writer that sits in front of them.
package persist

import (
	"context"
	"errors"

	"wiredraw/internal/doc"
)

var ErrNotFound = errors.New("persist: not found")

// Change is one saved revision of a document, tagged with the origin of the
// writer that produced it.
type Change struct {
	Doc    *doc.Document
	Origin string
}

type DocumentStore interface {
	Load(ctx context.Context, id string) (*doc.Document, error)
	Save(ctx context.Context, d *doc.Document, origin string) error
	// Subscribe calls fn for every save of the document until the returned
	// func is called. fn runs on a goroutine owned by the store.
	Subscribe(id string, fn func(Change)) (unsubscribe func())
}

type PartResolver interface {
	// ResolvePartVersion returns the part snapshot. An empty version means
	// the latest one.
	ResolvePartVersion(ctx context.Context, partUID, version string) (doc.PartVersion, error)
}

type User struct {
	UID  string `yaml:"uid"`
	Name string `yaml:"name"`
}

type IdentityProvider interface {
	CurrentUser(ctx context.Context) (User, error)
}

// ViewerState is the per-user camera saved alongside a document: position,
// target and zoom.
type ViewerState struct {
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	TargetX float64 `msgpack:"tx"`
	TargetY float64 `msgpack:"ty"`
	Zoom    float64 `msgpack:"zoom"`
}

type ViewerStateStore interface {
	// LoadViewerState reports false when nothing was saved yet.
	LoadViewerState(ctx context.Context, docID, userUID string) (ViewerState, bool, error)
	SaveViewerState(ctx context.Context, docID, userUID string, vs ViewerState) error
}

// StaticIdentity always returns the same user.
type StaticIdentity User

func (s StaticIdentity) CurrentUser(context.Context) (User, error) {
	if s.UID == "" {
		return User{}, errors.New("persist: no user configured")
	}
	return User(s), nil
}
