// Package doc is the persisted document graph: placed elements, the routes
// wiring their terminals together, and document-level properties.
package doc

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/google/uuid"

	"wiredraw/internal/geom"
)

var (
	ErrMissingElement  = errors.New("doc: element not found")
	ErrMissingTerminal = errors.New("doc: terminal not found")
	ErrDuplicateUID    = errors.New("doc: uid already in use")
)

// NewUID returns a fresh identifier for a document, element, or route.
func NewUID() string {
	return uuid.NewString()
}

type Document struct {
	UID        string              `json:"uid"`
	Name       string              `json:"name"`
	OwnerUID   string              `json:"owner_uid,omitempty"`
	Elements   map[string]*Element `json:"elements"`
	Routes     map[string]*Route   `json:"routes"`
	Properties map[string]string   `json:"properties,omitempty"`
}

func New(name, ownerUID string) *Document {
	return &Document{
		UID:        NewUID(),
		Name:       name,
		OwnerUID:   ownerUID,
		Elements:   make(map[string]*Element),
		Routes:     make(map[string]*Route),
		Properties: make(map[string]string),
	}
}

// ensureMaps fixes up documents that were decoded with nil maps.
func (d *Document) ensureMaps() {
	if d.Elements == nil {
		d.Elements = make(map[string]*Element)
	}
	if d.Routes == nil {
		d.Routes = make(map[string]*Route)
	}
	if d.Properties == nil {
		d.Properties = make(map[string]string)
	}
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		UID:        d.UID,
		Name:       d.Name,
		OwnerUID:   d.OwnerUID,
		Elements:   make(map[string]*Element, len(d.Elements)),
		Routes:     make(map[string]*Route, len(d.Routes)),
		Properties: maps.Clone(d.Properties),
	}
	if c.Properties == nil {
		c.Properties = make(map[string]string)
	}
	for uid, e := range d.Elements {
		c.Elements[uid] = e.Clone()
	}
	for uid, r := range d.Routes {
		c.Routes[uid] = r.Clone()
	}
	return c
}

// Duplicate copies the document under a new uid. Element, route, and
// property content is identical to the source.
func (d *Document) Duplicate(newUID string) *Document {
	c := d.Clone()
	c.UID = newUID
	return c
}

// SameContent compares elements, routes, and properties, ignoring the
// document's own identity.
func (d *Document) SameContent(o *Document) bool {
	if len(d.Elements) != len(o.Elements) || len(d.Routes) != len(o.Routes) {
		return false
	}
	for uid, e := range d.Elements {
		if !e.Equal(o.Elements[uid]) {
			return false
		}
	}
	for uid, r := range d.Routes {
		if !r.Equal(o.Routes[uid]) {
			return false
		}
	}
	return maps.Equal(d.Properties, o.Properties)
}

// ElementUIDs returns element uids in a stable order.
func (d *Document) ElementUIDs() []string {
	uids := make([]string, 0, len(d.Elements))
	for uid := range d.Elements {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// RouteUIDs returns route uids in a stable order.
func (d *Document) RouteUIDs() []string {
	uids := make([]string, 0, len(d.Routes))
	for uid := range d.Routes {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

func (d *Document) AddElement(e *Element) error {
	d.ensureMaps()
	if _, ok := d.Elements[e.UID]; ok {
		return fmt.Errorf("add element %s: %w", e.UID, ErrDuplicateUID)
	}
	d.Elements[e.UID] = e
	return nil
}

// RemoveElement deletes the element and every route touching it. The uids
// of the removed routes are returned.
func (d *Document) RemoveElement(uid string) []string {
	if _, ok := d.Elements[uid]; !ok {
		return nil
	}
	delete(d.Elements, uid)
	var removed []string
	for _, r := range d.RoutesFor(uid) {
		delete(d.Routes, r.UID)
		removed = append(removed, r.UID)
	}
	return removed
}

// AddRoute inserts a route after checking both endpoints resolve.
func (d *Document) AddRoute(r *Route) error {
	d.ensureMaps()
	if _, ok := d.Routes[r.UID]; ok {
		return fmt.Errorf("add route %s: %w", r.UID, ErrDuplicateUID)
	}
	for _, ep := range []Endpoint{r.Start, r.End} {
		if err := d.checkEndpoint(ep); err != nil {
			return fmt.Errorf("add route %s: %w", r.UID, err)
		}
	}
	d.Routes[r.UID] = r
	return nil
}

func (d *Document) RemoveRoute(uid string) bool {
	if _, ok := d.Routes[uid]; !ok {
		return false
	}
	delete(d.Routes, uid)
	return true
}

func (d *Document) checkEndpoint(ep Endpoint) error {
	e, ok := d.Elements[ep.ElementUID]
	if !ok {
		return fmt.Errorf("endpoint %s: %w", ep, ErrMissingElement)
	}
	if _, ok := e.Terminal(ep.TerminalUID); !ok {
		return fmt.Errorf("endpoint %s: %w", ep, ErrMissingTerminal)
	}
	return nil
}

// RoutesFor returns every route with an endpoint on the element, ordered by uid.
func (d *Document) RoutesFor(elementUID string) []*Route {
	var routes []*Route
	for _, r := range d.Routes {
		if r.References(elementUID) {
			routes = append(routes, r)
		}
	}
	slices.SortFunc(routes, func(a, b *Route) int {
		if a.UID < b.UID {
			return -1
		}
		if a.UID > b.UID {
			return 1
		}
		return 0
	})
	return routes
}

// PruneOrphanBranches removes branch points that no longer carry any route.
func (d *Document) PruneOrphanBranches() []string {
	var removed []string
	for _, uid := range d.ElementUIDs() {
		e := d.Elements[uid]
		if e.IsBranch() && len(d.RoutesFor(uid)) == 0 {
			delete(d.Elements, uid)
			removed = append(removed, uid)
		}
	}
	return removed
}

// Validate checks every route endpoint resolves.
func (d *Document) Validate() error {
	var errs []error
	for _, uid := range d.RouteUIDs() {
		r := d.Routes[uid]
		for _, ep := range []Endpoint{r.Start, r.End} {
			if err := d.checkEndpoint(ep); err != nil {
				errs = append(errs, fmt.Errorf("route %s: %w", uid, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Bounds covers every element body and route vertex.
func (d *Document) Bounds() geom.Rect {
	r := geom.EmptyRect()
	for _, e := range d.Elements {
		r = r.Union(e.Bounds())
	}
	for _, rt := range d.Routes {
		for _, v := range rt.Vertices {
			r = r.Extend(v)
		}
	}
	return r
}
