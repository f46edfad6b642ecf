// Package clipboard copies diagram items to and from a text clipboard.
// Pasted items always get fresh identities.
package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
)

const (
	payloadFormat  = "wiredraw/items"
	payloadVersion = 1

	TypeElement = "element"
	TypeRoute   = "route"
)

var (
	ErrEmpty          = errors.New("clipboard: nothing to paste")
	ErrNotInitialized = errors.New("clipboard: no paste listener")
)

// Item is one (type tag, data) pair of a payload.
type Item struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type payload struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Items   []Item `json:"items"`
}

// Listener receives pasted items, already re-identified and positioned.
type Listener func(elements []*doc.Element, routes []*doc.Route)

type Service struct {
	backend  Backend
	newUID   func() string
	listener Listener
}

// New builds a service over backend. newUID mints element and route uids
// for pasted items.
func New(backend Backend, newUID func() string) *Service {
	if newUID == nil {
		newUID = doc.NewUID
	}
	return &Service{backend: backend, newUID: newUID}
}

// Init registers the paste listener. Paste fails until it is called.
func (s *Service) Init(l Listener) {
	s.listener = l
}

// Copy writes elements and routes to the clipboard.
func (s *Service) Copy(elements []*doc.Element, routes []*doc.Route) error {
	text, err := Encode(elements, routes)
	if err != nil {
		return err
	}
	if err := s.backend.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	glog.V(1).Infof("clipboard: copied %d elements, %d routes", len(elements), len(routes))
	return nil
}

// Paste reads the clipboard and hands the items to the listener with the
// first element placed at at. A malformed payload pastes nothing.
func (s *Service) Paste(at geom.Vec2) (int, error) {
	if s.listener == nil {
		return 0, ErrNotInitialized
	}
	text, err := s.backend.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("clipboard: read: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmpty
	}
	elements, routes, err := Decode(text)
	if err != nil {
		glog.Warningf("clipboard: ignoring paste: %v", err)
		return 0, nil
	}
	elements, routes = Remap(elements, routes, at, s.newUID)
	if len(elements) == 0 && len(routes) == 0 {
		return 0, nil
	}
	s.listener(elements, routes)
	return len(elements) + len(routes), nil
}

// Encode serializes items into a flat text payload.
func Encode(elements []*doc.Element, routes []*doc.Route) (string, error) {
	p := payload{Format: payloadFormat, Version: payloadVersion}
	add := func(typ string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("clipboard: encode %s: %w", typ, err)
		}
		p.Items = append(p.Items, Item{Type: typ, Data: raw})
		return nil
	}
	for _, e := range elements {
		if err := add(TypeElement, e); err != nil {
			return "", err
		}
	}
	for _, r := range routes {
		if err := add(TypeRoute, r); err != nil {
			return "", err
		}
	}
	out, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("clipboard: encode: %w", err)
	}
	return string(out), nil
}

// Decode parses a payload. Items of unknown type are skipped.
func Decode(text string) ([]*doc.Element, []*doc.Route, error) {
	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, nil, fmt.Errorf("clipboard: decode: %w", err)
	}
	if p.Format != payloadFormat {
		return nil, nil, fmt.Errorf("clipboard: decode: unexpected format %q", p.Format)
	}
	if p.Version > payloadVersion {
		return nil, nil, fmt.Errorf("clipboard: decode: unsupported version %d", p.Version)
	}
	var (
		elements []*doc.Element
		routes   []*doc.Route
	)
	for i, it := range p.Items {
		switch it.Type {
		case TypeElement:
			var e doc.Element
			if err := json.Unmarshal(it.Data, &e); err != nil {
				return nil, nil, fmt.Errorf("clipboard: decode item %d: %w", i, err)
			}
			elements = append(elements, &e)
		case TypeRoute:
			var r doc.Route
			if err := json.Unmarshal(it.Data, &r); err != nil {
				return nil, nil, fmt.Errorf("clipboard: decode item %d: %w", i, err)
			}
			routes = append(routes, &r)
		default:
			glog.V(1).Infof("clipboard: skipping item %d of type %q", i, it.Type)
		}
	}
	return elements, routes, nil
}

// Remap gives every element and route a fresh uid and rewrites route
// endpoints to match. Routes with an endpoint outside the pasted elements
// are dropped. Elements and manual bend points shift so the first element
// lands on at.
func Remap(elements []*doc.Element, routes []*doc.Route, at geom.Vec2, newUID func() string) ([]*doc.Element, []*doc.Route) {
	if len(elements) == 0 {
		return nil, nil
	}
	offset := at.Sub(elements[0].Position.Origin())
	ids := make(map[string]string, len(elements))
	out := make([]*doc.Element, 0, len(elements))
	for _, e := range elements {
		c := e.Clone()
		ids[e.UID] = newUID()
		c.UID = ids[e.UID]
		c.Position.X += offset.X
		c.Position.Y += offset.Y
		out = append(out, c)
	}
	var outRoutes []*doc.Route
	for _, r := range routes {
		start, okS := ids[r.Start.ElementUID]
		end, okE := ids[r.End.ElementUID]
		if !okS || !okE {
			glog.V(1).Infof("clipboard: dropping route %s with an endpoint outside the paste", r.UID)
			continue
		}
		c := r.Clone()
		c.UID = newUID()
		c.Start.ElementUID = start
		c.End.ElementUID = end
		for i := range c.Vertices {
			c.Vertices[i] = c.Vertices[i].Add(offset)
		}
		outRoutes = append(outRoutes, c)
	}
	return out, outRoutes
}
