package doc

import (
	"slices"

	"wiredraw/internal/geom"
)

// Endpoint names a terminal on an element.
type Endpoint struct {
	ElementUID  string `json:"element_uid"`
	TerminalUID string `json:"terminal_uid"`
}

func (ep Endpoint) String() string {
	return ep.ElementUID + "/" + ep.TerminalUID
}

func (ep Endpoint) IsZero() bool {
	return ep.ElementUID == "" && ep.TerminalUID == ""
}

// Route connects two terminals through an ordered list of bend points.
// While AutoRoute is set the vertices are derived, not user edited.
type Route struct {
	UID       string      `json:"uid"`
	Start     Endpoint    `json:"start"`
	End       Endpoint    `json:"end"`
	Vertices  []geom.Vec2 `json:"vertices,omitempty"`
	AutoRoute bool        `json:"auto_route"`
}

func NewRoute(start, end Endpoint, vertices []geom.Vec2, auto bool) *Route {
	return &Route{
		UID:       NewUID(),
		Start:     start,
		End:       end,
		Vertices:  vertices,
		AutoRoute: auto,
	}
}

func (r *Route) References(elementUID string) bool {
	return r.Start.ElementUID == elementUID || r.End.ElementUID == elementUID
}

func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	c := *r
	c.Vertices = slices.Clone(r.Vertices)
	return &c
}

// Equal treats nil and empty vertex lists as the same.
func (r *Route) Equal(o *Route) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.UID != o.UID || r.Start != o.Start || r.End != o.End || r.AutoRoute != o.AutoRoute {
		return false
	}
	if len(r.Vertices) != len(o.Vertices) {
		return false
	}
	for i := range r.Vertices {
		if r.Vertices[i] != o.Vertices[i] {
			return false
		}
	}
	return true
}
