package subject

import (
	"math"

	"wiredraw/internal/geom"
)

// BranchSnap describes the wire a branch-point endpoint already sits on.
// When active, the auto layout meets that wire at a right angle instead of
// following the generic dominance rule.
type BranchSnap struct {
	Active bool
	Axis   geom.Axis
}

// AutoVertices computes the two-bend path between two terminals.
//
// Horizontal-dominant spans (|dx| >= |dy|, ties included) leave
// horizontally and turn at the midpoint X; vertical-dominant spans leave
// vertically and turn at the midpoint Y. The path always carries exactly
// two bends, so an auto route always has three segments.
func AutoVertices(start, end geom.Vec2, snap BranchSnap) []geom.Vec2 {
	horizontal := math.Abs(end.X-start.X) >= math.Abs(end.Y-start.Y)
	if snap.Active {
		// A branch on a vertical wire is met horizontally and vice versa.
		horizontal = snap.Axis == geom.Vertical
	}
	if horizontal {
		mx := (start.X + end.X) / 2
		return []geom.Vec2{{X: mx, Y: start.Y}, {X: mx, Y: end.Y}}
	}
	my := (start.Y + end.Y) / 2
	return []geom.Vec2{{X: start.X, Y: my}, {X: end.X, Y: my}}
}

// trackEndpoint keeps the segment between a moved terminal and its
// neighbouring vertex on the axis it had when the vertices were committed.
func trackEndpoint(committed geom.Axis, vertex, moved geom.Vec2) geom.Vec2 {
	if committed == geom.Horizontal {
		vertex.Y = moved.Y
	} else {
		vertex.X = moved.X
	}
	return vertex
}
