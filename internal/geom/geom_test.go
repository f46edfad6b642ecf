package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentAxis(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec2
		want Axis
	}{
		{"horizontal", V(0, 5), V(10, 5), Horizontal},
		{"vertical", V(3, 0), V(3, -8), Vertical},
		{"degenerate", V(1, 1), V(1, 1), Horizontal},
		{"diagonal tie", V(0, 0), V(4, 4), Horizontal},
		{"diagonal mostly vertical", V(0, 0), V(1, 4), Vertical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentAxis(tt.a, tt.b))
		})
	}
}

func TestClosestPointOnSegment(t *testing.T) {
	a, b := V(0, 0), V(10, 0)
	assert.Equal(t, V(4, 0), ClosestPointOnSegment(a, b, V(4, 3)))
	assert.Equal(t, V(0, 0), ClosestPointOnSegment(a, b, V(-5, 1)))
	assert.Equal(t, V(10, 0), ClosestPointOnSegment(a, b, V(15, -1)))
	assert.InDelta(t, 3.0, DistToSegment(a, b, V(4, 3)), 1e-9)
}

func TestRotateQuarter(t *testing.T) {
	v := V(2, 1)
	assert.Equal(t, V(-1, 2), v.RotateQuarter(1))
	assert.Equal(t, V(-2, -1), v.RotateQuarter(2))
	assert.Equal(t, V(1, -2), v.RotateQuarter(-1))
	assert.Equal(t, v, v.RotateQuarter(4))
}

func TestRect(t *testing.T) {
	r := R(V(10, 10), V(0, 0))
	assert.Equal(t, V(0, 0), r.Min)
	assert.Equal(t, V(5, 5), r.Center())
	assert.True(t, r.ContainsRect(R(V(1, 1), V(2, 2))))
	assert.False(t, r.ContainsRect(R(V(1, 1), V(12, 2))))
	assert.True(t, r.Intersects(R(V(9, 9), V(20, 20))))
	assert.False(t, r.Intersects(R(V(11, 11), V(20, 20))))

	empty := EmptyRect()
	assert.True(t, empty.Empty())
	assert.Equal(t, r, empty.Union(r))
	assert.False(t, empty.Intersects(r))

	b := BoundsOf(V(3, -1), V(-2, 4))
	assert.Equal(t, 5.0, b.Width())
	assert.Equal(t, 5.0, b.Height())
}
