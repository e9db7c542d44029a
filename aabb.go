package arbor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/phanxgames/arbor/rtree"
)

// AABB is an axis-aligned bounding box stored as center and half-extents.
// The zero value is empty.
type AABB struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
}

// NewAABB returns the box spanning min..max. Inverted axes are swapped.
func NewAABB(min, max mgl64.Vec3) AABB {
	var b AABB
	b.SetMinMax(min, max)
	return b
}

// SetMinMax sets the box to span min..max.
func (b *AABB) SetMinMax(min, max mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		lo, hi := min[i], max[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		b.Center[i] = (lo + hi) / 2
		b.HalfExtents[i] = (hi - lo) / 2
	}
}

// Min returns the minimum corner.
func (b AABB) Min() mgl64.Vec3 {
	return b.Center.Sub(b.HalfExtents)
}

// Max returns the maximum corner.
func (b AABB) Max() mgl64.Vec3 {
	return b.Center.Add(b.HalfExtents)
}

// IsEmpty reports whether the box has no extent on any axis.
func (b AABB) IsEmpty() bool {
	return b.HalfExtents[0] == 0 && b.HalfExtents[1] == 0 && b.HalfExtents[2] == 0
}

// IsFinite reports whether every component is a finite number.
func (b AABB) IsFinite() bool {
	for i := 0; i < 3; i++ {
		if !finite(b.Center[i]) || !finite(b.HalfExtents[i]) {
			return false
		}
	}
	return true
}

// Add returns the union of b and o. Empty boxes are ignored.
func (b AABB) Add(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	bmin, bmax := b.Min(), b.Max()
	omin, omax := o.Min(), o.Max()
	return NewAABB(
		mgl64.Vec3{math.Min(bmin[0], omin[0]), math.Min(bmin[1], omin[1]), math.Min(bmin[2], omin[2])},
		mgl64.Vec3{math.Max(bmax[0], omax[0]), math.Max(bmax[1], omax[1]), math.Max(bmax[2], omax[2])},
	)
}

// Intersects reports whether b and o overlap. Touching faces count.
func (b AABB) Intersects(o AABB) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(b.Center[i]-o.Center[i]) > b.HalfExtents[i]+o.HalfExtents[i] {
			return false
		}
	}
	return true
}

// Intersection returns the overlap of b and o, or false if they are disjoint.
func (b AABB) Intersection(o AABB) (AABB, bool) {
	if !b.Intersects(o) {
		return AABB{}, false
	}
	bmin, bmax := b.Min(), b.Max()
	omin, omax := o.Min(), o.Max()
	return NewAABB(
		mgl64.Vec3{math.Max(bmin[0], omin[0]), math.Max(bmin[1], omin[1]), math.Max(bmin[2], omin[2])},
		mgl64.Vec3{math.Min(bmax[0], omax[0]), math.Min(bmax[1], omax[1]), math.Min(bmax[2], omax[2])},
	), true
}

// ContainsPoint reports whether p lies inside or on the box.
func (b AABB) ContainsPoint(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(p[i]-b.Center[i]) > b.HalfExtents[i] {
			return false
		}
	}
	return true
}

// ContainsPoint2D is ContainsPoint ignoring the z axis.
func (b AABB) ContainsPoint2D(x, y float64) bool {
	return math.Abs(x-b.Center[0]) <= b.HalfExtents[0] &&
		math.Abs(y-b.Center[1]) <= b.HalfExtents[1]
}

// Transformed returns the box enclosing b after transformation by m.
func (b AABB) Transformed(m mgl64.Mat4) AABB {
	c := m.Mul4x1(b.Center.Vec4(1)).Vec3()
	var h mgl64.Vec3
	for i := 0; i < 3; i++ {
		h[i] = math.Abs(m.At(i, 0))*b.HalfExtents[0] +
			math.Abs(m.At(i, 1))*b.HalfExtents[1] +
			math.Abs(m.At(i, 2))*b.HalfExtents[2]
	}
	return AABB{Center: c, HalfExtents: h}
}

// PositiveFarPoint returns the corner furthest along normal (the p-vertex).
func (b AABB) PositiveFarPoint(normal mgl64.Vec3) mgl64.Vec3 {
	min, max := b.Min(), b.Max()
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		if normal[i] >= 0 {
			p[i] = max[i]
		} else {
			p[i] = min[i]
		}
	}
	return p
}

// NegativeFarPoint returns the corner furthest against normal (the n-vertex).
func (b AABB) NegativeFarPoint(normal mgl64.Vec3) mgl64.Vec3 {
	min, max := b.Min(), b.Max()
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		if normal[i] >= 0 {
			p[i] = min[i]
		} else {
			p[i] = max[i]
		}
	}
	return p
}

// Expand returns b grown by d on every side of the x and y axes.
func (b AABB) Expand(d float64) AABB {
	if d <= 0 || b.IsEmpty() {
		return b
	}
	b.HalfExtents[0] += d
	b.HalfExtents[1] += d
	return b
}

// Rect projects b onto the xy plane.
func (b AABB) Rect() rtree.Rect {
	min, max := b.Min(), b.Max()
	return rtree.Rect{MinX: min[0], MinY: min[1], MaxX: max[0], MaxY: max[1]}
}

// sanitize turns any box with a NaN or Inf component into the empty box.
func sanitize(b AABB) AABB {
	if !b.IsFinite() {
		return AABB{}
	}
	return b
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
