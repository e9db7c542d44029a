package arbor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// geometry holds the node's local-space bounds derived from its Shape.
type geometry struct {
	contentBounds AABB // geometry only
	renderBounds  AABB // plus stroke, shadow and filter extents
}

// renderable holds world-space bounds caches and draw bookkeeping.
//
// bounds and renderBounds include every descendant and are only valid while
// the matching dirty flag is false.
type renderable struct {
	bounds            AABB
	renderBounds      AABB
	boundsDirty       bool
	renderBoundsDirty bool
	dirty             bool
	culled            bool

	indexed bool
	entry   rtreeEntry
}

// updateGeometry recomputes local content and render bounds from the shape
// and style. Non-finite results collapse to empty bounds.
func updateGeometry(n *Node) {
	content := shapeBounds(n.Kind, &n.Shape)
	content = sanitize(content)
	n.geometry.contentBounds = content

	extra := 0.0
	if !n.Style.Stroke.IsNone() && n.Style.LineWidth > 0 {
		extra += n.Style.LineWidth / 2
	}
	extra += n.Style.FilterPadding
	render := content.Expand(extra)
	if n.Style.ShadowBlur > 0 || n.Style.ShadowOffset != (mgl64.Vec2{}) {
		shadow := render.Expand(n.Style.ShadowBlur)
		shadow.Center[0] += n.Style.ShadowOffset[0]
		shadow.Center[1] += n.Style.ShadowOffset[1]
		render = render.Add(shadow)
	}
	n.geometry.renderBounds = sanitize(render)
}

func shapeBounds(kind ShapeKind, s *Shape) AABB {
	switch kind {
	case ShapeRect:
		return NewAABB(mgl64.Vec3{}, mgl64.Vec3{s.Width, s.Height, 0})
	case ShapeCircle:
		r := math.Abs(s.Radius)
		return AABB{HalfExtents: mgl64.Vec3{r, r, 0}}
	case ShapeEllipse:
		return AABB{HalfExtents: mgl64.Vec3{math.Abs(s.RX), math.Abs(s.RY), 0}}
	case ShapeLine:
		return NewAABB(s.From.Vec3(0), s.To.Vec3(0))
	case ShapePolyline, ShapePolygon:
		return pointsBounds(s.Points)
	case ShapeCustom:
		return s.Content
	}
	return AABB{}
}

func pointsBounds(points []mgl64.Vec2) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p[0])
		minY = math.Min(minY, p[1])
		maxX = math.Max(maxX, p[0])
		maxY = math.Max(maxY, p[1])
	}
	return NewAABB(mgl64.Vec3{minX, minY, 0}, mgl64.Vec3{maxX, maxY, 0})
}

// ContentBounds returns the local-space bounds of the node's own geometry.
func (n *Node) ContentBounds() AABB {
	return n.geometry.contentBounds
}

// LocalRenderBounds returns the local-space bounds of the node's own geometry
// including stroke, shadow and filter extents.
func (n *Node) LocalRenderBounds() AABB {
	return n.geometry.renderBounds
}

// GeometryBounds returns the world-space bounds of the node's own geometry,
// excluding children.
func (n *Node) GeometryBounds(render bool) AABB {
	local := n.geometry.contentBounds
	if render {
		local = n.geometry.renderBounds
	}
	if local.IsEmpty() {
		return AABB{}
	}
	return sanitize(local.Transformed(n.WorldTransform()))
}

// Bounds returns the world-space bounds of the node and all of its
// descendants. With render set, stroke, shadow and filter extents are
// included. Results are cached until a transform or geometry change
// invalidates them.
func (n *Node) Bounds(render bool) AABB {
	r := &n.renderable
	if render && !r.renderBoundsDirty {
		return r.renderBounds
	}
	if !render && !r.boundsDirty {
		return r.bounds
	}
	b := n.GeometryBounds(render)
	for _, c := range n.children {
		b = b.Add(c.Bounds(render))
	}
	if render {
		r.renderBounds = b
		r.renderBoundsDirty = false
	} else {
		r.bounds = b
		r.boundsDirty = false
	}
	return b
}

// --- Shape helpers ---

// SetSize sets Width and Height of a rect node.
func (n *Node) SetSize(width, height float64) {
	n.Shape.Width = width
	n.Shape.Height = height
	UpdateGeometry(n)
}

// SetRadius sets the radius of a circle node.
func (n *Node) SetRadius(r float64) {
	n.Shape.Radius = r
	UpdateGeometry(n)
}

// SetPoints replaces the points of a polyline or polygon node.
func (n *Node) SetPoints(points []mgl64.Vec2) {
	n.Shape.Points = points
	UpdateGeometry(n)
}

// SetStyle replaces the node's style.
func (n *Node) SetStyle(s Style) {
	n.Style = s
	UpdateGeometry(n)
}
