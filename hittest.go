package arbor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HitAreas reports which parts of the node respond to picking under its
// pointer-events mode. The visible* modes (and auto) require the node and its
// ancestors to be visible; the painted modes require a non-none paint. Nodes
// culled by the last frame are not pickable until they change.
func (n *Node) HitAreas() (fill, stroke bool) {
	if !n.Interactive || n.destroyed || n.Kind == ShapeGroup {
		return false, false
	}
	if n.renderable.culled && !n.renderable.dirty {
		return false, false
	}
	pe := n.pointerEvents
	switch pe {
	case PointerEventsNone:
		return false, false
	case PointerEventsAuto, PointerEventsVisiblePainted, PointerEventsVisibleFill,
		PointerEventsVisibleStroke, PointerEventsVisible:
		if !n.IsVisible() {
			return false, false
		}
	}
	switch pe {
	case PointerEventsAuto, PointerEventsVisiblePainted, PointerEventsPainted:
		fill = !n.Style.Fill.IsNone()
		stroke = !n.Style.Stroke.IsNone() && n.Style.LineWidth > 0
	case PointerEventsVisibleFill, PointerEventsFill:
		fill = true
	case PointerEventsVisibleStroke, PointerEventsStroke:
		stroke = true
	case PointerEventsVisible, PointerEventsAll:
		fill, stroke = true, true
	}
	return fill, stroke
}

// HitTestPoint reports whether the canvas point p hits the node's own
// geometry, honoring its pointer-events mode. Children are not tested.
func (n *Node) HitTestPoint(p mgl64.Vec2) bool {
	fill, stroke := n.HitAreas()
	if !fill && !stroke {
		return false
	}
	local := n.WorldToLocal(p.Vec3(0))
	return n.containsLocal(local[0], local[1], fill, stroke)
}

// containsLocal tests the node's shape at a local-space point.
func (n *Node) containsLocal(x, y float64, fill, stroke bool) bool {
	hw := n.Style.LineWidth / 2
	if hw <= 0 {
		hw = 0.5
	}
	sh := &n.Shape
	switch n.Kind {
	case ShapeRect:
		inside := x >= 0 && x <= sh.Width && y >= 0 && y <= sh.Height
		if fill && inside {
			return true
		}
		if stroke {
			dx := math.Max(math.Max(-x, x-sh.Width), 0)
			dy := math.Max(math.Max(-y, y-sh.Height), 0)
			outside := math.Hypot(dx, dy)
			if !inside {
				return outside <= hw
			}
			edge := math.Min(math.Min(x, sh.Width-x), math.Min(y, sh.Height-y))
			return edge <= hw
		}
	case ShapeCircle:
		d := math.Hypot(x, y)
		r := math.Abs(sh.Radius)
		if fill && d <= r {
			return true
		}
		if stroke {
			return math.Abs(d-r) <= hw
		}
	case ShapeEllipse:
		rx, ry := math.Abs(sh.RX), math.Abs(sh.RY)
		if rx == 0 || ry == 0 {
			return false
		}
		k := math.Sqrt((x*x)/(rx*rx) + (y*y)/(ry*ry))
		if fill && k <= 1 {
			return true
		}
		if stroke {
			return math.Abs(k-1)*math.Min(rx, ry) <= hw
		}
	case ShapeLine:
		if stroke || fill {
			return distToSegment(x, y, sh.From, sh.To) <= hw
		}
	case ShapePolyline:
		if stroke {
			return nearPath(x, y, sh.Points, false, hw)
		}
	case ShapePolygon:
		if fill && pointInPolygon(x, y, sh.Points) {
			return true
		}
		if stroke {
			return nearPath(x, y, sh.Points, true, hw)
		}
	case ShapeCustom:
		return sh.Content.ContainsPoint2D(x, y)
	}
	return false
}

// pointInPolygon tests (x, y) against a simple or self-intersecting polygon
// with the even-odd rule.
func pointInPolygon(x, y float64, pts []mgl64.Vec2) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := pts[i][0], pts[i][1]
		xj, yj := pts[j][0], pts[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func nearPath(x, y float64, pts []mgl64.Vec2, closed bool, tolerance float64) bool {
	if len(pts) == 1 {
		return math.Hypot(x-pts[0][0], y-pts[0][1]) <= tolerance
	}
	for i := 1; i < len(pts); i++ {
		if distToSegment(x, y, pts[i-1], pts[i]) <= tolerance {
			return true
		}
	}
	if closed && len(pts) > 2 {
		return distToSegment(x, y, pts[len(pts)-1], pts[0]) <= tolerance
	}
	return false
}

func distToSegment(x, y float64, a, b mgl64.Vec2) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(x-a[0], y-a[1])
	}
	t := ((x-a[0])*dx + (y-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(x-(a[0]+t*dx), y-(a[1]+t*dy))
}
