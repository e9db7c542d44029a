package arbor

import (
	"context"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/phanxgames/arbor/rtree"
)

// PickResult is threaded through the PickSync and Pick hooks.
type PickResult struct {
	// Position is the canvas point being picked.
	Position mgl64.Vec2
	// Topmost asks for the single topmost node only.
	Topmost bool
	// Picked holds the hits, topmost first.
	Picked []*Node
	// Exact is set by a tap that resolved the pick with exact geometry tests.
	// When no tap sets it the scene falls back to a bounds query.
	Exact bool
}

// HitTest returns the topmost pickable node under the viewport point v, or
// nil when v lies outside the viewport or nothing is hit.
func (s *Scene) HitTest(v mgl64.Vec2) *Node {
	if !s.inViewport(v) {
		return nil
	}
	picked := s.pick(s.ViewportToCanvas(v), true)
	if len(picked) == 0 {
		return nil
	}
	return picked[0]
}

// ElementFromPoint returns the topmost pickable node at the canvas point
// (x, y), or nil.
func (s *Scene) ElementFromPoint(x, y float64) *Node {
	picked := s.pick(mgl64.Vec2{x, y}, true)
	if len(picked) == 0 {
		return nil
	}
	return picked[0]
}

// ElementsFromPoint returns every pickable node at the canvas point (x, y),
// topmost first.
func (s *Scene) ElementsFromPoint(x, y float64) []*Node {
	return s.pick(mgl64.Vec2{x, y}, false)
}

// ElementsFromBBox returns the pickable nodes whose render bounds intersect
// the canvas rectangle, topmost first.
func (s *Scene) ElementsFromBBox(minX, minY, maxX, maxY float64) []*Node {
	nodes := s.searchSpatial(rtree.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY})
	nodes = slices.DeleteFunc(nodes, func(n *Node) bool {
		fill, stroke := n.HitAreas()
		return !fill && !stroke
	})
	sortTopmostFirst(nodes)
	return nodes
}

// PickAsync runs the asynchronous Pick hook for the canvas point pos. Without
// an exact tap it returns the same nodes as ElementsFromPoint.
func (s *Scene) PickAsync(ctx context.Context, pos mgl64.Vec2, topmost bool) ([]*Node, error) {
	SyncHierarchy(s.root)
	s.syncSpatialIndex()
	res, err := s.hooks.Pick.Call(ctx, &PickResult{Position: pos, Topmost: topmost})
	if err != nil {
		return nil, err
	}
	if res == nil || !res.Exact {
		return s.pickByBounds(pos, topmost), nil
	}
	return res.Picked, nil
}

func (s *Scene) pick(pos mgl64.Vec2, topmost bool) []*Node {
	if s.destroyed || !finite(pos[0]) || !finite(pos[1]) {
		return nil
	}
	SyncHierarchy(s.root)
	s.syncSpatialIndex()
	res := s.hooks.PickSync.Call(&PickResult{Position: pos, Topmost: topmost})
	if res == nil || !res.Exact {
		return s.pickByBounds(pos, topmost)
	}
	return res.Picked
}

// pickByBounds queries the spatial index at pos and keeps the nodes whose own
// bounds contain it: content bounds for fill hits, render bounds for stroke
// hits.
func (s *Scene) pickByBounds(pos mgl64.Vec2, topmost bool) []*Node {
	entries := s.spatial.Search(rtree.Rect{MinX: pos[0], MinY: pos[1], MaxX: pos[0], MaxY: pos[1]})
	var out []*Node
	for _, e := range entries {
		n := e.Item
		fill, stroke := n.HitAreas()
		switch {
		case fill && n.GeometryBounds(false).ContainsPoint2D(pos[0], pos[1]):
		case stroke && n.GeometryBounds(true).ContainsPoint2D(pos[0], pos[1]):
		default:
			continue
		}
		out = append(out, n)
	}
	sortTopmostFirst(out)
	if topmost && len(out) > 1 {
		out = out[:1]
	}
	return out
}

// PickExact is a PickSync tap body for renderers: it narrows the bounds
// query at res.Position with exact shape tests and marks the result exact.
func (s *Scene) PickExact(res *PickResult) *PickResult {
	if res == nil || res.Exact {
		return res
	}
	pos := res.Position
	r := rtree.Rect{MinX: pos[0], MinY: pos[1], MaxX: pos[0], MaxY: pos[1]}
	res.Picked = res.Picked[:0]
	for _, e := range s.spatial.Search(r) {
		if e.Item.HitTestPoint(pos) {
			res.Picked = append(res.Picked, e.Item)
		}
	}
	sortTopmostFirst(res.Picked)
	if res.Topmost && len(res.Picked) > 1 {
		res.Picked = res.Picked[:1]
	}
	res.Exact = true
	return res
}

func sortTopmostFirst(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return comparePaintOrder(b, a)
	})
}
