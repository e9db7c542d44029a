package ebitenrender

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

// maxBatchVertices keeps indices within uint16 range with room for one more
// node's worth of vertices.
const maxBatchVertices = 60000

// maxPathPoints bounds the points tessellated for a single path.
const maxPathPoints = 4096

// batch is the coalesced vertex and index buffer for one draw call.
type batch struct {
	vertices []ebiten.Vertex
	indices  []uint16
	pts      []mgl64.Vec2
}

func (b *batch) reset() {
	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
}

func (b *batch) full() bool {
	return len(b.vertices) >= maxBatchVertices
}

// appendNode tessellates the node's fill and stroke. Group and custom nodes
// produce nothing; custom content is drawn by the application's own Render
// taps.
func (b *batch) appendNode(n *arbor.Node, geo ebiten.GeoM, segments int) {
	st := &n.Style
	fill := !st.Fill.IsNone()
	stroke := !st.Stroke.IsNone() && st.LineWidth > 0
	if !fill && !stroke {
		return
	}
	sh := &n.Shape
	closed := true
	switch n.Kind {
	case arbor.ShapeRect:
		b.pts = append(b.pts[:0],
			mgl64.Vec2{0, 0}, mgl64.Vec2{sh.Width, 0},
			mgl64.Vec2{sh.Width, sh.Height}, mgl64.Vec2{0, sh.Height})
	case arbor.ShapeCircle:
		b.pts = ellipsePoints(b.pts[:0], sh.Radius, sh.Radius, segments)
	case arbor.ShapeEllipse:
		b.pts = ellipsePoints(b.pts[:0], sh.RX, sh.RY, segments)
	case arbor.ShapeLine:
		b.pts = append(b.pts[:0], sh.From, sh.To)
		fill, closed = false, false
	case arbor.ShapePolyline:
		b.pts = append(b.pts[:0], sh.Points...)
		fill, closed = false, false
	case arbor.ShapePolygon:
		b.pts = append(b.pts[:0], sh.Points...)
	default:
		return
	}
	if len(b.pts) > maxPathPoints {
		arbor.Logger().Warn("path too long to draw", "node", n.Name, "points", len(b.pts))
		return
	}
	if fill {
		b.appendFan(b.pts, geo, st.Fill)
	}
	if stroke {
		b.appendStroke(b.pts, closed, st.LineWidth, geo, st.Stroke)
	}
}

// appendFan adds a fan triangulation of a convex path.
func (b *batch) appendFan(pts []mgl64.Vec2, geo ebiten.GeoM, c arbor.Color) {
	n := len(pts)
	if n < 3 {
		return
	}
	base := uint16(len(b.vertices))
	for _, p := range pts {
		b.appendVertex(geo, p[0], p[1], c)
	}
	for i := 1; i < n-1; i++ {
		b.indices = append(b.indices, base, base+uint16(i), base+uint16(i+1))
	}
}

// appendStroke adds one quad of the given width per path segment.
func (b *batch) appendStroke(pts []mgl64.Vec2, closed bool, width float64, geo ebiten.GeoM, c arbor.Color) {
	n := len(pts)
	if n < 2 {
		return
	}
	segs := n - 1
	if closed && n > 2 {
		segs = n
	}
	hw := width / 2
	for i := 0; i < segs; i++ {
		a, e := pts[i], pts[(i+1)%n]
		d := e.Sub(a)
		l := d.Len()
		if l == 0 {
			continue
		}
		nx, ny := -d[1]/l*hw, d[0]/l*hw
		base := uint16(len(b.vertices))
		b.appendVertex(geo, a[0]+nx, a[1]+ny, c)
		b.appendVertex(geo, e[0]+nx, e[1]+ny, c)
		b.appendVertex(geo, e[0]-nx, e[1]-ny, c)
		b.appendVertex(geo, a[0]-nx, a[1]-ny, c)
		b.indices = append(b.indices, base, base+1, base+2, base, base+2, base+3)
	}
}

func (b *batch) appendVertex(geo ebiten.GeoM, x, y float64, c arbor.Color) {
	dx, dy := geo.Apply(x, y)
	b.vertices = append(b.vertices, ebiten.Vertex{
		DstX:   float32(dx),
		DstY:   float32(dy),
		SrcX:   0.5,
		SrcY:   0.5,
		ColorR: float32(c.R),
		ColorG: float32(c.G),
		ColorB: float32(c.B),
		ColorA: float32(c.A),
	})
}

// ellipsePoints appends segments points around the local origin.
func ellipsePoints(dst []mgl64.Vec2, rx, ry float64, segments int) []mgl64.Vec2 {
	if segments < 3 {
		segments = 3
	}
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		dst = append(dst, mgl64.Vec2{rx * math.Cos(a), ry * math.Sin(a)})
	}
	return dst
}

// nodeGeoM maps node-local coordinates to viewport pixels. The mapping is
// exact for orthographic cameras and the local-plane affine approximation
// for perspective ones.
func nodeGeoM(cam *arbor.Camera, world mgl64.Mat4) ebiten.GeoM {
	o := project(cam, world, 0, 0)
	ex := project(cam, world, 1, 0).Sub(o)
	ey := project(cam, world, 0, 1).Sub(o)
	var g ebiten.GeoM
	g.SetElement(0, 0, ex[0])
	g.SetElement(1, 0, ex[1])
	g.SetElement(0, 1, ey[0])
	g.SetElement(1, 1, ey[1])
	g.SetElement(0, 2, o[0])
	g.SetElement(1, 2, o[1])
	return g
}

func project(cam *arbor.Camera, world mgl64.Mat4, x, y float64) mgl64.Vec2 {
	p := world.Mul4x1(mgl64.Vec4{x, y, 0, 1})
	return cam.CanvasToViewport(p.Vec3())
}
