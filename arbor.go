package arbor

import "github.com/go-gl/mathgl/mgl64"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is opaque white.
var ColorWhite = Color{1, 1, 1, 1}

// ColorNone is fully transparent. A fill or stroke of ColorNone is treated as
// unpainted by pointer-events resolution.
var ColorNone = Color{}

// IsNone reports whether the color paints nothing.
func (c Color) IsNone() bool {
	return c.A == 0
}

// ShapeKind is the closed set of bounding-geometry kinds a Node can carry.
// Rasterization is left to the renderer plugin; the core only needs enough
// geometry to compute bounds and to hit test.
type ShapeKind uint8

const (
	ShapeGroup    ShapeKind = iota // no geometry of its own
	ShapeRect                      // Width x Height from the local origin
	ShapeCircle                    // Radius around the local origin
	ShapeEllipse                   // RX, RY around the local origin
	ShapeLine                      // segment From..To
	ShapePolyline                  // open path through Points
	ShapePolygon                   // closed path through Points
	ShapeCustom                    // caller-supplied Content bounds (text, images)
)

var shapeKindNames = [...]string{"group", "rect", "circle", "ellipse", "line", "polyline", "polygon", "custom"}

func (k ShapeKind) String() string {
	if int(k) < len(shapeKindNames) {
		return shapeKindNames[k]
	}
	return "unknown"
}

// Visibility controls whether a node is drawn and whether visible* pointer
// events apply to it.
type Visibility uint8

const (
	Visible Visibility = iota
	Hidden
)

// PointerEvents selects which parts of a node respond to picking.
type PointerEvents uint8

const (
	PointerEventsAuto           PointerEvents = iota // same as visiblepainted
	PointerEventsNone                                // never the target of pointer events
	PointerEventsVisiblePainted                      // painted fill/stroke, only while visible
	PointerEventsVisibleFill                         // fill area, only while visible
	PointerEventsVisibleStroke                       // stroke area, only while visible
	PointerEventsVisible                             // fill and stroke, only while visible
	PointerEventsPainted                             // painted fill/stroke regardless of visibility
	PointerEventsFill                                // fill area regardless of visibility
	PointerEventsStroke                              // stroke area regardless of visibility
	PointerEventsAll                                 // fill and stroke regardless of visibility
)

// RenderReason records why a frame needs to be produced.
type RenderReason uint8

const (
	RenderReasonCameraChanged RenderReason = 1 << iota
	RenderReasonDisplayObjectChanged
	RenderReasonRequested
)

// SortReason records why a node's cached child order is stale.
type SortReason uint8

const (
	SortNone SortReason = iota
	SortAdded
	SortRemoved
	SortZIndexChanged
)

// KeyModifiers is a bitmask of keyboard modifier keys.
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// Shape holds the geometry parameters for a node. Only the fields relevant to
// the node's ShapeKind are read.
type Shape struct {
	Width, Height float64      // ShapeRect
	Radius        float64      // ShapeCircle
	RX, RY        float64      // ShapeEllipse
	From, To      mgl64.Vec2   // ShapeLine
	Points        []mgl64.Vec2 // ShapePolyline, ShapePolygon
	Content       AABB         // ShapeCustom
}

// Style holds the presentation attributes that affect bounds and picking.
type Style struct {
	Fill          Color
	Stroke        Color
	LineWidth     float64
	ShadowBlur    float64
	ShadowOffset  mgl64.Vec2
	FilterPadding float64
}
