package arbor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Projection selects the camera's projection model.
type Projection uint8

const (
	ProjectionOrthographic Projection = iota
	ProjectionPerspective
)

// CameraType selects how camera motion is interpreted.
type CameraType uint8

const (
	CameraOrbiting  CameraType = iota // moves around the focal point
	CameraExploring                   // free look around the focal point
	CameraTracking                    // follows a target with a TrackingMode
)

var cameraTypeNames = [...]string{"orbiting", "exploring", "tracking"}

func (t CameraType) String() string {
	if int(t) < len(cameraTypeNames) {
		return cameraTypeNames[t]
	}
	return "unknown"
}

// TrackingMode refines a CameraTracking camera.
type TrackingMode uint8

const (
	TrackingDefault TrackingMode = iota
	TrackingRotational
	TrackingTranslational
	TrackingCinematic
)

// scrollAnim holds active scroll-to tweens for the camera focal point.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera produces the view and projection used for culling and for converting
// between viewport pixels and canvas (world) coordinates. Canvas coordinates
// have y increasing downward.
type Camera struct {
	projection   Projection
	cameraType   CameraType
	trackingMode TrackingMode

	width, height float64
	zoom          float64
	fov           float64 // vertical, degrees
	near, far     float64

	position   mgl64.Vec3
	focalPoint mgl64.Vec3

	projMatrix mgl64.Mat4
	viewMatrix mgl64.Mat4
	vpMatrix   mgl64.Mat4
	frustum    Frustum
	dirty      bool

	listeners tapList[func(*Camera)]

	scrollTween *scrollAnim
}

const (
	defaultCameraDistance = 500
	defaultCameraNear     = 0.1
	defaultCameraFar      = 1000
)

// NewOrthographicCamera creates a 2D camera whose canvas coordinates match
// viewport pixels at zoom 1.
func NewOrthographicCamera(width, height float64) *Camera {
	c := &Camera{
		projection: ProjectionOrthographic,
		cameraType: CameraExploring,
		width:      width,
		height:     height,
		zoom:       1,
		fov:        45,
		near:       defaultCameraNear,
		far:        defaultCameraFar,
		dirty:      true,
	}
	c.focalPoint = mgl64.Vec3{width / 2, height / 2, 0}
	c.position = c.focalPoint.Add(mgl64.Vec3{0, 0, defaultCameraDistance})
	return c
}

// NewPerspectiveCamera creates a 3D camera placed so that the z=0 plane fills
// the viewport exactly at zoom 1.
func NewPerspectiveCamera(width, height, fovDegrees float64) *Camera {
	d := (height / 2) / math.Tan(mgl64.DegToRad(fovDegrees)/2)
	c := &Camera{
		projection: ProjectionPerspective,
		cameraType: CameraExploring,
		width:      width,
		height:     height,
		zoom:       1,
		fov:        fovDegrees,
		near:       defaultCameraNear,
		far:        d * 10,
		dirty:      true,
	}
	c.focalPoint = mgl64.Vec3{width / 2, height / 2, 0}
	c.position = c.focalPoint.Add(mgl64.Vec3{0, 0, d})
	return c
}

// OnUpdated registers fn to run whenever the camera changes.
func (c *Camera) OnUpdated(fn func(*Camera)) ListenerHandle {
	return c.listeners.add("", fn)
}

func (c *Camera) markDirty() {
	c.dirty = true
	for _, t := range c.listeners.taps {
		t.fn(c)
	}
}

// --- Accessors & setters ---

// Projection returns the projection model.
func (c *Camera) Projection() Projection { return c.projection }

// Type returns the camera type.
func (c *Camera) Type() CameraType { return c.cameraType }

// SetType changes the camera type. Leaving CameraTracking resets the
// tracking mode.
func (c *Camera) SetType(t CameraType) {
	if c.cameraType == t {
		return
	}
	c.cameraType = t
	if t != CameraTracking {
		c.trackingMode = TrackingDefault
	}
	c.markDirty()
}

// TrackingMode returns the tracking mode.
func (c *Camera) TrackingMode() TrackingMode { return c.trackingMode }

// SetTrackingMode sets the tracking mode. Only tracking cameras accept one.
func (c *Camera) SetTrackingMode(mode TrackingMode) error {
	if c.cameraType != CameraTracking {
		return fmt.Errorf("%w (camera type is %s)", ErrInvalidTrackingMode, c.cameraType)
	}
	c.trackingMode = mode
	c.markDirty()
	return nil
}

// Position returns the eye position.
func (c *Camera) Position() mgl64.Vec3 { return c.position }

// SetPosition moves the eye, keeping the focal point.
func (c *Camera) SetPosition(x, y, z float64) {
	c.position = mgl64.Vec3{x, y, z}
	c.markDirty()
}

// FocalPoint returns the point the camera looks at.
func (c *Camera) FocalPoint() mgl64.Vec3 { return c.focalPoint }

// SetFocalPoint changes the point the camera looks at, keeping the eye.
func (c *Camera) SetFocalPoint(x, y, z float64) {
	c.focalPoint = mgl64.Vec3{x, y, z}
	c.markDirty()
}

// Pan moves eye and focal point together by (dx, dy) canvas units.
func (c *Camera) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	d := mgl64.Vec3{dx, dy, 0}
	c.position = c.position.Add(d)
	c.focalPoint = c.focalPoint.Add(d)
	c.markDirty()
}

// LookAt centers the view on canvas point (x, y).
func (c *Camera) LookAt(x, y float64) {
	c.Pan(x-c.focalPoint[0], y-c.focalPoint[1])
}

// Zoom returns the zoom factor (1 = no zoom, >1 = zoom in).
func (c *Camera) Zoom() float64 { return c.zoom }

// SetZoom sets the zoom factor. Non-positive values are ignored.
func (c *Camera) SetZoom(z float64) {
	if z <= 0 || z == c.zoom {
		return
	}
	c.zoom = z
	c.markDirty()
}

// Viewport returns the viewport size in pixels.
func (c *Camera) Viewport() (width, height float64) { return c.width, c.height }

// SetViewport changes the viewport size in pixels.
func (c *Camera) SetViewport(width, height float64) {
	if c.width == width && c.height == height {
		return
	}
	c.width, c.height = width, height
	c.markDirty()
}

// SetNearFar sets the clipping planes.
func (c *Camera) SetNearFar(near, far float64) {
	c.near, c.far = near, far
	c.markDirty()
}

// --- Matrices ---

func (c *Camera) update() {
	if !c.dirty {
		return
	}
	c.viewMatrix = mgl64.LookAtV(c.position, c.focalPoint, mgl64.Vec3{0, 1, 0})
	// Canvas y grows downward, so clip-space y is flipped.
	flipY := mgl64.Scale3D(1, -1, 1)
	switch c.projection {
	case ProjectionPerspective:
		fovy := 2 * math.Atan(math.Tan(mgl64.DegToRad(c.fov)/2)/c.zoom)
		aspect := 1.0
		if c.height != 0 {
			aspect = c.width / c.height
		}
		c.projMatrix = flipY.Mul4(mgl64.Perspective(fovy, aspect, c.near, c.far))
	default:
		hw := c.width / 2 / c.zoom
		hh := c.height / 2 / c.zoom
		c.projMatrix = flipY.Mul4(mgl64.Ortho(-hw, hw, -hh, hh, c.near, c.far))
	}
	c.vpMatrix = c.projMatrix.Mul4(c.viewMatrix)
	c.frustum = FrustumFromMatrix(c.vpMatrix)
	c.dirty = false
}

// ViewMatrix returns the world-to-view matrix.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	c.update()
	return c.viewMatrix
}

// ProjectionMatrix returns the view-to-clip matrix.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	c.update()
	return c.projMatrix
}

// ViewProjectionMatrix returns the world-to-clip matrix.
func (c *Camera) ViewProjectionMatrix() mgl64.Mat4 {
	c.update()
	return c.vpMatrix
}

// Frustum returns the world-space view frustum.
func (c *Camera) Frustum() Frustum {
	c.update()
	return c.frustum
}

// --- Coordinate conversion ---

// CanvasToViewport projects a canvas point to viewport pixels.
func (c *Camera) CanvasToViewport(p mgl64.Vec3) mgl64.Vec2 {
	clip := c.ViewProjectionMatrix().Mul4x1(p.Vec4(1))
	if clip[3] == 0 {
		return mgl64.Vec2{}
	}
	nx, ny := clip[0]/clip[3], clip[1]/clip[3]
	return mgl64.Vec2{(nx + 1) / 2 * c.width, (1 - ny) / 2 * c.height}
}

// ViewportToCanvas unprojects viewport pixels onto the z=0 canvas plane.
func (c *Camera) ViewportToCanvas(v mgl64.Vec2) mgl64.Vec3 {
	if c.width == 0 || c.height == 0 {
		return mgl64.Vec3{}
	}
	inv := c.ViewProjectionMatrix().Inv()
	nx := 2*v[0]/c.width - 1
	ny := 1 - 2*v[1]/c.height
	pn := unproject(inv, nx, ny, -1)
	pf := unproject(inv, nx, ny, 1)
	dz := pf[2] - pn[2]
	if dz == 0 {
		return mgl64.Vec3{pn[0], pn[1], 0}
	}
	t := -pn[2] / dz
	return pn.Add(pf.Sub(pn).Mul(t))
}

func unproject(inv mgl64.Mat4, x, y, z float64) mgl64.Vec3 {
	p := inv.Mul4x1(mgl64.Vec4{x, y, z, 1})
	if p[3] == 0 {
		return p.Vec3()
	}
	return p.Vec3().Mul(1 / p[3])
}

// --- Animation ---

// ScrollTo animates the focal point (and eye) to canvas point (x, y) over
// duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.focalPoint[0]), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.focalPoint[1]), float32(y), duration, easeFn),
	}
}

// IsScrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) IsScrolling() bool {
	return c.scrollTween != nil
}

// StopScroll cancels a ScrollTo animation, leaving the camera where it is.
func (c *Camera) StopScroll() {
	c.scrollTween = nil
}

// advance steps the scroll animation. Called from Scene.Tick.
func (c *Camera) advance(dt float32) {
	st := c.scrollTween
	if st == nil {
		return
	}
	x, y := c.focalPoint[0], c.focalPoint[1]
	if !st.doneX {
		v, done := st.tweenX.Update(dt)
		x = float64(v)
		st.doneX = done
	}
	if !st.doneY {
		v, done := st.tweenY.Update(dt)
		y = float64(v)
		st.doneY = done
	}
	c.LookAt(x, y)
	if st.doneX && st.doneY {
		c.scrollTween = nil
	}
}

// --- Frustum ---

// Plane is n·p + d = 0 with a unit normal pointing into the frustum.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

// DistanceToPoint returns the signed distance from the plane to p.
func (p Plane) DistanceToPoint(v mgl64.Vec3) float64 {
	return p.Normal.Dot(v) + p.Distance
}

// Frustum is six inward-facing planes: left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the clip planes of a view-projection matrix.
func FrustumFromMatrix(m mgl64.Mat4) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	var f Frustum
	rows := [6]mgl64.Vec4{
		r3.Add(r0), r3.Sub(r0),
		r3.Add(r1), r3.Sub(r1),
		r3.Add(r2), r3.Sub(r2),
	}
	for i, r := range rows {
		n := r.Vec3()
		l := n.Len()
		if l == 0 {
			continue
		}
		f.Planes[i] = Plane{Normal: n.Mul(1 / l), Distance: r[3] / l}
	}
	return f
}

// ContainsPoint reports whether p is inside or on every plane.
func (f Frustum) ContainsPoint(p mgl64.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsAABB reports whether b is at least partly inside the frustum. A
// box is rejected only when its p-vertex lies behind some plane.
func (f Frustum) IntersectsAABB(b AABB) bool {
	for _, pl := range f.Planes {
		if pl.DistanceToPoint(b.PositiveFarPoint(pl.Normal)) < 0 {
			return false
		}
	}
	return true
}
