package arbor

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

func assertVec2(t *testing.T, name string, got, want mgl64.Vec2) {
	t.Helper()
	if abs(got[0]-want[0]) > 1e-6 || abs(got[1]-want[1]) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestOrthographicCameraDefaults(t *testing.T) {
	c := NewOrthographicCamera(200, 100)
	if c.Projection() != ProjectionOrthographic {
		t.Errorf("Projection = %v, want orthographic", c.Projection())
	}
	if c.Type() != CameraExploring {
		t.Errorf("Type = %v, want exploring", c.Type())
	}
	if c.Zoom() != 1 {
		t.Errorf("Zoom = %v, want 1", c.Zoom())
	}
	assertVec3(t, "FocalPoint", c.FocalPoint(), mgl64.Vec3{100, 50, 0})
	if w, h := c.Viewport(); w != 200 || h != 100 {
		t.Errorf("Viewport = %v x %v, want 200 x 100", w, h)
	}
}

func TestOrthographicCameraRoundTrip(t *testing.T) {
	c := NewOrthographicCamera(200, 100)
	points := []mgl64.Vec2{{0, 0}, {30, 40}, {200, 100}, {199.5, 0.25}}
	for _, v := range points {
		p := c.ViewportToCanvas(v)
		assertVec2(t, "canvas", p.Vec2(), v)
		assertVec2(t, "viewport", c.CanvasToViewport(p), v)
	}
}

func TestOrthographicCameraZoom(t *testing.T) {
	c := NewOrthographicCamera(200, 100)
	c.SetZoom(2)
	assertVec2(t, "top-left", c.ViewportToCanvas(mgl64.Vec2{0, 0}).Vec2(), mgl64.Vec2{50, 25})
	assertVec2(t, "center", c.ViewportToCanvas(mgl64.Vec2{100, 50}).Vec2(), mgl64.Vec2{100, 50})
	assertVec2(t, "bottom-right", c.ViewportToCanvas(mgl64.Vec2{200, 100}).Vec2(), mgl64.Vec2{150, 75})

	c.SetZoom(0)
	c.SetZoom(-3)
	if c.Zoom() != 2 {
		t.Errorf("non-positive zoom changed Zoom to %v", c.Zoom())
	}
}

func TestOrthographicCameraPan(t *testing.T) {
	c := NewOrthographicCamera(200, 100)
	c.Pan(100, -20)
	assertVec2(t, "origin", c.ViewportToCanvas(mgl64.Vec2{0, 0}).Vec2(), mgl64.Vec2{100, -20})
	assertVec3(t, "Position", c.Position(), mgl64.Vec3{200, 30, 500})

	c.LookAt(0, 0)
	assertVec3(t, "FocalPoint", c.FocalPoint(), mgl64.Vec3{0, 0, 0})
	assertVec2(t, "center", c.CanvasToViewport(mgl64.Vec3{}), mgl64.Vec2{100, 50})
}

func TestPerspectiveCameraFillsViewport(t *testing.T) {
	c := NewPerspectiveCamera(200, 100, 45)
	if c.Projection() != ProjectionPerspective {
		t.Fatalf("Projection = %v, want perspective", c.Projection())
	}
	corners := []mgl64.Vec2{{0, 0}, {200, 100}, {200, 0}, {100, 50}}
	for _, v := range corners {
		assertVec2(t, "canvas", c.ViewportToCanvas(v).Vec2(), v)
		assertVec2(t, "viewport", c.CanvasToViewport(v.Vec3(0)), v)
	}
}

func TestCameraTrackingMode(t *testing.T) {
	c := NewOrthographicCamera(100, 100)
	err := c.SetTrackingMode(TrackingCinematic)
	if !errors.Is(err, ErrInvalidTrackingMode) {
		t.Fatalf("err = %v, want ErrInvalidTrackingMode", err)
	}

	c.SetType(CameraTracking)
	if err := c.SetTrackingMode(TrackingCinematic); err != nil {
		t.Fatalf("SetTrackingMode on tracking camera: %v", err)
	}
	if c.TrackingMode() != TrackingCinematic {
		t.Errorf("TrackingMode = %v, want cinematic", c.TrackingMode())
	}

	c.SetType(CameraOrbiting)
	if c.TrackingMode() != TrackingDefault {
		t.Errorf("leaving tracking should reset the mode, got %v", c.TrackingMode())
	}
}

func TestCameraTypeString(t *testing.T) {
	tests := []struct {
		typ  CameraType
		want string
	}{
		{CameraOrbiting, "orbiting"},
		{CameraExploring, "exploring"},
		{CameraTracking, "tracking"},
		{CameraType(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCameraOnUpdated(t *testing.T) {
	c := NewOrthographicCamera(100, 100)
	calls := 0
	h := c.OnUpdated(func(got *Camera) {
		if got != c {
			t.Error("listener received another camera")
		}
		calls++
	})
	c.Pan(1, 0)
	c.SetZoom(2)
	c.SetZoom(2)
	c.SetViewport(100, 100)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	h.Remove()
	c.Pan(1, 0)
	if calls != 2 {
		t.Errorf("removed listener still called, calls = %d", calls)
	}
}

func TestCameraScrollTo(t *testing.T) {
	s, _ := newTestScene(t)
	c := s.Camera()
	c.ScrollTo(300, 100, 1, ease.Linear)
	if !c.IsScrolling() {
		t.Fatal("IsScrolling should be true")
	}

	s.Tick(0.5)
	assertVec3(t, "halfway", c.FocalPoint(), mgl64.Vec3{200, 100, 0})
	s.Tick(0.5)
	assertVec3(t, "done", c.FocalPoint(), mgl64.Vec3{300, 100, 0})
	if c.IsScrolling() {
		t.Error("scroll should be finished")
	}

	c.ScrollTo(0, 0, 1, ease.Linear)
	c.StopScroll()
	s.Tick(0.5)
	assertVec3(t, "stopped", c.FocalPoint(), mgl64.Vec3{300, 100, 0})
}

func TestCameraFrustum(t *testing.T) {
	c := NewOrthographicCamera(200, 100)
	f := c.Frustum()
	if !f.ContainsPoint(mgl64.Vec3{100, 50, 0}) {
		t.Error("center should be inside the frustum")
	}
	if f.ContainsPoint(mgl64.Vec3{-10, 50, 0}) || f.ContainsPoint(mgl64.Vec3{100, 110, 0}) {
		t.Error("points beyond the viewport should be outside")
	}
	if !f.IntersectsAABB(NewAABB(mgl64.Vec3{-10, -10, 0}, mgl64.Vec3{5, 5, 0})) {
		t.Error("box overlapping the corner should intersect")
	}
	if f.IntersectsAABB(NewAABB(mgl64.Vec3{300, 0, 0}, mgl64.Vec3{310, 10, 0})) {
		t.Error("box to the right should not intersect")
	}
}

func TestSetCameraSwapsListener(t *testing.T) {
	s, r := newTestScene(t)
	s.Render(DefaultRenderConfig)
	old := s.Camera()

	next := NewOrthographicCamera(200, 200)
	s.SetCamera(next)
	if s.Camera() != next {
		t.Fatal("SetCamera did not replace the camera")
	}
	s.Render(DefaultRenderConfig)
	if r.frames != 2 {
		t.Fatalf("SetCamera should trigger a frame, frames = %d", r.frames)
	}

	old.Pan(10, 0)
	s.Render(DefaultRenderConfig)
	if r.frames != 2 {
		t.Error("the old camera should no longer trigger frames")
	}
	next.Pan(10, 0)
	s.Render(DefaultRenderConfig)
	if r.frames != 3 {
		t.Error("the new camera should trigger frames")
	}

	s.SetCamera(nil)
	if s.Camera() != next {
		t.Error("SetCamera(nil) should be ignored")
	}
}
