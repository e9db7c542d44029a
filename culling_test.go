package arbor

import (
	"testing"
)

func TestCullOffscreen(t *testing.T) {
	s, r := newTestScene(t)
	off := NewRect("off", 10, 10)
	off.SetLocalPosition(500, 500, 0)
	edge := NewRect("edge", 10, 10)
	edge.SetLocalPosition(195, 195, 0)
	s.Root().AppendChild(off)
	s.Root().AppendChild(edge)

	s.Render(DefaultRenderConfig)
	if got := renderedNames(r); got != "root,edge" {
		t.Errorf("rendered = %s, want root,edge", got)
	}
	if !off.Culled() {
		t.Error("off should be culled")
	}
	if edge.Culled() {
		t.Error("partially visible edge should not be culled")
	}
	if st := s.Rendering().Stats(); st.Culled != 1 || st.Total != 3 {
		t.Errorf("stats = %+v, want 1 culled of 3", st)
	}
}

func TestCullIdempotent(t *testing.T) {
	s, r := newTestScene(t)
	off := NewRect("off", 10, 10)
	off.SetLocalPosition(500, 500, 0)
	s.Root().AppendChild(off)
	s.Root().AppendChild(NewRect("on", 10, 10))

	cfg := DefaultRenderConfig
	cfg.DisableDirtyRectangles = true
	s.Render(cfg)
	first := renderedNames(r)
	s.RequestRender()
	s.Render(cfg)
	if got := renderedNames(r); got != first {
		t.Errorf("second frame rendered %s, first rendered %s", got, first)
	}
	if !off.Culled() {
		t.Error("off should stay culled")
	}
	if st := s.Rendering().Stats(); st.Culled != 1 {
		t.Errorf("Culled = %d, want 1", st.Culled)
	}
}

func TestCullDisabled(t *testing.T) {
	s, r := newTestScene(t)
	off := NewRect("off", 10, 10)
	off.SetLocalPosition(500, 500, 0)
	s.Root().AppendChild(off)

	cfg := DefaultRenderConfig
	cfg.EnableCulling = false
	s.Render(cfg)
	if got := renderedNames(r); got != "root,off" {
		t.Errorf("rendered = %s, want root,off", got)
	}
	if off.Culled() {
		t.Error("Culled should be false with culling disabled")
	}
}

func TestCullGroupsNeverCulled(t *testing.T) {
	s, r := newTestScene(t)
	g := NewGroup("g")
	g.SetLocalPosition(500, 500, 0)
	g.AppendChild(NewRect("child", 10, 10))
	s.Root().AppendChild(g)

	s.Render(DefaultRenderConfig)
	if got := renderedNames(r); got != "root,g" {
		t.Errorf("rendered = %s, want root,g", got)
	}
}

func TestCullPanickingTapKeepsNode(t *testing.T) {
	s, r := newTestScene(t)
	off := NewRect("off", 10, 10)
	off.SetLocalPosition(500, 500, 0)
	s.Root().AppendChild(off)
	s.Hooks().Cull.Tap("boom", func(n *Node) *Node { panic("cull failed") })

	s.Render(DefaultRenderConfig)
	if got := renderedNames(r); got != "root,off" {
		t.Errorf("rendered = %s, want root,off", got)
	}
}

func TestCullCustomTap(t *testing.T) {
	s, r := newTestScene(t)
	skip := NewRect("skip", 10, 10)
	skip.AppendChild(NewRect("child", 10, 10))
	s.Root().AppendChild(skip)

	var sawNil bool
	s.Hooks().Cull.Tap("by-name", func(n *Node) *Node {
		if n == nil {
			sawNil = true
			return nil
		}
		if n.Name == "skip" {
			return nil
		}
		return n
	})
	s.Hooks().Cull.Tap("after", func(n *Node) *Node {
		if n == nil {
			sawNil = true
		}
		return n
	})

	s.Render(DefaultRenderConfig)
	if got := renderedNames(r); got != "root,child" {
		t.Errorf("rendered = %s, want root,child", got)
	}
	if !sawNil {
		t.Error("taps after the culling tap should receive nil")
	}
}

func TestCullPanBringsNodeIntoView(t *testing.T) {
	s, r := newTestScene(t)
	n := NewRect("n", 10, 10)
	n.SetLocalPosition(500, 100, 0)
	s.Root().AppendChild(n)

	s.Render(DefaultRenderConfig)
	if !n.Culled() {
		t.Fatal("n should start offscreen")
	}
	s.Camera().Pan(400, 0)
	s.Render(DefaultRenderConfig)
	if n.Culled() {
		t.Error("n should be visible after panning")
	}
	if got := renderedNames(r); got != "root,n" {
		t.Errorf("rendered = %s, want root,n", got)
	}
}

func TestIsInFrustum(t *testing.T) {
	s, _ := newTestScene(t)
	cam := s.Camera()
	in := NewRect("in", 10, 10)
	out := NewRect("out", 10, 10)
	out.SetLocalPosition(-50, 0, 0)
	empty := NewGroup("empty")
	empty.SetLocalPosition(-500, -500, 0)

	if !cam.IsInFrustum(in) {
		t.Error("in should be inside the frustum")
	}
	if cam.IsInFrustum(out) {
		t.Error("out should be outside the frustum")
	}
	if !cam.IsInFrustum(empty) {
		t.Error("nodes without geometry are treated as visible")
	}
}
