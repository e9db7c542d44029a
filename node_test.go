package arbor

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

// --- Constructor defaults ---

func TestNewGroupDefaults(t *testing.T) {
	n := NewGroup("test")
	assertNodeDefaults(t, n, "test", ShapeGroup)
	if !n.ContentBounds().IsEmpty() {
		t.Error("group should have empty content bounds")
	}
}

func TestNewRectDefaults(t *testing.T) {
	n := NewRect("r", 30, 20)
	assertNodeDefaults(t, n, "r", ShapeRect)
	b := n.ContentBounds()
	assertVec3(t, "min", b.Min(), mgl64.Vec3{0, 0, 0})
	assertVec3(t, "max", b.Max(), mgl64.Vec3{30, 20, 0})
}

func TestNewCircleDefaults(t *testing.T) {
	n := NewCircle("c", 5)
	assertNodeDefaults(t, n, "c", ShapeCircle)
	assertVec3(t, "min", n.ContentBounds().Min(), mgl64.Vec3{-5, -5, 0})
}

func TestNewLineDefaults(t *testing.T) {
	n := NewLine("l", mgl64.Vec2{0, 0}, mgl64.Vec2{10, 0})
	if !n.Style.Fill.IsNone() {
		t.Error("lines have no fill")
	}
	if n.Style.LineWidth != 1 || n.Style.Stroke.IsNone() {
		t.Error("lines default to a 1px stroke")
	}
	// The stroke widens the render bounds by half the line width.
	assertVec3(t, "render min", n.LocalRenderBounds().Min(), mgl64.Vec3{-0.5, -0.5, 0})
}

func TestNewPolygonBounds(t *testing.T) {
	n := NewPolygon("p", []mgl64.Vec2{{0, 0}, {10, -5}, {4, 8}})
	b := n.ContentBounds()
	assertVec3(t, "min", b.Min(), mgl64.Vec3{0, -5, 0})
	assertVec3(t, "max", b.Max(), mgl64.Vec3{10, 8, 0})
}

func TestNewCustomBounds(t *testing.T) {
	content := NewAABB(mgl64.Vec3{-2, -2, 0}, mgl64.Vec3{40, 12, 0})
	n := NewCustom("text", content)
	if n.ContentBounds() != content {
		t.Errorf("ContentBounds = %v, want %v", n.ContentBounds(), content)
	}
}

func TestNodeIDsUnique(t *testing.T) {
	a, b := NewGroup("a"), NewGroup("b")
	if a.ID == b.ID {
		t.Error("IDs should be unique")
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string, kind ShapeKind) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Kind != kind {
		t.Errorf("Kind = %v, want %v", n.Kind, kind)
	}
	if n.LocalScale() != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("Scale = %v, want (1, 1, 1)", n.LocalScale())
	}
	if !n.Interactive {
		t.Error("Interactive should default to true")
	}
	if n.Visibility() != Visible {
		t.Error("Visibility should default to Visible")
	}
	if n.PointerEvents() != PointerEventsAuto {
		t.Error("PointerEvents should default to auto")
	}
	if n.Parent != nil || n.NumChildren() != 0 {
		t.Error("new nodes should be detached and childless")
	}
}

// --- Tree manipulation ---

func TestAppendChild(t *testing.T) {
	parent := NewGroup("parent")
	a, b := NewGroup("a"), NewGroup("b")
	parent.AppendChild(a)
	parent.AppendChild(b)
	if a.Parent != parent || b.Parent != parent {
		t.Error("Parent not set")
	}
	if got := strings.Join(names(parent.Children()), ","); got != "a,b" {
		t.Errorf("children = %s, want a,b", got)
	}
}

func TestInsertChildAt(t *testing.T) {
	parent := NewGroup("parent")
	a, b, c := NewGroup("a"), NewGroup("b"), NewGroup("c")
	parent.AppendChild(a)
	parent.AppendChild(c)
	parent.InsertChildAt(b, 1)
	if got := strings.Join(names(parent.Children()), ","); got != "a,b,c" {
		t.Errorf("children = %s, want a,b,c", got)
	}
	parent.InsertChildAt(c, 0)
	if got := strings.Join(names(parent.Children()), ","); got != "c,a,b" {
		t.Errorf("after moving c: %s, want c,a,b", got)
	}
	mustPanic(t, "negative index", func() { parent.InsertChildAt(NewGroup("x"), -1) })
	mustPanic(t, "index past end", func() { parent.InsertChildAt(NewGroup("x"), 10) })
}

func TestReparent(t *testing.T) {
	p1, p2 := NewGroup("p1"), NewGroup("p2")
	c := NewGroup("c")
	p1.AppendChild(c)
	p2.AppendChild(c)
	if c.Parent != p2 {
		t.Error("c should belong to p2")
	}
	if p1.NumChildren() != 0 {
		t.Error("c should have left p1")
	}
}

func TestAttachPanics(t *testing.T) {
	root := NewGroup("root")
	mid := NewGroup("mid")
	root.AppendChild(mid)

	mustPanic(t, "nil child", func() { root.AppendChild(nil) })
	mustPanic(t, "self", func() { root.AppendChild(root) })
	mustPanic(t, "cycle", func() { mid.AppendChild(root) })

	dead := NewGroup("dead")
	dead.Destroy()
	mustPanic(t, "destroyed child", func() { root.AppendChild(dead) })
	mustPanic(t, "destroyed parent", func() { dead.AppendChild(NewGroup("x")) })
}

func TestRemoveChild(t *testing.T) {
	parent := NewGroup("parent")
	c := NewGroup("c")
	parent.AppendChild(c)
	parent.RemoveChild(c)
	if c.Parent != nil || parent.NumChildren() != 0 {
		t.Error("RemoveChild should detach c")
	}
	mustPanic(t, "not a child", func() { parent.RemoveChild(c) })
	c.Remove() // no parent: no-op
}

func TestRemoveChildren(t *testing.T) {
	parent := NewGroup("parent")
	kids := []*Node{NewGroup("a"), NewGroup("b"), NewGroup("c")}
	for _, k := range kids {
		parent.AppendChild(k)
	}
	parent.RemoveChildren()
	if parent.NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", parent.NumChildren())
	}
	for _, k := range kids {
		if k.Parent != nil || k.IsDestroyed() {
			t.Errorf("%s should be detached, not destroyed", k.Name)
		}
	}
}

func TestDestroy(t *testing.T) {
	s, _ := newTestScene(t)
	g := NewGroup("g")
	c := NewRect("c", 1, 1)
	g.AppendChild(c)
	s.Root().AppendChild(g)
	c.On(EventClick, func(Event) {})

	g.Destroy()
	if !g.IsDestroyed() || !c.IsDestroyed() {
		t.Error("Destroy should mark the subtree destroyed")
	}
	if s.Root().NumChildren() != 0 {
		t.Error("Destroy should detach from the parent")
	}
	if s.NumNodes() != 1 {
		t.Errorf("NumNodes = %d, want 1", s.NumNodes())
	}
	if c.HasEventListener(EventClick) {
		t.Error("Destroy should drop listeners")
	}
	g.Destroy() // idempotent
}

func TestContainsFindForEach(t *testing.T) {
	root := NewGroup("root")
	a := NewGroup("a")
	b := NewGroup("b")
	c := NewGroup("c")
	root.AppendChild(a)
	a.AppendChild(b)
	root.AppendChild(c)

	if !root.Contains(b) || !b.Contains(b) || a.Contains(c) || root.Contains(nil) {
		t.Error("Contains is wrong")
	}
	if root.Find("b") != b || root.Find("missing") != nil {
		t.Error("Find is wrong")
	}

	var visited []string
	root.ForEach(func(n *Node) bool {
		visited = append(visited, n.Name)
		return n != a // skip a's children
	})
	if got := strings.Join(visited, ","); got != "root,a,c" {
		t.Errorf("ForEach visited %s, want root,a,c", got)
	}
}

// --- Paint order ---

func paintNames(root *Node) string {
	return strings.Join(names(PaintOrder(root)), ",")
}

func TestPaintOrderZIndex(t *testing.T) {
	root := NewGroup("root")
	a, b, c := NewRect("a", 1, 1), NewRect("b", 1, 1), NewRect("c", 1, 1)
	root.AppendChild(a)
	root.AppendChild(b)
	root.AppendChild(c)
	if got := paintNames(root); got != "root,a,b,c" {
		t.Errorf("natural order = %s", got)
	}

	b.SetZIndex(-1)
	if got := paintNames(root); got != "root,b,a,c" {
		t.Errorf("after b.z=-1: %s, want root,b,a,c", got)
	}
	a.SetZIndex(5)
	if got := paintNames(root); got != "root,b,c,a" {
		t.Errorf("after a.z=5: %s, want root,b,c,a", got)
	}

	d := NewRect("d", 1, 1)
	root.AppendChild(d)
	if got := paintNames(root); got != "root,b,c,d,a" {
		t.Errorf("after appending d: %s, want root,b,c,d,a", got)
	}
	d.Remove()
	if got := paintNames(root); got != "root,b,c,a" {
		t.Errorf("after removing d: %s, want root,b,c,a", got)
	}

	a.SetZIndex(0)
	b.SetZIndex(0)
	if got := paintNames(root); got != "root,a,b,c" {
		t.Errorf("after resetting z: %s, want root,a,b,c", got)
	}
	if root.sortable.sorted != nil {
		t.Error("sorted cache should be dropped when every z-index is 0")
	}
}

func TestPaintOrderReattachToSameParent(t *testing.T) {
	p := NewGroup("p")
	a, b, c := NewRect("a", 1, 1), NewRect("b", 1, 1), NewRect("c", 1, 1)
	a.SetZIndex(1)
	b.SetZIndex(1)
	p.AppendChild(a)
	p.AppendChild(b)
	p.AppendChild(c)
	if got := paintNames(p); got != "p,c,a,b" {
		t.Fatalf("order = %s, want p,c,a,b", got)
	}

	p.AppendChild(a)
	if got := strings.Join(names(p.Children()), ","); got != "b,c,a" {
		t.Fatalf("children = %s, want b,c,a", got)
	}
	if got := paintNames(p); got != "p,c,b,a" {
		t.Errorf("order after reattach = %s, want p,c,b,a", got)
	}
	if comparePaintOrder(b, a) >= 0 {
		t.Error("b should paint before a")
	}

	p.InsertChildAt(a, 0)
	p.InsertChildAt(c, 0)
	if got := paintNames(p); got != "p,c,a,b" {
		t.Errorf("order after moving to front = %s, want p,c,a,b", got)
	}
}

func TestPaintOrderEqualZIndexKeepsSiblingOrder(t *testing.T) {
	root := NewGroup("root")
	for _, name := range []string{"a", "b", "c"} {
		n := NewRect(name, 1, 1)
		n.SetZIndex(1)
		root.AppendChild(n)
	}
	if got := paintNames(root); got != "root,a,b,c" {
		t.Errorf("order = %s, want root,a,b,c", got)
	}
}

func TestPaintOrderSkipsHidden(t *testing.T) {
	root := NewGroup("root")
	g := NewGroup("g")
	g.AppendChild(NewRect("inner", 1, 1))
	root.AppendChild(g)
	root.AppendChild(NewRect("other", 1, 1))
	g.SetVisibility(Hidden)
	if got := paintNames(root); got != "root,other" {
		t.Errorf("order = %s, want root,other", got)
	}
}

func TestComparePaintOrder(t *testing.T) {
	root := NewGroup("root")
	a := NewGroup("a")
	a1 := NewRect("a1", 1, 1)
	b := NewRect("b", 1, 1)
	root.AppendChild(a)
	a.AppendChild(a1)
	root.AppendChild(b)

	tests := []struct {
		x, y *Node
		want int
	}{
		{a, a1, -1},   // ancestor first
		{a1, a, 1},    // descendant after
		{a1, b, -1},   // earlier subtree first
		{b, a1, 1},    // later sibling after
		{root, b, -1}, // root first
		{b, b, 0},
	}
	for _, tt := range tests {
		if got := comparePaintOrder(tt.x, tt.y); got != tt.want {
			t.Errorf("comparePaintOrder(%s, %s) = %d, want %d", tt.x.Name, tt.y.Name, got, tt.want)
		}
	}

	a.SetZIndex(1)
	if got := comparePaintOrder(a1, b); got != 1 {
		t.Errorf("after a.z=1, comparePaintOrder(a1, b) = %d, want 1", got)
	}
}

// --- Bounds ---

func TestBoundsIncludeDescendants(t *testing.T) {
	root := NewGroup("root")
	a := NewRect("a", 10, 10)
	b := NewRect("b", 10, 10)
	b.SetLocalPosition(20, 30, 0)
	root.AppendChild(a)
	a.AppendChild(b)

	bb := root.Bounds(false)
	assertVec3(t, "min", bb.Min(), mgl64.Vec3{0, 0, 0})
	assertVec3(t, "max", bb.Max(), mgl64.Vec3{30, 40, 0})

	b.SetLocalPosition(-5, 0, 0)
	bb = root.Bounds(false)
	assertVec3(t, "min after move", bb.Min(), mgl64.Vec3{-5, 0, 0})
	assertVec3(t, "max after move", bb.Max(), mgl64.Vec3{10, 10, 0})
}

func TestRenderBoundsIncludeStrokeAndShadow(t *testing.T) {
	n := NewRect("n", 10, 10)
	n.SetStyle(Style{Fill: ColorWhite, Stroke: ColorWhite, LineWidth: 4})
	rb := n.Bounds(true)
	assertVec3(t, "stroke min", rb.Min(), mgl64.Vec3{-2, -2, 0})
	assertVec3(t, "content min", n.Bounds(false).Min(), mgl64.Vec3{0, 0, 0})

	n.SetStyle(Style{Fill: ColorWhite, ShadowBlur: 3, ShadowOffset: mgl64.Vec2{5, 0}})
	rb = n.Bounds(true)
	assertVec3(t, "shadow min", rb.Min(), mgl64.Vec3{0, -3, 0})
	assertVec3(t, "shadow max", rb.Max(), mgl64.Vec3{18, 13, 0})
}

func TestBoundsRotated(t *testing.T) {
	n := NewRect("n", 10, 20)
	n.SetLocalEulerAngles(0, 0, 90)
	b := n.Bounds(false)
	assertVec3(t, "min", b.Min(), mgl64.Vec3{-20, 0, 0})
	assertVec3(t, "max", b.Max(), mgl64.Vec3{0, 10, 0})
}

func TestNonFiniteGeometryIsEmpty(t *testing.T) {
	n := NewRect("n", 10, 10)
	n.SetSize(math.NaN(), 1)
	if !n.ContentBounds().IsEmpty() {
		t.Error("NaN geometry should collapse to empty bounds")
	}
}

// --- Pending queue ---

func TestRootTranslateQueuesOneEntry(t *testing.T) {
	s, _ := newTestScene(t)
	a := NewGroup("A")
	b := NewRect("B", 1, 1)
	a.SetLocalPosition(100, 100, 0)
	b.SetLocalPosition(5, 5, 0)
	s.Root().AppendChild(a)
	a.AppendChild(b)
	s.Render(DefaultRenderConfig)
	assertVec3(t, "B world", b.Position(), mgl64.Vec3{105, 105, 0})
	if s.pending.len() != 0 {
		t.Fatalf("pending after render = %d, want 0", s.pending.len())
	}

	var got []string
	for _, n := range []*Node{s.Root(), a, b} {
		n.On(EventBoundsChanged, func(e Event) {
			d := e.Base().Detail.(BoundsChangedDetail)
			if !d.AffectChildren {
				t.Errorf("%s: AffectChildren should be set", e.Base().Target.Name)
			}
			got = append(got, e.Base().CurrentTarget.Name)
		})
	}

	s.Root().SetLocalPosition(10, 0, 0)
	if s.pending.len() != 1 {
		t.Errorf("pending = %d, want 1", s.pending.len())
	}
	if f, _ := s.pending.flag(s.Root()); !f {
		t.Error("root entry should affect children")
	}
	s.Render(DefaultRenderConfig)
	if strings.Join(got, ",") != "root,A,B" {
		t.Errorf("bounds-changed events = %v, want [root A B]", got)
	}
	assertVec3(t, "B world after", b.Position(), mgl64.Vec3{115, 105, 0})
}

func TestRootTranslateEndToEnd(t *testing.T) {
	s, _ := newTestScene(t)
	root := s.Root()
	a := NewRect("A", 10, 10)
	b := NewRect("B", 10, 10)
	b.SetLocalPosition(5, 5, 0)
	root.AppendChild(a)
	a.AppendChild(b)
	s.Render(DefaultRenderConfig)
	before := b.Bounds(false)

	root.SetLocalPosition(100, 100, 0)
	SyncHierarchy(root)

	x, y := b.WorldPosition()
	if x != 105 || y != 105 {
		t.Errorf("B world = (%v, %v), want exactly (105, 105)", x, y)
	}
	after := b.Bounds(false)
	assertVec3(t, "bounds min delta", after.Min().Sub(before.Min()), mgl64.Vec3{100, 100, 0})
	assertVec3(t, "bounds max delta", after.Max().Sub(before.Max()), mgl64.Vec3{100, 100, 0})
	for _, n := range []*Node{root, a, b} {
		if !n.transform.frozen {
			t.Errorf("%s should be frozen after sync", n.Name)
		}
		if n.transform.dirtyFlag || n.transform.localDirtyFlag {
			t.Errorf("%s should be clean after sync", n.Name)
		}
	}
	// The root is the only node touched directly; its entry covers A and B.
	if s.pending.len() != 1 {
		t.Errorf("pending = %d, want 1", s.pending.len())
	}
	if f, ok := s.pending.flag(root); !ok || !f {
		t.Errorf("root entry = %v, %v; want a subtree entry", f, ok)
	}
}

func TestGeometryChangeQueuesNode(t *testing.T) {
	s, _ := newTestScene(t)
	a := NewRect("a", 10, 10)
	s.Root().AppendChild(a)
	s.Render(DefaultRenderConfig)

	fired := 0
	a.On(EventBoundsChanged, func(e Event) {
		if e.Base().Detail.(BoundsChangedDetail).AffectChildren {
			t.Error("geometry change should not affect children")
		}
		fired++
	})
	a.SetSize(20, 20)
	if f, ok := s.pending.flag(a); !ok || f {
		t.Errorf("pending flag = (%v, %v), want (false, true)", f, ok)
	}
	s.Render(DefaultRenderConfig)
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestBoundsChangedReachesCapturingAncestors(t *testing.T) {
	s, _ := newTestScene(t)
	a := NewGroup("A")
	b := NewRect("B", 10, 10)
	s.Root().AppendChild(a)
	a.AppendChild(b)
	s.Render(DefaultRenderConfig)

	var captured []string
	s.Root().AddEventListener(EventBoundsChanged, func(e Event) {
		captured = append(captured, e.Base().Target.Name)
	}, ListenerOptions{Capture: true})
	bubbled := 0
	a.On(EventBoundsChanged, func(e Event) {
		if e.Base().Target != a {
			bubbled++
		}
	})

	b.SetLocalPosition(5, 0, 0)
	s.Render(DefaultRenderConfig)
	if strings.Join(captured, ",") != "B" {
		t.Errorf("captured = %v, want [B]", captured)
	}
	if bubbled != 0 {
		t.Errorf("bounds-changed bubbled to A %d times", bubbled)
	}
}
