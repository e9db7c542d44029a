package arbor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic; scenes are single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is the fundamental scene graph element. A single flat struct is used for
// all shape kinds; Kind selects which Shape fields are meaningful.
//
// Transform, geometry and ordering state is unexported so that every mutation
// goes through a setter that keeps the dirty flags, the pending bounds queue
// and the spatial index consistent.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Kind ShapeKind

	// Hierarchy
	Parent   *Node
	children []*Node

	// Geometry and presentation. Call Scene.UpdateGeometry (or the Set*
	// helpers) after editing these directly.
	Shape Shape
	Style Style

	// Interactive controls whether the node can be the target of picking.
	// Its children are unaffected.
	Interactive bool

	// Metadata
	UserData any
	EntityID uint32

	transform  transformable
	geometry   geometry
	renderable renderable
	sortable   sortable
	listeners  eventTarget
	attributes map[string]any

	zIndex        int
	visibility    Visibility
	pointerEvents PointerEvents

	scene     *Scene
	destroyed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Interactive = true
	n.Style.Fill = ColorWhite
	n.transform.reset()
	n.transform.localTransform = mgl64.Ident4()
	n.transform.worldTransform = mgl64.Ident4()
	n.renderable.boundsDirty = true
	n.renderable.renderBoundsDirty = true
	n.renderable.dirty = true
	updateGeometry(n)
}

// NewGroup creates a node with no geometry of its own.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Kind: ShapeGroup}
	nodeDefaults(n)
	return n
}

// NewRect creates a rectangle of the given size anchored at the local origin.
func NewRect(name string, width, height float64) *Node {
	n := &Node{Name: name, Kind: ShapeRect, Shape: Shape{Width: width, Height: height}}
	nodeDefaults(n)
	return n
}

// NewCircle creates a circle centered on the local origin.
func NewCircle(name string, radius float64) *Node {
	n := &Node{Name: name, Kind: ShapeCircle, Shape: Shape{Radius: radius}}
	nodeDefaults(n)
	return n
}

// NewEllipse creates an ellipse centered on the local origin.
func NewEllipse(name string, rx, ry float64) *Node {
	n := &Node{Name: name, Kind: ShapeEllipse, Shape: Shape{RX: rx, RY: ry}}
	nodeDefaults(n)
	return n
}

// NewLine creates a line segment. Lines have no fill.
func NewLine(name string, from, to mgl64.Vec2) *Node {
	n := &Node{Name: name, Kind: ShapeLine, Shape: Shape{From: from, To: to}}
	nodeDefaults(n)
	n.Style.Fill = ColorNone
	n.Style.Stroke = ColorWhite
	n.Style.LineWidth = 1
	updateGeometry(n)
	return n
}

// NewPolyline creates an open path through points.
func NewPolyline(name string, points []mgl64.Vec2) *Node {
	n := &Node{Name: name, Kind: ShapePolyline, Shape: Shape{Points: points}}
	nodeDefaults(n)
	n.Style.Fill = ColorNone
	n.Style.Stroke = ColorWhite
	n.Style.LineWidth = 1
	updateGeometry(n)
	return n
}

// NewPolygon creates a closed polygon through points.
func NewPolygon(name string, points []mgl64.Vec2) *Node {
	n := &Node{Name: name, Kind: ShapePolygon, Shape: Shape{Points: points}}
	nodeDefaults(n)
	return n
}

// NewCustom creates a node whose local content bounds are supplied by the
// caller, typically measured text or an image.
func NewCustom(name string, content AABB) *Node {
	n := &Node{Name: name, Kind: ShapeCustom, Shape: Shape{Content: content}}
	nodeDefaults(n)
	return n
}

// --- Tree manipulation ---

// AppendChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil, destroyed, or an ancestor of this node (cycle).
func (n *Node) AppendChild(child *Node) {
	attach(child, n, -1)
}

// InsertChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AppendChild.
func (n *Node) InsertChildAt(child *Node, index int) {
	if index < 0 {
		panic("arbor: child index out of range")
	}
	attach(child, n, index)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child == nil || child.Parent != n {
		panic("arbor: child's parent is not this node")
	}
	detach(child)
}

// Remove detaches this node from its parent. No-op without a parent.
func (n *Node) Remove() {
	if n.Parent == nil {
		return
	}
	detach(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT destroyed.
func (n *Node) RemoveChildren() {
	for len(n.children) > 0 {
		detach(n.children[len(n.children)-1])
	}
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	return other != nil && isAncestor(n, other)
}

// ForEach walks the subtree rooted at n in pre-order. Returning false from fn
// skips the children of that node.
func (n *Node) ForEach(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.ForEach(fn)
	}
}

// Find returns the first node in pre-order whose Name matches, or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Scene returns the scene the node is mounted in, or nil.
func (n *Node) Scene() *Scene {
	return n.scene
}

// IsConnected reports whether the node is mounted in a scene.
func (n *Node) IsConnected() bool {
	return n.scene != nil
}

// --- Ordering & visibility ---

// ZIndex returns the node's z-index among its siblings.
func (n *Node) ZIndex() int {
	return n.zIndex
}

// SetZIndex sets the node's z-index and marks the parent's child order stale.
func (n *Node) SetZIndex(z int) {
	if n.zIndex == z {
		return
	}
	n.zIndex = z
	if p := n.Parent; p != nil {
		p.sortable.markDirty(nil, SortZIndexChanged)
	}
	markRenderDirty(n, false)
}

// Visibility returns the node's visibility.
func (n *Node) Visibility() Visibility {
	return n.visibility
}

// SetVisibility shows or hides the node. Hidden nodes and their subtrees are
// not rendered.
func (n *Node) SetVisibility(v Visibility) {
	if n.visibility == v {
		return
	}
	n.visibility = v
	markRenderDirty(n, true)
}

// IsVisible reports whether the node and all of its ancestors are visible.
func (n *Node) IsVisible() bool {
	for p := n; p != nil; p = p.Parent {
		if p.visibility == Hidden {
			return false
		}
	}
	return true
}

// PointerEvents returns the node's pointer-events mode.
func (n *Node) PointerEvents() PointerEvents {
	return n.pointerEvents
}

// SetPointerEvents sets which parts of the node respond to picking.
func (n *Node) SetPointerEvents(pe PointerEvents) {
	n.pointerEvents = pe
}

// Culled reports whether the node was culled in the most recent frame.
func (n *Node) Culled() bool {
	return n.renderable.culled
}

// NeedsRedraw reports whether the node changed since it was last rendered.
func (n *Node) NeedsRedraw() bool {
	return n.renderable.dirty
}

// RenderOrder returns the painter-order index assigned in the most recent frame.
func (n *Node) RenderOrder() int {
	return n.sortable.renderOrder
}

// --- Destruction ---

// Destroy removes this node from its parent, unregisters it and its
// descendants from the scene, and marks them destroyed. Destroyed nodes must
// not be reattached.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	if n.Parent != nil {
		detach(n)
	} else if n.scene != nil {
		n.scene.unmount(n)
	}
	n.destroy()
}

func (n *Node) destroy() {
	n.destroyed = true
	for _, child := range n.children {
		child.Parent = nil
		child.destroy()
	}
	n.children = nil
	n.sortable = sortable{}
	n.listeners = eventTarget{}
	n.attributes = nil
	n.Parent = nil
	n.UserData = nil
}

// IsDestroyed returns true if this node has been destroyed.
func (n *Node) IsDestroyed() bool {
	return n.destroyed
}

// --- Helpers ---

// isAncestor reports whether candidate is node or an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// indexOf returns the position of child in n.children, or -1.
func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}
