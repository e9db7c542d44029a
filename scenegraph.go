package arbor

import (
	"github.com/kamstrup/intmap"
)

// attach inserts child under parent at index (append when index < 0).
func attach(child, parent *Node, index int) {
	if child == nil {
		panic("arbor: cannot attach nil child")
	}
	if parent == nil {
		panic("arbor: cannot attach to nil parent")
	}
	if globalDebug {
		debugCheckDestroyed(parent, "attach (parent)")
		debugCheckDestroyed(child, "attach (child)")
	}
	if child.destroyed || parent.destroyed {
		panic("arbor: cannot attach a destroyed node")
	}
	if isAncestor(child, parent) {
		panic("arbor: attaching child would create a cycle")
	}
	if index > len(parent.children) {
		panic("arbor: child index out of range")
	}
	if child.Parent != nil {
		detach(child)
		if index > len(parent.children) {
			index = len(parent.children)
		}
	}

	if index < 0 {
		parent.children = append(parent.children, child)
	} else {
		parent.children = append(parent.children, nil)
		copy(parent.children[index+1:], parent.children[index:])
		parent.children[index] = child
	}
	child.Parent = parent

	if len(parent.sortable.sorted) > 0 || child.zIndex != 0 {
		parent.sortable.markDirty(child, SortAdded)
	}

	if s := parent.scene; s != nil {
		s.mount(child)
	}
	dirtifyWorld(child)

	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(parent)
	}
}

// detach removes child from its parent. The old ancestors' bounds are
// invalidated and the subtree is unmounted from the scene.
func detach(child *Node) {
	parent := child.Parent
	if parent == nil {
		return
	}
	if globalDebug {
		debugCheckDestroyed(child, "detach")
	}

	if len(parent.sortable.sorted) > 0 || child.zIndex != 0 {
		parent.sortable.markDirty(child, SortRemoved)
	}
	parent.removeChildByPtr(child)

	dirtifyWorld(child)
	child.Parent = nil
	DirtifyToRoot(parent, false)

	if s := child.scene; s != nil {
		s.unmount(child)
	}
}

// DirtifyToRoot marks n as needing redraw, invalidates the cached bounds of n
// and every ancestor, and queues a bounds-changed notification. With
// affectChildren the whole subtree is invalidated and notified.
func DirtifyToRoot(n *Node, affectChildren bool) {
	n.renderable.dirty = true
	for p := n; p != nil; p = p.Parent {
		p.renderable.boundsDirty = true
		p.renderable.renderBoundsDirty = true
	}
	if affectChildren {
		for _, c := range n.children {
			c.ForEach(func(d *Node) bool {
				d.renderable.boundsDirty = true
				d.renderable.renderBoundsDirty = true
				d.renderable.dirty = true
				return true
			})
		}
	}
	if s := n.scene; s != nil {
		s.pending.add(n, affectChildren)
		s.spatialTasks.add(n, affectChildren)
		s.renderReasons |= RenderReasonDisplayObjectChanged
	}
}

// UpdateGeometry recomputes n's local bounds from its shape and style and
// invalidates the cached world bounds up to the root.
func UpdateGeometry(n *Node) {
	updateGeometry(n)
	DirtifyToRoot(n, false)
}

// markRenderDirty requests a redraw without touching bounds.
func markRenderDirty(n *Node, subtree bool) {
	if subtree {
		n.ForEach(func(d *Node) bool {
			d.renderable.dirty = true
			return true
		})
	} else {
		n.renderable.dirty = true
	}
	if s := n.scene; s != nil {
		s.renderReasons |= RenderReasonDisplayObjectChanged
	}
}

// --- Node queue ---

// nodeQueue is an insertion-ordered set of nodes with a sticky boolean flag
// per node. Adding a node twice ORs the flags.
type nodeQueue struct {
	index *intmap.Map[uint32, int]
	nodes []*Node
	flags []bool

	// scratch buffers reused by drain
	drainNodes []*Node
	drainFlags []bool
}

func newNodeQueue() nodeQueue {
	return nodeQueue{index: intmap.New[uint32, int](64)}
}

func (q *nodeQueue) add(n *Node, flag bool) {
	if i, ok := q.index.Get(n.ID); ok {
		q.flags[i] = q.flags[i] || flag
		return
	}
	q.index.Put(n.ID, len(q.nodes))
	q.nodes = append(q.nodes, n)
	q.flags = append(q.flags, flag)
}

// remove drops n from the queue. Its slot is left as a nil hole.
func (q *nodeQueue) remove(n *Node) {
	if i, ok := q.index.Get(n.ID); ok {
		q.nodes[i] = nil
		q.index.Del(n.ID)
	}
}

func (q *nodeQueue) has(n *Node) bool {
	return q.index.Has(n.ID)
}

func (q *nodeQueue) flag(n *Node) (flag, ok bool) {
	i, ok := q.index.Get(n.ID)
	if !ok {
		return false, false
	}
	return q.flags[i], true
}

func (q *nodeQueue) len() int {
	return q.index.Len()
}

func (q *nodeQueue) reset() {
	clear(q.nodes)
	q.nodes = q.nodes[:0]
	q.flags = q.flags[:0]
	q.index.Clear()
}

// drain empties the queue and calls fn for every entry in insertion order.
// Entries added while draining go into the next batch.
func (q *nodeQueue) drain(fn func(n *Node, flag bool)) {
	if q.index.Len() == 0 {
		return
	}
	q.drainNodes = append(q.drainNodes[:0], q.nodes...)
	q.drainFlags = append(q.drainFlags[:0], q.flags...)
	q.reset()
	for i, n := range q.drainNodes {
		if n != nil {
			fn(n, q.drainFlags[i])
		}
	}
	clear(q.drainNodes)
}
