package arbor

import (
	"cmp"
	"slices"
)

// sortable caches a node's children in paint order (z-index, then sibling
// index). sorted is nil while no child uses a z-index, in which case the
// natural child order is used.
type sortable struct {
	sorted        []*Node
	dirty         bool
	dirtyChildren []*Node
	dirtyReason   SortReason
	renderOrder   int
}

// markDirty records that child was added or removed. A pending full re-sort
// is never downgraded to an incremental one.
func (s *sortable) markDirty(child *Node, reason SortReason) {
	s.dirty = true
	if child != nil {
		s.dirtyChildren = append(s.dirtyChildren, child)
	}
	if s.dirtyReason != SortZIndexChanged {
		s.dirtyReason = reason
	}
}

// paintOrder returns n's children in paint order, resolving any pending sort
// work first. The returned slice MUST NOT be mutated by the caller.
func (n *Node) paintOrder() []*Node {
	s := &n.sortable
	if !s.dirty {
		if s.sorted != nil {
			return s.sorted
		}
		return n.children
	}

	if s.dirtyReason == SortZIndexChanged || s.sorted == nil {
		n.resortChildren()
	} else {
		// A child may be listed more than once (removed, then re-added).
		// Members are always reinserted so their sibling index is current.
		for _, c := range s.dirtyChildren {
			if i := slices.Index(s.sorted, c); i >= 0 {
				s.sorted = slices.Delete(s.sorted, i, i+1)
			}
		}
		for i, c := range s.dirtyChildren {
			if c.Parent == n && !slices.Contains(s.dirtyChildren[:i], c) {
				s.sorted = n.insertSorted(s.sorted, c)
			}
		}
		if len(s.sorted) != len(n.children) {
			n.resortChildren()
		}
	}
	clear(s.dirtyChildren)
	s.dirtyChildren = s.dirtyChildren[:0]
	s.dirty = false
	s.dirtyReason = SortNone
	if s.sorted != nil {
		return s.sorted
	}
	return n.children
}

// resortChildren rebuilds the sorted cache from scratch. The cache is dropped
// entirely when every child has z-index 0.
func (n *Node) resortChildren() {
	s := &n.sortable
	needed := false
	for _, c := range n.children {
		if c.zIndex != 0 {
			needed = true
			break
		}
	}
	if !needed {
		s.sorted = nil
		return
	}
	s.sorted = append(s.sorted[:0], n.children...)
	slices.SortStableFunc(s.sorted, func(a, b *Node) int {
		return cmp.Compare(a.zIndex, b.zIndex)
	})
}

// insertSorted binary-searches the position of c by (z-index, sibling index).
func (n *Node) insertSorted(sorted []*Node, c *Node) []*Node {
	ci := n.indexOf(c)
	i, _ := slices.BinarySearchFunc(sorted, c, func(e, target *Node) int {
		if r := cmp.Compare(e.zIndex, target.zIndex); r != 0 {
			return r
		}
		return cmp.Compare(n.indexOf(e), ci)
	})
	return slices.Insert(sorted, i, c)
}

// comparePaintOrder orders a before b when a is painted first. Descendants
// paint after their ancestors.
func comparePaintOrder(a, b *Node) int {
	if a == b {
		return 0
	}
	da, db := depth(a), depth(b)
	pa, pb := a, b
	for da > db {
		if pa.Parent == b {
			return 1
		}
		pa = pa.Parent
		da--
	}
	for db > da {
		if pb.Parent == a {
			return -1
		}
		pb = pb.Parent
		db--
	}
	for pa.Parent != pb.Parent {
		pa, pb = pa.Parent, pb.Parent
	}
	if pa.Parent == nil {
		return 0
	}
	order := pa.Parent.paintOrder()
	return cmp.Compare(slices.Index(order, pa), slices.Index(order, pb))
}

func depth(n *Node) int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}
