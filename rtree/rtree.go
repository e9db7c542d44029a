// Package rtree implements an in-memory R-tree over axis-aligned rectangles.
//
// The tree supports OMT bulk loading ([RTree.Load]), incremental insertion
// with overlap-minimizing splits ([RTree.Insert]), removal with node
// condensing ([RTree.Remove]) and rectangle queries ([RTree.Search],
// [RTree.Collides]). It is not safe for concurrent use.
package rtree

import (
	"cmp"
	"math"
	"slices"
)

// DefaultMaxEntries is the node fanout used when New is given a non-positive size.
const DefaultMaxEntries = 9

// minFillRatio is the minimum node fill as a fraction of the fanout.
const minFillRatio = 0.4

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Infinite returns a rectangle that intersects every finite rectangle.
func Infinite() Rect {
	return Rect{math.Inf(-1), math.Inf(-1), math.Inf(1), math.Inf(1)}
}

func emptyRect() Rect {
	return Rect{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

// Intersects reports whether r and o overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return o.MinX <= r.MaxX && o.MinY <= r.MaxY && o.MaxX >= r.MinX && o.MaxY >= r.MinY
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return r.MinX <= o.MinX && r.MinY <= o.MinY && o.MaxX <= r.MaxX && o.MaxY <= r.MaxY
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Area returns the area of r.
func (r Rect) Area() float64 {
	return (r.MaxX - r.MinX) * (r.MaxY - r.MinY)
}

// IsFinite reports whether every coordinate is a finite number and the
// rectangle is not inverted.
func (r Rect) IsFinite() bool {
	for _, v := range [4]float64{r.MinX, r.MinY, r.MaxX, r.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.MinX <= r.MaxX && r.MinY <= r.MaxY
}

func (r Rect) margin() float64 {
	return (r.MaxX - r.MinX) + (r.MaxY - r.MinY)
}

func intersectionArea(a, b Rect) float64 {
	minX := math.Max(a.MinX, b.MinX)
	minY := math.Max(a.MinY, b.MinY)
	maxX := math.Min(a.MaxX, b.MaxX)
	maxY := math.Min(a.MaxY, b.MaxY)
	return math.Max(0, maxX-minX) * math.Max(0, maxY-minY)
}

// Entry is a rectangle stored in the tree together with its payload.
// Entries are matched on removal by Item.
type Entry[T comparable] struct {
	Rect
	Item T
}

// node is either an internal/leaf node (children set) or an item wrapper
// (isItem set). Leaf nodes hold item wrappers as children.
type node[T comparable] struct {
	rect     Rect
	children []*node[T]
	entry    Entry[T]
	height   int
	leaf     bool
	isItem   bool
}

func newLeaf[T comparable](children []*node[T]) *node[T] {
	return &node[T]{children: children, height: 1, leaf: true, rect: emptyRect()}
}

func (n *node[T]) recalc() {
	r := emptyRect()
	for _, c := range n.children {
		r = r.Union(c.rect)
	}
	n.rect = r
}

func distRect[T comparable](n *node[T], from, to int) Rect {
	r := emptyRect()
	for _, c := range n.children[from:to] {
		r = r.Union(c.rect)
	}
	return r
}

func compareMinX[T comparable](a, b *node[T]) int { return cmp.Compare(a.rect.MinX, b.rect.MinX) }
func compareMinY[T comparable](a, b *node[T]) int { return cmp.Compare(a.rect.MinY, b.rect.MinY) }

// RTree is a balanced bounding-box tree. Create one with New.
type RTree[T comparable] struct {
	root       *node[T]
	maxEntries int
	minEntries int
	size       int
}

// New returns an empty tree whose nodes hold at most maxEntries children.
// Values below 4 are raised to 4; non-positive values select DefaultMaxEntries.
func New[T comparable](maxEntries int) *RTree[T] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	maxEntries = max(4, maxEntries)
	t := &RTree[T]{
		maxEntries: maxEntries,
		minEntries: max(2, int(math.Ceil(float64(maxEntries)*minFillRatio))),
	}
	t.Clear()
	return t
}

// Clear removes every entry.
func (t *RTree[T]) Clear() {
	t.root = newLeaf[T](nil)
	t.size = 0
}

// Len returns the number of stored entries.
func (t *RTree[T]) Len() int {
	return t.size
}

// Height returns the number of node levels. An empty tree has height 1.
func (t *RTree[T]) Height() int {
	return t.root.height
}

// Bounds returns the rectangle covering every entry. ok is false for an empty tree.
func (t *RTree[T]) Bounds() (r Rect, ok bool) {
	if len(t.root.children) == 0 {
		return Rect{}, false
	}
	return t.root.rect, true
}

// All returns every entry in the tree.
func (t *RTree[T]) All() []Entry[T] {
	return collectAll(t.root, nil)
}

// Search returns every entry whose rectangle intersects r.
func (t *RTree[T]) Search(r Rect) []Entry[T] {
	n := t.root
	if len(n.children) == 0 || !r.Intersects(n.rect) {
		return nil
	}
	var result []Entry[T]
	var stack []*node[T]
	for n != nil {
		for _, child := range n.children {
			if !r.Intersects(child.rect) {
				continue
			}
			switch {
			case n.leaf:
				result = append(result, child.entry)
			case r.Contains(child.rect):
				result = collectAll(child, result)
			default:
				stack = append(stack, child)
			}
		}
		n, stack = pop(stack)
	}
	return result
}

// Collides reports whether any entry intersects r. It stops at the first hit.
func (t *RTree[T]) Collides(r Rect) bool {
	n := t.root
	if len(n.children) == 0 || !r.Intersects(n.rect) {
		return false
	}
	var stack []*node[T]
	for n != nil {
		for _, child := range n.children {
			if !r.Intersects(child.rect) {
				continue
			}
			if n.leaf || r.Contains(child.rect) {
				return true
			}
			stack = append(stack, child)
		}
		n, stack = pop(stack)
	}
	return false
}

// Insert adds a single entry. Entries with non-finite coordinates are ignored.
func (t *RTree[T]) Insert(e Entry[T]) {
	if !e.Rect.IsFinite() {
		return
	}
	t.insert(&node[T]{rect: e.Rect, entry: e, isItem: true}, t.root.height-1)
	t.size++
}

// Load bulk-inserts entries and returns how many were dropped for having
// non-finite coordinates. Loading into an empty tree builds it from scratch;
// loading into a populated tree builds a separate subtree and merges it at
// the matching height.
func (t *RTree[T]) Load(entries []Entry[T]) (dropped int) {
	items := make([]*node[T], 0, len(entries))
	for _, e := range entries {
		if !e.Rect.IsFinite() {
			dropped++
			continue
		}
		items = append(items, &node[T]{rect: e.Rect, entry: e, isItem: true})
	}
	if len(items) == 0 {
		return dropped
	}
	t.size += len(items)

	if len(items) < t.minEntries {
		for _, it := range items {
			t.insert(it, t.root.height-1)
		}
		return dropped
	}

	n := t.build(items, 0, len(items)-1, 0)
	switch {
	case len(t.root.children) == 0:
		t.root = n
	case t.root.height == n.height:
		t.splitRoot(t.root, n)
	default:
		if t.root.height < n.height {
			t.root, n = n, t.root
		}
		t.insert(n, t.root.height-n.height-1)
	}
	return dropped
}

// Remove deletes the entry whose Item equals e.Item and whose rectangle is
// contained by the nodes on the way down. e.Rect must be the rectangle the
// entry was stored with. It reports whether an entry was removed.
func (t *RTree[T]) Remove(e Entry[T]) bool {
	var (
		n       = t.root
		parent  *node[T]
		path    []*node[T]
		indexes []int
		i       int
		goingUp bool
	)
	for n != nil || len(path) > 0 {
		if n == nil {
			n = path[len(path)-1]
			path = path[:len(path)-1]
			parent = nil
			if len(path) > 0 {
				parent = path[len(path)-1]
			}
			i = indexes[len(indexes)-1]
			indexes = indexes[:len(indexes)-1]
			goingUp = true
		}

		if n.leaf {
			if idx := findItem(n, e.Item); idx >= 0 {
				n.children = slices.Delete(n.children, idx, idx+1)
				path = append(path, n)
				t.size--
				t.condense(path)
				return true
			}
		}

		if !goingUp && !n.leaf && len(n.children) > 0 && n.rect.Contains(e.Rect) {
			path = append(path, n)
			indexes = append(indexes, i)
			i = 0
			parent = n
			n = n.children[0]
		} else if parent != nil {
			i++
			n = nil
			if i < len(parent.children) {
				n = parent.children[i]
			}
			goingUp = false
		} else {
			n = nil
		}
	}
	return false
}

func findItem[T comparable](n *node[T], item T) int {
	for i, c := range n.children {
		if c.entry.Item == item {
			return i
		}
	}
	return -1
}

func pop[T comparable](stack []*node[T]) (*node[T], []*node[T]) {
	if len(stack) == 0 {
		return nil, stack
	}
	last := stack[len(stack)-1]
	return last, stack[:len(stack)-1]
}

func collectAll[T comparable](n *node[T], result []Entry[T]) []Entry[T] {
	var stack []*node[T]
	for n != nil {
		if n.leaf {
			for _, c := range n.children {
				result = append(result, c.entry)
			}
		} else {
			stack = append(stack, n.children...)
		}
		n, stack = pop(stack)
	}
	return result
}

// build constructs a subtree over items[left:right+1] using the OMT
// partitioning scheme: vertical slices by MinX, then runs by MinY.
func (t *RTree[T]) build(items []*node[T], left, right, height int) *node[T] {
	n := right - left + 1
	m := t.maxEntries

	if n <= m {
		children := make([]*node[T], n)
		copy(children, items[left:right+1])
		leaf := newLeaf(children)
		leaf.recalc()
		return leaf
	}

	if height == 0 {
		height = int(math.Ceil(math.Log(float64(n)) / math.Log(float64(m))))
		m = int(math.Ceil(float64(n) / math.Pow(float64(m), float64(height-1))))
	}

	parent := &node[T]{height: height}

	n2 := int(math.Ceil(float64(n) / float64(m)))
	n1 := n2 * int(math.Ceil(math.Sqrt(float64(m))))

	multiSelect(items, left, right, n1, compareMinX[T])
	for i := left; i <= right; i += n1 {
		right2 := min(i+n1-1, right)
		multiSelect(items, i, right2, n2, compareMinY[T])
		for j := i; j <= right2; j += n2 {
			right3 := min(j+n2-1, right2)
			parent.children = append(parent.children, t.build(items, j, right3, height-1))
		}
	}
	parent.recalc()
	return parent
}

// chooseSubtree descends from n to the given level, picking the child that
// needs the least area enlargement (ties: smallest area).
func (t *RTree[T]) chooseSubtree(r Rect, n *node[T], level int, path []*node[T]) (*node[T], []*node[T]) {
	for {
		path = append(path, n)
		if n.leaf || len(path)-1 == level {
			return n, path
		}
		minArea, minEnlargement := math.Inf(1), math.Inf(1)
		var target *node[T]
		for _, child := range n.children {
			area := child.rect.Area()
			enlargement := child.rect.Union(r).Area() - area
			if enlargement < minEnlargement {
				minEnlargement = enlargement
				minArea = area
				target = child
			} else if enlargement == minEnlargement && area < minArea {
				minArea = area
				target = child
			}
		}
		if target == nil {
			target = n.children[0]
		}
		n = target
	}
}

func (t *RTree[T]) insert(item *node[T], level int) {
	n, path := t.chooseSubtree(item.rect, t.root, level, nil)
	n.children = append(n.children, item)
	n.rect = n.rect.Union(item.rect)

	for level >= 0 {
		if len(path[level].children) <= t.maxEntries {
			break
		}
		t.split(path, level)
		level--
	}
	for i := level; i >= 0; i-- {
		path[i].rect = path[i].rect.Union(item.rect)
	}
}

func (t *RTree[T]) split(path []*node[T], level int) {
	n := path[level]
	total := len(n.children)
	minEntries := t.minEntries

	t.chooseSplitAxis(n, minEntries, total)
	at := t.chooseSplitIndex(n, minEntries, total)

	moved := make([]*node[T], total-at)
	copy(moved, n.children[at:])
	clear(n.children[at:])
	n.children = n.children[:at]

	sibling := &node[T]{children: moved, height: n.height, leaf: n.leaf}
	n.recalc()
	sibling.recalc()

	if level > 0 {
		path[level-1].children = append(path[level-1].children, sibling)
	} else {
		t.splitRoot(n, sibling)
	}
}

func (t *RTree[T]) splitRoot(a, b *node[T]) {
	t.root = &node[T]{children: []*node[T]{a, b}, height: a.height + 1}
	t.root.recalc()
}

func (t *RTree[T]) chooseSplitIndex(n *node[T], m, total int) int {
	index := 0
	minOverlap, minArea := math.Inf(1), math.Inf(1)
	for i := m; i <= total-m; i++ {
		r1 := distRect(n, 0, i)
		r2 := distRect(n, i, total)
		overlap := intersectionArea(r1, r2)
		area := r1.Area() + r2.Area()
		if overlap < minOverlap {
			minOverlap = overlap
			minArea = area
			index = i
		} else if overlap == minOverlap && area < minArea {
			minArea = area
			index = i
		}
	}
	if index == 0 {
		return total - m
	}
	return index
}

// chooseSplitAxis sorts children along the axis with the smaller total margin.
func (t *RTree[T]) chooseSplitAxis(n *node[T], m, total int) {
	xMargin := allDistMargin(n, m, total, compareMinX[T])
	yMargin := allDistMargin(n, m, total, compareMinY[T])
	if xMargin < yMargin {
		slices.SortFunc(n.children, compareMinX[T])
	}
}

func allDistMargin[T comparable](n *node[T], m, total int, compare func(a, b *node[T]) int) float64 {
	slices.SortFunc(n.children, compare)
	left := distRect(n, 0, m)
	right := distRect(n, total-m, total)
	margin := left.margin() + right.margin()
	for i := m; i < total-m; i++ {
		left = left.Union(n.children[i].rect)
		margin += left.margin()
	}
	for i := total - m - 1; i >= m; i-- {
		right = right.Union(n.children[i].rect)
		margin += right.margin()
	}
	return margin
}

// condense recomputes rectangles along path and unlinks emptied nodes.
func (t *RTree[T]) condense(path []*node[T]) {
	for i := len(path) - 1; i >= 0; i-- {
		if len(path[i].children) > 0 {
			path[i].recalc()
			continue
		}
		if i == 0 {
			t.root = newLeaf[T](nil)
			continue
		}
		siblings := path[i-1].children
		if idx := slices.Index(siblings, path[i]); idx >= 0 {
			path[i-1].children = slices.Delete(siblings, idx, idx+1)
		}
	}
}
