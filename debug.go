package arbor

import (
	"fmt"
)

// SetDebugMode enables or disables debug mode. When enabled, operations on
// destroyed nodes panic, tree depth and child count warnings are logged, and
// per-frame stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which may lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool

// debugLog logs per-frame stats.
func (s *Scene) debugLog(stats RenderStats) {
	Logger().Debug("frame",
		"frame", stats.Frame,
		"total", stats.Total,
		"rendered", stats.Rendered,
		"culled", stats.Culled,
		"elapsed", stats.Elapsed,
		"nodes", s.nodes.Len(),
		"spatial", s.spatial.Len(),
	)
}

// debugCheckDestroyed panics with a descriptive message when a destroyed node
// is used in a tree operation. Release builds skip this entirely.
func debugCheckDestroyed(n *Node, op string) {
	if n.destroyed {
		panic(fmt.Sprintf("arbor debug: %s on destroyed node %q (ID %d)", op, n.Name, n.ID))
	}
}

const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns if tree depth exceeds debugMaxTreeDepth.
func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("tree depth exceeds threshold", "depth", depth, "threshold", debugMaxTreeDepth, "node", n.Name)
	}
}

const debugMaxChildCount = 1000

// debugCheckChildCount warns if a node has more than debugMaxChildCount children.
func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("child count exceeds threshold", "node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
	}
}
