package arbor

import (
	"fmt"
	"slices"
	"time"
)

// RenderConfig toggles the optional stages of the frame pipeline.
type RenderConfig struct {
	// EnableDirtyCheck skips the frame when nothing requested a re-render,
	// and skips clean nodes within a produced frame.
	EnableDirtyCheck bool
	// EnableCulling runs the Cull hook and the built-in frustum test.
	EnableCulling bool
	// EnableRTreeSync rebuilds the spatial index entries of changed nodes.
	EnableRTreeSync bool
	// DisableDirtyRectangles renders every visible node of a produced frame,
	// dirty or not. Renderers that clear their whole target each frame need it.
	DisableDirtyRectangles bool
}

// DefaultRenderConfig enables every stage.
var DefaultRenderConfig = RenderConfig{
	EnableDirtyCheck: true,
	EnableCulling:    true,
	EnableRTreeSync:  true,
}

// RenderStats holds per-frame counters.
type RenderStats struct {
	Frame    uint64
	Total    int // nodes visited by the traversal
	Rendered int // nodes passed to the Render hook
	Culled   int
	Elapsed  time.Duration
}

// RenderingService drives the per-frame pipeline: sync transforms, flush
// bounds-changed events, traverse in paint order with culling, and invoke the
// render hooks for every surviving node.
type RenderingService struct {
	scene *Scene

	renderList  []*Node
	renderOrder int
	frame       uint64
	stats       RenderStats
	cfg         RenderConfig

	// DirtyRectanglesDisabled is set for frames triggered by a camera change
	// or configured with DisableDirtyRectangles. Clean nodes are rendered too.
	DirtyRectanglesDisabled bool
}

func newRenderingService(s *Scene) *RenderingService {
	r := &RenderingService{scene: s}
	s.hooks.Cull.Tap("frustum", r.frustumCull)
	return r
}

// Stats returns the counters of the most recent frame.
func (r *RenderingService) Stats() RenderStats {
	return r.stats
}

// Render produces one frame:
//
//  1. sync the transform hierarchy;
//  2. dispatch queued bounds-changed events and sync the spatial index;
//  3. stop early if nothing requested a re-render (with EnableDirtyCheck);
//  4. traverse in paint order, culling and collecting the render list;
//     with EnableDirtyCheck, clean nodes are skipped unless dirty rectangles
//     are disabled for the frame;
//  5. run BeginFrame, then BeforeRender/Render/AfterRender per node, then
//     EndFrame.
//
// onRerender, if non-nil, runs after a frame is produced.
func (r *RenderingService) Render(cfg RenderConfig, onRerender func()) {
	s := r.scene
	if s.destroyed {
		return
	}
	start := time.Now()
	r.cfg = cfg

	SyncHierarchy(s.root)
	s.flushPendingEvents()
	if cfg.EnableRTreeSync {
		s.syncSpatialIndex()
	}

	reasons := s.renderReasons
	if cfg.EnableDirtyCheck && reasons == 0 {
		return
	}
	r.DirtyRectanglesDisabled = cfg.DisableDirtyRectangles || reasons&RenderReasonCameraChanged != 0

	r.frame++
	r.stats = RenderStats{Frame: r.frame}
	r.renderOrder = 0
	r.renderList = r.renderList[:0]
	r.traverse(s.root)

	info := FrameInfo{Frame: r.frame, Reasons: reasons}
	r.safeFrameHook(&s.hooks.BeginFrame, info)
	for _, n := range r.renderList {
		r.renderNode(n)
	}
	r.safeFrameHook(&s.hooks.EndFrame, info)

	clear(r.renderList)
	r.renderList = r.renderList[:0]
	s.renderReasons = 0
	r.stats.Elapsed = time.Since(start)

	if s.debug {
		s.debugLog(r.stats)
	}
	if onRerender != nil {
		onRerender()
	}
}

// traverse visits n and its subtree in paint order.
func (r *RenderingService) traverse(n *Node) {
	if n.visibility == Hidden {
		return
	}
	r.stats.Total++
	n.sortable.renderOrder = r.renderOrder
	r.renderOrder++

	if !r.cfg.EnableCulling {
		n.renderable.culled = false
	}
	if !r.cfg.EnableDirtyCheck || n.renderable.dirty || r.DirtyRectanglesDisabled {
		visible := true
		if r.cfg.EnableCulling {
			visible = r.cull(n)
		}
		n.renderable.culled = !visible
		if visible {
			r.renderList = append(r.renderList, n)
		} else {
			r.stats.Culled++
			n.renderable.dirty = false
		}
	}

	for _, c := range n.paintOrder() {
		r.traverse(c)
	}
}

// cull runs the Cull hook. A panicking tap leaves the node visible.
func (r *RenderingService) cull(n *Node) (visible bool) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger().Warn("cull hook panicked", "node", n.Name, "id", n.ID, "panic", fmt.Sprint(rec))
			visible = true
		}
	}()
	return r.scene.hooks.Cull.Call(n) != nil
}

// renderNode runs the per-node hooks. A panicking tap is logged and the
// frame continues with the next node.
func (r *RenderingService) renderNode(n *Node) {
	defer func() {
		if rec := recover(); rec != nil {
			n.renderable.dirty = false
			Logger().Warn("render hook panicked", "node", n.Name, "id", n.ID, "panic", fmt.Sprint(rec))
		}
	}()
	h := &r.scene.hooks
	h.BeforeRender.Call(n)
	h.Render.Call(n)
	r.stats.Rendered++
	h.AfterRender.Call(n)
	n.renderable.dirty = false
}

func (r *RenderingService) safeFrameHook(h *SyncHook[FrameInfo], info FrameInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger().Warn("frame hook panicked", "frame", info.Frame, "panic", fmt.Sprint(rec))
		}
	}()
	h.Call(info)
}

// PaintOrder returns every visible node under root in paint order. Hidden
// subtrees are skipped.
func PaintOrder(root *Node) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.visibility == Hidden {
			return
		}
		out = append(out, n)
		for _, c := range n.paintOrder() {
			walk(c)
		}
	}
	walk(root)
	return slices.Clip(out)
}
