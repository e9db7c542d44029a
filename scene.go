package arbor

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kamstrup/intmap"

	"github.com/phanxgames/arbor/rtree"
)

type rtreeEntry = rtree.Entry[*Node]

// EventSink is the interface for optional ECS integration.
// When set on a Scene, every dispatched pointer event whose target carries an
// EntityID is forwarded to the sink.
type EventSink interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries interaction data for the ECS bridge.
type InteractionEvent struct {
	Type      string
	EntityID  uint32
	PointerID int
	Button    int
	CanvasX   float64
	CanvasY   float64
	Detail    int
	Modifiers KeyModifiers
	DeltaX    float64 // wheel events only
	DeltaY    float64 // wheel events only
}

// SceneConfig configures NewScene. Zero fields take defaults.
type SceneConfig struct {
	// Width and Height are the viewport size in pixels.
	Width, Height float64
	// Renderer draws the scene. Required.
	Renderer RendererPlugin
	// Plugins are initialized after Renderer, in order.
	Plugins []RendererPlugin
	// Camera overrides the default orthographic camera over the viewport.
	Camera *Camera
	// RTreeMaxEntries is the spatial index node fanout (default 9).
	RTreeMaxEntries int
	// ClickWindow is the multi-click detection window (default 200ms).
	ClickWindow time.Duration
}

// Scene is the context object that owns the node tree, the spatial index, the
// pending bounds queue, the camera, the hooks and the event boundary.
type Scene struct {
	root      *Node
	camera    *Camera
	hooks     Hooks
	rendering *RenderingService
	events    *EventBoundary
	renderer  RendererPlugin
	plugins   []RendererPlugin
	sink      EventSink
	debug     bool
	destroyed bool

	width, height float64

	nodes         *intmap.Map[uint32, *Node]
	spatial       *rtree.RTree[*Node]
	spatialTasks  nodeQueue
	spatialSeen   *intmap.Map[uint32, bool]
	entryBuf      []rtreeEntry
	pending       nodeQueue
	renderReasons RenderReason

	animations  []*Tween
	injectQueue []PointerInput
	injectDown  bool
	injectClock time.Duration
	cameraHook  ListenerHandle
}

// NewScene creates a scene with a pre-created root group and initializes the
// renderer and plugins against its hooks.
func NewScene(cfg SceneConfig) (*Scene, error) {
	if cfg.Renderer == nil {
		return nil, ErrNoRenderer
	}
	s := &Scene{
		renderer:     cfg.Renderer,
		plugins:      cfg.Plugins,
		width:        cfg.Width,
		height:       cfg.Height,
		nodes:        intmap.New[uint32, *Node](256),
		spatial:      rtree.New[*Node](cfg.RTreeMaxEntries),
		spatialTasks: newNodeQueue(),
		spatialSeen:  intmap.New[uint32, bool](256),
		pending:      newNodeQueue(),
	}
	s.camera = cfg.Camera
	if s.camera == nil {
		s.camera = NewOrthographicCamera(cfg.Width, cfg.Height)
	}
	s.watchCamera()

	s.rendering = newRenderingService(s)
	s.events = newEventBoundary(s, cfg.ClickWindow)

	s.root = NewGroup("root")
	s.mount(s.root)
	dirtifyWorld(s.root)

	if err := cfg.Renderer.Init(s, &s.hooks); err != nil {
		return nil, fmt.Errorf("arbor: init renderer %q: %w", cfg.Renderer.Name(), err)
	}
	for _, p := range cfg.Plugins {
		if err := p.Init(s, &s.hooks); err != nil {
			return nil, fmt.Errorf("arbor: init plugin %q: %w", p.Name(), err)
		}
	}
	s.hooks.Init.Call(s)
	Logger().Info("scene initialized", "renderer", cfg.Renderer.Name(), "plugins", len(cfg.Plugins))
	return s, nil
}

// Root returns the scene's root group node.
func (s *Scene) Root() *Node {
	return s.root
}

// Hooks returns the scene's hooks.
func (s *Scene) Hooks() *Hooks {
	return &s.hooks
}

// Rendering returns the frame driver.
func (s *Scene) Rendering() *RenderingService {
	return s.rendering
}

// Events returns the event boundary that maps platform input to federated
// events.
func (s *Scene) Events() *EventBoundary {
	return s.events
}

// Renderer returns the configured renderer plugin.
func (s *Scene) Renderer() RendererPlugin {
	return s.renderer
}

// Camera returns the active camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// SetCamera replaces the active camera.
func (s *Scene) SetCamera(c *Camera) {
	if c == nil || c == s.camera {
		return
	}
	s.cameraHook.Remove()
	s.camera = c
	s.watchCamera()
	s.renderReasons |= RenderReasonCameraChanged
}

func (s *Scene) watchCamera() {
	s.cameraHook = s.camera.OnUpdated(func(*Camera) {
		s.renderReasons |= RenderReasonCameraChanged
	})
}

// Size returns the viewport size in pixels.
func (s *Scene) Size() (width, height float64) {
	return s.width, s.height
}

// SetSize changes the viewport size and the camera's viewport.
func (s *Scene) SetSize(width, height float64) {
	s.width, s.height = width, height
	s.camera.SetViewport(width, height)
}

// NodeByID returns the mounted node with the given ID.
func (s *Scene) NodeByID(id uint32) (*Node, bool) {
	return s.nodes.Get(id)
}

// NumNodes returns the number of mounted nodes, including the root.
func (s *Scene) NumNodes() int {
	return s.nodes.Len()
}

// SetEventSink sets the optional ECS bridge.
func (s *Scene) SetEventSink(sink EventSink) {
	s.sink = sink
}

// --- Scene graph service ---

// Attach inserts child under parent at index; a negative index appends.
// child is detached from any previous parent first.
func (s *Scene) Attach(child, parent *Node, index int) {
	attach(child, parent, index)
}

// Detach removes child from its parent.
func (s *Scene) Detach(child *Node) {
	detach(child)
}

// DirtifyToRoot invalidates n's bounds up to the root and queues a
// bounds-changed notification.
func (s *Scene) DirtifyToRoot(n *Node, affectChildren bool) {
	DirtifyToRoot(n, affectChildren)
}

// UpdateGeometry recomputes n's local bounds from its shape and style.
func (s *Scene) UpdateGeometry(n *Node) {
	UpdateGeometry(n)
}

// SyncHierarchy brings every world transform in the scene up to date.
func (s *Scene) SyncHierarchy() {
	SyncHierarchy(s.root)
}

// RequestRender forces the next Render call to produce a frame.
func (s *Scene) RequestRender() {
	s.renderReasons |= RenderReasonRequested
}

// Render produces one frame with cfg. See RenderingService.Render.
func (s *Scene) Render(cfg RenderConfig) {
	s.rendering.Render(cfg, nil)
}

// Tick advances animations, the camera and injected input by dt seconds.
func (s *Scene) Tick(dt float32) {
	s.processInjectedInput()
	s.updateAnimations(dt)
	s.camera.advance(dt)
}

// Destroy tears the scene down. Nodes are destroyed and the Destroy hook runs.
func (s *Scene) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.hooks.Destroy.Call(s)
	s.cameraHook.Remove()
	s.root.Destroy()
	s.spatial.Clear()
	s.animations = nil
}

// --- Mounting ---

func (s *Scene) mount(n *Node) {
	n.ForEach(func(d *Node) bool {
		d.scene = s
		s.nodes.Put(d.ID, d)
		return true
	})
}

func (s *Scene) unmount(n *Node) {
	n.ForEach(func(d *Node) bool {
		r := &d.renderable
		if r.indexed {
			s.spatial.Remove(r.entry)
			r.indexed = false
			r.entry = rtreeEntry{}
		}
		s.nodes.Del(d.ID)
		s.pending.remove(d)
		s.spatialTasks.remove(d)
		d.scene = nil
		return true
	})
	s.renderReasons |= RenderReasonDisplayObjectChanged
}

// --- Pending bounds-changed events ---

// BoundsChangedDetail is the Detail of an EventBoundsChanged event. The event
// does not bubble; ancestors observe descendant changes with capture
// listeners.
type BoundsChangedDetail struct {
	AffectChildren bool
}

// flushPendingEvents dispatches one bounds-changed event per queued node, or
// per subtree node when the entry affects children, then empties the queue.
func (s *Scene) flushPendingEvents() {
	s.pending.drain(func(n *Node, affectChildren bool) {
		if n.scene != s {
			return
		}
		if !affectChildren {
			dispatchBoundsChanged(n, false)
			return
		}
		n.ForEach(func(d *Node) bool {
			dispatchBoundsChanged(d, true)
			return true
		})
	})
}

func dispatchBoundsChanged(n *Node, affectChildren bool) {
	if !boundsChangedObserved(n) {
		return
	}
	e := &FederatedEvent{
		Type:   EventBoundsChanged,
		Detail: BoundsChangedDetail{AffectChildren: affectChildren},
	}
	n.DispatchEvent(e)
}

// boundsChangedObserved reports whether n has a bounds-changed listener or an
// ancestor captures the event.
func boundsChangedObserved(n *Node) bool {
	if n.listeners.has(EventBoundsChanged) {
		return true
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.listeners.hasCapture(EventBoundsChanged) {
			return true
		}
	}
	return false
}

// --- Spatial index ---

// syncSpatialIndex replaces the R-tree entries of every node whose bounds may
// have changed since the last sync, plus their ancestors, in one bulk load.
func (s *Scene) syncSpatialIndex() {
	if s.spatialTasks.len() == 0 {
		return
	}
	s.entryBuf = s.entryBuf[:0]
	s.spatialSeen.Clear()
	s.spatialTasks.drain(func(n *Node, immediate bool) {
		if n.scene != s {
			return
		}
		if immediate {
			n.ForEach(func(d *Node) bool {
				s.reindex(d)
				return true
			})
		} else {
			s.reindex(n)
		}
		for p := n.Parent; p != nil; p = p.Parent {
			if !s.reindex(p) {
				break
			}
		}
	})
	dropped := s.spatial.Load(s.entryBuf)
	if dropped > 0 {
		Logger().Warn("spatial index dropped non-finite entries", "count", dropped)
	}
	Logger().Debug("spatial index synced", "entries", len(s.entryBuf), "size", s.spatial.Len())
	clear(s.entryBuf)
}

// reindex removes n's stale entry and stages a fresh one. It reports false if
// n was already handled in this sync.
func (s *Scene) reindex(n *Node) bool {
	if s.spatialSeen.Has(n.ID) {
		return false
	}
	s.spatialSeen.Put(n.ID, true)
	r := &n.renderable
	if r.indexed {
		s.spatial.Remove(r.entry)
		r.indexed = false
	}
	b := n.Bounds(true)
	if b.IsEmpty() || !b.IsFinite() {
		r.entry = rtreeEntry{}
		return true
	}
	r.entry = rtreeEntry{Rect: b.Rect(), Item: n}
	r.indexed = true
	s.entryBuf = append(s.entryBuf, r.entry)
	return true
}

// SpatialIndexLen returns the number of entries in the spatial index.
func (s *Scene) SpatialIndexLen() int {
	return s.spatial.Len()
}

// searchSpatial syncs transforms and the spatial index, then returns the
// nodes whose render bounds intersect r.
func (s *Scene) searchSpatial(r rtree.Rect) []*Node {
	SyncHierarchy(s.root)
	s.syncSpatialIndex()
	entries := s.spatial.Search(r)
	out := make([]*Node, len(entries))
	for i, e := range entries {
		out[i] = e.Item
	}
	return out
}

// --- Coordinates ---

// ViewportToCanvas converts viewport pixels to canvas coordinates.
func (s *Scene) ViewportToCanvas(v mgl64.Vec2) mgl64.Vec2 {
	return s.camera.ViewportToCanvas(v).Vec2()
}

// CanvasToViewport converts canvas coordinates to viewport pixels.
func (s *Scene) CanvasToViewport(p mgl64.Vec2) mgl64.Vec2 {
	return s.camera.CanvasToViewport(p.Vec3(0))
}

func (s *Scene) inViewport(v mgl64.Vec2) bool {
	return v[0] >= 0 && v[1] >= 0 && v[0] <= s.width && v[1] <= s.height
}
