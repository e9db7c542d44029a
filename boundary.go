package arbor

import (
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kamstrup/intmap"
)

// DefaultClickWindow is the maximum gap between two clicks on the same node
// for them to count as one multi-click run.
const DefaultClickWindow = 200 * time.Millisecond

// PointerInput is a platform pointer event in viewport pixels. Type is one of
// EventPointerDown, EventPointerUp, EventPointerMove, EventPointerCancel,
// EventPointerOver (pointer entered the canvas) or EventPointerOut (pointer
// left the canvas).
type PointerInput struct {
	Type        string
	PointerID   int
	PointerType PointerType
	IsPrimary   bool
	Button      int
	Buttons     int
	Pressure    float64
	Client      mgl64.Vec2
	Modifiers   KeyModifiers
	TimeStamp   time.Duration
	Native      any
}

// WheelInput is a platform wheel event.
type WheelInput struct {
	PointerInput
	DeltaX, DeltaY, DeltaZ float64
}

type clickRun struct {
	target *Node
	count  int
	at     time.Duration
}

// pointerTracking is the per-pointer state the boundary keeps between events.
type pointerTracking struct {
	pressTargetsByButton map[int][]*Node
	clicksByButton       map[int]*clickRun
	overTargets          []*Node
}

// EventBoundary translates platform pointer input into federated events: it
// hit-tests, derives over/out/enter/leave transitions, detects clicks and
// propagates everything through the node tree.
type EventBoundary struct {
	scene *Scene

	// ClickWindow is the multi-click detection window.
	ClickWindow time.Duration

	pool     eventPool
	tracking *intmap.Map[int, *pointerTracking]
	pathBuf  []*Node
	enterBuf []*Node
}

func newEventBoundary(s *Scene, clickWindow time.Duration) *EventBoundary {
	if clickWindow <= 0 {
		clickWindow = DefaultClickWindow
	}
	return &EventBoundary{
		scene:       s,
		ClickWindow: clickWindow,
		tracking:    intmap.New[int, *pointerTracking](4),
	}
}

func (b *EventBoundary) trackingData(id int) *pointerTracking {
	td, ok := b.tracking.Get(id)
	if !ok {
		td = &pointerTracking{
			pressTargetsByButton: make(map[int][]*Node),
			clicksByButton:       make(map[int]*clickRun),
		}
		b.tracking.Put(id, td)
	}
	return td
}

// MapPointer maps one platform pointer event.
func (b *EventBoundary) MapPointer(in PointerInput) {
	if b.scene.destroyed {
		return
	}
	switch in.Type {
	case EventPointerDown:
		b.mapPointerDown(in)
	case EventPointerMove:
		b.mapPointerMove(in)
	case EventPointerUp:
		b.mapPointerUp(in)
	case EventPointerCancel:
		b.mapPointerCancel(in)
	case EventPointerOver:
		b.mapPointerOver(in)
	case EventPointerOut, EventPointerLeave:
		b.mapPointerOut(in)
	default:
		Logger().Debug("unmapped pointer input", "type", in.Type)
	}
}

// MapWheel maps one platform wheel event.
func (b *EventBoundary) MapWheel(in WheelInput) {
	if b.scene.destroyed {
		return
	}
	target := b.hitTarget(in.Client)
	if target == nil {
		return
	}
	e := b.pool.allocWheel()
	b.fill(&e.FederatedPointerEvent, in.PointerInput, EventWheel, target)
	e.DeltaX, e.DeltaY, e.DeltaZ = in.DeltaX, in.DeltaY, in.DeltaZ
	b.dispatch(e, EventWheel)
	b.pool.free(e)
}

// Propagate delivers ev along its composed path under type typ, honoring
// the capture, target and bubble phases.
func (b *EventBoundary) Propagate(ev Event, typ string) {
	propagate(ev, typ)
}

// hitTarget returns the topmost pickable node under the viewport point, the
// root when nothing is hit inside the viewport, or nil outside it.
func (b *EventBoundary) hitTarget(client mgl64.Vec2) *Node {
	s := b.scene
	if !s.inViewport(client) {
		return nil
	}
	if n := s.HitTest(client); n != nil {
		return n
	}
	return s.root
}

func (b *EventBoundary) fill(e *FederatedPointerEvent, in PointerInput, typ string, target *Node) {
	e.Type = typ
	e.Target = target
	e.Bubbles = true
	e.TimeStamp = in.TimeStamp
	e.Native = in.Native
	e.PointerID = in.PointerID
	e.PointerType = in.PointerType
	e.IsPrimary = in.IsPrimary
	e.Button = in.Button
	e.Buttons = in.Buttons
	e.Pressure = in.Pressure
	e.Modifiers = in.Modifiers
	e.Client = in.Client
	e.Canvas = b.scene.ViewportToCanvas(in.Client)
}

func (b *EventBoundary) createPointerEvent(in PointerInput, typ string, target *Node) *FederatedPointerEvent {
	e := b.pool.allocPointer()
	b.fill(e, in, typ, target)
	return e
}

// dispatch propagates ev as type typ from its target and forwards it to the
// scene's event sink.
func (b *EventBoundary) dispatch(ev Event, typ string) {
	e := ev.Base()
	if e.Target == nil {
		return
	}
	e.Type = typ
	e.propagationStopped = false
	e.propagationImmediatelyStopped = false
	e.path = composedPath(e.Target, e.path[:0])
	propagate(ev, typ)
	b.emit(ev, e.Target)
}

// notifyAt runs target's own listeners for a non-bubbling event.
func (b *EventBoundary) notifyAt(ev Event, typ string, target *Node) {
	e := ev.Base()
	e.Type = typ
	e.Target = target
	e.CurrentTarget = target
	e.EventPhase = PhaseAtTarget
	notifyTarget(ev, typ)
	b.emit(ev, target)
}

// emit forwards a pointer event to the event sink when its target is linked
// to an entity.
func (b *EventBoundary) emit(ev Event, target *Node) {
	sink := b.scene.sink
	if sink == nil || target == nil || target.EntityID == 0 {
		return
	}
	var pe *FederatedPointerEvent
	var dx, dy float64
	switch v := ev.(type) {
	case *FederatedPointerEvent:
		pe = v
	case *FederatedWheelEvent:
		pe = &v.FederatedPointerEvent
		dx, dy = v.DeltaX, v.DeltaY
	default:
		return
	}
	sink.EmitEvent(InteractionEvent{
		Type:      pe.Type,
		EntityID:  target.EntityID,
		PointerID: pe.PointerID,
		Button:    pe.Button,
		CanvasX:   pe.Canvas[0],
		CanvasY:   pe.Canvas[1],
		Detail:    pe.ClickCount,
		Modifiers: pe.Modifiers,
		DeltaX:    dx,
		DeltaY:    dy,
	})
}

func isMouse(t PointerType) bool {
	return t == PointerMouse || t == PointerPen
}

func (b *EventBoundary) mapPointerDown(in PointerInput) {
	target := b.hitTarget(in.Client)
	if target == nil {
		return
	}
	e := b.createPointerEvent(in, EventPointerDown, target)
	b.dispatch(e, EventPointerDown)
	switch {
	case in.PointerType == PointerTouch:
		b.dispatch(e, EventTouchStart)
	case isMouse(in.PointerType):
		if in.Button == ButtonSecondary {
			b.dispatch(e, EventRightDown)
		} else {
			b.dispatch(e, EventMouseDown)
		}
	}

	td := b.trackingData(in.PointerID)
	td.pressTargetsByButton[in.Button] = append(td.pressTargetsByButton[in.Button][:0], e.ComposedPath()...)
	b.pool.free(e)
}

func (b *EventBoundary) mapPointerMove(in PointerInput) {
	target := b.hitTarget(in.Client)
	if target == nil {
		b.mapPointerOut(in)
		return
	}
	mouse := isMouse(in.PointerType)
	td := b.trackingData(in.PointerID)
	e := b.createPointerEvent(in, EventPointerMove, target)
	newPath := append(b.pathBuf[:0], e.ComposedPath()...)
	b.pathBuf = newPath

	outTarget := FindMountedTarget(td.overTargets)
	if len(td.overTargets) > 0 && outTarget != target {
		out := b.createPointerEvent(in, EventPointerOut, outTarget)
		b.dispatch(out, EventPointerOut)
		if mouse {
			b.dispatch(out, EventMouseOut)
		}
		if !slices.Contains(newPath, outTarget) {
			leave := b.createPointerEvent(in, EventPointerLeave, outTarget)
			leave.Bubbles = false
			leave.path = composedPath(outTarget, leave.path[:0])
			for n := outTarget; n != nil && !slices.Contains(newPath, n); n = n.Parent {
				b.notifyAt(leave, EventPointerLeave, n)
				if mouse {
					b.notifyAt(leave, EventMouseLeave, n)
				}
			}
			b.pool.free(leave)
		}
		b.pool.free(out)
	}

	if outTarget != target {
		over := b.createPointerEvent(in, EventPointerOver, target)
		b.dispatch(over, EventPointerOver)
		if mouse {
			b.dispatch(over, EventMouseOver)
		}
		b.fireEnter(in, newPath, td.overTargets, mouse)
		b.pool.free(over)
	}

	b.dispatch(e, EventPointerMove)
	switch {
	case in.PointerType == PointerTouch:
		b.dispatch(e, EventTouchMove)
	case mouse:
		b.dispatch(e, EventMouseMove)
	}

	td.overTargets = append(td.overTargets[:0], newPath...)
	b.pool.free(e)
}

// fireEnter dispatches non-bubbling enter events to every node of newPath
// that is not in oldPath, outermost first.
func (b *EventBoundary) fireEnter(in PointerInput, newPath, oldPath []*Node, mouse bool) {
	entered := b.enterBuf[:0]
	for _, n := range newPath {
		if !slices.Contains(oldPath, n) {
			entered = append(entered, n)
		}
	}
	b.enterBuf = entered
	if len(entered) == 0 {
		return
	}
	enter := b.createPointerEvent(in, EventPointerEnter, newPath[0])
	enter.Bubbles = false
	enter.path = append(enter.path[:0], newPath...)
	for i := len(entered) - 1; i >= 0; i-- {
		b.notifyAt(enter, EventPointerEnter, entered[i])
		if mouse {
			b.notifyAt(enter, EventMouseEnter, entered[i])
		}
	}
	b.pool.free(enter)
	clear(b.enterBuf)
}

func (b *EventBoundary) mapPointerOver(in PointerInput) {
	target := b.hitTarget(in.Client)
	if target == nil {
		return
	}
	mouse := isMouse(in.PointerType)
	td := b.trackingData(in.PointerID)
	over := b.createPointerEvent(in, EventPointerOver, target)
	b.dispatch(over, EventPointerOver)
	if mouse {
		b.dispatch(over, EventMouseOver)
	}
	path := append(b.pathBuf[:0], over.ComposedPath()...)
	b.pathBuf = path
	b.fireEnter(in, path, nil, mouse)
	td.overTargets = append(td.overTargets[:0], path...)
	b.pool.free(over)
}

// mapPointerOut handles the pointer leaving the canvas: the node it was over
// gets an out event and every node of the old path gets a leave event.
func (b *EventBoundary) mapPointerOut(in PointerInput) {
	td := b.trackingData(in.PointerID)
	if len(td.overTargets) == 0 {
		return
	}
	mouse := isMouse(in.PointerType)
	outTarget := FindMountedTarget(td.overTargets)
	if outTarget != nil {
		out := b.createPointerEvent(in, EventPointerOut, outTarget)
		b.dispatch(out, EventPointerOut)
		if mouse {
			b.dispatch(out, EventMouseOut)
		}
		b.pool.free(out)

		leave := b.createPointerEvent(in, EventPointerLeave, outTarget)
		leave.Bubbles = false
		leave.path = composedPath(outTarget, leave.path[:0])
		for n := outTarget; n != nil; n = n.Parent {
			b.notifyAt(leave, EventPointerLeave, n)
			if mouse {
				b.notifyAt(leave, EventMouseLeave, n)
			}
		}
		b.pool.free(leave)
	}
	clear(td.overTargets)
	td.overTargets = td.overTargets[:0]
}

func (b *EventBoundary) mapPointerUp(in PointerInput) {
	td := b.trackingData(in.PointerID)
	target := b.hitTarget(in.Client)
	if target == nil {
		target = b.scene.root
	}
	mouse := isMouse(in.PointerType)
	e := b.createPointerEvent(in, EventPointerUp, target)
	b.dispatch(e, EventPointerUp)
	switch {
	case in.PointerType == PointerTouch:
		b.dispatch(e, EventTouchEnd)
	case mouse:
		if in.Button == ButtonSecondary {
			b.dispatch(e, EventRightUp)
		} else {
			b.dispatch(e, EventMouseUp)
		}
	}

	path := append(b.pathBuf[:0], e.ComposedPath()...)
	b.pathBuf = path
	pressPath := td.pressTargetsByButton[in.Button]
	pressTarget := FindMountedTarget(pressPath)
	clickTarget := pressTarget

	if pressTarget != nil && !slices.Contains(path, pressTarget) {
		outside := b.createPointerEvent(in, EventPointerUpOutside, pressTarget)
		outside.EventPhase = PhaseBubbling
		outside.path = composedPath(pressTarget, outside.path[:0])
		cur := pressTarget
		for cur != nil && !slices.Contains(path, cur) {
			outside.CurrentTarget = cur
			b.notifyOutside(outside, EventPointerUpOutside, cur)
			switch {
			case in.PointerType == PointerTouch:
				b.notifyOutside(outside, EventTouchEndOutside, cur)
			case mouse:
				if in.Button == ButtonSecondary {
					b.notifyOutside(outside, EventRightUpOutside, cur)
				} else {
					b.notifyOutside(outside, EventMouseUpOutside, cur)
				}
			}
			cur = cur.Parent
		}
		b.pool.free(outside)
		clickTarget = cur
	}
	if pressPath != nil {
		clear(pressPath)
		delete(td.pressTargetsByButton, in.Button)
	}

	if clickTarget != nil {
		b.fireClick(in, td, clickTarget, mouse)
	}
	b.pool.free(e)
}

func (b *EventBoundary) notifyOutside(ev *FederatedPointerEvent, typ string, target *Node) {
	ev.Type = typ
	ev.CurrentTarget = target
	notifyTarget(ev, typ)
	b.emit(ev, target)
}

func (b *EventBoundary) fireClick(in PointerInput, td *pointerTracking, target *Node, mouse bool) {
	run := td.clicksByButton[in.Button]
	if run == nil {
		run = &clickRun{target: target, at: in.TimeStamp}
		td.clicksByButton[in.Button] = run
	}
	if run.target == target && in.TimeStamp-run.at < b.ClickWindow {
		run.count++
	} else {
		run.count = 1
	}
	run.target = target
	run.at = in.TimeStamp

	click := b.createPointerEvent(in, EventClick, target)
	click.ClickCount = run.count
	click.Detail = run.count
	switch {
	case mouse && in.Button == ButtonSecondary:
		b.dispatch(click, EventRightClick)
	case in.PointerType == PointerTouch:
		b.dispatch(click, EventClick)
		b.dispatch(click, EventTap)
	default:
		b.dispatch(click, EventClick)
	}
	b.dispatch(click, EventPointerTap)
	b.pool.free(click)
}

func (b *EventBoundary) mapPointerCancel(in PointerInput) {
	td := b.trackingData(in.PointerID)
	target := FindMountedTarget(td.overTargets)
	if target == nil {
		target = b.hitTarget(in.Client)
	}
	if target != nil {
		e := b.createPointerEvent(in, EventPointerCancel, target)
		b.dispatch(e, EventPointerCancel)
		b.pool.free(e)
	}
	clear(td.pressTargetsByButton)
}

// FindMountedTarget returns the deepest node of a stored propagation path
// [target, ..., root] whose ancestor links are still intact. Nodes detached
// since the path was recorded are skipped.
func FindMountedTarget(path []*Node) *Node {
	if len(path) == 0 {
		return nil
	}
	cur := path[len(path)-1]
	for i := len(path) - 2; i >= 0; i-- {
		if path[i].Parent != cur {
			break
		}
		cur = path[i]
	}
	return cur
}
