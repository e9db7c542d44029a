package arbor

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Event type names.
const (
	EventPointerDown      = "pointerdown"
	EventPointerUp        = "pointerup"
	EventPointerUpOutside = "pointerupoutside"
	EventPointerMove      = "pointermove"
	EventPointerOver      = "pointerover"
	EventPointerOut       = "pointerout"
	EventPointerEnter     = "pointerenter"
	EventPointerLeave     = "pointerleave"
	EventPointerCancel    = "pointercancel"
	EventPointerTap       = "pointertap"
	EventClick            = "click"
	EventRightClick       = "rightclick"
	EventRightDown        = "rightdown"
	EventRightUp          = "rightup"
	EventRightUpOutside   = "rightupoutside"
	EventMouseDown        = "mousedown"
	EventMouseUp          = "mouseup"
	EventMouseUpOutside   = "mouseupoutside"
	EventMouseMove        = "mousemove"
	EventMouseOver        = "mouseover"
	EventMouseOut         = "mouseout"
	EventMouseEnter       = "mouseenter"
	EventMouseLeave       = "mouseleave"
	EventTouchStart       = "touchstart"
	EventTouchEnd         = "touchend"
	EventTouchEndOutside  = "touchendoutside"
	EventTouchMove        = "touchmove"
	EventTap              = "tap"
	EventWheel            = "wheel"
	EventBoundsChanged    = "boundschanged"
)

// EventPhase is the propagation phase an event is in.
type EventPhase uint8

const (
	PhaseNone EventPhase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

var phaseNames = [...]string{"none", "capture", "target", "bubble"}

func (p EventPhase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// PointerType identifies the kind of device behind a pointer event.
type PointerType string

const (
	PointerMouse PointerType = "mouse"
	PointerTouch PointerType = "touch"
	PointerPen   PointerType = "pen"
)

// Mouse button numbers, matching the DOM.
const (
	ButtonPrimary   = 0
	ButtonAuxiliary = 1
	ButtonSecondary = 2
)

// Event is implemented by every federated event type.
type Event interface {
	Base() *FederatedEvent
}

// FederatedEvent is the engine-level event dispatched through the node tree.
type FederatedEvent struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	EventPhase    EventPhase
	Bubbles       bool
	TimeStamp     time.Duration
	Detail        any
	// Native is the platform event this was derived from, if any.
	Native any

	path                          []*Node
	propagationStopped            bool
	propagationImmediatelyStopped bool
	defaultPrevented              bool
}

// Base returns e.
func (e *FederatedEvent) Base() *FederatedEvent { return e }

// ComposedPath returns the propagation path [target, parent, ..., root].
// The path is cached until Target changes.
func (e *FederatedEvent) ComposedPath() []*Node {
	if len(e.path) == 0 || e.path[0] != e.Target {
		e.path = composedPath(e.Target, e.path[:0])
	}
	return e.path
}

func composedPath(target *Node, buf []*Node) []*Node {
	for n := target; n != nil; n = n.Parent {
		buf = append(buf, n)
	}
	return buf
}

// StopPropagation prevents the event from reaching further nodes. Remaining
// listeners on the current node still run.
func (e *FederatedEvent) StopPropagation() {
	e.propagationStopped = true
}

// StopImmediatePropagation prevents any further listener from running.
func (e *FederatedEvent) StopImmediatePropagation() {
	e.propagationStopped = true
	e.propagationImmediatelyStopped = true
}

// PreventDefault marks the event as handled.
func (e *FederatedEvent) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *FederatedEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}

// PropagationStopped reports whether StopPropagation was called.
func (e *FederatedEvent) PropagationStopped() bool {
	return e.propagationStopped
}

// FederatedPointerEvent is a pointer event in canvas space.
type FederatedPointerEvent struct {
	FederatedEvent

	PointerID   int
	PointerType PointerType
	IsPrimary   bool
	Button      int
	Buttons     int
	Pressure    float64
	Modifiers   KeyModifiers

	// Client is the position in viewport pixels; Canvas in canvas units.
	Client mgl64.Vec2
	Canvas mgl64.Vec2

	// ClickCount is the number of clicks in the current multi-click run.
	// Only set on click events.
	ClickCount int
}

// Local converts the event position into the current target's local space.
func (e *FederatedPointerEvent) Local() mgl64.Vec2 {
	if e.CurrentTarget == nil {
		return e.Canvas
	}
	return e.CurrentTarget.WorldToLocal(e.Canvas.Vec3(0)).Vec2()
}

// FederatedWheelEvent is a wheel event.
type FederatedWheelEvent struct {
	FederatedPointerEvent
	DeltaX, DeltaY, DeltaZ float64
}

// --- Pooling ---

// eventPool recycles events per concrete type. Allocated events are zeroed;
// listeners must not retain an event after dispatch returns.
type eventPool struct {
	pointer []*FederatedPointerEvent
	wheel   []*FederatedWheelEvent
}

func (p *eventPool) allocPointer() *FederatedPointerEvent {
	if n := len(p.pointer); n > 0 {
		e := p.pointer[n-1]
		p.pointer[n-1] = nil
		p.pointer = p.pointer[:n-1]
		path := e.path[:0]
		*e = FederatedPointerEvent{}
		e.path = path
		return e
	}
	return &FederatedPointerEvent{}
}

func (p *eventPool) allocWheel() *FederatedWheelEvent {
	if n := len(p.wheel); n > 0 {
		e := p.wheel[n-1]
		p.wheel[n-1] = nil
		p.wheel = p.wheel[:n-1]
		path := e.path[:0]
		*e = FederatedWheelEvent{}
		e.path = path
		return e
	}
	return &FederatedWheelEvent{}
}

func (p *eventPool) free(e Event) {
	switch v := e.(type) {
	case *FederatedPointerEvent:
		clear(v.path)
		v.Target, v.CurrentTarget, v.Native, v.Detail = nil, nil, nil, nil
		p.pointer = append(p.pointer, v)
	case *FederatedWheelEvent:
		clear(v.path)
		v.Target, v.CurrentTarget, v.Native, v.Detail = nil, nil, nil, nil
		p.wheel = append(p.wheel, v)
	}
}
