package ebitenrender

import (
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

const (
	mousePointerID = 1
	touchPointerID = 2 // plus the Ebitengine touch ID
)

// DOM-style button bits.
const (
	buttonsPrimary   = 1 << 0
	buttonsSecondary = 1 << 1
	buttonsAuxiliary = 1 << 2
)

var buttonBits = [...]struct {
	bit    int
	button int
}{
	{buttonsPrimary, arbor.ButtonPrimary},
	{buttonsSecondary, arbor.ButtonSecondary},
	{buttonsAuxiliary, arbor.ButtonAuxiliary},
}

// pointerState is the last observed state of one pointer.
type pointerState struct {
	active      bool
	inside      bool
	primary     bool
	pointerType arbor.PointerType
	pos         mgl64.Vec2
	buttons     int
}

// diffPointer appends the pointer inputs that take a pointer from prev to
// cur: over when it enters the canvas, move, down for newly pressed buttons,
// up for released ones, and out when it leaves.
func diffPointer(id int, prev, cur pointerState, mods arbor.KeyModifiers, ts time.Duration, out []arbor.PointerInput) []arbor.PointerInput {
	src := cur
	if !cur.active {
		src = prev
		src.buttons = 0
	}
	mk := func(typ string, button, buttons int) arbor.PointerInput {
		pressure := 0.0
		if buttons != 0 {
			pressure = 0.5
		}
		return arbor.PointerInput{
			Type:        typ,
			PointerID:   id,
			PointerType: src.pointerType,
			IsPrimary:   src.primary,
			Button:      button,
			Buttons:     buttons,
			Pressure:    pressure,
			Client:      src.pos,
			Modifiers:   mods,
			TimeStamp:   ts,
		}
	}

	wasInside := prev.active && prev.inside
	isInside := cur.active && cur.inside
	if isInside && !wasInside {
		out = append(out, mk(arbor.EventPointerOver, -1, cur.buttons))
	}
	if isInside && (cur.pos != prev.pos || !wasInside) {
		out = append(out, mk(arbor.EventPointerMove, -1, cur.buttons))
	}
	buttons := prev.buttons
	for _, bb := range buttonBits {
		pressed := src.buttons&bb.bit != 0
		was := prev.active && prev.buttons&bb.bit != 0
		switch {
		case pressed && !was && isInside:
			buttons |= bb.bit
			out = append(out, mk(arbor.EventPointerDown, bb.button, buttons))
		case !pressed && was:
			buttons &^= bb.bit
			out = append(out, mk(arbor.EventPointerUp, bb.button, buttons))
		}
	}
	if wasInside && !isInside {
		out = append(out, mk(arbor.EventPointerOut, -1, 0))
	}
	return out
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() arbor.KeyModifiers {
	var mods arbor.KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= arbor.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= arbor.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= arbor.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= arbor.ModMeta
	}
	return mods
}

func mouseButtons() int {
	var b int
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		b |= buttonsPrimary
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		b |= buttonsSecondary
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle) {
		b |= buttonsAuxiliary
	}
	return b
}

// Pump polls Ebitengine's mouse, touch and wheel state once per tick and
// maps the transitions into a scene's event boundary.
type Pump struct {
	mouse    pointerState
	touches  map[ebiten.TouchID]pointerState
	touchIDs []ebiten.TouchID
	buf      []arbor.PointerInput
}

// Poll reads input and dispatches it. ts is the timestamp stamped on every
// generated event.
func (p *Pump) Poll(s *arbor.Scene, ts time.Duration) {
	mods := readModifiers()
	w, h := s.Size()
	inside := func(v mgl64.Vec2) bool {
		return v[0] >= 0 && v[1] >= 0 && v[0] < w && v[1] < h
	}

	mx, my := ebiten.CursorPosition()
	cur := pointerState{
		active:      true,
		primary:     true,
		pointerType: arbor.PointerMouse,
		pos:         mgl64.Vec2{float64(mx), float64(my)},
		buttons:     mouseButtons(),
	}
	cur.inside = inside(cur.pos)
	p.buf = diffPointer(mousePointerID, p.mouse, cur, mods, ts, p.buf[:0])
	p.mouse = cur

	if p.touches == nil {
		p.touches = make(map[ebiten.TouchID]pointerState)
	}
	p.touchIDs = ebiten.AppendTouchIDs(p.touchIDs[:0])
	for i, id := range p.touchIDs {
		tx, ty := ebiten.TouchPosition(id)
		t := pointerState{
			active:      true,
			primary:     i == 0,
			pointerType: arbor.PointerTouch,
			pos:         mgl64.Vec2{float64(tx), float64(ty)},
			buttons:     buttonsPrimary,
		}
		t.inside = inside(t.pos)
		p.buf = diffPointer(touchPointerID+int(id), p.touches[id], t, mods, ts, p.buf)
		p.touches[id] = t
	}
	for id, prev := range p.touches {
		if slices.Contains(p.touchIDs, id) {
			continue
		}
		p.buf = diffPointer(touchPointerID+int(id), prev, pointerState{}, mods, ts, p.buf)
		delete(p.touches, id)
	}

	events := s.Events()
	for _, in := range p.buf {
		events.MapPointer(in)
	}

	if dx, dy := ebiten.Wheel(); (dx != 0 || dy != 0) && cur.inside {
		events.MapWheel(arbor.WheelInput{
			PointerInput: arbor.PointerInput{
				Type:        arbor.EventWheel,
				PointerID:   mousePointerID,
				PointerType: arbor.PointerMouse,
				IsPrimary:   true,
				Buttons:     cur.buttons,
				Client:      cur.pos,
				Modifiers:   mods,
				TimeStamp:   ts,
			},
			DeltaX: dx,
			DeltaY: dy,
		})
	}
}
