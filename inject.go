package arbor

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// injectStep is the synthetic time between two injected events.
const injectStep = 16 * time.Millisecond

// InjectPress queues a primary-button mouse press at the given viewport
// coordinates. Queued input is consumed one event per Tick.
func (s *Scene) InjectPress(x, y float64) {
	s.inject(EventPointerDown, x, y, 1)
}

// InjectMove queues a mouse move at the given viewport coordinates. Between
// InjectPress and InjectRelease the primary button is reported as held.
func (s *Scene) InjectMove(x, y float64) {
	buttons := 0
	if s.injectDown {
		buttons = 1
	}
	s.inject(EventPointerMove, x, y, buttons)
}

// InjectRelease queues a primary-button release at the given viewport
// coordinates.
func (s *Scene) InjectRelease(x, y float64) {
	s.inject(EventPointerUp, x, y, 0)
}

// InjectClick is a convenience that queues a press followed by a release
// at the same viewport coordinates. Consumes two ticks.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate ticks, and
// release at (toX, toY). Minimum frames is 2 (press + release).
func (s *Scene) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

// InjectedPending returns the number of queued synthetic events.
func (s *Scene) InjectedPending() int {
	return len(s.injectQueue)
}

func (s *Scene) inject(typ string, x, y float64, buttons int) {
	switch typ {
	case EventPointerDown:
		s.injectDown = true
	case EventPointerUp:
		s.injectDown = false
	}
	s.injectClock += injectStep
	s.injectQueue = append(s.injectQueue, PointerInput{
		Type:        typ,
		PointerID:   1,
		PointerType: PointerMouse,
		IsPrimary:   true,
		Button:      ButtonPrimary,
		Buttons:     buttons,
		Pressure:    0.5 * float64(buttons),
		Client:      mgl64.Vec2{x, y},
		TimeStamp:   s.injectClock,
	})
}

// processInjectedInput pops one event from the inject queue and maps it
// through the event boundary. It reports whether an event was consumed.
func (s *Scene) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	in := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]
	s.events.MapPointer(in)
	return true
}
