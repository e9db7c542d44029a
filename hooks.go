package arbor

import (
	"context"
	"fmt"
)

// ListenerHandle removes a registered callback. The zero value is a no-op.
type ListenerHandle struct {
	remove func()
}

// Remove unregisters the callback so it no longer fires. Calling Remove more
// than once is harmless.
func (h ListenerHandle) Remove() {
	if h.remove != nil {
		h.remove()
	}
}

type tap[F any] struct {
	id   uint32
	name string
	fn   F
}

type tapList[F any] struct {
	taps   []tap[F]
	nextID uint32
}

func (l *tapList[F]) add(name string, fn F) ListenerHandle {
	l.nextID++
	id := l.nextID
	l.taps = append(l.taps, tap[F]{id: id, name: name, fn: fn})
	return ListenerHandle{remove: func() {
		for i := range l.taps {
			if l.taps[i].id == id {
				copy(l.taps[i:], l.taps[i+1:])
				l.taps[len(l.taps)-1] = tap[F]{}
				l.taps = l.taps[:len(l.taps)-1]
				return
			}
		}
	}}
}

// Len returns the number of registered taps.
func (l *tapList[F]) Len() int {
	return len(l.taps)
}

// SyncHook calls every tap in registration order.
type SyncHook[A any] struct {
	tapList[func(A)]
}

// Tap registers fn under name.
func (h *SyncHook[A]) Tap(name string, fn func(A)) ListenerHandle {
	return h.add(name, fn)
}

// Call invokes every tap with a.
func (h *SyncHook[A]) Call(a A) {
	for _, t := range h.taps {
		t.fn(a)
	}
}

// WaterfallHook threads a value through every tap; each tap receives the
// previous tap's result.
type WaterfallHook[A any] struct {
	tapList[func(A) A]
}

// Tap registers fn under name.
func (h *WaterfallHook[A]) Tap(name string, fn func(A) A) ListenerHandle {
	return h.add(name, fn)
}

// Call runs the waterfall starting from a.
func (h *WaterfallHook[A]) Call(a A) A {
	for _, t := range h.taps {
		a = t.fn(a)
	}
	return a
}

// AsyncWaterfallHook is a WaterfallHook whose taps may block and fail. Taps run
// strictly in series; the first error or context cancellation stops the chain.
type AsyncWaterfallHook[A any] struct {
	tapList[func(context.Context, A) (A, error)]
}

// Tap registers fn under name.
func (h *AsyncWaterfallHook[A]) Tap(name string, fn func(context.Context, A) (A, error)) ListenerHandle {
	return h.add(name, fn)
}

// Call runs the waterfall starting from a.
func (h *AsyncWaterfallHook[A]) Call(ctx context.Context, a A) (A, error) {
	for _, t := range h.taps {
		if err := ctx.Err(); err != nil {
			return a, err
		}
		var err error
		a, err = t.fn(ctx, a)
		if err != nil {
			return a, fmt.Errorf("arbor: hook %q: %w", t.name, err)
		}
	}
	return a, nil
}

// FrameInfo describes the frame being rendered.
type FrameInfo struct {
	Frame   uint64
	Reasons RenderReason
}

// Hooks are the extension points a renderer plugin taps into.
type Hooks struct {
	// Init runs once after every plugin has been initialized.
	Init SyncHook[*Scene]
	// Cull decides per node whether it is drawn. Returning nil culls the node;
	// taps after the one that culled receive nil.
	Cull WaterfallHook[*Node]
	// BeginFrame runs before the first node of a frame is drawn.
	BeginFrame SyncHook[FrameInfo]
	// BeforeRender, Render and AfterRender run for every node in the render list.
	BeforeRender SyncHook[*Node]
	Render       SyncHook[*Node]
	AfterRender  SyncHook[*Node]
	// EndFrame runs after the last node of a frame is drawn.
	EndFrame SyncHook[FrameInfo]
	// PickSync resolves a point pick. Renderer taps fill PickResult.Picked
	// with exact geometry tests.
	PickSync WaterfallHook[*PickResult]
	// Pick is the asynchronous counterpart of PickSync.
	Pick AsyncWaterfallHook[*PickResult]
	// Destroy runs when the scene is destroyed.
	Destroy SyncHook[*Scene]
}

// RendererPlugin draws the scene by tapping Hooks.
type RendererPlugin interface {
	Name() string
	Init(s *Scene, h *Hooks) error
}
