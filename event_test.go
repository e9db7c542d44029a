package arbor

import (
	"strings"
	"testing"
)

// eventTree builds root -> mid -> leaf without a scene.
func eventTree() (root, mid, leaf *Node) {
	root = NewGroup("root")
	mid = NewGroup("mid")
	leaf = NewRect("leaf", 10, 10)
	root.AppendChild(mid)
	mid.AppendChild(leaf)
	return root, mid, leaf
}

type eventLog struct {
	entries []string
}

func (l *eventLog) listener(label string) Listener {
	return func(e Event) {
		l.entries = append(l.entries, label+"@"+e.Base().EventPhase.String())
	}
}

func (l *eventLog) String() string {
	return strings.Join(l.entries, " ")
}

func TestPropagationOrder(t *testing.T) {
	root, mid, leaf := eventTree()
	var log eventLog
	capture := ListenerOptions{Capture: true}
	root.AddEventListener("ping", log.listener("root-capture"), capture)
	mid.AddEventListener("ping", log.listener("mid-capture"), capture)
	leaf.AddEventListener("ping", log.listener("leaf-capture"), capture)
	root.AddEventListener("ping", log.listener("root-bubble"))
	mid.AddEventListener("ping", log.listener("mid-bubble"))
	leaf.AddEventListener("ping", log.listener("leaf-bubble"))

	leaf.DispatchEvent(&FederatedEvent{Type: "ping", Bubbles: true})
	want := "root-capture@capture mid-capture@capture leaf-capture@target leaf-bubble@target mid-bubble@bubble root-bubble@bubble"
	if got := log.String(); got != want {
		t.Errorf("order:\n got %s\nwant %s", got, want)
	}
}

func TestPropagationNonBubbling(t *testing.T) {
	root, mid, leaf := eventTree()
	var log eventLog
	root.AddEventListener("ping", log.listener("root-capture"), ListenerOptions{Capture: true})
	mid.AddEventListener("ping", log.listener("mid-bubble"))
	leaf.AddEventListener("ping", log.listener("leaf"))

	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	if got, want := log.String(), "root-capture@capture leaf@target"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestCurrentTargetAndComposedPath(t *testing.T) {
	root, mid, leaf := eventTree()
	var current []string
	for _, n := range []*Node{root, mid, leaf} {
		n.On("ping", func(e Event) {
			current = append(current, e.Base().CurrentTarget.Name)
			if e.Base().Target != leaf {
				t.Errorf("Target = %s, want leaf", e.Base().Target.Name)
			}
		})
	}
	e := &FederatedEvent{Type: "ping", Bubbles: true}
	leaf.DispatchEvent(e)
	if got := strings.Join(current, ","); got != "leaf,mid,root" {
		t.Errorf("current targets = %s, want leaf,mid,root", got)
	}
	if got := strings.Join(names(e.ComposedPath()), ","); got != "leaf,mid,root" {
		t.Errorf("ComposedPath = %s, want leaf,mid,root", got)
	}
}

func TestStopPropagation(t *testing.T) {
	root, mid, leaf := eventTree()
	var log eventLog
	mid.AddEventListener("ping", func(e Event) {
		log.listener("mid-1")(e)
		e.Base().StopPropagation()
	}, ListenerOptions{Capture: true})
	mid.AddEventListener("ping", log.listener("mid-2"), ListenerOptions{Capture: true})
	leaf.On("ping", log.listener("leaf"))
	root.On("ping", log.listener("root"))

	e := &FederatedEvent{Type: "ping", Bubbles: true}
	leaf.DispatchEvent(e)
	if got, want := log.String(), "mid-1@capture mid-2@capture"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if !e.PropagationStopped() {
		t.Error("PropagationStopped should report true")
	}

	// Flags are reset for the next dispatch.
	log.entries = nil
	root.DispatchEvent(e)
	if got, want := log.String(), "root@target"; got != want {
		t.Errorf("redispatch got %s, want %s", got, want)
	}
}

func TestStopImmediatePropagation(t *testing.T) {
	_, mid, leaf := eventTree()
	var log eventLog
	leaf.On("ping", func(e Event) {
		log.listener("first")(e)
		e.Base().StopImmediatePropagation()
	})
	leaf.On("ping", log.listener("second"))
	mid.On("ping", log.listener("mid"))

	leaf.DispatchEvent(&FederatedEvent{Type: "ping", Bubbles: true})
	if got, want := log.String(), "first@target"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestPreventDefault(t *testing.T) {
	_, _, leaf := eventTree()
	if !leaf.DispatchEvent(&FederatedEvent{Type: "ping"}) {
		t.Error("DispatchEvent should report true without PreventDefault")
	}
	leaf.On("ping", func(e Event) { e.Base().PreventDefault() })
	e := &FederatedEvent{Type: "ping"}
	if leaf.DispatchEvent(e) {
		t.Error("DispatchEvent should report false after PreventDefault")
	}
	if !e.DefaultPrevented() {
		t.Error("DefaultPrevented should report true")
	}
}

func TestOnceListener(t *testing.T) {
	_, _, leaf := eventTree()
	calls := 0
	leaf.Once("ping", func(Event) { calls++ })
	if leaf.ListenerCount("ping") != 1 {
		t.Fatalf("ListenerCount = %d, want 1", leaf.ListenerCount("ping"))
	}
	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if leaf.HasEventListener("ping") {
		t.Error("once listener should be gone")
	}
}

func TestOnceListenerReentrantDispatch(t *testing.T) {
	_, _, leaf := eventTree()
	calls := 0
	leaf.Once("ping", func(Event) {
		calls++
		leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	})
	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRemoveListenerDuringDispatch(t *testing.T) {
	_, _, leaf := eventTree()
	var log eventLog
	var second ListenerHandle
	leaf.On("ping", func(e Event) {
		log.listener("first")(e)
		second.Remove()
	})
	second = leaf.On("ping", log.listener("second"))
	leaf.On("ping", log.listener("third"))

	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	if got, want := log.String(), "first@target third@target"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if leaf.ListenerCount("ping") != 2 {
		t.Errorf("ListenerCount = %d, want 2", leaf.ListenerCount("ping"))
	}
}

func TestAddListenerDuringDispatch(t *testing.T) {
	_, _, leaf := eventTree()
	calls := 0
	leaf.On("ping", func(Event) {
		leaf.On("ping", func(Event) { calls++ })
	})
	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	if calls != 0 {
		t.Errorf("listener added during dispatch ran %d times", calls)
	}
	if leaf.ListenerCount("ping") != 2 {
		t.Errorf("ListenerCount = %d, want 2", leaf.ListenerCount("ping"))
	}
}

func TestListenerHandleRemove(t *testing.T) {
	_, _, leaf := eventTree()
	calls := 0
	h := leaf.AddEventListener("ping", func(Event) { calls++ }, ListenerOptions{Capture: true})
	h.Remove()
	h.Remove()
	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	if calls != 0 {
		t.Errorf("removed listener ran %d times", calls)
	}
	if leaf.HasEventListener("ping") {
		t.Error("type entry should be dropped with its last listener")
	}
}

func TestCaptureAndBubbleAreSeparateRegistrations(t *testing.T) {
	_, _, leaf := eventTree()
	fn := func(Event) {}
	leaf.AddEventListener("ping", fn, ListenerOptions{Capture: true})
	h := leaf.AddEventListener("ping", fn)
	if leaf.ListenerCount("ping") != 2 {
		t.Fatalf("ListenerCount = %d, want 2", leaf.ListenerCount("ping"))
	}
	h.Remove()
	if leaf.ListenerCount("ping") != 1 {
		t.Errorf("ListenerCount = %d, want 1", leaf.ListenerCount("ping"))
	}
}

func TestRemoveAllEventListeners(t *testing.T) {
	_, _, leaf := eventTree()
	leaf.On("a", func(Event) {})
	leaf.On("b", func(Event) {})
	leaf.RemoveAllEventListeners("a")
	if leaf.HasEventListener("a") || !leaf.HasEventListener("b") {
		t.Error("RemoveAllEventListeners(a) should only drop a")
	}
	leaf.RemoveAllEventListeners("")
	if leaf.HasEventListener("b") {
		t.Error("RemoveAllEventListeners(\"\") should drop everything")
	}
}

func TestRemoveAllDuringDispatch(t *testing.T) {
	_, _, leaf := eventTree()
	calls := 0
	leaf.On("ping", func(Event) { leaf.RemoveAllEventListeners("") })
	leaf.On("ping", func(Event) { calls++ })
	leaf.DispatchEvent(&FederatedEvent{Type: "ping"})
	if calls != 0 {
		t.Errorf("listener removed mid-dispatch ran %d times", calls)
	}
}

func TestAddEventListenerIgnoresNilAndDestroyed(t *testing.T) {
	n := NewGroup("n")
	n.AddEventListener("ping", nil).Remove()
	if n.HasEventListener("ping") {
		t.Error("nil listener should not register")
	}
	n.Destroy()
	n.On("ping", func(Event) {}).Remove()
	if n.HasEventListener("ping") {
		t.Error("destroyed node should not accept listeners")
	}
}

func TestEventPhaseString(t *testing.T) {
	tests := []struct {
		p    EventPhase
		want string
	}{
		{PhaseNone, "none"},
		{PhaseCapturing, "capture"},
		{PhaseAtTarget, "target"},
		{PhaseBubbling, "bubble"},
		{EventPhase(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestEventPoolReuse(t *testing.T) {
	var p eventPool
	e := p.allocPointer()
	e.Type = "x"
	e.Target = NewGroup("n")
	e.ComposedPath()
	p.free(e)

	again := p.allocPointer()
	if again != e {
		t.Fatal("pool should hand back the freed event")
	}
	if again.Type != "" || again.Target != nil || len(again.path) != 0 {
		t.Error("reused event should be zeroed")
	}
}
