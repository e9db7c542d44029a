package arbor

// Listener handles a dispatched event.
type Listener func(Event)

// ListenerOptions configures AddEventListener.
type ListenerOptions struct {
	// Capture registers the listener for the capture phase.
	Capture bool
	// Once removes the listener after its first invocation.
	Once bool
}

type listenerEntry struct {
	id   uint32
	fn   Listener
	once bool
}

type listenerLists struct {
	capture []listenerEntry
	bubble  []listenerEntry
}

func (l *listenerLists) list(capture bool) *[]listenerEntry {
	if capture {
		return &l.capture
	}
	return &l.bubble
}

// eventTarget stores a node's listeners by event type.
type eventTarget struct {
	byType   map[string]*listenerLists
	nextID   uint32
	removals uint32
}

func (t *eventTarget) add(typ string, fn Listener, opts ListenerOptions) ListenerHandle {
	if t.byType == nil {
		t.byType = make(map[string]*listenerLists)
	}
	l := t.byType[typ]
	if l == nil {
		l = &listenerLists{}
		t.byType[typ] = l
	}
	t.nextID++
	id := t.nextID
	list := l.list(opts.Capture)
	*list = append(*list, listenerEntry{id: id, fn: fn, once: opts.Once})
	return ListenerHandle{remove: func() { t.remove(typ, opts.Capture, id) }}
}

func (t *eventTarget) remove(typ string, capture bool, id uint32) {
	l := t.byType[typ]
	if l == nil {
		return
	}
	list := l.list(capture)
	for i, e := range *list {
		if e.id != id {
			continue
		}
		copy((*list)[i:], (*list)[i+1:])
		(*list)[len(*list)-1] = listenerEntry{}
		*list = (*list)[:len(*list)-1]
		t.removals++
		if len(l.capture) == 0 && len(l.bubble) == 0 {
			delete(t.byType, typ)
		}
		return
	}
}

func (t *eventTarget) contains(typ string, capture bool, id uint32) bool {
	l := t.byType[typ]
	if l == nil {
		return false
	}
	for _, e := range *l.list(capture) {
		if e.id == id {
			return true
		}
	}
	return false
}

func (t *eventTarget) has(typ string) bool {
	_, ok := t.byType[typ]
	return ok
}

func (t *eventTarget) hasCapture(typ string) bool {
	l := t.byType[typ]
	return l != nil && len(l.capture) > 0
}

func (t *eventTarget) count(typ string) int {
	l := t.byType[typ]
	if l == nil {
		return 0
	}
	return len(l.capture) + len(l.bubble)
}

// notify runs the capture or bubble listeners registered for typ. Listeners
// added during the call do not run; listeners removed during it are skipped.
func (t *eventTarget) notify(ev Event, typ string, capture bool) {
	l := t.byType[typ]
	if l == nil {
		return
	}
	list := *l.list(capture)
	if len(list) == 0 {
		return
	}
	var buf [8]listenerEntry
	snap := append(buf[:0], list...)
	removals := t.removals
	e := ev.Base()
	for _, le := range snap {
		if t.removals != removals && !t.contains(typ, capture, le.id) {
			continue
		}
		if le.once {
			t.remove(typ, capture, le.id)
		}
		le.fn(ev)
		if e.propagationImmediatelyStopped {
			return
		}
	}
}

// AddEventListener registers fn for events of type typ on n. Without options
// the listener runs in the target and bubble phases.
func (n *Node) AddEventListener(typ string, fn Listener, opts ...ListenerOptions) ListenerHandle {
	var o ListenerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if fn == nil || n.destroyed {
		return ListenerHandle{}
	}
	return n.listeners.add(typ, fn, o)
}

// On is shorthand for AddEventListener without options.
func (n *Node) On(typ string, fn Listener) ListenerHandle {
	return n.AddEventListener(typ, fn)
}

// Once registers fn to run for the next event of type typ only.
func (n *Node) Once(typ string, fn Listener) ListenerHandle {
	return n.AddEventListener(typ, fn, ListenerOptions{Once: true})
}

// RemoveAllEventListeners removes the listeners for typ, or every listener
// when typ is empty.
func (n *Node) RemoveAllEventListeners(typ string) {
	if typ == "" {
		n.listeners.byType = nil
	} else {
		delete(n.listeners.byType, typ)
	}
	n.listeners.removals++
}

// HasEventListener reports whether n has any listener for typ.
func (n *Node) HasEventListener(typ string) bool {
	return n.listeners.has(typ)
}

// ListenerCount returns the number of listeners registered for typ.
func (n *Node) ListenerCount(typ string) int {
	return n.listeners.count(typ)
}

// DispatchEvent dispatches ev with n as its target through the capture,
// target and bubble phases. It reports false if a listener called
// PreventDefault.
func (n *Node) DispatchEvent(ev Event) bool {
	e := ev.Base()
	e.Target = n
	e.path = composedPath(n, e.path[:0])
	e.propagationStopped = false
	e.propagationImmediatelyStopped = false
	propagate(ev, e.Type)
	if n.scene != nil {
		n.scene.events.emit(ev, n)
	}
	return !e.defaultPrevented
}

// propagate delivers ev along its composed path. Capture listeners run from
// the root down to the target's parent, then the target's capture and bubble
// listeners, then bubble listeners back up to the root when the event bubbles.
func propagate(ev Event, typ string) {
	e := ev.Base()
	if e.Target == nil {
		return
	}
	path := e.ComposedPath()

	e.EventPhase = PhaseCapturing
	for i := len(path) - 1; i > 0; i-- {
		e.CurrentTarget = path[i]
		path[i].listeners.notify(ev, typ, true)
		if e.propagationStopped {
			return
		}
	}

	e.EventPhase = PhaseAtTarget
	e.CurrentTarget = e.Target
	notifyTarget(ev, typ)
	if e.propagationStopped || !e.Bubbles {
		return
	}

	e.EventPhase = PhaseBubbling
	for i := 1; i < len(path); i++ {
		e.CurrentTarget = path[i]
		path[i].listeners.notify(ev, typ, false)
		if e.propagationStopped {
			return
		}
	}
}

// notifyTarget runs the listeners of ev.CurrentTarget that match the current
// phase. At the target both capture and bubble listeners run.
func notifyTarget(ev Event, typ string) {
	e := ev.Base()
	t := &e.CurrentTarget.listeners
	if e.EventPhase == PhaseCapturing || e.EventPhase == PhaseAtTarget {
		t.notify(ev, typ, true)
		if e.propagationImmediatelyStopped {
			return
		}
	}
	if e.EventPhase == PhaseAtTarget || e.EventPhase == PhaseBubbling {
		t.notify(ev, typ, false)
	}
}
