package arbor

import (
	"slices"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Tween animates up to 4 float64 channels of a Node simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenRotation, TweenFill, TweenStroke, TweenLineWidth) and either call
// Update(dt) each frame or hand it to Scene.Animate. Values are written
// through the node's setters, so transforms and bounds are invalidated as
// usual. If the target node is destroyed, the tween stops immediately.
type Tween struct {
	tweens [4]*gween.Tween
	count  int
	values [4]float64
	apply  func(n *Node, v [4]float64)
	target *Node
	Done   bool
}

func newTween(node *Node, from, to []float64, duration float32, fn ease.TweenFunc, apply func(*Node, [4]float64)) *Tween {
	if fn == nil {
		fn = ease.Linear
	}
	t := &Tween{count: len(from), target: node, apply: apply}
	for i := range from {
		t.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
		t.values[i] = from[i]
	}
	return t
}

// Target returns the animated node.
func (t *Tween) Target() *Node {
	return t.target
}

// Update advances all channels by dt seconds and applies the values. If the
// target node has been destroyed, Done is set and nothing is written.
func (t *Tween) Update(dt float32) {
	if t.Done {
		return
	}
	if t.target == nil || t.target.IsDestroyed() {
		t.Done = true
		return
	}

	allDone := true
	for i := 0; i < t.count; i++ {
		val, finished := t.tweens[i].Update(dt)
		t.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	t.Done = allDone
	t.apply(t.target, t.values)
}

// TweenPosition animates the node's local x and y to (toX, toY).
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *Tween {
	p := node.LocalPosition()
	return newTween(node, []float64{p[0], p[1]}, []float64{toX, toY}, duration, fn, func(n *Node, v [4]float64) {
		n.SetLocalPosition(v[0], v[1], n.LocalPosition()[2])
	})
}

// TweenScale animates the node's local x and y scale.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *Tween {
	s := node.LocalScale()
	return newTween(node, []float64{s[0], s[1]}, []float64{toSX, toSY}, duration, fn, func(n *Node, v [4]float64) {
		n.SetLocalScale(v[0], v[1], n.LocalScale()[2])
	})
}

// TweenRotation animates the node's local rotation about z, in degrees. Any
// rotation about x or y is discarded.
func TweenRotation(node *Node, toDeg float64, duration float32, fn ease.TweenFunc) *Tween {
	from := node.RotationZ()
	if p := node.Parent; p != nil {
		from -= p.RotationZ()
	}
	return newTween(node, []float64{from}, []float64{toDeg}, duration, fn, func(n *Node, v [4]float64) {
		n.SetLocalEulerAngles(0, 0, v[0])
	})
}

// TweenFill animates all four components of the fill color.
func TweenFill(node *Node, to Color, duration float32, fn ease.TweenFunc) *Tween {
	c := node.Style.Fill
	return newTween(node, []float64{c.R, c.G, c.B, c.A}, []float64{to.R, to.G, to.B, to.A}, duration, fn, func(n *Node, v [4]float64) {
		st := n.Style
		st.Fill = Color{v[0], v[1], v[2], v[3]}
		n.SetStyle(st)
	})
}

// TweenStroke animates all four components of the stroke color.
func TweenStroke(node *Node, to Color, duration float32, fn ease.TweenFunc) *Tween {
	c := node.Style.Stroke
	return newTween(node, []float64{c.R, c.G, c.B, c.A}, []float64{to.R, to.G, to.B, to.A}, duration, fn, func(n *Node, v [4]float64) {
		st := n.Style
		st.Stroke = Color{v[0], v[1], v[2], v[3]}
		n.SetStyle(st)
	})
}

// TweenLineWidth animates the stroke width.
func TweenLineWidth(node *Node, to float64, duration float32, fn ease.TweenFunc) *Tween {
	return newTween(node, []float64{node.Style.LineWidth}, []float64{to}, duration, fn, func(n *Node, v [4]float64) {
		st := n.Style
		st.LineWidth = v[0]
		n.SetStyle(st)
	})
}

// --- Scene-driven animations ---

// Animate registers t to be advanced by Tick until it finishes.
func (s *Scene) Animate(t *Tween) *Tween {
	if t != nil && !t.Done && !slices.Contains(s.animations, t) {
		s.animations = append(s.animations, t)
	}
	return t
}

// CancelAnimations stops every registered tween targeting n.
func (s *Scene) CancelAnimations(n *Node) {
	s.animations = slices.DeleteFunc(s.animations, func(t *Tween) bool {
		return t.target == n
	})
}

// NumAnimations returns the number of registered, unfinished tweens.
func (s *Scene) NumAnimations() int {
	return len(s.animations)
}

func (s *Scene) updateAnimations(dt float32) {
	if len(s.animations) == 0 {
		return
	}
	for _, t := range s.animations {
		t.Update(dt)
	}
	s.animations = slices.DeleteFunc(s.animations, func(t *Tween) bool {
		return t.Done
	})
}
