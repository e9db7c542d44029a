package arbor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// transformable holds a node's local TRS state and the cached matrices
// derived from it.
//
// Invariant: frozen implies !dirtyFlag and worldTransform equals the parent's
// worldTransform times localTransform.
type transformable struct {
	localPosition mgl64.Vec3
	localRotation mgl64.Quat
	localScale    mgl64.Vec3
	localSkew     mgl64.Vec2
	origin        mgl64.Vec3

	localTransform mgl64.Mat4
	worldTransform mgl64.Mat4

	localDirtyFlag bool
	dirtyFlag      bool
	frozen         bool
}

func (t *transformable) reset() {
	t.localPosition = mgl64.Vec3{}
	t.localRotation = mgl64.QuatIdent()
	t.localScale = mgl64.Vec3{1, 1, 1}
	t.localSkew = mgl64.Vec2{}
}

// composeLocal builds T * T(origin) * R * S * T(-origin), followed by a shear
// when skew is non-zero.
func composeLocal(t *transformable) mgl64.Mat4 {
	p, o, s := t.localPosition, t.origin, t.localScale
	m := mgl64.Translate3D(p[0]+o[0], p[1]+o[1], p[2]+o[2]).
		Mul4(t.localRotation.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2])).
		Mul4(mgl64.Translate3D(-o[0], -o[1], -o[2]))
	if t.localSkew[0] != 0 || t.localSkew[1] != 0 {
		tanX := math.Tan(t.localSkew[0])
		tanY := math.Tan(t.localSkew[1])
		shear := mgl64.Mat4{
			1, tanY, 0, 0,
			tanX, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}
		m = m.Mul4(shear)
	}
	return m
}

// --- Dirty propagation ---

// dirtifyLocal marks the local matrix stale and, if the node was clean,
// propagates world dirtiness to the subtree.
func dirtifyLocal(n *Node) {
	t := &n.transform
	t.localDirtyFlag = true
	if !t.dirtyFlag {
		dirtifyWorld(n)
	}
}

// dirtifyWorld unfreezes the ancestor chain, marks the subtree world-dirty and
// queues a bounds-changed notification covering the subtree.
func dirtifyWorld(n *Node) {
	unfreezeParentToRoot(n)
	dirtifyWorldInternal(n)
	DirtifyToRoot(n, true)
}

func unfreezeParentToRoot(n *Node) {
	for p := n.Parent; p != nil; p = p.Parent {
		p.transform.frozen = false
	}
}

func dirtifyWorldInternal(n *Node) {
	t := &n.transform
	if t.dirtyFlag {
		return
	}
	t.dirtyFlag = true
	t.frozen = false
	for _, c := range n.children {
		dirtifyWorldInternal(c)
	}
	r := &n.renderable
	r.boundsDirty = true
	r.renderBoundsDirty = true
	r.dirty = true
}

// sync recomputes the local matrix if stale, then the world matrix from the
// parent's cached world matrix.
func (n *Node) sync() {
	t := &n.transform
	if t.localDirtyFlag {
		t.localTransform = composeLocal(t)
		t.localDirtyFlag = false
	}
	if t.dirtyFlag {
		if n.Parent == nil {
			t.worldTransform = t.localTransform
		} else {
			t.worldTransform = n.Parent.transform.worldTransform.Mul4(t.localTransform)
		}
		t.dirtyFlag = false
	}
}

// SyncHierarchy recomputes world transforms for the subtree rooted at n,
// skipping frozen subtrees. Every visited node is frozen afterwards.
func SyncHierarchy(n *Node) {
	t := &n.transform
	if t.frozen {
		return
	}
	t.frozen = true
	if t.localDirtyFlag || t.dirtyFlag {
		n.sync()
	}
	for _, c := range n.children {
		SyncHierarchy(c)
	}
}

// WorldTransform returns the node's world matrix, lazily syncing the ancestor
// chain if any part of it is dirty.
func (n *Node) WorldTransform() mgl64.Mat4 {
	t := &n.transform
	if t.localDirtyFlag || t.dirtyFlag {
		if n.Parent != nil {
			n.Parent.WorldTransform()
		}
		n.sync()
	}
	return t.worldTransform
}

// LocalTransform returns the node's local matrix.
func (n *Node) LocalTransform() mgl64.Mat4 {
	t := &n.transform
	if t.localDirtyFlag {
		t.localTransform = composeLocal(t)
		t.localDirtyFlag = false
	}
	return t.localTransform
}

// --- Position ---

// LocalPosition returns the position relative to the parent.
func (n *Node) LocalPosition() mgl64.Vec3 {
	return n.transform.localPosition
}

// SetLocalPosition sets the position relative to the parent.
func (n *Node) SetLocalPosition(x, y, z float64) {
	p := mgl64.Vec3{x, y, z}
	if n.transform.localPosition == p {
		return
	}
	n.transform.localPosition = p
	dirtifyLocal(n)
}

// Position returns the world-space position.
func (n *Node) Position() mgl64.Vec3 {
	return n.WorldTransform().Col(3).Vec3()
}

// SetPosition moves the node so that its world-space position is (x, y, z).
func (n *Node) SetPosition(x, y, z float64) {
	p := mgl64.Vec3{x, y, z}
	if n.Parent != nil {
		inv := n.Parent.WorldTransform().Inv()
		p = inv.Mul4x1(p.Vec4(1)).Vec3()
	}
	n.SetLocalPosition(p[0], p[1], p[2])
}

// Translate moves the node by a world-space offset.
func (n *Node) Translate(dx, dy, dz float64) {
	if dx == 0 && dy == 0 && dz == 0 {
		return
	}
	p := n.Position()
	n.SetPosition(p[0]+dx, p[1]+dy, p[2]+dz)
}

// TranslateLocal moves the node by an offset expressed in its own rotated frame.
func (n *Node) TranslateLocal(dx, dy, dz float64) {
	if dx == 0 && dy == 0 && dz == 0 {
		return
	}
	t := &n.transform
	d := t.localRotation.Rotate(mgl64.Vec3{dx, dy, dz})
	t.localPosition = t.localPosition.Add(d)
	dirtifyLocal(n)
}

// --- Rotation ---

// LocalRotation returns the rotation relative to the parent.
func (n *Node) LocalRotation() mgl64.Quat {
	return n.transform.localRotation
}

// SetLocalRotation sets the rotation relative to the parent. q is normalized;
// a zero quaternion is ignored.
func (n *Node) SetLocalRotation(q mgl64.Quat) {
	if q.Len() == 0 {
		return
	}
	n.transform.localRotation = q.Normalize()
	dirtifyLocal(n)
}

// Rotation returns the accumulated world-space rotation.
func (n *Node) Rotation() mgl64.Quat {
	if n.Parent == nil {
		return n.transform.localRotation
	}
	return n.Parent.Rotation().Mul(n.transform.localRotation)
}

// SetRotation sets the world-space rotation.
func (n *Node) SetRotation(q mgl64.Quat) {
	if q.Len() == 0 {
		return
	}
	if n.Parent != nil {
		q = n.Parent.Rotation().Inverse().Mul(q)
	}
	n.SetLocalRotation(q)
}

// RotateLocal applies q after the current local rotation.
func (n *Node) RotateLocal(q mgl64.Quat) {
	if q.Len() == 0 {
		return
	}
	t := &n.transform
	t.localRotation = t.localRotation.Mul(q.Normalize()).Normalize()
	dirtifyLocal(n)
}

// Rotate applies Euler angles in degrees (x, y, z) to the local rotation.
func (n *Node) Rotate(x, y, z float64) {
	if x == 0 && y == 0 && z == 0 {
		return
	}
	n.RotateLocal(eulerToQuat(x, y, z))
}

// SetLocalEulerAngles sets the local rotation from Euler angles in degrees.
func (n *Node) SetLocalEulerAngles(x, y, z float64) {
	n.SetLocalRotation(eulerToQuat(x, y, z))
}

// SetEulerAngles sets the world-space rotation from Euler angles in degrees.
func (n *Node) SetEulerAngles(x, y, z float64) {
	n.SetRotation(eulerToQuat(x, y, z))
}

// RotationZ returns the world-space rotation about z in degrees. Only
// meaningful for planar (2D) rotations.
func (n *Node) RotationZ() float64 {
	q := n.Rotation()
	return mgl64.RadToDeg(2 * math.Atan2(q.V[2], q.W))
}

func eulerToQuat(x, y, z float64) mgl64.Quat {
	return mgl64.AnglesToQuat(mgl64.DegToRad(x), mgl64.DegToRad(y), mgl64.DegToRad(z), mgl64.XYZ)
}

// --- Scale, skew, origin ---

// LocalScale returns the scale relative to the parent.
func (n *Node) LocalScale() mgl64.Vec3 {
	return n.transform.localScale
}

// SetLocalScale sets the scale relative to the parent.
func (n *Node) SetLocalScale(x, y, z float64) {
	s := mgl64.Vec3{x, y, z}
	if n.transform.localScale == s {
		return
	}
	n.transform.localScale = s
	dirtifyLocal(n)
}

// Scale multiplies the local scale component-wise.
func (n *Node) Scale(x, y, z float64) {
	s := n.transform.localScale
	n.SetLocalScale(s[0]*x, s[1]*y, s[2]*z)
}

// LocalSkew returns the skew angles in radians.
func (n *Node) LocalSkew() mgl64.Vec2 {
	return n.transform.localSkew
}

// SetLocalSkew sets the skew angles in radians.
func (n *Node) SetLocalSkew(x, y float64) {
	s := mgl64.Vec2{x, y}
	if n.transform.localSkew == s {
		return
	}
	n.transform.localSkew = s
	dirtifyLocal(n)
}

// Origin returns the local point rotation and scale are applied around.
func (n *Node) Origin() mgl64.Vec3 {
	return n.transform.origin
}

// SetOrigin sets the local point rotation and scale are applied around.
func (n *Node) SetOrigin(x, y, z float64) {
	o := mgl64.Vec3{x, y, z}
	if n.transform.origin == o {
		return
	}
	n.transform.origin = o
	dirtifyLocal(n)
}

// SetLocalTransform decomposes m into position, rotation and scale. Skew and
// origin are left unchanged.
func (n *Node) SetLocalTransform(m mgl64.Mat4) {
	t := &n.transform
	t.localPosition = m.Col(3).Vec3()
	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	sx, sy, sz := c0.Len(), c1.Len(), c2.Len()
	t.localScale = mgl64.Vec3{sx, sy, sz}
	if sx != 0 && sy != 0 && sz != 0 {
		rot := mgl64.Mat4FromCols(c0.Mul(1/sx).Vec4(0), c1.Mul(1/sy).Vec4(0), c2.Mul(1/sz).Vec4(0), mgl64.Vec4{0, 0, 0, 1})
		t.localRotation = mgl64.Mat4ToQuat(rot).Normalize()
	}
	dirtifyLocal(n)
}

// ResetLocalTransform restores the identity position, rotation, scale and skew.
func (n *Node) ResetLocalTransform() {
	n.transform.reset()
	dirtifyLocal(n)
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate space.
// A singular world matrix maps every point to the origin.
func (n *Node) WorldToLocal(p mgl64.Vec3) mgl64.Vec3 {
	m := n.WorldTransform()
	if math.Abs(m.Det()) < 1e-12 {
		return mgl64.Vec3{}
	}
	return m.Inv().Mul4x1(p.Vec4(1)).Vec3()
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return n.WorldTransform().Mul4x1(p.Vec4(1)).Vec3()
}
