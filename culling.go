package arbor

// frustumCull is the built-in Cull tap. A node is culled when the world
// render bounds of its own geometry lie entirely outside the camera frustum.
// Groups and nodes without geometry are never culled; their children are
// tested individually.
func (r *RenderingService) frustumCull(n *Node) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == ShapeGroup || r.scene.camera.IsInFrustum(n) {
		return n
	}
	return nil
}

// IsInFrustum reports whether n's own render bounds intersect the camera's
// frustum.
func (c *Camera) IsInFrustum(n *Node) bool {
	b := n.GeometryBounds(true)
	return b.IsEmpty() || c.Frustum().IntersectsAABB(b)
}
