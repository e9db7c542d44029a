// Package arbor is a retained-mode scene graph core for 2D and 2.5D canvas
// renderers.
//
// Arbor owns the parts of a renderer that do not draw: the node tree, the
// transform hierarchy, bounds, an R-tree spatial index, the per-frame
// pipeline with frustum culling, and DOM-style pointer events with
// hit-testing. Drawing is delegated to a [RendererPlugin] that taps the
// scene's [Hooks]. The ebitenrender subpackage provides one for [Ebitengine].
//
// # Quick start
//
//	scene, err := arbor.NewScene(arbor.SceneConfig{
//		Width: 640, Height: 480,
//		Renderer: ebitenrender.New(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	box := arbor.NewRect("box", 80, 40)
//	box.SetLocalPosition(100, 50, 0)
//	scene.Root().AppendChild(box)
//	ebitenrender.Run(scene, ebitenrender.RunConfig{Title: "demo"})
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at [Scene.Root] and
// carry a [ShapeKind] with the geometry needed for bounds and picking.
// Create nodes with typed constructors: [NewGroup], [NewRect], [NewCircle],
// [NewEllipse], [NewLine], [NewPolyline], [NewPolygon] and [NewCustom].
//
// Children paint in z-index order, then insertion order. Hidden nodes
// ([Node.SetVisibility]) and their subtrees are skipped.
//
// # Transforms
//
// Each node has a local position, rotation (quaternion), scale, skew and
// origin. World transforms are computed lazily: mutations mark the node and
// its subtree dirty, and [Node.WorldTransform] or [SyncHierarchy] brings them
// up to date. Synced subtrees are frozen and skipped until touched again.
//
// # Frames
//
// [Scene.Render] runs the frame pipeline: sync transforms, dispatch queued
// bounds-changed events, update the spatial index, then traverse in paint
// order, cull against the camera frustum and invoke the render hooks. With
// [RenderConfig.EnableDirtyCheck] a frame is skipped when nothing changed.
//
// # Events
//
// Platform pointer input enters through [EventBoundary.MapPointer] (the
// ebitenrender plugin feeds it from Ebitengine's input state). The boundary
// hit-tests, derives over/out/enter/leave transitions and click counts, and
// propagates [FederatedPointerEvent]s through capture, target and bubble
// phases. Listeners are registered with [Node.AddEventListener].
//
//	box.AddEventListener(arbor.EventClick, func(e arbor.Event) {
//		pe := e.(*arbor.FederatedPointerEvent)
//		log.Println("clicked", pe.ClickCount)
//	})
//
// # Logging
//
// Arbor logs through log/slog. Install a logger with [SetLogger]; by default
// nothing is logged.
//
// [Ebitengine]: https://ebitengine.org
package arbor
