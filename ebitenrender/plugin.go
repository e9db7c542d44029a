// Package ebitenrender draws arbor scenes with Ebitengine and feeds
// Ebitengine input into the scene's event boundary.
package ebitenrender

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/arbor"
)

// ErrNotEbitenRenderer is returned by NewGame and Run when the scene was not
// created with a *Plugin as its renderer.
var ErrNotEbitenRenderer = errors.New("ebitenrender: scene renderer is not an ebitenrender plugin")

var whitePixel *ebiten.Image

// ensureWhitePixel returns the shared 1x1 white image every shape is drawn
// with; color comes from the vertices.
func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.White)
	}
	return whitePixel
}

// Plugin is an arbor.RendererPlugin that tessellates every node into one
// coalesced triangle batch per frame and draws it onto a target image.
type Plugin struct {
	// ClearColor fills the target at the start of every produced frame.
	ClearColor arbor.Color
	// CircleSegments is the number of segments for circles and ellipses.
	CircleSegments int
	// AntiAlias enables anti-aliased triangle rendering.
	AntiAlias bool
	// ShowFPS prints an FPS/TPS readout after the last node.
	ShowFPS bool
	// ScreenshotDir is the directory Screenshot writes to.
	ScreenshotDir string

	scene   *arbor.Scene
	target  *ebiten.Image
	batch   batch
	handles []arbor.ListenerHandle

	screenshotQueue []string
	drawCalls       int
}

// New creates a plugin with default settings.
func New() *Plugin {
	return &Plugin{
		CircleSegments: 32,
		ScreenshotDir:  "screenshots",
	}
}

// Name implements arbor.RendererPlugin.
func (p *Plugin) Name() string { return "ebiten" }

// Init implements arbor.RendererPlugin.
func (p *Plugin) Init(s *arbor.Scene, h *arbor.Hooks) error {
	if p.scene != nil {
		return fmt.Errorf("ebitenrender: plugin already initialized")
	}
	p.scene = s
	p.handles = append(p.handles,
		h.BeginFrame.Tap(p.Name(), p.beginFrame),
		h.Render.Tap(p.Name(), p.renderNode),
		h.EndFrame.Tap(p.Name(), p.endFrame),
		h.PickSync.Tap(p.Name(), s.PickExact),
		h.Pick.Tap(p.Name(), func(_ context.Context, r *arbor.PickResult) (*arbor.PickResult, error) {
			return s.PickExact(r), nil
		}),
		h.Destroy.Tap(p.Name(), func(*arbor.Scene) { p.release() }),
	)
	return nil
}

// SetTarget sets the image frames are drawn onto. Frames produced while the
// target is nil are tessellated and discarded.
func (p *Plugin) SetTarget(img *ebiten.Image) {
	p.target = img
}

// Target returns the current target image.
func (p *Plugin) Target() *ebiten.Image {
	return p.target
}

// DrawCalls returns the number of DrawTriangles calls in the last frame.
func (p *Plugin) DrawCalls() int {
	return p.drawCalls
}

func (p *Plugin) beginFrame(arbor.FrameInfo) {
	p.batch.reset()
	p.drawCalls = 0
	if p.target != nil {
		p.target.Fill(toRGBA(p.ClearColor))
	}
}

func (p *Plugin) renderNode(n *arbor.Node) {
	geo := nodeGeoM(p.scene.Camera(), n.WorldTransform())
	p.batch.appendNode(n, geo, p.CircleSegments)
	if p.batch.full() {
		p.flush()
	}
}

func (p *Plugin) endFrame(info arbor.FrameInfo) {
	p.flush()
	if p.target == nil {
		return
	}
	if p.ShowFPS {
		ebitenutil.DebugPrint(p.target, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	p.flushScreenshots(p.target)
}

// flush draws and empties the pending batch.
func (p *Plugin) flush() {
	if len(p.batch.indices) == 0 {
		p.batch.reset()
		return
	}
	if p.target != nil {
		op := &ebiten.DrawTrianglesOptions{AntiAlias: p.AntiAlias}
		p.target.DrawTriangles(p.batch.vertices, p.batch.indices, ensureWhitePixel(), op)
		p.drawCalls++
	}
	p.batch.reset()
}

func (p *Plugin) release() {
	for _, h := range p.handles {
		h.Remove()
	}
	p.handles = nil
	p.target = nil
	p.scene = nil
}

// toRGBA converts a straight-alpha Color to premultiplied color.RGBA.
func toRGBA(c arbor.Color) color.RGBA {
	clamp := func(v float64) uint8 {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{
		R: clamp(c.R * c.A),
		G: clamp(c.G * c.A),
		B: clamp(c.B * c.A),
		A: clamp(c.A),
	}
}
