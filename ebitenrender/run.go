package ebitenrender

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
)

// RunConfig configures Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// ShowFPS prints an FPS/TPS readout, refreshed twice a second.
	ShowFPS bool
	// Render overrides arbor.DefaultRenderConfig. DisableDirtyRectangles is
	// always set since the plugin clears its target every frame.
	Render *arbor.RenderConfig
	// Update, if set, runs once per tick before the scene ticks. Returning an
	// error stops the game loop.
	Update func() error
}

// Game is an ebiten.Game that drives an arbor scene: it pumps input, ticks
// animations and renders through the scene's Plugin.
type Game struct {
	scene  *arbor.Scene
	plugin *Plugin
	pump   Pump
	cfg    RunConfig
	render arbor.RenderConfig
	ticks  uint64
}

// NewGame wraps scene. The scene must use a *Plugin as its renderer.
func NewGame(scene *arbor.Scene, cfg RunConfig) (*Game, error) {
	p, ok := scene.Renderer().(*Plugin)
	if !ok {
		return nil, ErrNotEbitenRenderer
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		w, h := scene.Size()
		cfg.Width, cfg.Height = int(w), int(h)
	}
	g := &Game{scene: scene, plugin: p, cfg: cfg, render: arbor.DefaultRenderConfig}
	if cfg.Render != nil {
		g.render = *cfg.Render
	}
	g.render.DisableDirtyRectangles = true
	p.ShowFPS = p.ShowFPS || cfg.ShowFPS
	return g, nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.ticks++
	tps := ebiten.TPS()
	ts := time.Duration(g.ticks) * time.Second / time.Duration(tps)

	// Injected input takes the place of real input while any is queued.
	if g.scene.InjectedPending() == 0 {
		g.pump.Poll(g.scene, ts)
	}
	if g.cfg.Update != nil {
		if err := g.cfg.Update(); err != nil {
			return err
		}
	}
	g.scene.Tick(1 / float32(tps))
	if g.plugin.ShowFPS && g.ticks%uint64(max(tps/2, 1)) == 0 {
		g.scene.RequestRender()
	}
	return nil
}

// Draw implements ebiten.Game. With the dirty check enabled an idle scene
// produces no frame and the previous screen contents are kept.
func (g *Game) Draw(screen *ebiten.Image) {
	g.plugin.SetTarget(screen)
	g.scene.Render(g.render)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if w, h := g.scene.Size(); int(w) != g.cfg.Width || int(h) != g.cfg.Height {
		g.scene.SetSize(float64(g.cfg.Width), float64(g.cfg.Height))
	}
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and runs scene until the window is closed or
// cfg.Update returns an error.
func Run(scene *arbor.Scene, cfg RunConfig) error {
	g, err := NewGame(scene, cfg)
	if err != nil {
		return err
	}
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	ebiten.SetScreenClearedEveryFrame(false)
	scene.RequestRender()
	arbor.Logger().Info("starting game loop", "width", g.cfg.Width, "height", g.cfg.Height)
	return ebiten.RunGame(g)
}
