//go:build ebiten

package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"terrain-lab/internal/core"
	"terrain-lab/internal/persistence"
	"terrain-lab/internal/render"
	"terrain-lab/internal/sims/terrain"
	"terrain-lab/internal/ui"
	pcore "terrain-lab/pkg/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type eroder interface {
	ToggleErosion() bool
	TickOnce()
	ErosionTPS() int
}

type smoother interface {
	SmoothOnce() error
}

type exporter interface {
	ExportHeightmap(path string) error
	ExportBiomes(path string) error
}

type snapshotter interface {
	SaveSnapshot(db *persistence.DB, label string) (string, error)
}

type viewCycler interface {
	CycleView() terrain.View
}

// Game adapts a core scene to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.Painter
	overlay *ui.Overlay
	hud     *ui.HUD
	pacer   *core.TickPacer
	rng     *pcore.RNG
	db      *persistence.DB
	log     *slog.Logger

	scale     int
	exportDir string
	seed      int64
	exports   int
}

// New constructs a Game for the provided scene. db may be nil.
func New(sim core.Sim, cfg *Config, db *persistence.DB) *Game {
	size := sim.Size()
	g := &Game{
		sim:       sim,
		painter:   render.NewPainter(size.W, size.H),
		overlay:   ui.NewOverlay(sim, cfg.Scale),
		hud:       ui.NewHUD(sim, cfg.HUD),
		db:        db,
		log:       slog.Default().With("component", "app"),
		scale:     cfg.Scale,
		exportDir: cfg.Export,
		seed:      cfg.Seed,
		rng:       pcore.NewRNG(time.Now().UnixNano()),
	}
	tps := 30
	if e, ok := sim.(eroder); ok {
		tps = e.ErosionTPS()
	}
	g.pacer = core.NewTickPacer(tps, 4)
	return g
}

// Reset regenerates the scene with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.pacer.Reset()
}

// Update handles per-frame input and advances the scene at the erosion rate.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if e, ok := g.sim.(eroder); ok {
		if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
			e.ToggleErosion()
			g.pacer.Reset()
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			e.TickOnce()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(g.rng.Int64())
	}
	if s, ok := g.sim.(smoother); ok && inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if err := s.SmoothOnce(); err != nil {
			g.log.Error("smooth failed", "err", err)
		}
	}
	if v, ok := g.sim.(viewCycler); ok && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.log.Info("view", "mode", v.CycleView())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		g.export()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.snapshot()
	}

	if g.overlay != nil {
		g.overlay.Update()
	}
	if g.hud != nil {
		g.hud.Update(g.viewWidth())
	}

	for n := g.pacer.Due(time.Now()); n > 0; n-- {
		g.sim.Step()
	}
	return nil
}

func (g *Game) export() {
	e, ok := g.sim.(exporter)
	if !ok {
		return
	}
	g.exports++
	base := filepath.Join(g.exportDir, fmt.Sprintf("%s-%d-%03d", g.sim.Name(), g.seed, g.exports))
	if err := e.ExportHeightmap(base + "-height.png"); err != nil {
		g.log.Error("export failed", "err", err)
		return
	}
	if err := e.ExportBiomes(base + "-biome.png"); err != nil {
		g.log.Error("export failed", "err", err)
		return
	}
	g.log.Info("exported", "prefix", base)
}

func (g *Game) snapshot() {
	s, ok := g.sim.(snapshotter)
	if !ok || g.db == nil {
		return
	}
	id, err := s.SaveSnapshot(g.db, fmt.Sprintf("seed %d", g.seed))
	if err != nil {
		g.log.Error("snapshot failed", "err", err)
		return
	}
	g.log.Info("snapshot saved", "id", id)
}

// Draw renders the current scene state.
func (g *Game) Draw(screen *ebiten.Image) {
	size := g.sim.Size()
	g.painter.Resize(size.W, size.H)
	g.painter.Blit(screen, g.sim.Pixels(), g.scale)
	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
	if g.hud != nil {
		g.hud.Draw(screen, g.viewWidth(), g.scale)
	}
}

func (g *Game) viewWidth() int { return g.sim.Size().W * g.scale }

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hud.Width(), s.H * g.scale
}
