// Package terrain exposes the erosion pipeline as a viewer scene.
package terrain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/biome"
	"terrain-lab/internal/config"
	"terrain-lab/internal/core"
	"terrain-lab/internal/erosion"
	"terrain-lab/internal/persistence"
	"terrain-lab/internal/pipeline"
	"terrain-lab/internal/render"
)

// View selects what Pixels renders.
type View uint8

const (
	ViewShaded View = iota
	ViewHeight
	ViewBiome
	ViewHumidity
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewShaded:
		return "shaded"
	case ViewHeight:
		return "height"
	case ViewBiome:
		return "biome"
	case ViewHumidity:
		return "humidity"
	default:
		return "unknown"
	}
}

const ambient = 0.35

// Scene drives a Pipeline from the viewer loop. Terrain edits are queued and
// applied by the next Step; erosion edits take effect on the next tick.
type Scene struct {
	mu   sync.Mutex
	cfg  config.Config
	pipe *pipeline.Pipeline
	log  *slog.Logger

	dirty   bool
	eroding bool
	view    View
	preset  string

	ticks   int
	totals  erosion.TickStats
	last    erosion.TickStats
	lastErr error

	pixels []byte
	buf    []float32
}

// New builds the scene and generates the first terrain.
func New(cfg config.Config, logger *slog.Logger) (*Scene, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	s := &Scene{
		cfg:  p.Config(),
		pipe: p,
		log:  logger.With("scene", "terrain"),
	}
	if err := p.Rebuild(context.Background()); err != nil {
		return nil, err
	}
	s.resizeBuffers()
	return s, nil
}

func init() {
	core.Register("terrain", func(m map[string]string) core.Sim {
		cfg, err := config.FromMap(m)
		if err != nil {
			slog.Error("terrain config rejected, using defaults", "err", err)
			cfg = config.Default()
		}
		s, err := New(cfg, nil)
		if err != nil {
			panic(fmt.Sprintf("terrain: %v", err))
		}
		if _, err := erosion.Preset(m["preset"]); err == nil {
			s.preset = m["preset"]
		}
		return s
	})
}

// Name implements core.Sim.
func (s *Scene) Name() string { return "terrain" }

// Size implements core.Sim.
func (s *Scene) Size() core.Size {
	d := s.pipe.Dims()
	return core.Size{W: d.W, H: d.H}
}

// Pipeline exposes the underlying pipeline.
func (s *Scene) Pipeline() *pipeline.Pipeline { return s.pipe }

// Reset regenerates the terrain from seed. The humidity field uses seed+1 so
// the two fields never correlate.
func (s *Scene) Reset(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Heightmap.Seed = seed
	s.cfg.Humidity.Seed = seed + 1
	s.cfg.Falloff.Noise.Seed = seed + 2
	if err := s.pipe.SetConfig(s.cfg); err != nil {
		s.fail("reset", err)
		return
	}
	s.ticks = 0
	s.totals = erosion.TickStats{}
	s.rebuildLocked()
}

// Step applies queued terrain edits, or runs one erosion tick while eroding.
func (s *Scene) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.rebuildLocked()
		return
	}
	if !s.eroding {
		return
	}
	s.erodeLocked()
}

// TickOnce runs a single erosion tick regardless of the eroding flag.
func (s *Scene) TickOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.rebuildLocked()
	}
	s.erodeLocked()
}

// Rebuild regenerates the terrain with the current settings.
func (s *Scene) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildLocked()
}

func (s *Scene) rebuildLocked() {
	if err := s.pipe.SetConfig(s.cfg); err != nil {
		s.fail("rebuild", err)
		return
	}
	if err := s.pipe.Rebuild(context.Background()); err != nil {
		s.fail("rebuild", err)
		return
	}
	s.cfg = s.pipe.Config()
	s.dirty = false
	s.lastErr = nil
	s.resizeBuffers()
}

func (s *Scene) erodeLocked() {
	start := time.Now()
	st, err := s.pipe.Erode(context.Background())
	if err != nil {
		s.fail("erode", err)
		return
	}
	s.ticks++
	s.last = st
	s.totals.Add(st)
	if s.ticks%100 == 0 {
		s.log.Info("erosion progress",
			"ticks", s.ticks,
			"droplets", humanize.Comma(int64(s.totals.Droplets)),
			"eroded", humanize.FtoaWithDigits(float64(s.totals.Eroded), 3),
			"tick", time.Since(start))
	}
}

func (s *Scene) fail(op string, err error) {
	s.lastErr = err
	s.eroding = false
	s.log.Error("terrain "+op+" failed", "err", err)
}

func (s *Scene) resizeBuffers() {
	n := s.pipe.Dims().Cells()
	if len(s.pixels) != n*4 {
		s.pixels = make([]byte, n*4)
		s.buf = make([]float32, n)
	}
}

// ToggleErosion flips continuous erosion and reports the new state.
func (s *Scene) ToggleErosion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eroding = !s.eroding
	s.log.Info("erosion toggled", "eroding", s.eroding)
	return s.eroding
}

// Eroding reports whether Step runs erosion ticks.
func (s *Scene) Eroding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eroding
}

// ErosionTPS is the configured erosion tick rate.
func (s *Scene) ErosionTPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Runtime.ErosionTPS
}

// Totals returns the erosion totals since the last reset along with the
// tick count.
func (s *Scene) Totals() (erosion.TickStats, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals, s.ticks
}

// Err returns the last pipeline failure, cleared by a successful rebuild.
func (s *Scene) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SmoothOnce runs one smoothing pass over the mesh.
func (s *Scene) SmoothOnce() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe.Smooth(context.Background())
}

// CycleView advances to the next view mode.
func (s *Scene) CycleView() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = (s.view + 1) % viewCount
	return s.view
}

// SetView selects a view mode.
func (s *Scene) SetView(v View) {
	if v >= viewCount {
		return
	}
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// ExportHeightmap writes the normalised heightmap as a grayscale PNG.
func (s *Scene) ExportHeightmap(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe.SaveHeightmap(path)
}

// ExportBiomes writes the biome map as a colour PNG.
func (s *Scene) ExportBiomes(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe.SaveBiomeMap(path)
}

// SaveSnapshot stores the current heightmap in db and returns its id.
func (s *Scene) SaveSnapshot(db *persistence.DB, label string) (string, error) {
	s.mu.Lock()
	snap, err := s.pipe.Snapshot(label)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if err := db.SaveSnapshot(snap); err != nil {
		return "", err
	}
	return snap.ID, nil
}

// RestoreSnapshot loads a stored heightmap into the scene.
func (s *Scene) RestoreSnapshot(db *persistence.DB, id string) error {
	snap, err := db.LoadSnapshot(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe.Restore(context.Background(), snap)
}

// Pixels implements core.Sim.
func (s *Scene) Pixels() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizeBuffers()
	switch s.view {
	case ViewHeight:
		s.loadHeights(s.buf)
		render.FillGray(s.pixels, s.buf)
	case ViewBiome:
		render.FillBiomes(s.pixels, s.pipe.Biomes().Biomes)
	case ViewHumidity:
		render.FillGray(s.pixels, s.pipe.Biomes().Humidity)
	default:
		render.ShadeVertices(s.pixels, s.pipe.Vertices(), render.DefaultLight, ambient)
	}
	return s.pixels
}

// HeightField returns a copy of the current heights for overlays.
func (s *Scene) HeightField() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float32, s.pipe.Dims().Cells())
	s.loadHeights(out)
	return out
}

func (s *Scene) loadHeights(dst []float32) {
	store := s.pipe.Store()
	for i := range dst {
		dst[i] = store.Load(i)
	}
}

// HumidityField returns the humidity values in [0, 1].
func (s *Scene) HumidityField() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float32(nil), s.pipe.Biomes().Humidity...)
}

// BiomeHistogram counts cells per biome.
func (s *Scene) BiomeHistogram() map[biome.Biome]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe.Biomes().Histogram()
}

// maxDropletMarks bounds how many droplets DropletVectors reports.
const maxDropletMarks = 400

// DropletVectors returns where a sample of the last tick's droplets stopped
// and the direction they were travelling.
func (s *Scene) DropletVectors() (positions, directions []mgl32.Vec2) {
	sim := s.pipe.Simulator()
	if sim == nil {
		return nil, nil
	}
	drops := sim.Droplets()
	stride := 1
	if len(drops) > maxDropletMarks {
		stride = len(drops) / maxDropletMarks
	}
	for i := 0; i < len(drops); i += stride {
		if drops[i].Steps == 0 {
			continue
		}
		positions = append(positions, drops[i].Position)
		directions = append(directions, drops[i].Direction)
	}
	return positions, directions
}
