// Package pipeline sequences the terrain passes: noise and falloff into the
// heightmap, mesh and normals from the heightmap, biome colours, droplet
// erosion ticks and the post-erosion smoothing pass.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"terrain-lab/internal/biome"
	"terrain-lab/internal/config"
	"terrain-lab/internal/core"
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/erosion"
	"terrain-lab/internal/heightmap"
	"terrain-lab/internal/mesh"
	"terrain-lab/internal/noise"
)

// Program names compiled on the pipeline's dispatcher.
const (
	ProgramIndices    = "mesh.indices"
	ProgramHeightmap  = "heightmap.generate"
	ProgramRange      = "heightmap.range"
	ProgramVertices   = "mesh.vertices"
	ProgramNormals    = "mesh.normals"
	ProgramClassify   = "biome.classify"
	ProgramColors     = "biome.colors"
	ProgramSmoothPass = "mesh.smooth.scratch"
	ProgramSmoothBack = "mesh.smooth.writeback"
)

// Pipeline owns every buffer of one terrain and the passes that fill them.
// Rebuild, Erode, Smooth and Restore are serialised.
type Pipeline struct {
	mu sync.Mutex

	cfg  config.Config
	log  *slog.Logger
	disp *dispatch.Dispatcher

	dims     core.Dims
	store    *heightmap.Store
	verts    []mesh.Vertex
	indices  []uint32
	scratch  []float32
	biomes   *biome.Map
	gen      *heightmap.Generator
	humidity *noise.Field
	// sim is nil when the grid leaves no interior for a droplet brush.
	sim *erosion.Simulator

	built      bool
	generation uint64

	pendingMu sync.Mutex
	pending   *config.Config

	signal
}

// New validates cfg, allocates buffers and compiles the pass programs. A
// program that fails to compile is logged and its stage is skipped.
func New(cfg config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:  cfg,
		log:  logger,
		disp: dispatch.New(cfg.Runtime.Workers, logger),
	}
	if err := p.allocate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) allocate() error {
	dims := p.cfg.Dims()
	store, err := heightmap.New(dims)
	if err != nil {
		return err
	}
	sim, err := erosion.NewSimulator(dims, p.cfg.Erosion, p.cfg.Heightmap.Seed, p.log)
	switch {
	case errors.Is(err, erosion.ErrNoInterior):
		p.log.Warn("erosion unavailable", "width", dims.W, "height", dims.H, "err", err)
		sim = nil
	case err != nil:
		return fmt.Errorf("allocate pipeline: %w", err)
	}
	p.dims = dims
	p.store = store
	p.sim = sim
	p.verts = make([]mesh.Vertex, mesh.VertexCount(dims))
	p.indices = make([]uint32, mesh.TriangleIndexBufferLength(dims))
	p.scratch = make([]float32, dims.Cells())
	p.biomes = biome.NewMap(dims.Cells())
	p.built = false
	p.compile()
	return nil
}

func (p *Pipeline) compile() {
	spacing := mesh.Spacing(p.dims, p.cfg.Grid.World)
	programs := []struct {
		name   string
		kernel dispatch.Kernel
	}{
		{ProgramIndices, mesh.IndicesKernel(p.indices, p.dims)},
		{ProgramHeightmap, heightmap.GenerateKernel(p.store, &p.gen)},
		{ProgramRange, heightmap.RangeKernel(p.store)},
		{ProgramVertices, mesh.VerticesKernel(p.store, p.verts, spacing)},
		{ProgramNormals, mesh.NormalsKernel(p.verts, p.dims)},
		{ProgramClassify, biome.ClassifyKernel(p.store, &p.humidity, p.biomes)},
		{ProgramColors, biome.ColorKernel(p.biomes, p.verts, p.dims.W)},
		{ProgramSmoothPass, mesh.SmoothToScratchKernel(p.verts, p.scratch, p.dims)},
		{ProgramSmoothBack, mesh.SmoothFromScratchKernel(p.verts, p.scratch, p.dims)},
	}
	for _, prog := range programs {
		if err := p.disp.Compile(prog.name, prog.kernel); err != nil {
			p.log.Warn("program unavailable", "program", prog.name, "err", err)
		}
	}
	if p.sim == nil {
		return
	}
	if err := p.sim.Compile(p.disp, p.store); err != nil {
		p.log.Warn("erosion programs unavailable", "err", err)
	}
}

// SetConfig queues cfg for the next Rebuild.
func (p *Pipeline) SetConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.pendingMu.Lock()
	p.pending = &cfg
	p.pendingMu.Unlock()
	return nil
}

// SetErosionParams replaces the erosion parameters from the next tick on.
func (p *Pipeline) SetErosionParams(ep erosion.Params) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sim == nil {
		return fmt.Errorf("set erosion params on %dx%d grid: %w", p.dims.W, p.dims.H, erosion.ErrNoInterior)
	}
	if err := p.sim.SetParams(ep); err != nil {
		return err
	}
	p.cfg.Erosion = p.sim.Params()
	return nil
}

// ErosionParams returns the active erosion parameters.
func (p *Pipeline) ErosionParams() erosion.Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Erosion
}

// Config returns the active configuration, or the queued one when a change
// is pending.
func (p *Pipeline) Config() config.Config {
	p.pendingMu.Lock()
	pending := p.pending
	p.pendingMu.Unlock()
	if pending != nil {
		return *pending
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

func (p *Pipeline) applyPending() error {
	p.pendingMu.Lock()
	next := p.pending
	p.pending = nil
	p.pendingMu.Unlock()
	if next == nil {
		return nil
	}
	resize := next.Dims() != p.dims || next.Grid.World != p.cfg.Grid.World
	p.cfg = *next
	if resize {
		p.log.Info("grid resized", "width", p.cfg.Grid.Width, "height", p.cfg.Grid.Height)
		return p.allocate()
	}
	if p.sim == nil {
		return nil
	}
	p.sim.SetSeed(p.cfg.Heightmap.Seed)
	return p.sim.SetParams(p.cfg.Erosion)
}

func (p *Pipeline) prepareFields() error {
	backend := p.cfg.Runtime.NoiseBackend
	hsrc, err := noise.NewSource(backend, p.cfg.Heightmap.Seed)
	if err != nil {
		return err
	}
	gen := &heightmap.Generator{
		Height: noise.NewField(p.cfg.Heightmap, hsrc),
		Min:    p.cfg.Heightmap.MinHeight,
		Max:    p.cfg.Heightmap.MaxHeight,
	}
	if p.cfg.Falloff.Enabled {
		fsrc, err := noise.NewSource(backend, p.cfg.Falloff.Noise.Seed)
		if err != nil {
			return err
		}
		gen.Falloff = noise.NewFalloff(p.cfg.Falloff.Noise, fsrc, p.dims, p.cfg.Falloff.Jitter)
	}
	humidity, err := humidityField(&p.cfg)
	if err != nil {
		return err
	}
	p.gen = gen
	p.humidity = humidity
	return nil
}

func humidityField(cfg *config.Config) (*noise.Field, error) {
	src, err := noise.NewSource(cfg.Runtime.NoiseBackend, cfg.Humidity.Seed)
	if err != nil {
		return nil, err
	}
	return noise.NewField(cfg.Humidity, src), nil
}

// stage dispatches one program. Unavailable programs are logged and skipped;
// only context errors abort the sequence.
func (p *Pipeline) stage(ctx context.Context, name string, ext dispatch.Extent) error {
	err := p.disp.Dispatch(ctx, name, ext)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dispatch.ErrProgramInvalid), errors.Is(err, dispatch.ErrProgramNotFound):
		p.log.Warn("stage skipped", "program", name, "err", err)
		return nil
	default:
		return err
	}
}

func (p *Pipeline) stages(ctx context.Context, names ...string) error {
	grid := dispatch.Extent2D(p.dims.W, p.dims.H)
	for _, name := range names {
		ext := grid
		if name == ProgramIndices {
			ext = dispatch.Extent2D(p.dims.W-1, p.dims.H-1)
		}
		if name == ProgramHeightmap || name == ProgramRange {
			p.store.ResetRange()
		}
		if err := p.stage(ctx, name, ext); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild applies any queued configuration and regenerates the terrain from
// noise: heights, min/max, vertices, normals and biome colours. Subscribers
// receive a FrameRebuild when it completes.
func (p *Pipeline) Rebuild(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rebuildLocked(ctx)
}

func (p *Pipeline) rebuildLocked(ctx context.Context) error {
	start := time.Now()
	if err := p.applyPending(); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	if err := p.prepareFields(); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	err := p.stages(ctx,
		ProgramIndices,
		ProgramHeightmap,
		ProgramVertices,
		ProgramNormals,
		ProgramClassify,
		ProgramColors,
	)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	p.built = true
	lo, hi := p.store.Range()
	p.log.Info("terrain rebuilt",
		"cells", humanize.Comma(int64(p.dims.Cells())),
		"min", lo, "max", hi,
		"elapsed", time.Since(start))
	p.publishLocked(FrameRebuild, nil)
	return nil
}

// Erode runs one erosion tick, then re-derives vertices and normals. The
// terrain is built first if needed. Biome colours are kept from the last
// rebuild.
func (p *Pipeline) Erode(ctx context.Context) (erosion.TickStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.built {
		if err := p.rebuildLocked(ctx); err != nil {
			return erosion.TickStats{}, err
		}
	}
	var st erosion.TickStats
	var err error
	if p.sim == nil {
		err = fmt.Errorf("erode %dx%d grid: %w", p.dims.W, p.dims.H, erosion.ErrNoInterior)
	} else {
		st, err = p.sim.Tick(ctx, p.disp)
	}
	switch {
	case err == nil:
	case errors.Is(err, erosion.ErrNoInterior),
		errors.Is(err, dispatch.ErrProgramInvalid),
		errors.Is(err, dispatch.ErrProgramNotFound):
		p.log.Warn("stage skipped", "program", "erosion", "err", err)
	default:
		return st, err
	}
	if err := p.stages(ctx, ProgramRange, ProgramVertices, ProgramNormals); err != nil {
		return st, fmt.Errorf("erode: %w", err)
	}
	p.log.Debug("erosion tick",
		"droplets", humanize.Comma(int64(st.Droplets)),
		"steps", humanize.Comma(int64(st.Steps)),
		"eroded", st.Eroded,
		"deposited", st.Deposited)
	p.publishLocked(FrameErosion, &st)
	return st, nil
}

// Smooth runs the two-pass vertex smoothing and recomputes normals. The
// heightmap itself is not modified.
func (p *Pipeline) Smooth(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.built {
		if err := p.rebuildLocked(ctx); err != nil {
			return err
		}
	}
	if err := p.stages(ctx, ProgramSmoothPass, ProgramSmoothBack, ProgramNormals); err != nil {
		return fmt.Errorf("smooth: %w", err)
	}
	p.publishLocked(FrameSmooth, nil)
	return nil
}

// Dims returns the grid dimensions.
func (p *Pipeline) Dims() core.Dims {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dims
}

// Store returns the heightmap. It must not be mutated while an operation runs.
func (p *Pipeline) Store() *heightmap.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// Vertices returns the vertex buffer.
func (p *Pipeline) Vertices() []mesh.Vertex {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verts
}

// Indices returns the triangle index buffer.
func (p *Pipeline) Indices() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indices
}

// Biomes returns the classification of the last rebuild.
func (p *Pipeline) Biomes() *biome.Map {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.biomes
}

// Simulator returns the erosion simulator, or nil when the grid is too small
// for erosion.
func (p *Pipeline) Simulator() *erosion.Simulator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sim
}

// Dispatcher returns the dispatcher running the pipeline's programs.
func (p *Pipeline) Dispatcher() *dispatch.Dispatcher { return p.disp }

// Generation counts completed operations.
func (p *Pipeline) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}
