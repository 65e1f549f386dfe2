// Package erosion simulates hydraulic erosion with independent water
// droplets that pick up and drop sediment while flowing downhill.
//
// Droplets of one tick run in parallel. Their writes to shared cells are
// atomic float adds, so no update is lost, but the order in which
// overlapping droplets land is scheduling dependent. A dispatcher with a
// single worker runs droplets in index order and is bit-reproducible.
package erosion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/core"
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/heightmap"
	pcore "terrain-lab/pkg/core"
)

// Program names registered by Compile.
const (
	ProgramSpawn    = "erosion.spawn"
	ProgramDroplets = "erosion.droplets"
)

// ErrNoInterior is returned when the brush border leaves no room to spawn.
var ErrNoInterior = errors.New("erosion: grid has no interior for the brush radius")

// TickStats summarises one erosion tick.
type TickStats struct {
	Droplets     int
	Steps        int
	OutOfBounds  int
	Lifetime     int
	Evaporated   int
	Eroded       float64
	Deposited    float64
	LostSediment float64
}

// Add accumulates o into st.
func (st *TickStats) Add(o TickStats) {
	st.Droplets += o.Droplets
	st.Steps += o.Steps
	st.OutOfBounds += o.OutOfBounds
	st.Lifetime += o.Lifetime
	st.Evaporated += o.Evaporated
	st.Eroded += o.Eroded
	st.Deposited += o.Deposited
	st.LostSediment += o.LostSediment
}

// Simulator owns the particle buffer and brush for one heightmap.
type Simulator struct {
	mu sync.Mutex

	dims     core.Dims
	params   Params
	brush    Brush
	droplets []Droplet
	seed     uint32
	tick     uint32
	store    *heightmap.Store
	log      *slog.Logger
}

// NewSimulator validates params against dims and allocates the particle buffer.
func NewSimulator(dims core.Dims, params Params, seed int64, logger *slog.Logger) (*Simulator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{dims: dims, seed: foldSeed(seed), log: logger}
	if err := s.apply(params.Clamped()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulator) apply(p Params) error {
	if s.dims.W-1-2*p.BrushRadius <= 0 || s.dims.H-1-2*p.BrushRadius <= 0 {
		return fmt.Errorf("brush radius %d on %dx%d grid: %w", p.BrushRadius, s.dims.W, s.dims.H, ErrNoInterior)
	}
	if p.BrushRadius != s.brush.Radius || len(s.brush.Offsets) == 0 {
		b, err := BuildBrush(p.BrushRadius, s.dims.W)
		if err != nil {
			return err
		}
		s.brush = b
	}
	if p.ParticleCount != len(s.droplets) {
		s.droplets = make([]Droplet, p.ParticleCount)
	}
	s.params = p
	return nil
}

// SetParams replaces the parameters. It waits for a running tick, so the
// particle buffer is never resized under a pass.
func (s *Simulator) SetParams(p Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := len(s.droplets)
	if err := s.apply(p.Clamped()); err != nil {
		return err
	}
	if old != len(s.droplets) {
		s.log.Info("particle buffer resized", "from", old, "to", len(s.droplets))
	}
	return nil
}

// SetSeed reseeds droplet spawning and restarts the tick counter, so a
// reseeded simulator spawns the same droplets as a fresh one.
func (s *Simulator) SetSeed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = foldSeed(seed)
	s.tick = 0
}

func foldSeed(seed int64) uint32 { return uint32(seed) ^ uint32(seed>>32) }

// Params returns the active parameters.
func (s *Simulator) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Brush returns the active brush.
func (s *Simulator) Brush() Brush {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brush
}

// Droplets returns a copy of the particle buffer from the last tick.
func (s *Simulator) Droplets() []Droplet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Droplet(nil), s.droplets...)
}

// Compile registers the spawn and droplet programs for store on d.
func (s *Simulator) Compile(d *dispatch.Dispatcher, store *heightmap.Store) error {
	if store.Dims() != s.dims {
		return fmt.Errorf("compile erosion: store %v does not match simulator %v", store.Dims(), s.dims)
	}
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
	if err := d.Compile(ProgramSpawn, s.spawnKernel); err != nil {
		return err
	}
	return d.Compile(ProgramDroplets, s.dropletKernel)
}

func (s *Simulator) spawnKernel(id dispatch.Invocation) {
	p := &s.params
	r := float32(p.BrushRadius)
	h := pcore.Mix(s.seed, s.tick, uint32(id.X))
	x := r + pcore.HashFloat(h)*float32(s.dims.W-1-2*p.BrushRadius)
	y := r + pcore.HashFloat(pcore.Hash32(h))*float32(s.dims.H-1-2*p.BrushRadius)
	s.droplets[id.X] = Droplet{
		Position: mgl32.Vec2{x, y},
		Speed:    p.StartSpeed,
		Water:    p.StartWater,
		Lifetime: p.MaxLifetime,
		State:    Spawned,
		seed:     h,
	}
}

func (s *Simulator) dropletKernel(id dispatch.Invocation) {
	t := terrain{store: s.store, dims: s.dims, brush: &s.brush, params: &s.params, border: s.params.BrushRadius}
	t.run(&s.droplets[id.X])
}

// Tick spawns a fresh batch of droplets and runs each to termination. Both
// passes finish before Tick returns.
func (s *Simulator) Tick(ctx context.Context, d *dispatch.Dispatcher) (TickStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return TickStats{}, fmt.Errorf("erosion tick: %w", dispatch.ErrProgramNotFound)
	}
	s.tick++
	n := len(s.droplets)
	if n == 0 {
		return TickStats{}, nil
	}
	if err := d.Dispatch(ctx, ProgramSpawn, dispatch.Extent1D(n)); err != nil {
		return TickStats{}, fmt.Errorf("erosion tick: %w", err)
	}
	if err := d.Dispatch(ctx, ProgramDroplets, dispatch.Extent1D(n)); err != nil {
		return TickStats{}, fmt.Errorf("erosion tick: %w", err)
	}
	return s.collect(), nil
}

func (s *Simulator) collect() TickStats {
	st := TickStats{Droplets: len(s.droplets)}
	for i := range s.droplets {
		d := &s.droplets[i]
		st.Steps += d.Steps
		st.Eroded += float64(d.Eroded)
		st.Deposited += float64(d.Deposited)
		st.LostSediment += float64(d.Sediment)
		switch d.Reason {
		case ReasonOutOfBounds:
			st.OutOfBounds++
		case ReasonLifetime:
			st.Lifetime++
		case ReasonEvaporated:
			st.Evaporated++
		}
	}
	return st
}
