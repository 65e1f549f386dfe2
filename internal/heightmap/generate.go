package heightmap

import (
	"terrain-lab/internal/dispatch"
	"terrain-lab/internal/noise"
)

// Generator describes how a fresh heightmap is derived from noise.
type Generator struct {
	Height  *noise.Field
	Falloff *noise.Falloff
	// Min and Max clamp each generated cell.
	Min, Max float32
}

// Cell computes the generated height of (x, y).
func (g *Generator) Cell(x, y int) float32 {
	v := g.Height.SampleGrid(x, y)
	if g.Falloff != nil {
		v += g.Falloff.Sample(x, y)
	}
	if v < g.Min {
		v = g.Min
	}
	if v > g.Max {
		v = g.Max
	}
	return v
}

// GenerateKernel writes one generated cell per invocation and folds it into
// the min/max reduction. Callers reset the range before dispatching. gen is
// read at invocation time, so it may be swapped between dispatches.
func GenerateKernel(s *Store, gen **Generator) dispatch.Kernel {
	return func(id dispatch.Invocation) {
		v := (*gen).Cell(id.X, id.Y)
		s.cells[s.dims.Index(id.X, id.Y)] = v
		s.Observe(v)
	}
}

// RangeKernel folds the current cell heights into the min/max reduction.
func RangeKernel(s *Store) dispatch.Kernel {
	return func(id dispatch.Invocation) {
		s.Observe(s.Load(s.dims.Index(id.X, id.Y)))
	}
}
