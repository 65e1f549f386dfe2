package noise

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Source is a coherent 3D noise function returning values in roughly [-1, 1].
type Source interface {
	Eval3(x, y, z float64) float64
}

// Backend selects the Source implementation.
type Backend string

const (
	BackendSimplex Backend = "simplex"
	BackendPerlin  Backend = "perlin"
)

// NewSource builds a seeded source. The empty backend selects simplex.
func NewSource(b Backend, seed int64) (Source, error) {
	switch b {
	case "", BackendSimplex:
		return opensimplex.New(seed), nil
	case BackendPerlin:
		return perlinSource{p: perlin.NewPerlin(2, 2, 3, seed)}, nil
	default:
		return nil, fmt.Errorf("unknown noise backend %q", b)
	}
}

type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) Eval3(x, y, z float64) float64 {
	v := s.p.Noise3D(x, y, z) * 2
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
