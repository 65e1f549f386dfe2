package pipeline

import (
	"sync"

	"terrain-lab/internal/core"
	"terrain-lab/internal/erosion"
	"terrain-lab/internal/mesh"
)

// FrameKind names the operation that produced a frame.
type FrameKind uint8

const (
	FrameRebuild FrameKind = iota
	FrameErosion
	FrameSmooth
	FrameRestore
)

func (k FrameKind) String() string {
	switch k {
	case FrameRebuild:
		return "rebuild"
	case FrameErosion:
		return "erosion"
	case FrameSmooth:
		return "smooth"
	case FrameRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Frame announces that the vertex and index buffers are complete. The slices
// alias pipeline buffers and stay valid until the next operation starts.
type Frame struct {
	Kind       FrameKind
	Generation uint64
	Dims       core.Dims
	Vertices   []mesh.Vertex
	Indices    []uint32
	Min, Max   float32
	Erosion    *erosion.TickStats
}

type signal struct {
	subMu sync.Mutex
	subs  map[chan Frame]struct{}
}

// Subscribe returns a channel receiving the latest frame and a function that
// stops delivery and closes the channel. A slow reader only ever sees the
// newest frame.
func (p *Pipeline) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)
	p.subMu.Lock()
	if p.subs == nil {
		p.subs = map[chan Frame]struct{}{}
	}
	p.subs[ch] = struct{}{}
	p.subMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, ch)
			close(ch)
			p.subMu.Unlock()
		})
	}
}

func (p *Pipeline) publishLocked(kind FrameKind, st *erosion.TickStats) {
	p.generation++
	lo, hi := p.store.Range()
	f := Frame{
		Kind:       kind,
		Generation: p.generation,
		Dims:       p.dims,
		Vertices:   p.verts,
		Indices:    p.indices,
		Min:        lo,
		Max:        hi,
		Erosion:    st,
	}
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- f:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}
