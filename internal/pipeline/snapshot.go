package pipeline

import (
	"context"
	"fmt"

	"terrain-lab/internal/config"
	"terrain-lab/internal/export"
	"terrain-lab/internal/persistence"
)

// Snapshot captures the current heights and configuration.
func (p *Pipeline) Snapshot(label string) (*persistence.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, err := p.cfg.Marshal()
	if err != nil {
		return nil, err
	}
	lo, hi := p.store.Range()
	return &persistence.Snapshot{
		Label:   label,
		Dims:    p.dims,
		Min:     lo,
		Max:     hi,
		Config:  data,
		Heights: append([]float32(nil), p.store.Cells()...),
	}, nil
}

// Restore replaces the heights with a snapshot of the same grid size and
// re-derives vertices, normals and biome colours. Biomes are classified with
// the humidity field described by the snapshot's configuration; the active
// configuration is otherwise unchanged, so the next Rebuild regenerates from
// it.
func (p *Pipeline) Restore(ctx context.Context, s *persistence.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Dims != p.dims {
		return fmt.Errorf("restore: snapshot is %dx%d, pipeline is %dx%d", s.Dims.W, s.Dims.H, p.dims.W, p.dims.H)
	}
	if p.humidity == nil {
		if err := p.prepareFields(); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}
	if len(s.Config) > 0 {
		cfg, err := config.Parse(s.Config)
		if err != nil {
			return fmt.Errorf("restore: snapshot config: %w", err)
		}
		humidity, err := humidityField(cfg)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		p.humidity = humidity
	}
	if err := p.store.Replace(s.Heights); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if err := p.stages(ctx, ProgramIndices, ProgramVertices, ProgramNormals, ProgramClassify, ProgramColors); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	p.built = true
	p.publishLocked(FrameRestore, nil)
	return nil
}

// SaveHeightmap writes the heightmap as a normalised grayscale PNG.
func (p *Pipeline) SaveHeightmap(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return export.SaveHeightPNG(path, p.store)
}

// SaveBiomeMap writes the vertex colours as a PNG.
func (p *Pipeline) SaveBiomeMap(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return export.SaveColorPNG(path, p.verts, p.dims)
}
