// Package config loads terrain pipeline settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"terrain-lab/internal/core"
	"terrain-lab/internal/erosion"
	"terrain-lab/internal/noise"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full pipeline configuration.
type Config struct {
	Grid      GridConfig     `yaml:"grid"`
	Heightmap noise.Params   `yaml:"heightmap"`
	Falloff   FalloffConfig  `yaml:"falloff"`
	Humidity  noise.Params   `yaml:"humidity"`
	Erosion   erosion.Params `yaml:"erosion"`
	Runtime   RuntimeConfig  `yaml:"runtime"`
}

// GridConfig sizes the heightmap and the world it spans.
type GridConfig struct {
	Width  int        `yaml:"width"`
	Height int        `yaml:"height"`
	World  mgl32.Vec2 `yaml:"world"`
}

// FalloffConfig is the island falloff noise plus its edge jitter.
type FalloffConfig struct {
	Enabled bool         `yaml:"enabled"`
	Jitter  float32      `yaml:"jitter"`
	Noise   noise.Params `yaml:"noise"`
}

// RuntimeConfig controls execution rather than terrain shape.
type RuntimeConfig struct {
	// Workers bounds goroutines per pass; 0 uses GOMAXPROCS and 1 runs
	// every pass in index order.
	Workers      int           `yaml:"workers"`
	NoiseBackend noise.Backend `yaml:"noise_backend"`
	ErosionTPS   int           `yaml:"erosion_tps"`
}

// Default returns the demo configuration.
func Default() Config {
	return Config{
		Grid:      GridConfig{Width: 512, Height: 512, World: mgl32.Vec2{25, 25}},
		Heightmap: noise.HeightDefaults(),
		Falloff:   FalloffConfig{Enabled: true, Jitter: 1, Noise: noise.FalloffDefaults()},
		Humidity:  noise.HumidityDefaults(),
		Erosion:   erosion.DefaultParams(),
		Runtime:   RuntimeConfig{NoiseBackend: noise.BackendSimplex, ErosionTPS: 30},
	}
}

// Dims returns the grid dimensions.
func (c *Config) Dims() core.Dims { return core.Dims{W: c.Grid.Width, H: c.Grid.Height} }

// Load reads a YAML file layered over Default and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML layered over Default and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Validate rejects unusable grids and clamps tunables into the ranges the
// controls expose.
func (c *Config) Validate() error {
	if c.Grid.Width < 2 || c.Grid.Height < 2 {
		return fmt.Errorf("%w: grid must be at least 2x2, got %dx%d", ErrInvalid, c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.World[0] <= 0 || c.Grid.World[1] <= 0 {
		c.Grid.World = mgl32.Vec2{float32(c.Grid.Width - 1), float32(c.Grid.Height - 1)}
	}
	for name, p := range map[string]*noise.Params{
		"heightmap":     &c.Heightmap,
		"falloff.noise": &c.Falloff.Noise,
		"humidity":      &c.Humidity,
	} {
		if err := validateNoise(name, p); err != nil {
			return err
		}
	}
	c.Erosion = c.Erosion.Clamped()
	// Grids too small for any brush stay valid; erosion reports them.
	if limit := (min(c.Grid.Width, c.Grid.Height) - 2) / 2; limit >= 1 && c.Erosion.BrushRadius > limit {
		c.Erosion.BrushRadius = limit
	}
	switch c.Runtime.NoiseBackend {
	case "":
		c.Runtime.NoiseBackend = noise.BackendSimplex
	case noise.BackendSimplex, noise.BackendPerlin:
	default:
		return fmt.Errorf("%w: runtime.noise_backend %q", ErrInvalid, c.Runtime.NoiseBackend)
	}
	if c.Runtime.Workers < 0 {
		c.Runtime.Workers = 0
	}
	if c.Runtime.ErosionTPS <= 0 {
		c.Runtime.ErosionTPS = 30
	}
	return nil
}

func validateNoise(name string, p *noise.Params) error {
	if p.Layers < 0 {
		p.Layers = 0
	}
	if p.Layers > noise.MaxLayers {
		p.Layers = noise.MaxLayers
	}
	if p.MinHeight > p.MaxHeight {
		return fmt.Errorf("%w: %s.min_height %v exceeds max_height %v", ErrInvalid, name, p.MinHeight, p.MaxHeight)
	}
	if p.Scale <= 0 {
		return fmt.Errorf("%w: %s.scale must be positive", ErrInvalid, name)
	}
	return nil
}
