package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"terrain-lab/internal/noise"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if got := cfg.Dims(); got.W != 512 || got.H != 512 {
		t.Fatalf("Dims = %+v, want 512x512", got)
	}
	if cfg.Erosion.BrushRadius != 9 || cfg.Erosion.ParticleCount != 5000 {
		t.Fatalf("unexpected erosion defaults %+v", cfg.Erosion)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terrain.yaml")
	data := []byte(`
grid:
  width: 128
  height: 96
heightmap:
  seed: 12
  layers: 11
erosion:
  particle_count: 750
  inertia: 1.5
runtime:
  workers: 1
  noise_backend: perlin
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Grid.Width != 128 || cfg.Grid.Height != 96 {
		t.Fatalf("grid = %+v", cfg.Grid)
	}
	if cfg.Heightmap.Seed != 12 {
		t.Fatalf("seed = %d, want 12", cfg.Heightmap.Seed)
	}
	if cfg.Heightmap.Layers != noise.MaxLayers {
		t.Fatalf("layers = %d, want clamp to %d", cfg.Heightmap.Layers, noise.MaxLayers)
	}
	if cfg.Heightmap.MaxHeight != 150 {
		t.Fatalf("unset max_height should keep default, got %v", cfg.Heightmap.MaxHeight)
	}
	if cfg.Erosion.ParticleCount != 750 || cfg.Erosion.Inertia != 1 {
		t.Fatalf("erosion = %+v", cfg.Erosion)
	}
	if cfg.Erosion.BrushRadius != 9 {
		t.Fatalf("brush radius = %d, want default 9", cfg.Erosion.BrushRadius)
	}
	if cfg.Runtime.NoiseBackend != noise.BackendPerlin || cfg.Runtime.Workers != 1 {
		t.Fatalf("runtime = %+v", cfg.Runtime)
	}
}

func TestValidateRejectsInvalidConfigurations(t *testing.T) {
	tests := map[string]func(c *Config){
		"tiny grid":       func(c *Config) { c.Grid.Width = 1 },
		"inverted clamp":  func(c *Config) { c.Heightmap.MinHeight = 200 },
		"zero scale":      func(c *Config) { c.Humidity.Scale = 0 },
		"unknown backend": func(c *Config) { c.Runtime.NoiseBackend = "worley" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateShrinksBrushToGrid(t *testing.T) {
	cfg := Default()
	cfg.Grid.Width, cfg.Grid.Height = 16, 16
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if cfg.Erosion.BrushRadius != 7 {
		t.Fatalf("brush radius = %d, want 7", cfg.Erosion.BrushRadius)
	}
}

func TestValidateKeepsGridsTooSmallToErode(t *testing.T) {
	for _, n := range []int{2, 3} {
		cfg := Default()
		cfg.Grid.Width, cfg.Grid.Height = n, n
		want := cfg.Erosion.Clamped().BrushRadius
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%dx%d: Validate() returned error: %v", n, n, err)
		}
		if cfg.Erosion.BrushRadius != want {
			t.Fatalf("%dx%d: brush radius = %d, want %d", n, n, cfg.Erosion.BrushRadius, want)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Erosion.ParticleCount = 42
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *back != cfg {
		t.Fatalf("round trip changed config:\n%+v\n%+v", *back, cfg)
	}
}

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"size":      "64",
		"seed":      "9",
		"preset":    "subtle",
		"particles": "100",
		"falloff":   "false",
		"workers":   "bogus",
	})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if cfg.Grid.Width != 64 || cfg.Grid.Height != 64 {
		t.Fatalf("grid = %+v", cfg.Grid)
	}
	if cfg.Heightmap.Seed != 9 || cfg.Humidity.Seed != 10 {
		t.Fatalf("seeds = %d/%d", cfg.Heightmap.Seed, cfg.Humidity.Seed)
	}
	if cfg.Erosion.ParticleCount != 100 || cfg.Erosion.BrushRadius != 3 {
		t.Fatalf("erosion = %+v", cfg.Erosion)
	}
	if cfg.Falloff.Enabled {
		t.Fatalf("falloff should be disabled")
	}
	if cfg.Runtime.Workers != 0 {
		t.Fatalf("bogus workers value should be ignored")
	}
	if _, err := FromMap(map[string]string{"config": filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
