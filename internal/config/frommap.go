package config

import (
	"strconv"

	"terrain-lab/internal/erosion"
	"terrain-lab/internal/noise"
)

// FromMap applies flag-style overrides on top of Default. A "config" entry
// names a YAML file to start from. Unparseable values are ignored.
func FromMap(cfg map[string]string) (Config, error) {
	c := Default()
	if cfg == nil {
		return c, nil
	}
	if path, ok := cfg["config"]; ok && path != "" {
		loaded, err := Load(path)
		if err != nil {
			return c, err
		}
		c = *loaded
	}
	if v, ok := cfg["size"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 2 {
			c.Grid.Width, c.Grid.Height = parsed, parsed
		}
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 2 {
			c.Grid.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 2 {
			c.Grid.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Heightmap.Seed = parsed
			c.Humidity.Seed = parsed + 1
			c.Falloff.Noise.Seed = parsed + 2
		}
	}
	if v, ok := cfg["preset"]; ok {
		if p, err := erosion.Preset(v); err == nil {
			c.Erosion = p
		}
	}
	if v, ok := cfg["particles"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Erosion.ParticleCount = parsed
		}
	}
	if v, ok := cfg["brush_radius"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 {
			c.Erosion.BrushRadius = parsed
		}
	}
	if v, ok := cfg["inertia"]; ok {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			c.Erosion.Inertia = float32(parsed)
		}
	}
	if v, ok := cfg["falloff"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Falloff.Enabled = parsed
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Runtime.Workers = parsed
		}
	}
	if v, ok := cfg["backend"]; ok {
		c.Runtime.NoiseBackend = noise.Backend(v)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
