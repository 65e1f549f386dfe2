package erosion

import (
	"fmt"
	"sort"
)

// Params configures the droplet simulation.
type Params struct {
	ParticleCount          int     `yaml:"particle_count"`
	BrushRadius            int     `yaml:"brush_radius"`
	MaxLifetime            int     `yaml:"max_lifetime"`
	SedimentCapacityFactor float32 `yaml:"sediment_capacity_factor"`
	MinSedimentCapacity    float32 `yaml:"min_sediment_capacity"`
	DepositSpeed           float32 `yaml:"deposit_speed"`
	ErodeSpeed             float32 `yaml:"erode_speed"`
	EvaporateSpeed         float32 `yaml:"evaporate_speed"`
	Gravity                float32 `yaml:"gravity"`
	StartSpeed             float32 `yaml:"start_speed"`
	StartWater             float32 `yaml:"start_water"`
	Inertia                float32 `yaml:"inertia"`
}

// DefaultParams returns the demo's default erosion settings.
func DefaultParams() Params {
	return Params{
		ParticleCount:          5000,
		BrushRadius:            9,
		MaxLifetime:            200,
		SedimentCapacityFactor: 9,
		MinSedimentCapacity:    0.5,
		DepositSpeed:           2.3,
		ErodeSpeed:             0.3,
		EvaporateSpeed:         0.01,
		Gravity:                4,
		StartSpeed:             1,
		StartWater:             1,
		Inertia:                0.16,
	}
}

var presets = map[string]func() Params{
	"default": DefaultParams,
	"classic": func() Params {
		return Params{
			ParticleCount: 50000, BrushRadius: 2, MaxLifetime: 130,
			SedimentCapacityFactor: 3, MinSedimentCapacity: 0.01,
			DepositSpeed: 0.3, ErodeSpeed: 0.3, EvaporateSpeed: 0.01,
			Gravity: 4, StartSpeed: 1, StartWater: 1, Inertia: 0.3,
		}
	},
	// Gentle weathering: droplets follow the terrain closely and dry fast.
	"subtle": func() Params {
		return Params{
			ParticleCount: 2000, BrushRadius: 3, MaxLifetime: 30,
			SedimentCapacityFactor: 4, MinSedimentCapacity: 0.01,
			DepositSpeed: 0.05, ErodeSpeed: 0.05, EvaporateSpeed: 0.02,
			Gravity: 4, StartSpeed: 1, StartWater: 1, Inertia: 0.05,
		}
	},
	"average": func() Params {
		return Params{
			ParticleCount: 4000, BrushRadius: 4, MaxLifetime: 50,
			SedimentCapacityFactor: 6, MinSedimentCapacity: 0.1,
			DepositSpeed: 0.3, ErodeSpeed: 0.3, EvaporateSpeed: 0.01,
			Gravity: 4, StartSpeed: 1, StartWater: 1, Inertia: 0.1,
		}
	},
	// Deep valleys: many long-lived droplets with strong gravity.
	"heavy": func() Params {
		return Params{
			ParticleCount: 50000, BrushRadius: 6, MaxLifetime: 200,
			SedimentCapacityFactor: 8, MinSedimentCapacity: 0.5,
			DepositSpeed: 0.2, ErodeSpeed: 0.7, EvaporateSpeed: 0.02,
			Gravity: 10, StartSpeed: 1, StartWater: 1, Inertia: 0.3,
		}
	},
	// Swirling channels and wide sediment fans.
	"artistic": func() Params {
		return Params{
			ParticleCount: 6000, BrushRadius: 3, MaxLifetime: 100,
			SedimentCapacityFactor: 50, MinSedimentCapacity: 0.01,
			DepositSpeed: 0.5, ErodeSpeed: 0.05, EvaporateSpeed: 0.002,
			Gravity: 2, StartSpeed: 1, StartWater: 1, Inertia: 0.7,
		}
	},
}

// Preset returns a named parameter bundle.
func Preset(name string) (Params, error) {
	f, ok := presets[name]
	if !ok {
		return Params{}, fmt.Errorf("unknown erosion preset %q", name)
	}
	return f(), nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clamped returns p with every field forced into its usable range.
func (p Params) Clamped() Params {
	if p.ParticleCount < 0 {
		p.ParticleCount = 0
	}
	if p.BrushRadius < 1 {
		p.BrushRadius = 1
	}
	if p.MaxLifetime < 1 {
		p.MaxLifetime = 1
	}
	p.SedimentCapacityFactor = max(p.SedimentCapacityFactor, 0)
	p.MinSedimentCapacity = max(p.MinSedimentCapacity, 0)
	p.DepositSpeed = clampf(p.DepositSpeed, 0, 10)
	p.ErodeSpeed = clampf(p.ErodeSpeed, 0, 10)
	p.EvaporateSpeed = clampf(p.EvaporateSpeed, 0, 1)
	p.Gravity = max(p.Gravity, 0)
	p.StartSpeed = max(p.StartSpeed, 0)
	if p.StartWater <= 0 {
		p.StartWater = 1
	}
	p.Inertia = clampf(p.Inertia, 0, 1)
	return p
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
