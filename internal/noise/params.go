package noise

import "github.com/go-gl/mathgl/mgl32"

// Params configures one layered noise instance. Field names follow the usual
// fractal vocabulary: each layer multiplies amplitude by Persistence and
// frequency by Roughness (or Lacunarity for falloff fields).
type Params struct {
	Seed          int64      `yaml:"seed"`
	Layers        int        `yaml:"layers"`
	Centre        mgl32.Vec3 `yaml:"centre"`
	BaseRoughness float32    `yaml:"base_roughness"`
	Roughness     float32    `yaml:"roughness"`
	Persistence   float32    `yaml:"persistence"`
	MinValue      float32    `yaml:"min_value"`
	Strength      float32    `yaml:"strength"`
	Scale         float32    `yaml:"scale"`
	MinHeight     float32    `yaml:"min_height"`
	MaxHeight     float32    `yaml:"max_height"`
	Lacunarity    float32    `yaml:"lacunarity"`
}

// MaxLayers is the largest layer count accepted by configuration.
const MaxLayers = 8

// HeightDefaults is the noise that shapes the terrain.
func HeightDefaults() Params {
	return Params{
		Layers:        4,
		BaseRoughness: 0.6,
		Roughness:     0.8,
		Persistence:   1,
		Strength:      2,
		Scale:         0.05,
		MinHeight:     0,
		MaxHeight:     150,
		Lacunarity:    1,
	}
}

// FalloffDefaults is the noise that jitters the island edge.
func FalloffDefaults() Params {
	return Params{
		Layers:        3,
		Centre:        mgl32.Vec3{0, -0.34, 0},
		BaseRoughness: 1,
		Roughness:     0.34,
		Persistence:   1,
		Strength:      1,
		Scale:         0.06,
		MinHeight:     0,
		MaxHeight:     150,
		Lacunarity:    1.77,
	}
}

// HumidityDefaults is the noise sampled by the biome pass.
func HumidityDefaults() Params {
	return Params{
		Layers:        7,
		BaseRoughness: 0.4,
		Roughness:     0.8,
		Persistence:   0.5,
		Strength:      1,
		Scale:         0.15,
		MinHeight:     0,
		MaxHeight:     1,
		Lacunarity:    1,
	}
}

// Clamp limits v to [MinHeight, MaxHeight].
func (p Params) Clamp(v float32) float32 {
	if v < p.MinHeight {
		return p.MinHeight
	}
	if v > p.MaxHeight {
		return p.MaxHeight
	}
	return v
}

// Peak is the largest value Sample can return.
func (p Params) Peak() float32 {
	var sum float32
	amp := float32(1)
	for i := 0; i < p.Layers; i++ {
		sum += amp
		amp *= p.Persistence
	}
	v := sum - p.MinValue
	if v < 0 {
		v = 0
	}
	return v * p.Strength
}
