// Package biome classifies terrain cells into Whittaker-style biomes from
// normalised height and humidity.
package biome

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// Biome identifies one terrain type.
type Biome uint8

const (
	Desert Biome = iota
	Savanna
	TropicalRainforest
	Grassland
	Woodland
	SeasonalForest
	TemperateRainforest
	BorealForest
	Tundra
	Ice
	count
)

var names = [count]string{
	"desert", "savanna", "tropical-rainforest", "grassland", "woodland",
	"seasonal-forest", "temperate-rainforest", "boreal-forest", "tundra", "ice",
}

func (b Biome) String() string {
	if b >= count {
		return "unknown"
	}
	return names[b]
}

// All lists every biome in declaration order.
func All() []Biome {
	out := make([]Biome, count)
	for i := range out {
		out[i] = Biome(i)
	}
	return out
}

// Buckets is the number of bins per axis.
const Buckets = 6

// Table maps [humidity][temperature] buckets, driest and coldest first. The
// temperature bucket is the height bucket itself, so the lowest terrain falls
// in the Ice column and the highest in the warm columns.
var Table = [Buckets][Buckets]Biome{
	{Ice, Tundra, Grassland, Desert, Desert, Desert},
	{Ice, Tundra, Grassland, Desert, Desert, Desert},
	{Ice, Tundra, Woodland, Woodland, Savanna, Savanna},
	{Ice, Tundra, BorealForest, Woodland, Savanna, Savanna},
	{Ice, Tundra, BorealForest, SeasonalForest, TropicalRainforest, TropicalRainforest},
	{Ice, Tundra, BorealForest, TemperateRainforest, TropicalRainforest, TropicalRainforest},
}

// Bucket bins v in [0, 1] into 0..5 with floor(v*6), so a value exactly on a
// boundary such as 1/6 lands in the upper bin; 1 itself lands in bin 5.
// Out-of-range and NaN inputs are clamped.
func Bucket(v float32) int {
	if !(v > 0) {
		return 0
	}
	b := int(v * Buckets)
	if b >= Buckets {
		return Buckets - 1
	}
	return b
}

// Classify returns the biome for normalised height h and humidity u. The
// temperature bucket is Bucket(h): low is cold, high is warm.
func Classify(h, u float32) Biome {
	return Table[Bucket(u)][Bucket(h)]
}

var palette = [count]color.RGBA{
	Desert:              {R: 238, G: 218, B: 130, A: 255},
	Savanna:             {R: 177, G: 209, B: 110, A: 255},
	TropicalRainforest:  {R: 66, G: 123, B: 25, A: 255},
	Grassland:           {R: 164, G: 225, B: 99, A: 255},
	Woodland:            {R: 139, G: 175, B: 90, A: 255},
	SeasonalForest:      {R: 73, G: 100, B: 35, A: 255},
	TemperateRainforest: {R: 29, G: 73, B: 40, A: 255},
	BorealForest:        {R: 95, G: 115, B: 62, A: 255},
	Tundra:              {R: 96, G: 131, B: 112, A: 255},
	Ice:                 {R: 255, G: 255, B: 255, A: 255},
}

// Color returns the display colour of b.
func (b Biome) Color() color.RGBA {
	if b >= count {
		return color.RGBA{A: 255}
	}
	return palette[b]
}

// Vec4 returns the colour of b as normalised RGBA.
func (b Biome) Vec4() mgl32.Vec4 {
	c := b.Color()
	return mgl32.Vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}
