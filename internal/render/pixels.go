// Package render converts terrain buffers into RGBA pixels for the viewer.
package render

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/biome"
	"terrain-lab/internal/mesh"
)

// DefaultLight points down and across the terrain from the north-west.
var DefaultLight = mgl32.Vec3{-0.5, 1, -0.35}.Normalize()

// ShadeVertices writes a top-down lit view of verts into buf (4 bytes per
// vertex). Vertices without a normal are lit as if facing straight up.
func ShadeVertices(buf []byte, verts []mesh.Vertex, light mgl32.Vec3, ambient float32) {
	up := mgl32.Vec3{0, 1, 0}
	for i, v := range verts {
		n := v.Normal.Vec3()
		if n.Len() == 0 {
			n = up
		}
		lambert := n.Dot(light)
		if lambert < 0 {
			lambert = 0
		}
		k := ambient + (1-ambient)*lambert
		base := i * 4
		buf[base+0] = toByte(v.Color[0] * k)
		buf[base+1] = toByte(v.Color[1] * k)
		buf[base+2] = toByte(v.Color[2] * k)
		buf[base+3] = 255
	}
}

// FillGray normalises values into [0, 255] grayscale pixels. Constant input
// renders black.
func FillGray(buf []byte, values []float32) {
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		var g uint8
		if span > 0 {
			g = toByte((v - lo) / span)
		}
		base := i * 4
		buf[base+0] = g
		buf[base+1] = g
		buf[base+2] = g
		buf[base+3] = 255
	}
}

// FillBiomes paints each cell with its flat biome colour.
func FillBiomes(buf []byte, cells []biome.Biome) {
	for i, b := range cells {
		writeRGBA(buf, i, b.Color())
	}
}

func writeRGBA(buf []byte, i int, col color.RGBA) {
	base := i * 4
	buf[base+0] = col.R
	buf[base+1] = col.G
	buf[base+2] = col.B
	buf[base+3] = col.A
}

func toByte(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}
