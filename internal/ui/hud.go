//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"terrain-lab/internal/biome"
	"terrain-lab/internal/core"
	"terrain-lab/internal/erosion"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

type totalsProvider interface {
	Totals() (erosion.TickStats, int)
}

type histogramProvider interface {
	BiomeHistogram() map[biome.Biome]int
}

type presetSelector interface {
	ApplyPreset(name string) error
	Preset() string
}

// histogramEvery is how many updates pass between biome recounts.
const histogramEvery = 30

var (
	panelBg    = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	textBright = color.RGBA{R: 220, G: 220, B: 230, A: 255}
	textDim    = color.RGBA{R: 160, G: 160, B: 170, A: 255}
	buttonBg   = color.RGBA{R: 54, G: 56, B: 64, A: 255}
	buttonOff  = color.RGBA{R: 32, G: 34, B: 40, A: 255}
	textOff    = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	chipActive = color.RGBA{R: 70, G: 110, B: 160, A: 255}
)

// HUD is the panel right of the terrain view: parameter steppers, erosion
// preset chips, running erosion totals and the biome mix.
type HUD struct {
	sim     core.Sim
	width   int
	title   string
	offsetX int

	panel *ebiten.Image
	pixel *ebiten.Image

	rows     []stepper
	chips    []chip
	rowsEnd  int
	chipsEnd int

	ints    core.IntParameterSetter
	floats  core.FloatParameterSetter
	presets presetSelector
	totals  totalsProvider
	counts  histogramProvider

	active  string
	lines   []string
	bars    []bar
	updates int
}

// NewHUD builds a panel of the given width for sim. Sections the scene does
// not support are left out.
func NewHUD(sim core.Sim, width int) *HUD {
	h := &HUD{sim: sim, width: max(width, 0), title: "Controls"}
	if sim != nil && sim.Name() != "" {
		h.title = sim.Name() + " controls"
	}
	if h.width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p, ok := sim.(core.ParameterControlsProvider); ok {
		h.rows = newSteppers(p.ParameterControls())
	}
	h.ints, _ = sim.(core.IntParameterSetter)
	h.floats, _ = sim.(core.FloatParameterSetter)
	h.presets, _ = sim.(presetSelector)
	h.totals, _ = sim.(totalsProvider)
	h.counts, _ = sim.(histogramProvider)

	h.rowsEnd = layoutRows(h.rows, h.width)
	h.chipsEnd = h.rowsEnd
	if h.presets != nil {
		h.chips, h.chipsEnd = layoutChips(erosion.PresetNames(), h.width, h.rowsEnd+sectionGap+textLine)
	}
	return h
}

// Update pulls fresh values from the scene and handles clicks on the panel.
func (h *HUD) Update(panelOffsetX int) {
	if h == nil {
		return
	}
	h.offsetX = panelOffsetX
	if p, ok := h.sim.(parameterProvider); ok {
		snap := p.Parameters()
		for i := range h.rows {
			h.rows[i].sync(snap)
		}
	}
	if h.presets != nil {
		h.active = h.presets.Preset()
	}
	if h.totals != nil {
		h.lines = erosionLines(h.totals.Totals())
	}
	if h.counts != nil && h.updates%histogramEvery == 0 {
		h.bars = biomeBars(h.counts.BiomeHistogram(), h.width-2*panelPadding-barLabelWidth)
	}
	h.updates++
	h.click()
}

// Width is the panel width, zero for a nil HUD.
func (h *HUD) Width() int {
	if h == nil {
		return 0
	}
	return h.width
}

func (h *HUD) click() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	mx, my := ebiten.CursorPosition()
	pt := image.Pt(mx-h.offsetX, my)
	if pt.X < 0 {
		return
	}
	for i := range h.rows {
		r := &h.rows[i]
		switch {
		case pt.In(r.minus):
			h.press(r, -1)
			return
		case pt.In(r.plus):
			h.press(r, 1)
			return
		}
	}
	for _, c := range h.chips {
		if pt.In(c.rect) {
			if err := h.presets.ApplyPreset(c.name); err != nil {
				slog.Warn("preset rejected", "preset", c.name, "err", err)
			}
			return
		}
	}
}

func (h *HUD) settable(t core.ParamType) bool {
	switch t {
	case core.ParamTypeInt:
		return h.ints != nil
	case core.ParamTypeFloat:
		return h.floats != nil
	}
	return false
}

func (h *HUD) press(r *stepper, dir int) {
	next, ok := r.target(dir)
	if !ok || !h.settable(r.ctrl.Type) {
		return
	}
	var applied bool
	if r.ctrl.Type == core.ParamTypeInt {
		applied = h.ints.SetIntParameter(r.ctrl.Key, int(next))
	} else {
		applied = h.floats.SetFloatParameter(r.ctrl.Key, next)
	}
	if applied {
		r.value = next
	}
}

// Draw paints the panel at offsetX, as tall as the scaled terrain view.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	height := h.sim.Size().H * max(scale, 1)
	if height <= 0 {
		return
	}
	if h.panel == nil || h.panel.Bounds().Dy() != height {
		h.panel = ebiten.NewImage(h.width, height)
	}
	h.panel.Fill(panelBg)

	face := basicfont.Face7x13
	text.Draw(h.panel, h.title, face, panelPadding, panelPadding+titleBaseline, textBright)
	h.drawRows()
	y := h.rowsEnd + sectionGap
	if h.presets != nil {
		h.drawChips(y)
		y = h.chipsEnd + sectionGap
	}
	if h.totals != nil {
		y = h.drawLines("Erosion", h.lines, y)
	}
	if h.counts != nil {
		h.drawBars(y, height)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawRows() {
	face := basicfont.Face7x13
	if len(h.rows) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, rowsTop+textLine, textDim)
		return
	}
	for i := range h.rows {
		r := &h.rows[i]
		base := r.top + rowHeight/2 + 5
		text.Draw(h.panel, r.ctrl.Label, face, panelPadding, base, textBright)
		value, col := r.text(), textBright
		if !r.known {
			col = textDim
		}
		w := text.BoundString(face, value).Dx()
		text.Draw(h.panel, value, face, r.minus.Min.X-buttonGap-w, base, col)
		_, down := r.target(-1)
		_, up := r.target(1)
		settable := h.settable(r.ctrl.Type)
		h.drawButton(r.minus, "-", down && settable, buttonBg)
		h.drawButton(r.plus, "+", up && settable, buttonBg)
	}
}

func (h *HUD) drawChips(y int) {
	text.Draw(h.panel, "Erosion preset", basicfont.Face7x13, panelPadding, y+textLine-3, textDim)
	for _, c := range h.chips {
		bg := buttonBg
		if c.name == h.active {
			bg = chipActive
		}
		h.drawButton(c.rect, c.name, true, bg)
	}
}

func (h *HUD) drawLines(heading string, lines []string, y int) int {
	face := basicfont.Face7x13
	y += textLine
	text.Draw(h.panel, heading, face, panelPadding, y, textDim)
	for _, line := range lines {
		y += textLine
		text.Draw(h.panel, line, face, panelPadding, y, textBright)
	}
	return y + sectionGap
}

func (h *HUD) drawBars(y, height int) {
	face := basicfont.Face7x13
	y += textLine
	text.Draw(h.panel, "Biomes", face, panelPadding, y, textDim)
	for _, b := range h.bars {
		if y+textLine > height {
			return
		}
		y += textLine
		label := fmt.Sprintf("%-11.11s%3.0f%%", b.biome, b.share*100)
		text.Draw(h.panel, label, face, panelPadding, y, textBright)
		top := y - barHeight
		h.fill(image.Rect(panelPadding+barLabelWidth, top, panelPadding+barLabelWidth+b.width, top+barHeight), b.biome.Color())
	}
}

func (h *HUD) fill(r image.Rectangle, col color.Color) {
	if h.pixel == nil || r.Empty() {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(col)
	h.panel.DrawImage(h.pixel, op)
}

func (h *HUD) drawButton(r image.Rectangle, label string, enabled bool, bg color.RGBA) {
	fg := textBright
	if !enabled {
		bg, fg = buttonOff, textOff
	}
	h.fill(r, bg)
	face := basicfont.Face7x13
	b := text.BoundString(face, label)
	x := r.Min.X + (r.Dx()-b.Dx())/2
	y := r.Min.Y + (r.Dy()-b.Dy())/2 + b.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}
