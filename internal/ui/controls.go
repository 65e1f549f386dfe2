package ui

import (
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"terrain-lab/internal/biome"
	"terrain-lab/internal/core"
	"terrain-lab/internal/erosion"
)

// Panel metrics, in pixels. Text uses a 7x13 bitmap face.
const (
	panelPadding  = 12
	titleBaseline = 18
	rowHeight     = 26
	buttonSize    = 20
	buttonGap     = 6
	textLine      = 14
	sectionGap    = 10
	glyphWidth    = 7
	chipHeight    = 18
	chipGap       = 4
	barHeight     = 8
	barLabelWidth = 84
	rowsTop       = panelPadding + titleBaseline + 10
)

// stepper is one row of the panel: a label, the current value and a pair of
// -/+ buttons that move it by one step.
type stepper struct {
	ctrl  core.ParameterControl
	value float64
	known bool

	top         int
	minus, plus image.Rectangle
}

func newSteppers(ctrls []core.ParameterControl) []stepper {
	rows := make([]stepper, len(ctrls))
	for i, c := range ctrls {
		rows[i] = stepper{ctrl: c}
	}
	return rows
}

// sync reads the row's value from snap. Rows whose parameter is missing or
// of another type show no value and cannot be pressed.
func (s *stepper) sync(snap core.ParameterSnapshot) {
	s.known = false
	p, ok := snap.Lookup(s.ctrl.Key)
	if !ok || p.Type != s.ctrl.Type {
		return
	}
	if p.Type != core.ParamTypeInt && p.Type != core.ParamTypeFloat {
		return
	}
	v, err := strconv.ParseFloat(p.Value, 64)
	if err != nil {
		return
	}
	s.value, s.known = v, true
}

func (s *stepper) step() float64 {
	if s.ctrl.Type == core.ParamTypeInt {
		return max(1, math.Round(s.ctrl.Step))
	}
	if s.ctrl.Step <= 0 {
		return 0.05
	}
	return s.ctrl.Step
}

// target is the value one press in direction dir would set, clamped to the
// control's bounds, and whether that press changes anything.
func (s *stepper) target(dir int) (float64, bool) {
	if !s.known || dir == 0 {
		return s.value, false
	}
	next := s.ctrl.Clamp(s.value + float64(dir)*s.step())
	if s.ctrl.Type == core.ParamTypeInt {
		next = math.Round(next)
	}
	return next, math.Abs(next-s.value) > 1e-9
}

func (s *stepper) text() string {
	if !s.known {
		return "--"
	}
	if s.ctrl.Type == core.ParamTypeInt {
		return humanize.Comma(int64(s.value))
	}
	return strconv.FormatFloat(s.value, 'f', decimals(s.step()), 64)
}

func decimals(step float64) int {
	switch {
	case step < 0.001:
		return 4
	case step < 0.01:
		return 3
	case step < 0.1:
		return 2
	default:
		return 1
	}
}

// layoutRows pins each row's buttons to the right edge of a panel of the
// given width and returns the y below the last row.
func layoutRows(rows []stepper, width int) int {
	y := rowsTop
	for i := range rows {
		by := y + (rowHeight-buttonSize)/2
		plus := image.Rect(width-panelPadding-buttonSize, by, width-panelPadding, by+buttonSize)
		rows[i].top = y
		rows[i].plus = plus
		rows[i].minus = plus.Sub(image.Pt(buttonSize+buttonGap, 0))
		y += rowHeight
	}
	return y
}

// chip is a clickable preset name.
type chip struct {
	name string
	rect image.Rectangle
}

// layoutChips flows names left to right from top, wrapping at the panel's
// inner width. It returns the chips and the y below the last line.
func layoutChips(names []string, width, top int) ([]chip, int) {
	if len(names) == 0 {
		return nil, top
	}
	chips := make([]chip, 0, len(names))
	x, y := panelPadding, top
	for _, name := range names {
		w := len(name)*glyphWidth + 10
		if x > panelPadding && x+w > width-panelPadding {
			x = panelPadding
			y += chipHeight + chipGap
		}
		chips = append(chips, chip{name: name, rect: image.Rect(x, y, x+w, y+chipHeight)})
		x += w + chipGap
	}
	return chips, y + chipHeight
}

// bar is one line of the biome histogram.
type bar struct {
	biome biome.Biome
	share float64
	width int
}

// biomeBars converts a cell histogram into bars in biome order. Empty biomes
// are skipped and the most common biome spans span pixels.
func biomeBars(hist map[biome.Biome]int, span int) []bar {
	total, peak := 0, 0
	for _, n := range hist {
		total += n
		peak = max(peak, n)
	}
	if total == 0 || span <= 0 {
		return nil
	}
	var bars []bar
	for _, b := range biome.All() {
		n := hist[b]
		if n == 0 {
			continue
		}
		bars = append(bars, bar{biome: b, share: float64(n) / float64(total), width: max(1, n*span/peak)})
	}
	return bars
}

// erosionLines summarises accumulated tick totals for the panel.
func erosionLines(st erosion.TickStats, ticks int) []string {
	if ticks == 0 || st.Droplets == 0 {
		return []string{"no erosion yet"}
	}
	pct := func(n int) int { return n * 100 / st.Droplets }
	return []string{
		fmt.Sprintf("ticks %s  drops %s", humanize.Comma(int64(ticks)), humanize.Comma(int64(st.Droplets))),
		fmt.Sprintf("steps per drop %.1f", float64(st.Steps)/float64(st.Droplets)),
		"eroded " + humanize.FormatFloat("#,###.##", st.Eroded),
		"deposited " + humanize.FormatFloat("#,###.##", st.Deposited),
		fmt.Sprintf("edge %d%%  life %d%%  dry %d%%", pct(st.OutOfBounds), pct(st.Lifetime), pct(st.Evaporated)),
	}
}
