package terrain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"terrain-lab/internal/config"
	"terrain-lab/internal/core"
	"terrain-lab/internal/persistence"
)

func newScene(t *testing.T) *Scene {
	t.Helper()
	cfg := config.Default()
	cfg.Grid.Width, cfg.Grid.Height = 40, 32
	cfg.Grid.World = mgl32.Vec2{8, 6}
	cfg.Erosion.ParticleCount = 100
	cfg.Erosion.BrushRadius = 2
	cfg.Erosion.MaxLifetime = 30
	cfg.Runtime.Workers = 1
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSceneImplementsSim(t *testing.T) {
	var _ core.Sim = (*Scene)(nil)
	var _ core.ParameterControlsProvider = (*Scene)(nil)
	var _ core.IntParameterSetter = (*Scene)(nil)
	var _ core.FloatParameterSetter = (*Scene)(nil)
	if _, ok := core.Sims()["terrain"]; !ok {
		t.Fatalf("terrain scene not registered")
	}
}

func TestPixelsCoverGrid(t *testing.T) {
	s := newScene(t)
	size := s.Size()
	if size.W != 40 || size.H != 32 {
		t.Fatalf("size = %+v", size)
	}
	for v := ViewShaded; v < viewCount; v++ {
		s.SetView(v)
		px := s.Pixels()
		if len(px) != size.W*size.H*4 {
			t.Fatalf("%s: %d bytes", v, len(px))
		}
		for i := 3; i < len(px); i += 4 {
			if px[i] != 255 {
				t.Fatalf("%s: pixel %d not opaque", v, i/4)
			}
		}
	}
}

func TestStepErodesOnlyWhenToggled(t *testing.T) {
	s := newScene(t)
	before := s.Pipeline().Generation()
	s.Step()
	if s.Pipeline().Generation() != before {
		t.Fatalf("idle Step should not run the pipeline")
	}
	if !s.ToggleErosion() {
		t.Fatalf("erosion should be on after toggle")
	}
	s.Step()
	s.Step()
	totals, ticks := s.Totals()
	if ticks != 2 || totals.Droplets != 200 {
		t.Fatalf("ticks=%d droplets=%d", ticks, totals.Droplets)
	}
	s.ToggleErosion()
	s.TickOnce()
	if _, ticks := s.Totals(); ticks != 3 {
		t.Fatalf("TickOnce should run while paused, ticks=%d", ticks)
	}
}

func TestTerrainParameterRebuildsOnNextStep(t *testing.T) {
	s := newScene(t)
	if !s.SetIntParameter("layers", 2) {
		t.Fatalf("layers rejected")
	}
	if s.Pipeline().Config().Heightmap.Layers == 2 {
		t.Fatalf("terrain edit applied before Step")
	}
	gen := s.Pipeline().Generation()
	s.Step()
	if s.Pipeline().Config().Heightmap.Layers != 2 {
		t.Fatalf("layers not applied")
	}
	if s.Pipeline().Generation() != gen+1 {
		t.Fatalf("expected one rebuild")
	}
	if s.SetIntParameter("layers", 99) {
		t.Fatalf("out of range layers accepted")
	}
	if s.SetFloatParameter("scale", 0) {
		t.Fatalf("zero scale accepted")
	}
}

func TestErosionParameterAppliesImmediately(t *testing.T) {
	s := newScene(t)
	if !s.SetIntParameter("particles", 10) {
		t.Fatalf("particles rejected")
	}
	if n := len(s.Pipeline().Simulator().Droplets()); n != 10 {
		t.Fatalf("droplet buffer = %d", n)
	}
	if !s.SetFloatParameter("inertia", 0.5) {
		t.Fatalf("inertia rejected")
	}
	if got := s.Pipeline().Simulator().Params().Inertia; got != 0.5 {
		t.Fatalf("inertia = %f", got)
	}
	if s.SetIntParameter("brush_radius", 100) {
		t.Fatalf("oversized brush accepted")
	}
	p, ok := s.Parameters().Lookup("particles")
	if !ok || p.Value != "10" {
		t.Fatalf("snapshot particles = %+v", p)
	}
}

func TestApplyPreset(t *testing.T) {
	s := newScene(t)
	if err := s.ApplyPreset("heavy"); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if s.Pipeline().Simulator().Params().BrushRadius > (32-2)/2 {
		t.Fatalf("preset brush not clamped to the grid")
	}
	if s.Preset() != "heavy" {
		t.Fatalf("preset = %q, want heavy", s.Preset())
	}
	if err := s.ApplyPreset("nope"); err == nil {
		t.Fatalf("unknown preset accepted")
	}
	if !s.SetFloatParameter("inertia", 0.3) || s.Preset() != "" {
		t.Fatalf("hand edit should clear the preset, got %q", s.Preset())
	}
}

func TestResetIsDeterministic(t *testing.T) {
	a := newScene(t)
	b := newScene(t)
	a.Reset(11)
	b.Reset(11)
	ha, hb := a.HeightField(), b.HeightField()
	for i := range ha {
		if ha[i] != hb[i] {
			t.Fatalf("height %d differs after equal resets", i)
		}
	}
	b.Reset(12)
	hb = b.HeightField()
	same := true
	for i := range ha {
		if ha[i] != hb[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical terrain")
	}
}

func TestExportAndSnapshot(t *testing.T) {
	s := newScene(t)
	dir := t.TempDir()
	if err := s.ExportHeightmap(filepath.Join(dir, "h.png")); err != nil {
		t.Fatalf("ExportHeightmap: %v", err)
	}
	if err := s.ExportBiomes(filepath.Join(dir, "b.png")); err != nil {
		t.Fatalf("ExportBiomes: %v", err)
	}
	for _, name := range []string{"h.png", "b.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	db, err := persistence.Open(filepath.Join(dir, "terrain.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	want := s.HeightField()
	id, err := s.SaveSnapshot(db, "before")
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	s.TickOnce()
	if err := s.RestoreSnapshot(db, id); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}
	got := s.HeightField()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("height %d = %f after restore, want %f", i, got[i], want[i])
		}
	}
}

func TestDropletVectorsSampled(t *testing.T) {
	s := newScene(t)
	if pos, _ := s.DropletVectors(); len(pos) != 0 {
		t.Fatalf("no tick yet, got %d marks", len(pos))
	}
	s.TickOnce()
	pos, dir := s.DropletVectors()
	if len(pos) != len(dir) || len(pos) == 0 || len(pos) > maxDropletMarks {
		t.Fatalf("marks: %d positions, %d directions", len(pos), len(dir))
	}
}
