package terrain

import (
	"strconv"

	"terrain-lab/internal/core"
	"terrain-lab/internal/erosion"
	"terrain-lab/internal/noise"
)

func (s *Scene) Parameters() core.ParameterSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.cfg.Heightmap
	e := s.cfg.Erosion
	d := s.pipe.Dims()
	lo, hi := s.pipe.Store().Range()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				core.IntParam("w", "Width", d.W, ""),
				core.IntParam("h", "Height", d.H, ""),
				int64Param("seed", "Seed", h.Seed),
			},
			Summary: "noise: " + string(s.cfg.Runtime.NoiseBackend),
		},
		{
			Name: "Terrain",
			Params: []core.Parameter{
				core.IntParam("layers", "Noise layers", h.Layers, "octaves summed by the height field"),
				floatParam("base_roughness", "Base roughness", h.BaseRoughness),
				floatParam("roughness", "Roughness", h.Roughness),
				floatParam("persistence", "Persistence", h.Persistence),
				floatParam("min_value", "Min value", h.MinValue),
				floatParam("strength", "Strength", h.Strength),
				floatParam("scale", "Scale", h.Scale),
				core.BoolParam("falloff", "Island falloff", s.cfg.Falloff.Enabled, ""),
				floatParam("falloff_jitter", "Falloff jitter", s.cfg.Falloff.Jitter),
				floatParam("humidity_scale", "Humidity scale", s.cfg.Humidity.Scale),
			},
		},
		{
			Name: "Erosion",
			Params: []core.Parameter{
				core.IntParam("particles", "Droplets per tick", e.ParticleCount, ""),
				core.IntParam("brush_radius", "Brush radius", e.BrushRadius, ""),
				core.IntParam("max_lifetime", "Max lifetime", e.MaxLifetime, ""),
				floatParam("inertia", "Inertia", e.Inertia),
				floatParam("capacity", "Capacity factor", e.SedimentCapacityFactor),
				floatParam("min_capacity", "Min capacity", e.MinSedimentCapacity),
				floatParam("deposit", "Deposit speed", e.DepositSpeed),
				floatParam("erode", "Erode speed", e.ErodeSpeed),
				floatParam("evaporate", "Evaporate speed", e.EvaporateSpeed),
				floatParam("gravity", "Gravity", e.Gravity),
				floatParam("start_speed", "Start speed", e.StartSpeed),
				floatParam("start_water", "Start water", e.StartWater),
			},
		},
		{
			Name: "Status",
			Params: []core.Parameter{
				core.BoolParam("eroding", "Eroding", s.eroding, ""),
				core.IntParam("ticks", "Ticks", s.ticks, ""),
				floatParam("height_min", "Height min", lo),
				floatParam("height_max", "Height max", hi),
				floatParam("eroded", "Eroded total", float32(s.totals.Eroded)),
			},
			Summary: s.view.String(),
		},
	}}
}

func (s *Scene) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		intControl("layers", "Layers", 1, 0, noise.MaxLayers),
		floatControl("roughness", "Roughness", 0.1, 0, 10),
		floatControl("persistence", "Persistence", 0.05, 0, 1),
		floatControl("strength", "Strength", 0.1, 0, 5),
		floatControl("scale", "Scale", 0.01, 0.01, 1),
		floatControl("falloff_jitter", "Falloff jitter", 0.1, 0, 4),
		intControl("particles", "Droplets", 500, 0, 100000),
		intControl("brush_radius", "Brush", 1, 1, 32),
		floatControl("inertia", "Inertia", 0.02, 0, 1),
		floatControl("erode", "Erode", 0.05, 0, 1),
		floatControl("deposit", "Deposit", 0.1, 0, 5),
		floatControl("evaporate", "Evaporate", 0.005, 0, 1),
	}
}

// SetIntParameter updates an integer tunable. Terrain keys rebuild on the
// next Step; erosion keys apply from the next tick.
func (s *Scene) SetIntParameter(key string, value int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case "layers":
		if value < 0 || value > noise.MaxLayers {
			return false
		}
		s.cfg.Heightmap.Layers = value
		s.dirty = true
		return true
	case "seed":
		s.cfg.Heightmap.Seed = int64(value)
		s.cfg.Humidity.Seed = int64(value) + 1
		s.dirty = true
		return true
	}
	ep := s.cfg.Erosion
	switch key {
	case "particles":
		if value < 0 {
			return false
		}
		ep.ParticleCount = value
	case "brush_radius":
		d := s.pipe.Dims()
		if value < 1 || value > (min(d.W, d.H)-2)/2 {
			return false
		}
		ep.BrushRadius = value
	case "max_lifetime":
		if value < 1 {
			return false
		}
		ep.MaxLifetime = value
	default:
		return false
	}
	return s.applyErosion(ep)
}

// SetFloatParameter updates a floating point tunable.
func (s *Scene) SetFloatParameter(key string, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := float32(value)
	terrain := true
	switch key {
	case "base_roughness":
		s.cfg.Heightmap.BaseRoughness = v
	case "roughness":
		s.cfg.Heightmap.Roughness = v
	case "persistence":
		s.cfg.Heightmap.Persistence = v
	case "min_value":
		s.cfg.Heightmap.MinValue = v
	case "strength":
		s.cfg.Heightmap.Strength = v
	case "scale":
		if v <= 0 {
			return false
		}
		s.cfg.Heightmap.Scale = v
	case "falloff_jitter":
		s.cfg.Falloff.Jitter = v
	case "humidity_scale":
		if v <= 0 {
			return false
		}
		s.cfg.Humidity.Scale = v
	default:
		terrain = false
	}
	if terrain {
		s.dirty = true
		return true
	}
	ep := s.cfg.Erosion
	switch key {
	case "inertia":
		ep.Inertia = v
	case "capacity":
		ep.SedimentCapacityFactor = v
	case "min_capacity":
		ep.MinSedimentCapacity = v
	case "deposit":
		ep.DepositSpeed = v
	case "erode":
		ep.ErodeSpeed = v
	case "evaporate":
		ep.EvaporateSpeed = v
	case "gravity":
		ep.Gravity = v
	case "start_speed":
		ep.StartSpeed = v
	case "start_water":
		ep.StartWater = v
	default:
		return false
	}
	return s.applyErosion(ep)
}

// SetFalloff toggles the island falloff for the next rebuild.
func (s *Scene) SetFalloff(enabled bool) {
	s.mu.Lock()
	s.cfg.Falloff.Enabled = enabled
	s.dirty = true
	s.mu.Unlock()
}

// ApplyPreset swaps in a named erosion preset, keeping the brush within the
// grid.
func (s *Scene) ApplyPreset(name string) error {
	ep, err := erosion.Preset(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.pipe.Dims()
	ep.BrushRadius = min(ep.BrushRadius, (min(d.W, d.H)-2)/2)
	if !s.applyErosion(ep) {
		return s.lastErr
	}
	s.preset = name
	return nil
}

// Preset names the erosion preset in use, or "" once a parameter has been
// edited by hand.
func (s *Scene) Preset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

func (s *Scene) applyErosion(ep erosion.Params) bool {
	if err := s.pipe.SetErosionParams(ep); err != nil {
		s.lastErr = err
		s.log.Warn("erosion params rejected", "err", err)
		return false
	}
	s.cfg.Erosion = s.pipe.ErosionParams()
	s.preset = ""
	return true
}

func int64Param(key, label string, v int64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.FormatInt(v, 10)}
}

func floatParam(key, label string, v float32) core.Parameter {
	return core.FloatParam(key, label, float64(v), "")
}

func intControl(key, label string, step, lo, hi float64) core.ParameterControl {
	return core.ParameterControl{Key: key, Label: label, Type: core.ParamTypeInt, Step: step, Min: lo, Max: hi, HasMin: true, HasMax: true}
}

func floatControl(key, label string, step, lo, hi float64) core.ParameterControl {
	return core.ParameterControl{Key: key, Label: label, Type: core.ParamTypeFloat, Step: step, Min: lo, Max: hi, HasMin: true, HasMax: true}
}
