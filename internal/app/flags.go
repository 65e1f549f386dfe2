package app

import (
	"flag"
	"strconv"
)

// Config represents the command-line parameters for the viewer.
type Config struct {
	Sim     string
	Scale   int
	TPS     int
	Seed    int64
	Config  string
	Preset  string
	Export  string
	DB      string
	Workers int
	HUD     int
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "terrain", Scale: 2, TPS: 60, Seed: 42, Export: "out", HUD: 260, Workers: 0}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "scene to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "frames per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "terrain seed")
	fs.StringVar(&c.Config, "config", c.Config, "YAML config file")
	fs.StringVar(&c.Preset, "preset", c.Preset, "erosion preset")
	fs.StringVar(&c.Export, "export", c.Export, "directory for PNG exports")
	fs.StringVar(&c.DB, "db", c.DB, "sqlite file for snapshots (empty disables)")
	fs.IntVar(&c.Workers, "workers", c.Workers, "dispatch workers (0 = GOMAXPROCS)")
	fs.IntVar(&c.HUD, "hud", c.HUD, "HUD panel width in pixels (0 hides it)")
}

// SceneOptions converts the flags into the map scene factories accept.
func (c *Config) SceneOptions() map[string]string {
	m := map[string]string{}
	if c.Config != "" {
		m["config"] = c.Config
	}
	if c.Preset != "" {
		m["preset"] = c.Preset
	}
	if c.Workers > 0 {
		m["workers"] = strconv.Itoa(c.Workers)
	}
	return m
}
