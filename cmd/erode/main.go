// Command erode generates a terrain, runs droplet erosion headlessly and
// exports the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"terrain-lab/internal/config"
	"terrain-lab/internal/erosion"
	"terrain-lab/internal/persistence"
	"terrain-lab/internal/pipeline"
)

type options struct {
	config  string
	seed    int64
	size    int
	ticks   int
	preset  string
	smooth  int
	out     string
	biomes  bool
	db      string
	label   string
	workers int
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "", "YAML config file (defaults when empty)")
	flag.Int64Var(&opts.seed, "seed", 0, "terrain seed (0 keeps the config seed)")
	flag.IntVar(&opts.size, "size", 0, "square grid size override")
	flag.IntVar(&opts.ticks, "ticks", 200, "erosion ticks to run")
	flag.StringVar(&opts.preset, "preset", "", "erosion preset")
	flag.IntVar(&opts.smooth, "smooth", 0, "smoothing passes after erosion")
	flag.StringVar(&opts.out, "out", "out", "output directory for PNGs")
	flag.BoolVar(&opts.biomes, "biomes", true, "also export the biome map")
	flag.StringVar(&opts.db, "db", "", "sqlite file to store the final heightmap in")
	flag.StringVar(&opts.label, "label", "", "snapshot label")
	flag.IntVar(&opts.workers, "workers", -1, "dispatch workers (-1 keeps the config value)")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("erode failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		loaded, err := config.Load(opts.config)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if opts.seed != 0 {
		cfg.Heightmap.Seed = opts.seed
		cfg.Humidity.Seed = opts.seed + 1
		cfg.Falloff.Noise.Seed = opts.seed + 2
	}
	if opts.size > 0 {
		cfg.Grid.Width, cfg.Grid.Height = opts.size, opts.size
	}
	if opts.preset != "" {
		p, err := erosion.Preset(opts.preset)
		if err != nil {
			return cfg, err
		}
		cfg.Erosion = p
	}
	if opts.workers >= 0 {
		cfg.Runtime.Workers = opts.workers
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	frames, cancel := p.Subscribe()
	defer cancel()
	go func() {
		for f := range frames {
			slog.Debug("frame", "kind", f.Kind, "generation", f.Generation, "min", f.Min, "max", f.Max)
		}
	}()

	start := time.Now()
	if err := p.Rebuild(ctx); err != nil {
		return err
	}
	before := p.Store().Roughness()

	var totals erosion.TickStats
	for i := 0; i < opts.ticks; i++ {
		st, err := p.Erode(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Warn("interrupted", "ticks", i)
				break
			}
			return err
		}
		totals.Add(st)
		if (i+1)%50 == 0 {
			slog.Info("erosion progress", "tick", i+1, "of", opts.ticks,
				"droplets", humanize.Comma(int64(totals.Droplets)))
		}
	}
	for i := 0; i < opts.smooth; i++ {
		if err := p.Smooth(ctx); err != nil {
			return err
		}
	}

	lo, hi := p.Store().Range()
	slog.Info("erosion done",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"droplets", humanize.Comma(int64(totals.Droplets)),
		"steps", humanize.Comma(int64(totals.Steps)),
		"eroded", humanize.FtoaWithDigits(totals.Eroded, 3),
		"deposited", humanize.FtoaWithDigits(totals.Deposited, 3),
		"roughness_before", humanize.FtoaWithDigits(before, 4),
		"roughness_after", humanize.FtoaWithDigits(p.Store().Roughness(), 4),
		"min", lo, "max", hi)

	base := filepath.Join(opts.out, fmt.Sprintf("terrain-%d", cfg.Heightmap.Seed))
	if err := p.SaveHeightmap(base + "-height.png"); err != nil {
		return err
	}
	if opts.biomes {
		if err := p.SaveBiomeMap(base + "-biome.png"); err != nil {
			return err
		}
	}
	slog.Info("exported", "prefix", base)

	if opts.db == "" {
		return nil
	}
	db, err := persistence.Open(opts.db)
	if err != nil {
		return err
	}
	defer db.Close()
	label := opts.label
	if label == "" {
		label = fmt.Sprintf("seed %d, %d ticks", cfg.Heightmap.Seed, opts.ticks)
	}
	snap, err := p.Snapshot(label)
	if err != nil {
		return err
	}
	return db.SaveSnapshot(snap)
}
