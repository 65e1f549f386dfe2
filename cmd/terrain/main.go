//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"terrain-lab/internal/app"
	"terrain-lab/internal/core"
	"terrain-lab/internal/persistence"
	_ "terrain-lab/internal/sims/terrain"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	factory, ok := core.Sims()[cfg.Sim]
	if !ok {
		slog.Error("unknown sim", "sim", cfg.Sim)
		os.Exit(1)
	}

	sim := factory(cfg.SceneOptions())
	sim.Reset(cfg.Seed)

	var db *persistence.DB
	if cfg.DB != "" {
		var err error
		db, err = persistence.Open(cfg.DB)
		if err != nil {
			slog.Error("open snapshot db", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	game := app.New(sim, cfg, db)
	size := sim.Size()

	ebiten.SetWindowTitle("terrain-lab: " + sim.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*cfg.Scale+max(cfg.HUD, 0), size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		slog.Error("run", "err", err)
		os.Exit(1)
	}
}
