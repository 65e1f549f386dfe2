// Command erosion-sweep runs a grid of erosion parameters over one terrain
// and ranks them by how much they reshape it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"terrain-lab/internal/config"
	"terrain-lab/internal/erosion"
	"terrain-lab/internal/pipeline"
	pcore "terrain-lab/pkg/core"
)

type paramSet struct {
	preset   string
	inertia  float32
	erode    float32
	deposit  float32
	capacity float32
}

func (p paramSet) String() string {
	return fmt.Sprintf("preset=%s inertia=%.2f erode=%.2f deposit=%.2f capacity=%.1f",
		p.preset, p.inertia, p.erode, p.deposit, p.capacity)
}

func (p paramSet) apply(base erosion.Params) erosion.Params {
	base.Inertia = p.inertia
	base.ErodeSpeed = p.erode
	base.DepositSpeed = p.deposit
	base.SedimentCapacityFactor = p.capacity
	return base
}

type scenarioResult struct {
	params     paramSet
	eroded     float64
	deposited  float64
	lost       float64
	roughness  float64
	roughDelta float64
	minHeight  float32
	maxHeight  float32
	elapsed    time.Duration
	err        error
}

func main() {
	ticks := flag.Int("ticks", 40, "erosion ticks per scenario")
	size := flag.Int("size", 96, "grid size")
	seed := flag.Int64("seed", 1, "terrain seed")
	particles := flag.Int("particles", 1000, "droplets per tick")
	workers := flag.Int("workers", runtime.NumCPU(), "number of concurrent scenarios")
	top := flag.Int("top", 10, "results to print")
	samples := flag.Int("samples", 0, "extra randomly sampled parameter sets")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	base := config.Default()
	base.Grid.Width, base.Grid.Height = *size, *size
	base.Heightmap.Seed = *seed
	base.Humidity.Seed = *seed + 1
	base.Falloff.Noise.Seed = *seed + 2
	// Scenarios already run in parallel; keep each pipeline serial so runs
	// are reproducible.
	base.Runtime.Workers = 1

	sets := buildSets()
	sets = append(sets, sampleSets(pcore.NewRNG(*seed), *samples)...)
	fmt.Printf("Sweeping %d parameter sets (%d workers, %d ticks, %dx%d grid)\n",
		len(sets), *workers, *ticks, *size, *size)

	jobs := make(chan paramSet)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- runScenario(base, params, *particles, *ticks)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	start := time.Now()
	var all []scenarioResult
	for res := range results {
		if res.err != nil {
			fmt.Printf("Scenario failed (%s): %v\n", res.params, res.err)
			continue
		}
		all = append(all, res)
	}

	rank(all)
	fmt.Printf("Completed %d scenarios in %s\n", len(all), time.Since(start).Round(time.Millisecond))
	for i, res := range all {
		if i >= *top {
			break
		}
		fmt.Printf("%2d. eroded=%s deposited=%s lost=%s roughness=%.4f (%+.4f) range=[%.2f, %.2f] %s in %s\n",
			i+1,
			humanize.FtoaWithDigits(res.eroded, 2),
			humanize.FtoaWithDigits(res.deposited, 2),
			humanize.FtoaWithDigits(res.lost, 2),
			res.roughness, res.roughDelta, res.minHeight, res.maxHeight,
			res.params, res.elapsed.Round(time.Millisecond))
	}
}

func buildSets() []paramSet {
	inertiaOptions := []float32{0.05, 0.3, 0.7}
	erodeOptions := []float32{0.1, 0.3, 0.7}
	depositOptions := []float32{0.1, 0.3, 1}
	capacityOptions := []float32{3, 8}

	var sets []paramSet
	for _, preset := range erosion.PresetNames() {
		p, _ := erosion.Preset(preset)
		sets = append(sets, paramSet{preset: preset, inertia: p.Inertia, erode: p.ErodeSpeed, deposit: p.DepositSpeed, capacity: p.SedimentCapacityFactor})
	}
	for _, inertia := range inertiaOptions {
		for _, erode := range erodeOptions {
			for _, deposit := range depositOptions {
				for _, capacity := range capacityOptions {
					sets = append(sets, paramSet{
						preset:   "default",
						inertia:  inertia,
						erode:    erode,
						deposit:  deposit,
						capacity: capacity,
					})
				}
			}
		}
	}
	return sets
}

// sampleSets draws n parameter sets uniformly from the swept ranges.
func sampleSets(rng *pcore.RNG, n int) []paramSet {
	sets := make([]paramSet, 0, n)
	for i := 0; i < n; i++ {
		sets = append(sets, paramSet{
			preset:   "default",
			inertia:  rng.Float32n(0, 0.9),
			erode:    rng.Float32n(0.05, 1),
			deposit:  rng.Float32n(0.05, 1.5),
			capacity: rng.Float32n(1, 12),
		})
	}
	return sets
}

// rank orders results by the largest roughness reduction, then by eroded
// mass.
func rank(all []scenarioResult) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].roughDelta != all[j].roughDelta {
			return all[i].roughDelta < all[j].roughDelta
		}
		return all[i].eroded > all[j].eroded
	})
}

func runScenario(base config.Config, params paramSet, particles, ticks int) (res scenarioResult) {
	res.params = params
	start := time.Now()
	defer func() { res.elapsed = time.Since(start) }()

	preset, err := erosion.Preset(params.preset)
	if err != nil {
		res.err = err
		return res
	}
	cfg := base
	cfg.Erosion = params.apply(preset)
	cfg.Erosion.ParticleCount = particles
	if err := cfg.Validate(); err != nil {
		res.err = err
		return res
	}

	p, err := pipeline.New(cfg, slog.Default())
	if err != nil {
		res.err = err
		return res
	}
	ctx := context.Background()
	if err := p.Rebuild(ctx); err != nil {
		res.err = err
		return res
	}
	before := p.Store().Roughness()
	var totals erosion.TickStats
	for i := 0; i < ticks; i++ {
		st, err := p.Erode(ctx)
		if err != nil {
			res.err = err
			return res
		}
		totals.Add(st)
	}
	res.eroded = totals.Eroded
	res.deposited = totals.Deposited
	res.lost = totals.LostSediment
	res.roughness = p.Store().Roughness()
	res.roughDelta = res.roughness - before
	res.minHeight, res.maxHeight = p.Store().Range()
	return res
}
