package main

import (
	"math"
	"slices"
	"sync"

	"github.com/pthm-cable/pond/config"
	"github.com/pthm-cable/pond/sim"
	"github.com/pthm-cable/pond/telemetry"
)

// Quality component weights.
const (
	qualityWeightPolarization = 0.5
	qualityWeightForaging     = 0.3
	qualityWeightContainment  = 0.2

	qualityWarmupWindows = 1 // skip the first window while the line layout breaks up
)

// Quality scores one run; every component lies in [0, 1].
type Quality struct {
	Polarization float64 // mean polarization over scored windows
	Foraging     float64 // seeds eaten / seeds spawned
	Containment  float64 // share of windows with every boid inside the pond
}

// Score combines the components into a single value in [0, 1].
func (q Quality) Score() float64 {
	return qualityWeightPolarization*q.Polarization +
		qualityWeightForaging*q.Foraging +
		qualityWeightContainment*q.Containment
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality Quality // averaged over seeds from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0, // 10 seconds per window
	}
}

// LastQuality returns the quality from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() Quality {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Seeds run in parallel, each on its own Simulation.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.configFor(x)

	results := make([]Quality, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = computeQuality(fe.runSimulation(cfg, s), cfg.Arena.PondRadius)
		}(i, seed)
	}
	wg.Wait()

	var avg Quality
	for _, q := range results {
		avg.Polarization += q.Polarization
		avg.Foraging += q.Foraging
		avg.Containment += q.Containment
	}
	n := float64(len(results))
	avg.Polarization /= n
	avg.Foraging /= n
	avg.Containment /= n

	fe.mu.Lock()
	fe.lastQuality = avg
	fe.mu.Unlock()

	return -avg.Score()
}

// configFor returns a copy of the base config with x applied.
func (fe *FitnessEvaluator) configFor(x []float64) *config.Config {
	cfg := *fe.baseConfig
	cfg.Flocking.LonelyTarget = slices.Clone(fe.baseConfig.Flocking.LonelyTarget)
	fe.params.ApplyToConfig(&cfg, x)
	return &cfg
}

// runSimulation executes a single headless run and returns its window stats.
// cfg is only read, so seeds may share it.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) []telemetry.WindowStats {
	s := sim.New(cfg, sim.Options{Seed: seed})
	defer s.Close()

	collector := telemetry.NewCollector(fe.statsWindow)
	var windows []telemetry.WindowStats
	for s.Tick() < fe.maxTicks {
		collector.RecordTick(s.Step(cfg.Derived.FrameDelta))
		s.DrainEvents()

		simSec := s.SimTime().Seconds()
		if collector.ShouldFlush(simSec) {
			windows = append(windows, collector.Flush(s.Tick(), simSec, s.FlockStats()))
		}
	}
	return windows
}

// computeQuality scores a run from its window stats.
func computeQuality(windows []telemetry.WindowStats, pondRadius float64) Quality {
	if len(windows) <= qualityWarmupWindows {
		return Quality{}
	}
	scored := windows[qualityWarmupWindows:]

	var q Quality
	var spawned, eaten, contained int
	for _, w := range scored {
		q.Polarization += w.Polarization
		spawned += w.SeedsSpawned
		eaten += w.SeedsEaten
		if w.RadiusMax <= pondRadius {
			contained++
		}
	}

	n := float64(len(scored))
	q.Polarization /= n
	q.Containment = float64(contained) / n
	if spawned > 0 {
		q.Foraging = math.Min(float64(eaten)/float64(spawned), 1)
	}
	return q
}
