package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/pond/config"
	"github.com/pthm-cable/pond/sim"
	"github.com/pthm-cable/pond/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	realtime := flag.Bool("realtime", false, "Step by measured wall-clock frame time instead of physics.dt")
	debug := flag.Bool("debug", false, "Log seed and boid lifecycle events")

	flag.Parse()

	// Set up slog first so config errors are structured too
	setupLogging(os.Stdout, *debug)

	cfg, err := initConfig(*configPath)
	if err != nil {
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Use config stats window if not overridden by CLI
	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	s := sim.New(cfg, sim.Options{Seed: rngSeed, Perf: perf})
	defer s.Close()

	r := &runner{
		sim:       s,
		collector: telemetry.NewCollector(statsWindowSec),
		perf:      perf,
		out:       out,
		logStats:  *logStats,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"boids", cfg.Boids.Count,
		"boundary", cfg.Arena.Boundary,
		"stats_window", statsWindowSec,
		"max_ticks", *maxTicks,
		"realtime", *realtime,
	)

	if *realtime {
		r.runRealtime(ctx, *maxTicks, cfg.Derived.FrameDelta)
	} else {
		r.runFixed(ctx, *maxTicks, cfg.Derived.FrameDelta)
	}

	slog.Info("simulation stopped", "tick", s.Tick(), "sim_time", s.SimTime().Seconds())
}

// setupLogging installs a JSON slog handler on w as the default logger.
func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// initConfig loads the global config and logs any failure.
func initConfig(path string) (*config.Config, error) {
	if err := config.Init(path); err != nil {
		slog.Error("failed to load config", "path", path, "error", err)
		return nil, err
	}
	return config.Cfg(), nil
}

// runner drives a Simulation and routes its telemetry.
type runner struct {
	sim       *sim.Simulation
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	out       *telemetry.OutputManager
	logStats  bool
}

// runFixed steps as fast as possible with a constant frame delta.
func (r *runner) runFixed(ctx context.Context, maxTicks int64, dt time.Duration) {
	for ctx.Err() == nil {
		r.step(dt)
		if maxTicks > 0 && r.sim.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", r.sim.Tick())
			return
		}
	}
}

// runRealtime paces ticks at the target frame rate and steps by the measured
// time between frames, so a slow frame moves boids further.
func (r *runner) runRealtime(ctx context.Context, maxTicks int64, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.perf.RecordFrame()
			r.step(now.Sub(last))
			last = now
		}
		if maxTicks > 0 && r.sim.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", r.sim.Tick())
			return
		}
	}
}

func (r *runner) step(dt time.Duration) {
	r.collector.RecordTick(r.sim.Step(dt))

	for _, e := range r.sim.DrainEvents() {
		slog.Debug("event", "kind", e.Kind.String(), "id", e.ID, "tick", e.Tick,
			"x", e.Position.X, "y", e.Position.Y)
	}

	simSec := r.sim.SimTime().Seconds()
	if !r.collector.ShouldFlush(simSec) {
		return
	}

	stats := r.collector.Flush(r.sim.Tick(), simSec, r.sim.FlockStats())
	perfStats := r.perf.Stats()

	if r.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := r.out.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := r.out.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}
