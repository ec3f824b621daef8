package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stage is one step of the pond pipeline. Values follow execution order.
type Stage int

const (
	StageSnapshot Stage = iota
	StageForces
	StageSympathy
	StageSteering
	StageLocomotion
	StageFoodSpawn
	StageFoodEat

	NumStages
)

var stageNames = [NumStages]string{
	"snapshot", "forces", "sympathy", "steering", "locomotion", "food_spawn", "food_eat",
}

func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return "unknown"
	}
	return stageNames[s]
}

// StageTimes holds wall time per stage, indexed by Stage.
type StageTimes [NumStages]time.Duration

// Total is the sum over all stages.
func (st StageTimes) Total() time.Duration {
	var sum time.Duration
	for _, d := range st {
		sum += d
	}
	return sum
}

// tickSample is one recorded step: stage timings plus the work the force stage did.
type tickSample struct {
	stages   StageTimes
	carriers int
	pairs    int
}

// PerfCollector times the pipeline stages over the last window of ticks.
// A tick is the span from the first Enter to EndTick.
type PerfCollector struct {
	ring []tickSample
	next int

	cur   tickSample
	stage Stage
	open  bool
	mark  time.Time

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window ticks; window < 1 means 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickSample, 0, window)}
}

// Enter closes the running stage, if any, and starts timing stage.
func (p *PerfCollector) Enter(stage Stage) {
	now := time.Now()
	p.closeStage(now)
	p.stage = stage
	p.open = true
	p.mark = now
}

func (p *PerfCollector) closeStage(now time.Time) {
	if p.open {
		p.cur.stages[p.stage] += now.Sub(p.mark)
		p.open = false
	}
}

// EndTick closes the running stage and stores the tick with the work it reported.
func (p *PerfCollector) EndTick(work TickCounts) {
	p.closeStage(time.Now())
	p.cur.carriers = work.ForceCarriers
	p.cur.pairs = work.PairsScanned

	if len(p.ring) < cap(p.ring) {
		p.ring = append(p.ring, p.cur)
	} else {
		p.ring[p.next] = p.cur
	}
	p.next = (p.next + 1) % cap(p.ring)
	p.cur = tickSample{}
}

// RecordFrame marks a wall-clock frame boundary in realtime runs.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarises the window.
type PerfStats struct {
	Ticks int

	TickMean time.Duration
	TickP95  time.Duration
	TickMax  time.Duration

	StageMean  StageTimes
	StageShare [NumStages]float64 // fraction of the mean tick

	TicksPerSecond float64

	// Force stage throughput per millisecond of its own wall time.
	PairsPerMS    float64
	CarriersPerMS float64

	Frame time.Duration
	FPS   float64
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: len(p.ring), Frame: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if s.Ticks == 0 {
		return s
	}

	totals := make([]float64, s.Ticks)
	var sum StageTimes
	var pairs, carriers int
	for i, t := range p.ring {
		totals[i] = float64(t.stages.Total())
		for st, d := range t.stages {
			sum[st] += d
		}
		pairs += t.pairs
		carriers += t.carriers
	}
	sort.Float64s(totals)

	mean := stat.Mean(totals, nil)
	s.TickMean = time.Duration(mean)
	s.TickP95 = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	s.TickMax = time.Duration(floats.Max(totals))
	if mean > 0 {
		s.TicksPerSecond = float64(time.Second) / mean
	}

	for st := range sum {
		s.StageMean[st] = sum[st] / time.Duration(s.Ticks)
		if mean > 0 {
			s.StageShare[st] = float64(s.StageMean[st]) / mean
		}
	}

	if ms := float64(sum[StageForces]) / float64(time.Millisecond); ms > 0 {
		s.PairsPerMS = float64(pairs) / ms
		s.CarriersPerMS = float64(carriers) / ms
	}
	return s
}

// LogStats emits one "perf" line with per-stage mean times.
func (s PerfStats) LogStats() {
	attrs := []any{
		"ticks", s.Ticks,
		"tick_mean_us", s.TickMean.Microseconds(),
		"tick_p95_us", s.TickP95.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"pairs_per_ms", int(s.PairsPerMS),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for st := StageSnapshot; st < NumStages; st++ {
		attrs = append(attrs, st.String()+"_us", s.StageMean[st].Microseconds())
	}
	slog.Info("perf", attrs...)
}

// PerfRow is one perf.csv line.
type PerfRow struct {
	WindowEnd     int64   `csv:"window_end"`
	Ticks         int     `csv:"ticks"`
	TickMeanUS    int64   `csv:"tick_mean_us"`
	TickP95US     int64   `csv:"tick_p95_us"`
	TickMaxUS     int64   `csv:"tick_max_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	PairsPerMS    float64 `csv:"pairs_per_ms"`
	CarriersPerMS float64 `csv:"carriers_per_ms"`
	FPS           float64 `csv:"fps"`
	SnapshotUS    int64   `csv:"snapshot_us"`
	ForcesUS      int64   `csv:"forces_us"`
	SympathyUS    int64   `csv:"sympathy_us"`
	SteeringUS    int64   `csv:"steering_us"`
	LocomotionUS  int64   `csv:"locomotion_us"`
	FoodSpawnUS   int64   `csv:"food_spawn_us"`
	FoodEatUS     int64   `csv:"food_eat_us"`
}

// Row flattens the stats for perf.csv.
func (s PerfStats) Row(windowEnd int64) PerfRow {
	us := func(st Stage) int64 { return s.StageMean[st].Microseconds() }
	return PerfRow{
		WindowEnd:     windowEnd,
		Ticks:         s.Ticks,
		TickMeanUS:    s.TickMean.Microseconds(),
		TickP95US:     s.TickP95.Microseconds(),
		TickMaxUS:     s.TickMax.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		PairsPerMS:    s.PairsPerMS,
		CarriersPerMS: s.CarriersPerMS,
		FPS:           s.FPS,
		SnapshotUS:    us(StageSnapshot),
		ForcesUS:      us(StageForces),
		SympathyUS:    us(StageSympathy),
		SteeringUS:    us(StageSteering),
		LocomotionUS:  us(StageLocomotion),
		FoodSpawnUS:   us(StageFoodSpawn),
		FoodEatUS:     us(StageFoodEat),
	}
}
