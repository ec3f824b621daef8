package telemetry

// TickCounts is what a single simulation step reports back to the collector.
type TickCounts struct {
	ForceCarriers     int // agents holding a force after accumulation
	SympathyReceivers int
	TurnsLeft         int
	TurnsRight        int
	HeldCourse        int // carried a force but stayed inside the dead zone
	SeedsSpawned      int
	SeedsEaten        int
	Eaters            int // agents within eat range of an eaten seed
	PairsScanned      int // ordered neighbour pairs visited by the force stage
}

// Add sums two tick reports.
func (c TickCounts) Add(o TickCounts) TickCounts {
	return TickCounts{
		ForceCarriers:     c.ForceCarriers + o.ForceCarriers,
		SympathyReceivers: c.SympathyReceivers + o.SympathyReceivers,
		TurnsLeft:         c.TurnsLeft + o.TurnsLeft,
		TurnsRight:        c.TurnsRight + o.TurnsRight,
		HeldCourse:        c.HeldCourse + o.HeldCourse,
		SeedsSpawned:      c.SeedsSpawned + o.SeedsSpawned,
		SeedsEaten:        c.SeedsEaten + o.SeedsEaten,
		Eaters:            c.Eaters + o.Eaters,
		PairsScanned:      c.PairsScanned + o.PairsScanned,
	}
}

// Collector accumulates tick reports within simulation-time windows and produces WindowStats.
type Collector struct {
	windowSec float64

	windowStartTick int64
	windowStartSec  float64

	ticks  int
	counts TickCounts
}

// NewCollector creates a new stats collector.
// windowSec is how long each stats window lasts in simulation seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 10
	}
	return &Collector{windowSec: windowSec}
}

// RecordTick adds one step's counters to the current window.
func (c *Collector) RecordTick(tc TickCounts) {
	c.ticks++
	c.counts = c.counts.Add(tc)
}

// ShouldFlush returns true once the window has covered windowSec of simulation time.
func (c *Collector) ShouldFlush(simTimeSec float64) bool {
	return simTimeSec-c.windowStartSec >= c.windowSec
}

// Ticks returns the number of ticks recorded in the current window.
func (c *Collector) Ticks() int {
	return c.ticks
}

// Flush produces a WindowStats from the window's counters and the flock
// sampled now, then starts a new window.
func (c *Collector) Flush(tick int64, simTimeSec float64, flock FlockStats) WindowStats {
	var carriers, receivers float64
	if c.ticks > 0 {
		carriers = float64(c.counts.ForceCarriers) / float64(c.ticks)
		receivers = float64(c.counts.SympathyReceivers) / float64(c.ticks)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		SimTimeSec:      simTimeSec,

		Boids: flock.Boids,
		Seeds: flock.Seeds,

		SeedsSpawned: c.counts.SeedsSpawned,
		SeedsEaten:   c.counts.SeedsEaten,
		Eaters:       c.counts.Eaters,
		TurnsLeft:    c.counts.TurnsLeft,
		TurnsRight:   c.counts.TurnsRight,
		HeldCourse:   c.counts.HeldCourse,

		ForceCarriers:     carriers,
		SympathyReceivers: receivers,

		Polarization: flock.Polarization,
		MeanHeading:  flock.MeanHeading,
		NNMean:       flock.NNMean,
		NNP10:        flock.NNP10,
		NNP50:        flock.NNP50,
		NNP90:        flock.NNP90,
		RadiusMean:   flock.RadiusMean,
		RadiusStd:    flock.RadiusStd,
		RadiusMax:    flock.RadiusMax,
	}

	// Reset for next window
	c.windowStartTick = tick
	c.windowStartSec = simTimeSec
	c.ticks = 0
	c.counts = TickCounts{}

	return stats
}
