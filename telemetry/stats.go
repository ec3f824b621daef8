package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Boids int `csv:"boids"`
	Seeds int `csv:"seeds"`

	// Events during window
	SeedsSpawned int `csv:"seeds_spawned"`
	SeedsEaten   int `csv:"seeds_eaten"`
	Eaters       int `csv:"eaters"`
	TurnsLeft    int `csv:"turns_left"`
	TurnsRight   int `csv:"turns_right"`
	HeldCourse   int `csv:"held_course"`

	// Per-tick averages over the window
	ForceCarriers     float64 `csv:"force_carriers"`
	SympathyReceivers float64 `csv:"sympathy_receivers"`

	// Flock shape sampled at window end
	Polarization float64 `csv:"polarization"`
	MeanHeading  float64 `csv:"mean_heading"`
	NNMean       float64 `csv:"nn_mean"`
	NNP10        float64 `csv:"nn_p10"`
	NNP50        float64 `csv:"nn_p50"`
	NNP90        float64 `csv:"nn_p90"`
	RadiusMean   float64 `csv:"radius_mean"`
	RadiusStd    float64 `csv:"radius_std"`
	RadiusMax    float64 `csv:"radius_max"`
}

// FlockStats describes the flock's shape at one instant.
type FlockStats struct {
	Boids int
	Seeds int

	// Polarization is the length of the mean forward vector: 1 when every boid
	// heads the same way, near 0 for random headings.
	Polarization float64
	MeanHeading  float64 // circular mean of yaw in radians

	NNMean, NNP10, NNP50, NNP90 float64 // nearest-neighbour distances

	RadiusMean, RadiusStd, RadiusMax float64 // distance from pond centre
}

// ComputeFlockStats summarizes boid positions and forward axes.
// positions and forwards are indexed alike.
func ComputeFlockStats(positions, forwards []r3.Vec, seeds int) FlockStats {
	n := len(positions)
	fs := FlockStats{Boids: n, Seeds: seeds}
	if n == 0 {
		return fs
	}

	var sumFwd r3.Vec
	headings := make([]float64, n)
	radii := make([]float64, n)
	for i := range positions {
		sumFwd = r3.Add(sumFwd, forwards[i])
		headings[i] = math.Atan2(forwards[i].Y, forwards[i].X)
		radii[i] = r3.Norm(positions[i])
	}
	fs.Polarization = r3.Norm(sumFwd) / float64(n)
	fs.MeanHeading = stat.CircularMean(headings, nil)

	fs.RadiusMean = stat.Mean(radii, nil)
	if n > 1 {
		fs.RadiusStd = stat.StdDev(radii, nil)
	}
	fs.RadiusMax = floats.Max(radii)

	if n > 1 {
		nn := NearestNeighbourDistances(positions)
		fs.NNMean, fs.NNP10, fs.NNP50, fs.NNP90 = ComputeDistanceStats(nn)
	}

	return fs
}

// NearestNeighbourDistances returns, for each position, the distance to the closest other one.
func NearestNeighbourDistances(positions []r3.Vec) []float64 {
	out := make([]float64, len(positions))
	for i := range positions {
		best := math.Inf(1)
		for j := range positions {
			if i == j {
				continue
			}
			if d := r3.Norm(r3.Sub(positions[j], positions[i])); d < best {
				best = d
			}
		}
		out[i] = best
	}
	return out
}

// ComputeDistanceStats calculates mean and empirical percentiles of a sample.
func ComputeDistanceStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"boids", s.Boids,
		"seeds", s.Seeds,
		"seeds_spawned", s.SeedsSpawned,
		"seeds_eaten", s.SeedsEaten,
		"turns_left", s.TurnsLeft,
		"turns_right", s.TurnsRight,
		"force_carriers", s.ForceCarriers,
		"sympathy_receivers", s.SympathyReceivers,
		"polarization", s.Polarization,
		"nn_p50", s.NNP50,
		"radius_mean", s.RadiusMean,
		"radius_max", s.RadiusMax,
	)
}
