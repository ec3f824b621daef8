package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// SpawnPosition draws a seed position at a uniform angle and a uniform radius in
// [0, maxRadius). Uniform radius (not sqrt-uniform) concentrates seeds near the centre.
func SpawnPosition(rng *rand.Rand, maxRadius float64) r3.Vec {
	theta := rng.Float64() * 2 * math.Pi
	r := rng.Float64() * maxRadius
	return r3.Vec{X: math.Cos(theta) * r, Y: math.Sin(theta) * r}
}

// Meal records a seed reached by at least one agent this tick.
type Meal struct {
	Seed   int // index into the seed snapshot
	Eaters int // agents strictly within eat range
}

// EatenSeeds returns one Meal per seed with at least one agent strictly within
// eatRange. A seed reached by several agents still yields a single Meal, so the
// caller removes it once. The grid must have been rebuilt from positions.
func EatenSeeds(seeds []r3.Vec, positions []r3.Vec, grid *SpatialGrid, eatRange float64, dst []Meal) []Meal {
	dst = dst[:0]
	var scratch []int
	for i, s := range seeds {
		scratch = grid.QueryRadiusInto(scratch[:0], s, eatRange, positions)
		if len(scratch) > 0 {
			dst = append(dst, Meal{Seed: i, Eaters: len(scratch)})
		}
	}
	return dst
}
