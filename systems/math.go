package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vertical is the world axis boids turn around. Motion stays in the XY plane.
var Vertical = r3.Vec{Z: 1}

// Radians converts degrees to radians.
// Dividing first keeps the common right-angle fractions exact (90 -> Pi/2, 45 -> Pi/4).
func Radians(deg float64) float64 {
	return deg / 180 * math.Pi
}

// normalizeOrZero returns the unit vector of v, or the zero vector when v has no length.
func normalizeOrZero(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// angleBetween returns the unsigned angle between a and b in [0, Pi].
// A zero-length operand yields 0.
func angleBetween(a, b r3.Vec) float64 {
	denom := math.Sqrt(r3.Norm2(a) * r3.Norm2(b))
	if denom == 0 {
		return 0
	}
	c := r3.Dot(a, b) / denom
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// angleTolerance absorbs the rounding in headings rebuilt from quaternions, so two
// boids yawed exactly 90 degrees apart compare as exactly 90 degrees apart.
const angleTolerance = 1e-9

// angleBelow reports whether a is under limit by more than angleTolerance.
func angleBelow(a, limit float64) bool {
	return a < limit-angleTolerance
}

// angleWithin reports whether a is at most limit, give or take angleTolerance.
func angleWithin(a, limit float64) bool {
	return a <= limit+angleTolerance
}

// distance2D returns the Euclidean distance between two points projected onto the XY plane.
func distance2D(ax, ay, bx, by float64) float64 {
	return math.Hypot(bx-ax, by-ay)
}

// mod returns positive modulo (Go's math.Mod keeps the dividend's sign).
func mod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}
