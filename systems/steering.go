package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pond/config"
)

// rightAngle separates "force on the left" from "force on the right".
var rightAngle = Radians(90)

// SteerParams holds the steering unit tunables.
type SteerParams struct {
	RotateSpeed float64 // revolutions per second
	DeadZone    float64 // radians; forces closer than this to forward cause no turn
}

// NewSteerParams builds steering parameters from a loaded config.
func NewSteerParams(cfg *config.Config) SteerParams {
	return SteerParams{
		RotateSpeed: cfg.Boids.RotateSpeed,
		DeadZone:    cfg.Derived.SteerDeadZone,
	}
}

// TurnRate is the yaw applied in one tick of dt seconds.
func (p SteerParams) TurnRate(dt float64) float64 {
	return p.RotateSpeed * 2 * math.Pi * dt
}

// YawFor returns the signed yaw step for a force: +turn when the force leans left,
// -turn when it leans right, 0 inside the dead zone.
func (p SteerParams) YawFor(force, forward, left r3.Vec, turn float64) float64 {
	if angleWithin(angleBetween(force, forward), p.DeadZone) {
		return 0
	}
	if angleBelow(angleBetween(force, left), rightAngle) {
		return turn
	}
	return -turn
}

// SteerCounts tallies the outcome of one steering pass.
type SteerCounts struct {
	Left, Right, Straight int
}

// Steer fills yaw with one signed yaw step per agent and clears every pending force.
// yaw is reused when large enough.
func Steer(agents []Agent, forces ForceBuffer, p SteerParams, dt float64, yaw []float64) ([]float64, SteerCounts) {
	if cap(yaw) < len(agents) {
		yaw = make([]float64, len(agents))
	}
	yaw = yaw[:len(agents)]
	clear(yaw)

	var counts SteerCounts
	turn := p.TurnRate(dt)
	for i := range agents {
		if !forces[i].Present {
			continue
		}
		y := p.YawFor(forces[i].Vec, agents[i].Forward, agents[i].Left, turn)
		yaw[i] = y
		switch {
		case y > 0:
			counts.Left++
		case y < 0:
			counts.Right++
		default:
			counts.Straight++
		}
	}

	clear(forces)
	return yaw, counts
}
