package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pond/config"
)

// Boundary canonicalizes a position after a move.
type Boundary interface {
	Constrain(p r3.Vec) r3.Vec
}

// OpenPond leaves positions untouched; the wall push in the force stage keeps boids in.
type OpenPond struct{}

// Constrain implements Boundary.
func (OpenPond) Constrain(p r3.Vec) r3.Vec { return p }

// Torus wraps positions that leave the rectangle onto the opposite edge.
type Torus struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Constrain implements Boundary. Results lie in [Min, Max) on both axes.
func (t Torus) Constrain(p r3.Vec) r3.Vec {
	p.X = t.MinX + mod(p.X-t.MinX, t.MaxX-t.MinX)
	p.Y = t.MinY + mod(p.Y-t.MinY, t.MaxY-t.MinY)
	return p
}

// NewBoundary returns the boundary policy selected in config.
func NewBoundary(cfg *config.Config) Boundary {
	if cfg.Arena.Boundary == config.BoundaryToroidal {
		b := cfg.Arena.Toroidal
		return Torus{MinX: b.MinX, MaxX: b.MaxX, MinY: b.MinY, MaxY: b.MaxY}
	}
	return OpenPond{}
}

// Advance moves a position forward at constant speed for dt seconds.
func Advance(pos, forward r3.Vec, speed, dt float64, b Boundary) r3.Vec {
	return b.Constrain(r3.Add(pos, r3.Scale(speed*dt, forward)))
}
