package components

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Position represents an entity's location in pond space.
type Position struct {
	r3.Vec
}

// Orientation is a unit quaternion rotating the local frame into world space.
// Local +X is forward, +Y is left and +Z is up.
type Orientation struct {
	Q quat.Number
}

var (
	localForward = r3.Vec{X: 1}
	localLeft    = r3.Vec{Y: 1}
	localUp      = r3.Vec{Z: 1}
)

// FromYaw returns an orientation rotated by angle radians about world +Z.
func FromYaw(angle float64) Orientation {
	return Orientation{Q: quat.Number(r3.NewRotation(angle, localUp))}
}

// Forward returns the direction of travel.
func (o Orientation) Forward() r3.Vec {
	return r3.Rotation(o.Q).Rotate(localForward)
}

// Left returns the local left axis in world space.
func (o Orientation) Left() r3.Vec {
	return r3.Rotation(o.Q).Rotate(localLeft)
}

// RotateAbout applies a world-space rotation of angle radians about axis.
// The result is renormalized so repeated small turns do not drift off the unit sphere.
func (o Orientation) RotateAbout(axis r3.Vec, angle float64) Orientation {
	q := quat.Mul(quat.Number(r3.NewRotation(angle, axis)), o.Q)
	if n := quat.Abs(q); n != 0 {
		q = quat.Scale(1/n, q)
	}
	return Orientation{Q: q}
}
