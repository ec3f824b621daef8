// Package systems contains the per-tick flocking stages of the pond simulation.
//
// Every stage works on a snapshot slice of Agent values taken at stage entry and
// reports its results through an arena-indexed buffer (one slot per agent). The
// caller commits those results to the ECS world before running the next stage.
package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pond/config"
)

// Agent is the read-only view of one boid during a stage.
type Agent struct {
	ID       uint32
	Position r3.Vec
	Forward  r3.Vec
	Left     r3.Vec
}

// PendingForce is the optional steering force an agent carries between the
// force accumulator and the steering unit.
type PendingForce struct {
	Vec     r3.Vec
	Present bool
}

// ForceBuffer holds one PendingForce per agent, indexed like the agent snapshot.
// It lives for a single tick.
type ForceBuffer []PendingForce

// Reset sizes the buffer for n agents with no force present.
func (b ForceBuffer) Reset(n int) ForceBuffer {
	if cap(b) < n {
		return make(ForceBuffer, n)
	}
	b = b[:n]
	clear(b)
	return b
}

// Count returns the number of agents carrying a force.
func (b ForceBuffer) Count() int {
	n := 0
	for i := range b {
		if b[i].Present {
			n++
		}
	}
	return n
}

// FlockParams holds the tunables of the force accumulator and sympathy propagator.
type FlockParams struct {
	InnerRadius float64 // pond radius minus wall avoidance distance
	WallPush    float64

	HungerRange  float64
	HungerFactor float64

	SeparationRadius float64
	AlignRadius      float64
	AlignMaxAngle    float64 // radians
	AlignWeight      float64
	SightRange       float64
	SightHalf        float64 // radians

	CohesionWeight float64
	LonelyTarget   r3.Vec // cohesion target used when no other agent exists

	ForceThreshold float64
	SympathyFactor float64
}

// NewFlockParams builds flock parameters from a loaded config.
func NewFlockParams(cfg *config.Config) FlockParams {
	f := cfg.Flocking
	lonely := r3.Vec{}
	if len(f.LonelyTarget) == 3 {
		lonely = r3.Vec{X: f.LonelyTarget[0], Y: f.LonelyTarget[1], Z: f.LonelyTarget[2]}
	}
	return FlockParams{
		InnerRadius:      cfg.Derived.InnerRadius,
		WallPush:         cfg.Wall.Push,
		HungerRange:      cfg.Food.HungerRange,
		HungerFactor:     cfg.Food.HungerFactor,
		SeparationRadius: f.SeparationRadius,
		AlignRadius:      f.AlignRadius,
		AlignMaxAngle:    cfg.Derived.AlignMaxAngle,
		AlignWeight:      f.AlignWeight,
		SightRange:       f.SightRange,
		SightHalf:        cfg.Derived.SightHalf,
		CohesionWeight:   f.CohesionWeight,
		LonelyTarget:     lonely,
		ForceThreshold:   f.ForceThreshold,
		SympathyFactor:   f.SympathyFactor,
	}
}

// AccumulateForces computes the pending force of every agent.
// dst is reused when large enough.
func AccumulateForces(agents []Agent, seeds []r3.Vec, p *FlockParams, dst ForceBuffer) ForceBuffer {
	dst = dst.Reset(len(agents))
	AccumulateRange(0, len(agents), agents, seeds, p, dst)
	return dst
}

// AccumulateRange fills dst[i0:i1]. Chunks over disjoint ranges may run concurrently:
// agents and seeds are only read and each index writes its own slot.
func AccumulateRange(i0, i1 int, agents []Agent, seeds []r3.Vec, p *FlockParams, dst ForceBuffer) {
	for i := i0; i < i1; i++ {
		dst[i] = p.Gate(NetForce(i, agents, seeds, p))
	}
}

// Gate attaches a force only when its magnitude is strictly above the threshold.
func (p *FlockParams) Gate(force r3.Vec) PendingForce {
	if r3.Norm(force) > p.ForceThreshold {
		return PendingForce{Vec: force, Present: true}
	}
	return PendingForce{}
}

// NetForce sums the boundary, food, neighbour and cohesion rules for agents[i].
func NetForce(i int, agents []Agent, seeds []r3.Vec, p *FlockParams) r3.Vec {
	self := &agents[i]
	pos := self.Position

	sum := BoundaryPush(pos, p)
	sum = r3.Add(sum, FoodAttraction(pos, seeds, p))

	closest := p.LonelyTarget
	for j := range agents {
		if j == i {
			continue
		}
		other := &agents[j]
		d := r3.Sub(other.Position, pos)
		dist := r3.Norm(d)

		if dist < r3.Norm(r3.Sub(pos, closest)) {
			closest = other.Position
		}

		sum = r3.Add(sum, Separation(d, p.SeparationRadius))

		if dist < p.AlignRadius {
			sum = r3.Add(sum, Alignment(self.Forward, other.Forward, p))
		}

		if !InSight(d, self.Forward, p.SightHalf) {
			continue
		}
		sum = r3.Add(sum, Separation(d, p.SightRange))
	}

	return r3.Add(sum, Cohesion(pos, closest, p.CohesionWeight))
}

// BoundaryPush returns -push*pos once the agent is past the inner radius.
func BoundaryPush(pos r3.Vec, p *FlockParams) r3.Vec {
	if r3.Norm(pos) > p.InnerRadius {
		return r3.Scale(-p.WallPush, pos)
	}
	return r3.Vec{}
}

// FoodAttraction pulls towards every seed inside the hunger range. Contributions add up uncapped.
func FoodAttraction(pos r3.Vec, seeds []r3.Vec, p *FlockParams) r3.Vec {
	var sum r3.Vec
	for _, s := range seeds {
		d := r3.Sub(s, pos)
		if r3.Norm(d) < p.HungerRange {
			sum = r3.Add(sum, r3.Scale(p.HungerFactor, normalizeOrZero(d)))
		}
	}
	return sum
}

// Separation returns -(unit(d)*radius - d) for |d| < radius, zero otherwise.
// Its magnitude is radius-|d|: largest when touching and zero at the radius.
func Separation(d r3.Vec, radius float64) r3.Vec {
	if r3.Norm(d) >= radius {
		return r3.Vec{}
	}
	return r3.Scale(-1, r3.Sub(r3.Scale(radius, normalizeOrZero(d)), d))
}

// Alignment returns weight*fwdOther when the two headings differ by less than the
// configured angle. The caller checks distance.
func Alignment(fwdSelf, fwdOther r3.Vec, p *FlockParams) r3.Vec {
	if angleBelow(angleBetween(fwdOther, fwdSelf), p.AlignMaxAngle) {
		return r3.Scale(p.AlignWeight, fwdOther)
	}
	return r3.Vec{}
}

// InSight reports whether d lies strictly inside the sight cone around forward.
// A neighbour exactly on the cone edge is not seen.
func InSight(d, forward r3.Vec, half float64) bool {
	return angleBelow(angleBetween(d, forward), half)
}

// Cohesion pulls towards the nearest neighbour (or the lonely target).
func Cohesion(pos, closest r3.Vec, weight float64) r3.Vec {
	return r3.Scale(weight, r3.Sub(closest, pos))
}
