package systems

import "gonum.org/v1/gonum/spatial/r3"

// planePos is an agent's XY projection keyed by its ID.
type planePos struct {
	id   uint32
	x, y float64
}

// PropagateSympathy spreads each carried force to the other force carriers that sit
// in the open distance band (SeparationRadius, AlignRadius) around it. Every
// contribution is force*SympathyFactor. Extra force is summed per receiver from the
// forces as they were on entry, then added to the receiver's existing force.
// Agents without a force neither send nor receive. Returns the number of receivers.
func PropagateSympathy(agents []Agent, forces ForceBuffer, p *FlockParams) int {
	positions := make([]planePos, 0, len(agents))
	slot := make(map[uint32]int, len(agents))
	for i := range agents {
		if !forces[i].Present {
			continue
		}
		positions = append(positions, planePos{id: agents[i].ID, x: agents[i].Position.X, y: agents[i].Position.Y})
		slot[agents[i].ID] = i
	}

	extra := make(map[uint32]r3.Vec, len(positions))
	for _, sender := range positions {
		push := r3.Scale(p.SympathyFactor, forces[slot[sender.id]].Vec)
		for _, receiver := range positions {
			d := distance2D(sender.x, sender.y, receiver.x, receiver.y)
			if d > p.SeparationRadius && d < p.AlignRadius {
				extra[receiver.id] = r3.Add(extra[receiver.id], push)
			}
		}
	}

	for id, add := range extra {
		i := slot[id]
		forces[i].Vec = r3.Add(forces[i].Vec, add)
	}
	return len(extra)
}
