package sim

import "gonum.org/v1/gonum/spatial/r3"

// EventKind identifies an entity lifecycle change.
type EventKind uint8

const (
	EventBoidSpawned EventKind = iota
	EventSeedSpawned
	EventSeedEaten
)

// String returns the event name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventBoidSpawned:
		return "boid_spawned"
	case EventSeedSpawned:
		return "seed_spawned"
	case EventSeedEaten:
		return "seed_eaten"
	}
	return "unknown"
}

// Event reports an entity created or destroyed during a tick, so a renderer can
// mirror the world without reading it every frame.
type Event struct {
	Kind     EventKind
	ID       uint32 // boid or seed ID, depending on Kind
	Position r3.Vec
	Tick     int64 // tick that produced the event; 0 for entities added before the first step
}
