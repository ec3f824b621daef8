// Package components defines ECS components for the pond simulation.
package components

// Boid marks a flocking agent and carries its stable identity.
// Identity keys the per-tick force and sympathy indices; entity handles
// are recycled by the world and are not used for that.
type Boid struct {
	ID uint32
}

// Seed marks a food item.
type Seed struct {
	ID uint32
}
