// Package sim owns the ECS world of the pond and runs the per-tick stage pipeline.
package sim

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pond/components"
	"github.com/pthm-cable/pond/config"
	"github.com/pthm-cable/pond/systems"
	"github.com/pthm-cable/pond/telemetry"
)

// Options configures a Simulation beyond the loaded config.
type Options struct {
	Seed int64                    // RNG seed for seed placement
	Perf *telemetry.PerfCollector // optional per-phase timing
}

// Simulation holds the complete pond state.
type Simulation struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	boidMapper *ecs.Map3[components.Position, components.Orientation, components.Boid]
	boidFilter *ecs.Filter3[components.Position, components.Orientation, components.Boid]
	seedMapper *ecs.Map2[components.Position, components.Seed]
	seedFilter *ecs.Filter2[components.Position, components.Seed]

	rotMap *ecs.Map1[components.Orientation]

	flock      systems.FlockParams
	steer      systems.SteerParams
	boundary   systems.Boundary
	spawnTimer systems.RepeatingTimer
	grid       *systems.SpatialGrid
	parallel   *parallelState
	perf       *telemetry.PerfCollector

	// Tick-scoped snapshots, reused across ticks
	entities      []ecs.Entity
	agents        []systems.Agent
	positions     []r3.Vec
	forces        systems.ForceBuffer
	yaw           []float64
	seeds         []r3.Vec
	seedEntities  []ecs.Entity
	seedIDs       []uint32
	meals         []systems.Meal
	pendingEvents []Event

	tick       int64
	simTime    time.Duration
	nextBoidID uint32
	nextSeedID uint32
}

// New creates a simulation and spawns the initial boid layout from cfg.
func New(cfg *config.Config, opts Options) *Simulation {
	world := ecs.NewWorld()

	s := &Simulation{
		cfg:        cfg,
		world:      world,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		boidMapper: ecs.NewMap3[components.Position, components.Orientation, components.Boid](world),
		boidFilter: ecs.NewFilter3[components.Position, components.Orientation, components.Boid](world),
		seedMapper: ecs.NewMap2[components.Position, components.Seed](world),
		seedFilter: ecs.NewFilter2[components.Position, components.Seed](world),
		rotMap:     ecs.NewMap1[components.Orientation](world),
		flock:      systems.NewFlockParams(cfg),
		steer:      systems.NewSteerParams(cfg),
		boundary:   systems.NewBoundary(cfg),
		spawnTimer: systems.NewRepeatingTimer(cfg.Derived.SpawnPeriod),
		parallel:   newParallelState(cfg.Physics.ParallelThreshold),
		perf:       opts.Perf,
	}
	s.grid = newGrid(cfg)

	s.spawnInitialLayout()
	return s
}

// newGrid sizes the eat-range index to the area boids normally occupy.
func newGrid(cfg *config.Config) *systems.SpatialGrid {
	if cfg.Arena.Boundary == config.BoundaryToroidal {
		b := cfg.Arena.Toroidal
		return systems.NewSpatialGrid(b.MinX, b.MinY, b.MaxX, b.MaxY, cfg.Food.GridCellSize)
	}
	r := cfg.Arena.PondRadius
	return systems.NewSpatialGrid(-r, -r, r, r, cfg.Food.GridCellSize)
}

// spawnInitialLayout places boids on a line along X with fanned-out headings.
func (s *Simulation) spawnInitialLayout() {
	l := s.cfg.Boids.Layout
	for i := 0; i < s.cfg.Boids.Count; i++ {
		pos := r3.Vec{X: l.Spacing*float64(i) + l.OffsetX}
		yaw := s.cfg.Derived.YawStep*float64(i) + s.cfg.Derived.YawOffset
		s.AddBoid(pos, yaw)
	}
}

// AddBoid creates a boid at pos facing yaw radians from world +X and returns its ID.
// Call it between steps only.
func (s *Simulation) AddBoid(pos r3.Vec, yaw float64) uint32 {
	id := s.nextBoidID
	s.nextBoidID++

	p := components.Position{Vec: pos}
	rot := components.FromYaw(yaw)
	boid := components.Boid{ID: id}
	s.boidMapper.NewEntity(&p, &rot, &boid)

	s.emit(EventBoidSpawned, id, pos)
	return id
}

// AddSeed creates a seed at pos and returns its ID. Call it between steps only.
func (s *Simulation) AddSeed(pos r3.Vec) uint32 {
	id := s.nextSeedID
	s.nextSeedID++

	p := components.Position{Vec: pos}
	seed := components.Seed{ID: id}
	s.seedMapper.NewEntity(&p, &seed)

	s.emit(EventSeedSpawned, id, pos)
	return id
}

func (s *Simulation) emit(kind EventKind, id uint32, pos r3.Vec) {
	s.pendingEvents = append(s.pendingEvents, Event{Kind: kind, ID: id, Position: pos, Tick: s.tick})
}

// Step advances the pond by dt: forces, sympathy, steering, locomotion,
// seed spawning and seed eating, each committed before the next begins.
func (s *Simulation) Step(dt time.Duration) telemetry.TickCounts {
	var counts telemetry.TickCounts
	dtSec := dt.Seconds()

	s.tick++
	s.simTime += dt

	s.enter(telemetry.StageSnapshot)
	s.takeSnapshot()

	s.enter(telemetry.StageForces)
	s.accumulateForces()
	n := len(s.agents)
	counts.PairsScanned = n * max(n-1, 0)
	counts.ForceCarriers = s.forces.Count()

	s.enter(telemetry.StageSympathy)
	counts.SympathyReceivers = systems.PropagateSympathy(s.agents, s.forces, &s.flock)

	s.enter(telemetry.StageSteering)
	counts.TurnsLeft, counts.TurnsRight, counts.HeldCourse = s.applySteering(dtSec)

	s.enter(telemetry.StageLocomotion)
	s.applyLocomotion(dtSec)

	s.enter(telemetry.StageFoodSpawn)
	if s.spawnTimer.Tick(dt) {
		if periods := s.spawnTimer.TimesFinished(); periods > 1 {
			slog.Debug("spawn periods collapsed", "tick", s.tick, "periods", periods)
		}
		s.spawnSeed()
		counts.SeedsSpawned = 1
	}

	s.enter(telemetry.StageFoodEat)
	counts.SeedsEaten, counts.Eaters = s.removeEatenSeeds()

	if s.perf != nil {
		s.perf.EndTick(counts)
	}
	return counts
}

func (s *Simulation) enter(stage telemetry.Stage) {
	if s.perf != nil {
		s.perf.Enter(stage)
	}
}

// takeSnapshot copies boid and seed state into the tick-scoped slices.
func (s *Simulation) takeSnapshot() {
	s.entities = s.entities[:0]
	s.agents = s.agents[:0]

	query := s.boidFilter.Query()
	for query.Next() {
		pos, rot, boid := query.Get()
		s.entities = append(s.entities, query.Entity())
		s.agents = append(s.agents, systems.Agent{
			ID:       boid.ID,
			Position: pos.Vec,
			Forward:  rot.Forward(),
			Left:     rot.Left(),
		})
	}

	s.snapshotSeeds()
}

func (s *Simulation) snapshotSeeds() {
	s.seeds = s.seeds[:0]
	s.seedEntities = s.seedEntities[:0]
	s.seedIDs = s.seedIDs[:0]

	query := s.seedFilter.Query()
	for query.Next() {
		pos, seed := query.Get()
		s.seeds = append(s.seeds, pos.Vec)
		s.seedEntities = append(s.seedEntities, query.Entity())
		s.seedIDs = append(s.seedIDs, seed.ID)
	}
}

// applySteering turns every force carrier one yaw step and drops all pending forces.
func (s *Simulation) applySteering(dtSec float64) (left, right, straight int) {
	var sc systems.SteerCounts
	s.yaw, sc = systems.Steer(s.agents, s.forces, s.steer, dtSec, s.yaw)

	for i, e := range s.entities {
		if s.yaw[i] == 0 {
			continue
		}
		rot := s.rotMap.Get(e)
		*rot = rot.RotateAbout(systems.Vertical, s.yaw[i])
	}
	return sc.Left, sc.Right, sc.Straight
}

// applyLocomotion moves every boid along its committed heading.
func (s *Simulation) applyLocomotion(dtSec float64) {
	speed := s.cfg.Boids.Speed
	query := s.boidFilter.Query()
	for query.Next() {
		pos, rot, _ := query.Get()
		pos.Vec = systems.Advance(pos.Vec, rot.Forward(), speed, dtSec, s.boundary)
	}
}

func (s *Simulation) spawnSeed() {
	pos := systems.SpawnPosition(s.rng, s.flock.InnerRadius)
	id := s.AddSeed(pos)
	slog.Debug("seed spawned", "tick", s.tick, "id", id, "x", pos.X, "y", pos.Y)
}

// removeEatenSeeds despawns every seed with a boid within eat range.
// Removal happens after the queries finish; each seed is removed once.
func (s *Simulation) removeEatenSeeds() (eaten, eaters int) {
	s.snapshotSeeds()
	if len(s.seeds) == 0 {
		return 0, 0
	}

	s.positions = s.positions[:0]
	query := s.boidFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		s.positions = append(s.positions, pos.Vec)
	}
	s.grid.Rebuild(s.positions)

	s.meals = systems.EatenSeeds(s.seeds, s.positions, s.grid, s.cfg.Food.EatRange, s.meals)
	for _, m := range s.meals {
		e := s.seedEntities[m.Seed]
		if !s.world.Alive(e) {
			continue
		}
		s.world.RemoveEntity(e)
		s.emit(EventSeedEaten, s.seedIDs[m.Seed], s.seeds[m.Seed])
		slog.Debug("seed eaten", "tick", s.tick, "id", s.seedIDs[m.Seed], "eaters", m.Eaters)
		eaten++
		eaters += m.Eaters
	}
	return eaten, eaters
}

// BoidView is a read-only copy of one boid.
type BoidView struct {
	ID       uint32
	Position r3.Vec
	Rotation quat.Number
	Forward  r3.Vec
}

// SeedView is a read-only copy of one seed.
type SeedView struct {
	ID       uint32
	Position r3.Vec
}

// View is a copy of the pond at one instant, in store order.
type View struct {
	Tick    int64
	SimTime time.Duration
	Boids   []BoidView
	Seeds   []SeedView
}

// Snapshot copies the current boids and seeds.
func (s *Simulation) Snapshot() View {
	v := View{Tick: s.tick, SimTime: s.simTime}

	bq := s.boidFilter.Query()
	for bq.Next() {
		pos, rot, boid := bq.Get()
		v.Boids = append(v.Boids, BoidView{
			ID:       boid.ID,
			Position: pos.Vec,
			Rotation: rot.Q,
			Forward:  rot.Forward(),
		})
	}

	sq := s.seedFilter.Query()
	for sq.Next() {
		pos, seed := sq.Get()
		v.Seeds = append(v.Seeds, SeedView{ID: seed.ID, Position: pos.Vec})
	}
	return v
}

// FlockStats summarizes the current flock for telemetry.
func (s *Simulation) FlockStats() telemetry.FlockStats {
	v := s.Snapshot()
	positions := make([]r3.Vec, len(v.Boids))
	forwards := make([]r3.Vec, len(v.Boids))
	for i, b := range v.Boids {
		positions[i] = b.Position
		forwards[i] = b.Forward
	}
	return telemetry.ComputeFlockStats(positions, forwards, len(v.Seeds))
}

// DrainEvents returns the events recorded since the last call.
func (s *Simulation) DrainEvents() []Event {
	out := s.pendingEvents
	s.pendingEvents = nil
	return out
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// SimTime returns the accumulated simulated time.
func (s *Simulation) SimTime() time.Duration {
	return s.simTime
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// Close stops the force worker pool.
func (s *Simulation) Close() {
	s.parallel.stopWorkers()
}
