package sim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/pond/config"
	"github.com/pthm-cable/pond/systems"
	"github.com/pthm-cable/pond/telemetry"
)

// emptyPond returns the default config with no initial boids.
func emptyPond(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Boids.Count = 0
	return cfg
}

func distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

func TestNewSpawnsLayout(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, Options{Seed: 1})
	defer s.Close()

	v := s.Snapshot()
	if len(v.Boids) != cfg.Boids.Count {
		t.Fatalf("boids = %d, want %d", len(v.Boids), cfg.Boids.Count)
	}

	for i, b := range v.Boids {
		if b.ID != uint32(i) {
			t.Errorf("boid %d has ID %d", i, b.ID)
		}
		wantX := 3*float64(i) - 100
		if math.Abs(b.Position.X-wantX) > 1e-9 || b.Position.Y != 0 {
			t.Errorf("boid %d at %v, want x=%v", i, b.Position, wantX)
		}
	}

	// Boid 0 is yawed by one degree.
	heading := math.Atan2(v.Boids[0].Forward.Y, v.Boids[0].Forward.X)
	if math.Abs(heading-math.Pi/180) > 1e-9 {
		t.Errorf("boid 0 heading = %v, want 1 degree", heading)
	}
}

func TestTwoAgentsSeparate(t *testing.T) {
	cfg := emptyPond(t)
	s := New(cfg, Options{})
	defer s.Close()

	a := s.AddBoid(r3.Vec{}, math.Pi) // facing -X, away from b
	b := s.AddBoid(r3.Vec{X: 10}, 0)  // facing +X, away from a

	before := s.Snapshot()
	pa, pb := before.Boids[a].Position, before.Boids[b].Position

	pushA := systems.Separation(r3.Sub(pb, pa), cfg.Flocking.SeparationRadius)
	pushB := systems.Separation(r3.Sub(pa, pb), cfg.Flocking.SeparationRadius)
	if math.Abs(r3.Norm(pushA)-15) > 1e-9 || math.Abs(r3.Norm(pushB)-15) > 1e-9 {
		t.Errorf("separation magnitudes = %v, %v, want 15", r3.Norm(pushA), r3.Norm(pushB))
	}
	if pushA.X >= 0 || pushB.X <= 0 {
		t.Errorf("separation not pushing apart: a=%v b=%v", pushA, pushB)
	}

	s.Step(cfg.Derived.FrameDelta)

	after := s.Snapshot()
	d0 := distance(pa, pb)
	d1 := distance(after.Boids[a].Position, after.Boids[b].Position)
	if d1 <= d0 {
		t.Errorf("distance %v -> %v, want increase", d0, d1)
	}
}

func TestLoneAgentFollowsSentinel(t *testing.T) {
	cfg := emptyPond(t)
	s := New(cfg, Options{})
	defer s.Close()

	s.AddBoid(r3.Vec{}, 0)

	s.takeSnapshot()
	s.accumulateForces()
	want := r3.Vec{X: 20000, Y: 20000, Z: 20000}
	if !s.forces[0].Present || distance(s.forces[0].Vec, want) > 1e-6 {
		t.Fatalf("lone force = %+v, want %v", s.forces[0], want)
	}

	s.Step(cfg.Derived.FrameDelta)

	// The sentinel sits up and to the left, so the boid turns left by one step.
	fwd := s.Snapshot().Boids[0].Forward
	heading := math.Atan2(fwd.Y, fwd.X)
	turn := systems.NewSteerParams(cfg).TurnRate(cfg.Derived.FrameDelta.Seconds())
	if math.Abs(heading-turn) > 1e-9 {
		t.Errorf("heading = %v, want %v", heading, turn)
	}
}

func TestNoPendingForceAfterStep(t *testing.T) {
	s := New(config.Default(), Options{Seed: 3})
	defer s.Close()

	for i := 0; i < 30; i++ {
		counts := s.Step(s.Config().Derived.FrameDelta)
		if n := s.forces.Count(); n != 0 {
			t.Fatalf("tick %d: %d pending forces survived steering", i, n)
		}
		if got := counts.TurnsLeft + counts.TurnsRight + counts.HeldCourse; got != counts.ForceCarriers {
			t.Fatalf("tick %d: steered %d of %d carriers", i, got, counts.ForceCarriers)
		}
	}
}

func TestSeedEatenOnce(t *testing.T) {
	cfg := emptyPond(t)
	s := New(cfg, Options{})
	defer s.Close()

	seed := s.AddSeed(r3.Vec{})
	s.AddBoid(r3.Vec{X: 1}, 0)
	s.AddBoid(r3.Vec{Y: 1}, 0)
	s.AddBoid(r3.Vec{X: -1}, 0)
	s.DrainEvents()

	counts := s.Step(cfg.Derived.FrameDelta)

	if counts.SeedsEaten != 1 || counts.Eaters != 3 {
		t.Errorf("eaten=%d eaters=%d, want 1 and 3", counts.SeedsEaten, counts.Eaters)
	}
	if n := len(s.Snapshot().Seeds); n != 0 {
		t.Errorf("%d seeds left", n)
	}

	events := s.DrainEvents()
	if len(events) != 1 || events[0].Kind != EventSeedEaten || events[0].ID != seed {
		t.Errorf("events = %+v, want one seed_eaten for %d", events, seed)
	}

	// Nothing left to eat on the next tick.
	if counts := s.Step(cfg.Derived.FrameDelta); counts.SeedsEaten != 0 {
		t.Errorf("second tick ate %d seeds", counts.SeedsEaten)
	}
}

func TestSeedOutOfReachSurvives(t *testing.T) {
	cfg := emptyPond(t)
	s := New(cfg, Options{})
	defer s.Close()

	s.AddSeed(r3.Vec{X: 50})
	s.AddBoid(r3.Vec{}, math.Pi)

	s.Step(cfg.Derived.FrameDelta)
	if n := len(s.Snapshot().Seeds); n != 1 {
		t.Errorf("seeds = %d, want 1", n)
	}
}

func TestSeedSpawnCadence(t *testing.T) {
	cfg := emptyPond(t)
	s := New(cfg, Options{Seed: 9})
	defer s.Close()

	// 299 frames of 1/60 s fall just short of the 5 s period.
	for i := 0; i < 299; i++ {
		s.Step(cfg.Derived.FrameDelta)
	}
	if n := len(s.Snapshot().Seeds); n != 0 {
		t.Fatalf("seeds after 299 ticks = %d, want 0", n)
	}

	counts := s.Step(cfg.Derived.FrameDelta)
	if counts.SeedsSpawned != 1 {
		t.Fatalf("spawned = %d, want 1", counts.SeedsSpawned)
	}

	seeds := s.Snapshot().Seeds
	if len(seeds) != 1 {
		t.Fatalf("seeds = %d, want 1", len(seeds))
	}
	if r := r3.Norm(seeds[0].Position); r >= cfg.Derived.InnerRadius || seeds[0].Position.Z != 0 {
		t.Errorf("seed at %v outside the spawn disc", seeds[0].Position)
	}

	events := s.DrainEvents()
	if len(events) != 1 || events[0].Kind != EventSeedSpawned || events[0].Tick != 300 {
		t.Errorf("events = %+v", events)
	}
}

func TestToroidalWrap(t *testing.T) {
	cfg := emptyPond(t)
	cfg.Arena.Boundary = config.BoundaryToroidal
	cfg.Boids.Speed = 120 // 2 units per frame
	s := New(cfg, Options{})
	defer s.Close()

	s.AddBoid(r3.Vec{X: 449}, 0)
	s.Step(cfg.Derived.FrameDelta)

	p := s.Snapshot().Boids[0].Position
	if p.X < -450 || p.X > -448.9 {
		t.Errorf("x = %v, want wrapped just past -450", p.X)
	}
}

func TestCircularPondDoesNotWrap(t *testing.T) {
	cfg := emptyPond(t)
	cfg.Boids.Speed = 120
	s := New(cfg, Options{})
	defer s.Close()

	s.AddBoid(r3.Vec{X: 449}, 0)
	s.Step(cfg.Derived.FrameDelta)

	if p := s.Snapshot().Boids[0].Position; p.X < 450 {
		t.Errorf("x = %v, want past 450", p.X)
	}
}

func TestEventsDrain(t *testing.T) {
	cfg := config.Default()
	cfg.Boids.Count = 3
	s := New(cfg, Options{})
	defer s.Close()

	events := s.DrainEvents()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	for i, e := range events {
		if e.Kind != EventBoidSpawned || e.ID != uint32(i) || e.Tick != 0 {
			t.Errorf("event %d = %+v", i, e)
		}
	}
	if e := s.DrainEvents(); len(e) != 0 {
		t.Errorf("second drain returned %d events", len(e))
	}
	if EventSeedEaten.String() != "seed_eaten" {
		t.Errorf("String() = %q", EventSeedEaten.String())
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	run := func(threshold int) []BoidView {
		cfg := config.Default()
		cfg.Physics.ParallelThreshold = threshold
		s := New(cfg, Options{Seed: 5})
		defer s.Close()
		for i := 0; i < 120; i++ {
			s.Step(cfg.Derived.FrameDelta)
		}
		return s.Snapshot().Boids
	}

	seq := run(0)
	par := run(1)
	for i := range seq {
		if seq[i].Position != par[i].Position || seq[i].Rotation != par[i].Rotation {
			t.Fatalf("boid %d diverged: %v vs %v", i, seq[i].Position, par[i].Position)
		}
	}
}

func TestDeterministicRuns(t *testing.T) {
	run := func() View {
		cfg := config.Default()
		s := New(cfg, Options{Seed: 42})
		defer s.Close()
		for i := 0; i < 700; i++ {
			s.Step(cfg.Derived.FrameDelta)
		}
		return s.Snapshot()
	}

	a, b := run(), run()
	if len(a.Seeds) != len(b.Seeds) {
		t.Fatalf("seed counts differ: %d vs %d", len(a.Seeds), len(b.Seeds))
	}
	for i := range a.Seeds {
		if a.Seeds[i] != b.Seeds[i] {
			t.Errorf("seed %d differs", i)
		}
	}
	for i := range a.Boids {
		if a.Boids[i].Position != b.Boids[i].Position {
			t.Errorf("boid %d differs", i)
		}
	}
}

func TestStepReportsStageWork(t *testing.T) {
	cfg := config.Default()
	perf := telemetry.NewPerfCollector(8)
	s := New(cfg, Options{Seed: 2, Perf: perf})
	defer s.Close()

	var counts telemetry.TickCounts
	for i := 0; i < 8; i++ {
		counts = s.Step(cfg.Derived.FrameDelta)
	}
	if want := cfg.Boids.Count * (cfg.Boids.Count - 1); counts.PairsScanned != want {
		t.Errorf("pairs scanned = %d, want %d", counts.PairsScanned, want)
	}

	stats := perf.Stats()
	if stats.Ticks != 8 {
		t.Fatalf("perf ticks = %d, want 8", stats.Ticks)
	}
	if stats.TickMean <= 0 || stats.StageMean[telemetry.StageForces] <= 0 {
		t.Errorf("tick mean %v, forces mean %v", stats.TickMean, stats.StageMean[telemetry.StageForces])
	}
}
