package telemetry

import (
	"testing"
	"time"
)

// runTick records one tick that spends the given sleeps in forces and steering.
func runTick(pc *PerfCollector, forces, steering time.Duration, work TickCounts) {
	pc.Enter(StageSnapshot)
	pc.Enter(StageForces)
	time.Sleep(forces)
	pc.Enter(StageSteering)
	time.Sleep(steering)
	pc.EndTick(work)
}

func TestPerfCollectorStages(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		runTick(pc, 2*time.Millisecond, 100*time.Microsecond, TickCounts{ForceCarriers: 40, PairsScanned: 2450})
	}

	s := pc.Stats()
	if s.Ticks != 5 {
		t.Fatalf("ticks = %d, want 5", s.Ticks)
	}
	if s.StageMean[StageForces] < 2*time.Millisecond {
		t.Errorf("forces mean = %v, want >= 2ms", s.StageMean[StageForces])
	}
	if s.StageMean[StageForces] <= s.StageMean[StageSteering] {
		t.Errorf("forces %v not slower than steering %v", s.StageMean[StageForces], s.StageMean[StageSteering])
	}
	if s.StageMean[StageSympathy] != 0 || s.StageShare[StageFoodEat] != 0 {
		t.Error("stages never entered should stay zero")
	}
	if s.TickMean < s.StageMean[StageForces] || s.TickMax < s.TickP95 || s.TickP95 <= 0 {
		t.Errorf("tick mean/p95/max = %v/%v/%v", s.TickMean, s.TickP95, s.TickMax)
	}

	var share float64
	for _, f := range s.StageShare {
		share += f
	}
	if share < 0.999 || share > 1.001 {
		t.Errorf("stage shares sum to %v, want 1", share)
	}

	// 2450 pairs in at least 2ms of force stage per tick.
	if s.PairsPerMS <= 0 || s.PairsPerMS > 1225 {
		t.Errorf("pairs/ms = %v, want in (0, 1225]", s.PairsPerMS)
	}
	if ratio := s.PairsPerMS / s.CarriersPerMS; ratio < 61.2 || ratio > 61.3 {
		t.Errorf("pairs per carrier = %v, want 61.25", ratio)
	}
}

func TestPerfCollectorWindowWraps(t *testing.T) {
	pc := NewPerfCollector(3)
	for i := 0; i < 7; i++ {
		runTick(pc, 10*time.Microsecond, 0, TickCounts{})
	}
	if s := pc.Stats(); s.Ticks != 3 || s.TicksPerSecond <= 0 {
		t.Errorf("ticks = %d, tps = %v", s.Ticks, s.TicksPerSecond)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	s := NewPerfCollector(0).Stats()
	if s.Ticks != 0 || s.TickMean != 0 || s.PairsPerMS != 0 {
		t.Errorf("empty stats = %+v", s)
	}
}

func TestPerfCollectorFrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	s := pc.Stats()
	if s.Frame < 15*time.Millisecond {
		t.Errorf("frame = %v, want >= 15ms", s.Frame)
	}
	if s.FPS <= 0 || s.FPS > 70 {
		t.Errorf("FPS = %v, want in (0, 70]", s.FPS)
	}
}

func TestPerfRow(t *testing.T) {
	s := PerfStats{Ticks: 4, TickMean: 900 * time.Microsecond}
	s.StageMean[StageForces] = 600 * time.Microsecond
	s.StageMean[StageFoodEat] = 50 * time.Microsecond

	row := s.Row(42)
	if row.WindowEnd != 42 || row.Ticks != 4 || row.TickMeanUS != 900 {
		t.Errorf("row = %+v", row)
	}
	if row.ForcesUS != 600 || row.FoodEatUS != 50 || row.SteeringUS != 0 {
		t.Errorf("stage columns = %d/%d/%d", row.ForcesUS, row.FoodEatUS, row.SteeringUS)
	}
}

func TestStageString(t *testing.T) {
	if StageFoodSpawn.String() != "food_spawn" || NumStages.String() != "unknown" {
		t.Errorf("names = %q, %q", StageFoodSpawn, NumStages)
	}
}
