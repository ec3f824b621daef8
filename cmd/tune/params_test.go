package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/pond/config"
	"github.com/pthm-cable/pond/telemetry"
)

func TestDefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Default())
	want := pv.DefaultVector()
	for i, spec := range pv.Specs {
		if got[i] != want[i] {
			t.Errorf("%s: config default %v, spec default %v", spec.Path, got[i], want[i])
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := pv.DefaultVector()
	values[0] = -100 // separation_radius
	values[6] = 90   // steer_dead_zone_deg
	pv.ApplyToConfig(cfg, values)

	if cfg.Flocking.SeparationRadius != 5 {
		t.Errorf("separation radius = %v, want clamped to 5", cfg.Flocking.SeparationRadius)
	}
	if cfg.Flocking.SteerDeadZoneDeg != 45 {
		t.Errorf("dead zone = %v, want clamped to 45", cfg.Flocking.SteerDeadZoneDeg)
	}
	if math.Abs(cfg.Derived.SteerDeadZone-math.Pi/4) > 1e-12 {
		t.Errorf("derived dead zone = %v, want pi/4", cfg.Derived.SteerDeadZone)
	}
}

func TestComputeQuality(t *testing.T) {
	windows := []telemetry.WindowStats{
		{Polarization: 0, SeedsSpawned: 2, RadiusMax: 500}, // warmup, ignored
		{Polarization: 0.8, SeedsSpawned: 2, SeedsEaten: 1, RadiusMax: 120},
		{Polarization: 0.6, SeedsSpawned: 2, SeedsEaten: 2, RadiusMax: 260},
	}

	q := computeQuality(windows, 200)

	if math.Abs(q.Polarization-0.7) > 1e-12 {
		t.Errorf("polarization = %v, want 0.7", q.Polarization)
	}
	if q.Foraging != 0.75 {
		t.Errorf("foraging = %v, want 0.75", q.Foraging)
	}
	if q.Containment != 0.5 {
		t.Errorf("containment = %v, want 0.5", q.Containment)
	}
	if q.Score() <= 0 || q.Score() > 1 {
		t.Errorf("score = %v out of range", q.Score())
	}

	if (computeQuality(windows[:1], 200) != Quality{}) {
		t.Error("warmup-only run should score zero")
	}
}

func TestEvaluateShortRun(t *testing.T) {
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 1300, []int64{1, 2}, config.Default())
	fe.statsWindow = 5

	fitness := fe.Evaluate(pv.DefaultVector())
	if fitness > 0 || fitness < -1 {
		t.Errorf("fitness = %v, want in [-1, 0]", fitness)
	}
	if q := fe.LastQuality(); q.Polarization < 0 || q.Polarization > 1 {
		t.Errorf("polarization = %v", q.Polarization)
	}
}
