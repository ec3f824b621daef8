package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Boids.Count != 50 || cfg.Boids.Speed != 20 {
		t.Errorf("boids = %+v", cfg.Boids)
	}
	if cfg.Arena.Boundary != BoundaryCircular {
		t.Errorf("boundary = %q, want circular", cfg.Arena.Boundary)
	}
	if cfg.Derived.InnerRadius != 150 {
		t.Errorf("inner radius = %v, want 150", cfg.Derived.InnerRadius)
	}
	if cfg.Derived.AlignMaxAngle != math.Pi/2 {
		t.Errorf("align angle = %v, want exactly pi/2", cfg.Derived.AlignMaxAngle)
	}
	if math.Abs(cfg.Derived.SightHalf-math.Pi/8) > 1e-15 {
		t.Errorf("sight half = %v, want pi/8", cfg.Derived.SightHalf)
	}
	if cfg.Derived.SpawnPeriod != 5*time.Second {
		t.Errorf("spawn period = %v, want 5s", cfg.Derived.SpawnPeriod)
	}
	if want := []float64{10000, 10000, 10000}; len(cfg.Flocking.LonelyTarget) != 3 || cfg.Flocking.LonelyTarget[0] != want[0] {
		t.Errorf("lonely target = %v", cfg.Flocking.LonelyTarget)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pond.yaml")
	data := "boids:\n  count: 7\narena:\n  boundary: toroidal\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Boids.Count != 7 {
		t.Errorf("count = %d, want 7", cfg.Boids.Count)
	}
	if cfg.Boids.Speed != 20 {
		t.Errorf("speed = %v, want default 20", cfg.Boids.Speed)
	}
	if cfg.Arena.Toroidal.MaxX != 450 {
		t.Errorf("toroidal max x = %v, want default 450", cfg.Arena.Toroidal.MaxX)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad yaml", "boids: [", "parsing config file"},
		{"zero speed", "boids:\n  speed: 0\n", "boids.speed"},
		{"negative radius", "flocking:\n  sight_range: -1\n", "flocking.sight_range"},
		{"wall swallows pond", "wall:\n  avoidance_distance: 250\n", "wall.avoidance_distance"},
		{"short lonely target", "flocking:\n  lonely_target: [1, 2]\n", "lonely_target"},
		{"unknown boundary", "arena:\n  boundary: square\n", "unknown arena.boundary"},
		{"empty torus", "arena:\n  boundary: toroidal\n  toroidal:\n    min_x: 10\n    max_x: 10\n", "bounds are empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pond.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Flocking.AlignWeight = 21.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Flocking.AlignWeight != 21.5 {
		t.Errorf("align weight = %v, want 21.5", back.Flocking.AlignWeight)
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatal(err)
	}
	if Cfg().Food.EatRange != 5 {
		t.Errorf("eat range = %v, want 5", Cfg().Food.EatRange)
	}
}
