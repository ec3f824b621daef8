// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Boundary policies for the locomotion stage.
const (
	BoundaryCircular = "circular"
	BoundaryToroidal = "toroidal"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Arena     ArenaConfig     `yaml:"arena"`
	Boids     BoidsConfig     `yaml:"boids"`
	Flocking  FlockingConfig  `yaml:"flocking"`
	Wall      WallConfig      `yaml:"wall"`
	Food      FoodConfig      `yaml:"food"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ArenaConfig describes the pond and how positions are bounded.
type ArenaConfig struct {
	PondRadius float64        `yaml:"pond_radius"`
	Boundary   string         `yaml:"boundary"` // circular (steer-only) or toroidal (wrap)
	Toroidal   ToroidalBounds `yaml:"toroidal"`
}

// ToroidalBounds is the rectangle positions wrap around in toroidal mode.
type ToroidalBounds struct {
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
	MinY float64 `yaml:"min_y"`
	MaxY float64 `yaml:"max_y"`
}

// BoidsConfig holds population and kinematics parameters.
type BoidsConfig struct {
	Count       int          `yaml:"count"`
	Speed       float64      `yaml:"speed"`
	RotateSpeed float64      `yaml:"rotate_speed"` // revolutions per second
	Layout      LayoutConfig `yaml:"layout"`
}

// LayoutConfig places the initial population on a line with fanned-out headings.
type LayoutConfig struct {
	Spacing      float64 `yaml:"spacing"`
	OffsetX      float64 `yaml:"offset_x"`
	YawStepDeg   float64 `yaml:"yaw_step_deg"`
	YawOffsetDeg float64 `yaml:"yaw_offset_deg"`
}

// FlockingConfig holds the neighbour rule radii, weights and angles.
type FlockingConfig struct {
	SeparationRadius float64   `yaml:"separation_radius"`
	AlignRadius      float64   `yaml:"align_radius"`
	AlignMaxAngleDeg float64   `yaml:"align_max_angle_deg"`
	AlignWeight      float64   `yaml:"align_weight"`
	SightRange       float64   `yaml:"sight_range"`
	SightAngleDeg    float64   `yaml:"sight_angle_deg"` // full cone width
	CohesionWeight   float64   `yaml:"cohesion_weight"`
	LonelyTarget     []float64 `yaml:"lonely_target"` // cohesion target when a boid has no neighbours
	ForceThreshold   float64   `yaml:"force_threshold"`
	SympathyFactor   float64   `yaml:"sympathy_factor"`
	SteerDeadZoneDeg float64   `yaml:"steer_dead_zone_deg"`
}

// WallConfig holds pond edge avoidance parameters.
type WallConfig struct {
	AvoidanceDistance float64 `yaml:"avoidance_distance"`
	Push              float64 `yaml:"push"`
}

// FoodConfig holds seed spawning, attraction and eating parameters.
type FoodConfig struct {
	EatRange      float64 `yaml:"eat_range"`
	SpawnInterval float64 `yaml:"spawn_interval"` // seconds
	HungerRange   float64 `yaml:"hunger_range"`
	HungerFactor  float64 `yaml:"hunger_factor"`
	GridCellSize  float64 `yaml:"grid_cell_size"`
}

// PhysicsConfig holds tick cadence parameters.
type PhysicsConfig struct {
	DT                float64 `yaml:"dt"`
	ParallelThreshold int     `yaml:"parallel_threshold"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	InnerRadius   float64       // PondRadius - Wall.AvoidanceDistance
	AlignMaxAngle float64       // radians
	SightHalf     float64       // radians, half of the sight cone
	SteerDeadZone float64       // radians
	YawStep       float64       // radians
	YawOffset     float64       // radians
	SpawnPeriod   time.Duration // Food.SpawnInterval
	FrameDelta    time.Duration // Physics.DT
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate reports the first parameter that would make the simulation meaningless.
func (c *Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"arena.pond_radius", c.Arena.PondRadius},
		{"boids.speed", c.Boids.Speed},
		{"boids.rotate_speed", c.Boids.RotateSpeed},
		{"food.spawn_interval", c.Food.SpawnInterval},
		{"food.grid_cell_size", c.Food.GridCellSize},
		{"physics.dt", c.Physics.DT},
		{"telemetry.stats_window", c.Telemetry.StatsWindow},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", p.name, p.value)
		}
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"flocking.separation_radius", c.Flocking.SeparationRadius},
		{"flocking.align_radius", c.Flocking.AlignRadius},
		{"flocking.sight_range", c.Flocking.SightRange},
		{"flocking.force_threshold", c.Flocking.ForceThreshold},
		{"wall.avoidance_distance", c.Wall.AvoidanceDistance},
		{"food.eat_range", c.Food.EatRange},
		{"food.hunger_range", c.Food.HungerRange},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			return fmt.Errorf("config: %s must not be negative, got %v", p.name, p.value)
		}
	}

	if c.Boids.Count < 0 {
		return fmt.Errorf("config: boids.count must not be negative, got %d", c.Boids.Count)
	}
	if c.Wall.AvoidanceDistance >= c.Arena.PondRadius {
		return fmt.Errorf("config: wall.avoidance_distance %v leaves no room inside pond_radius %v",
			c.Wall.AvoidanceDistance, c.Arena.PondRadius)
	}
	if len(c.Flocking.LonelyTarget) != 3 {
		return fmt.Errorf("config: flocking.lonely_target needs 3 components, got %d", len(c.Flocking.LonelyTarget))
	}

	switch c.Arena.Boundary {
	case BoundaryCircular:
	case BoundaryToroidal:
		b := c.Arena.Toroidal
		if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
			return fmt.Errorf("config: arena.toroidal bounds are empty: x [%v, %v) y [%v, %v)",
				b.MinX, b.MaxX, b.MinY, b.MaxY)
		}
	default:
		return fmt.Errorf("config: unknown arena.boundary %q", c.Arena.Boundary)
	}

	return nil
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after editing a loaded config in place.
func (c *Config) ComputeDerived() {
	c.Derived.InnerRadius = c.Arena.PondRadius - c.Wall.AvoidanceDistance
	c.Derived.AlignMaxAngle = radians(c.Flocking.AlignMaxAngleDeg)
	c.Derived.SightHalf = radians(c.Flocking.SightAngleDeg) / 2
	c.Derived.SteerDeadZone = radians(c.Flocking.SteerDeadZoneDeg)
	c.Derived.YawStep = radians(c.Boids.Layout.YawStepDeg)
	c.Derived.YawOffset = radians(c.Boids.Layout.YawOffsetDeg)
	c.Derived.SpawnPeriod = seconds(c.Food.SpawnInterval)
	c.Derived.FrameDelta = seconds(c.Physics.DT)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// radians matches systems.Radians; dividing first keeps 90 and 45 degrees exact.
func radians(deg float64) float64 {
	return deg / 180 * math.Pi
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
