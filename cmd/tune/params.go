package main

import (
	"github.com/pthm-cable/pond/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of flocking parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Neighbour rules
			{Name: "separation_radius", Path: "flocking.separation_radius", Min: 5, Max: 50, Default: 25},
			{Name: "align_radius", Path: "flocking.align_radius", Min: 5, Max: 60, Default: 25},
			{Name: "align_weight", Path: "flocking.align_weight", Min: 0, Max: 40, Default: 15},
			{Name: "sight_range", Path: "flocking.sight_range", Min: 5, Max: 50, Default: 20},
			{Name: "cohesion_weight", Path: "flocking.cohesion_weight", Min: 0, Max: 10, Default: 2},
			{Name: "sympathy_factor", Path: "flocking.sympathy_factor", Min: 0, Max: 10, Default: 5},
			// Steering
			{Name: "steer_dead_zone_deg", Path: "flocking.steer_dead_zone_deg", Min: 1, Max: 45, Default: 10},
			// Food
			{Name: "hunger_factor", Path: "food.hunger_factor", Min: 0, Max: 200, Default: 80},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig clamps values, writes them into cfg and refreshes the derived block.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Flocking.SeparationRadius = clamped[0]
	cfg.Flocking.AlignRadius = clamped[1]
	cfg.Flocking.AlignWeight = clamped[2]
	cfg.Flocking.SightRange = clamped[3]
	cfg.Flocking.CohesionWeight = clamped[4]
	cfg.Flocking.SympathyFactor = clamped[5]
	cfg.Flocking.SteerDeadZoneDeg = clamped[6]
	cfg.Food.HungerFactor = clamped[7]

	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Flocking.SeparationRadius,
		cfg.Flocking.AlignRadius,
		cfg.Flocking.AlignWeight,
		cfg.Flocking.SightRange,
		cfg.Flocking.CohesionWeight,
		cfg.Flocking.SympathyFactor,
		cfg.Flocking.SteerDeadZoneDeg,
		cfg.Food.HungerFactor,
	}
}

// EvalRecord is one row of the tuning log.
type EvalRecord struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	Polarization float64 `csv:"polarization"`
	Foraging     float64 `csv:"foraging"`
	Containment  float64 `csv:"containment"`

	SeparationRadius float64 `csv:"separation_radius"`
	AlignRadius      float64 `csv:"align_radius"`
	AlignWeight      float64 `csv:"align_weight"`
	SightRange       float64 `csv:"sight_range"`
	CohesionWeight   float64 `csv:"cohesion_weight"`
	SympathyFactor   float64 `csv:"sympathy_factor"`
	SteerDeadZoneDeg float64 `csv:"steer_dead_zone_deg"`
	HungerFactor     float64 `csv:"hunger_factor"`
}

// NewEvalRecord builds a log row from the config an evaluation ran with.
func NewEvalRecord(eval int, fitness float64, q Quality, cfg *config.Config) EvalRecord {
	return EvalRecord{
		Eval:             eval,
		Fitness:          fitness,
		Polarization:     q.Polarization,
		Foraging:         q.Foraging,
		Containment:      q.Containment,
		SeparationRadius: cfg.Flocking.SeparationRadius,
		AlignRadius:      cfg.Flocking.AlignRadius,
		AlignWeight:      cfg.Flocking.AlignWeight,
		SightRange:       cfg.Flocking.SightRange,
		CohesionWeight:   cfg.Flocking.CohesionWeight,
		SympathyFactor:   cfg.Flocking.SympathyFactor,
		SteerDeadZoneDeg: cfg.Flocking.SteerDeadZoneDeg,
		HungerFactor:     cfg.Food.HungerFactor,
	}
}
