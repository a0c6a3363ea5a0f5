// Package main provides CMA-ES tuning of flock rule parameters.
package main

import (
	"github.com/pthm-cable/reef/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Rule strengths
			{Name: "alignment", Path: "flock.alignment_strength", Min: 0, Max: 2},
			{Name: "cohesion", Path: "flock.cohesion_strength", Min: 0, Max: 2},
			{Name: "separation", Path: "flock.separation_strength", Min: 0, Max: 2},
			// Perception
			{Name: "perception_radius", Path: "flock.perception_radius", Min: 1, Max: 15},
			{Name: "perception_angle", Path: "flock.perception_angle", Min: 30, Max: 180},
			// Limits
			{Name: "max_acceleration", Path: "flock.max_acceleration", Min: 0.05, Max: 1.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
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
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Flock.AlignmentStrength = clamped[0]
	cfg.Flock.CohesionStrength = clamped[1]
	cfg.Flock.SeparationStrength = clamped[2]
	cfg.Flock.PerceptionRadius = clamped[3]
	cfg.Flock.PerceptionAngle = clamped[4]
	cfg.Flock.MaxAcceleration = clamped[5]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Flock.AlignmentStrength,
		cfg.Flock.CohesionStrength,
		cfg.Flock.SeparationStrength,
		cfg.Flock.PerceptionRadius,
		cfg.Flock.PerceptionAngle,
		cfg.Flock.MaxAcceleration,
	}
}
