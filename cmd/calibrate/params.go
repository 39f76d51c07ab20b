// Package main provides CMA-ES calibration of MLS-MPM solver parameters.
package main

import (
	"github.com/pthm-cable/fluidmpm/config"
)

// ParamSpec defines a single optimizable solver parameter.
type ParamSpec struct {
	Name    string // Human-readable name, also the CSV eval-log column
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibratable solver
// parameters: the ones tied directly to stability (a too-high stiffness
// or too-low viscosity blows the simulation up) and to perceived
// material character (FLIP ratio, vorticity, surface tension).
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "stiffness", Min: 0.5, Max: 8.0, Default: 3.0},
			{Name: "rest_density", Min: 0.5, Max: 4.0, Default: 1.0},
			{Name: "dynamic_viscosity", Min: 0.0, Max: 0.5, Default: 0.1},
			{Name: "flip_ratio", Min: 0.0, Max: 1.0, Default: 0.95},
			{Name: "vorticity_epsilon", Min: 0.0, Max: 0.5, Default: 0.05},
			{Name: "surface_tension_coeff", Min: 0.0, Max: 0.2, Default: 0.02},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		out[i] = val
	}
	return out
}

// ApplyToConfig writes clamped parameter values into cfg.Solver.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Solver.Stiffness = clamped[0]
	cfg.Solver.RestDensity = clamped[1]
	cfg.Solver.DynamicViscosity = clamped[2]
	cfg.Solver.FlipRatio = clamped[3]
	cfg.Solver.VorticityEpsilon = clamped[4]
	cfg.Solver.SurfaceTensionCoeff = clamped[5]
}
