// Package modulation computes the 8-tuple modulator vector from a
// smoothed audio frame and routes it into solver, boundary and emitter
// parameters.
package modulation

import (
	"github.com/pthm-cable/fluidmpm/audio"
	"github.com/pthm-cable/fluidmpm/groove"
)

// Modulators is the 8-tuple output of the router.
type Modulators struct {
	Pulse       float32
	Flow        float32
	Shimmer     float32
	Warp        float32
	Density     float32
	Aura        float32
	Containment float32
	Sway        float32 // only field in [-1,1]; the rest are in [0,1]
}

// RoutingIntensity holds the per-channel routing gains from config.
type RoutingIntensity struct {
	PulseForce       float32
	FlowTurbulence   float32
	ShimmerColor     float32
	WarpSpatial      float32
	DensitySpawn     float32
	AuraBloom        float32
}

// Targets is the solver/boundary/emitter-visible output of a routed
// frame.
type Targets struct {
	SolverNoise             float32
	SolverDT                float32
	SolverStiffness         float32
	SolverDynamicViscosity  float32
	BoundaryPulseStrength   float32
	EmitterRateMultiplier   float32
}

// BaseParameters are the un-modulated solver values the router scales.
type BaseParameters struct {
	BaseNoise        float32
	BaseSpeed        float32 // baseline dt
	StiffMin, StiffMax float32
	ViscMin, ViscMax   float32
	ParticleInfluence  float32
}

// Router holds the one-pole filtered modulator state across frames.
type Router struct {
	current          Modulators
	timelineSmoothing float32 // alpha = 1 - timelineSmoothing
	transitionResponsiveness float32
	framesSinceBeat  int
}

// NewRouter creates a router with the given smoothing/transient-gain
// config.
func NewRouter(timelineSmoothing, transitionResponsiveness float32) *Router {
	return &Router{
		timelineSmoothing:        timelineSmoothing,
		transitionResponsiveness: transitionResponsiveness,
		framesSinceBeat:          1 << 30,
	}
}

// baseAttack is the Attack window AnticipationWindows returns at the
// predictor's neutral 120 BPM scale (scale=1), used to turn the
// predicted attack window into a relative gain multiplier.
const baseAttack = 0.1

// Update computes this frame's modulators from the smoothed audio frame,
// the groove engine's pocketTightness and the predictor's anticipation
// windows, and applies the one-pole filter with the post-beat transient
// gain.
func (r *Router) Update(f audio.Frame, pocketTightness float32, anticipation groove.AnticipationWindows) Modulators {
	target := Modulators{
		Pulse:       smoothstep(f.BeatIntensity) + f.OnsetEnergy*0.3,
		Flow:        f.HarmonicRatio * f.SmoothMid,
		Shimmer:     f.SmoothTreble * f.SpectralFlux,
		Warp:        f.StereoWidth * swayWindow(f.StereoBalance),
		Density:     f.SmoothOverall * (1 - 1/maxf(pocketTightness, 0.01)*0.01),
		Aura:        f.SmoothOverall,
		Containment: 1 - dynamicRangeEnvelope(f),
		Sway:        f.StereoBalance,
	}
	target.Pulse = clamp01(target.Pulse)
	target.Flow = clamp01(target.Flow)
	target.Shimmer = clamp01(target.Shimmer)
	target.Warp = clamp01(target.Warp)
	target.Density = clamp01(target.Density)
	target.Aura = clamp01(target.Aura)
	target.Containment = clamp01(target.Containment)
	target.Sway = clampRange(target.Sway, -1, 1)

	if f.Beat {
		r.framesSinceBeat = 0
	} else {
		r.framesSinceBeat++
	}

	alpha := 1 - r.timelineSmoothing
	gain := float32(1)
	if r.framesSinceBeat == 1 {
		attackScale := float32(anticipation.Attack / baseAttack)
		if attackScale <= 0 {
			attackScale = 1
		}
		gain = 1 + r.transitionResponsiveness/attackScale
	}

	pulseAlpha := alpha * gain
	if pulseAlpha > 1 {
		pulseAlpha = 1
	}
	r.current.Pulse = onePole(r.current.Pulse, target.Pulse, pulseAlpha)
	r.current.Flow = onePole(r.current.Flow, target.Flow, alpha)
	r.current.Shimmer = onePole(r.current.Shimmer, target.Shimmer, alpha)
	r.current.Warp = onePole(r.current.Warp, target.Warp, alpha)
	r.current.Density = onePole(r.current.Density, target.Density, alpha)
	r.current.Aura = onePole(r.current.Aura, target.Aura, alpha)
	r.current.Containment = onePole(r.current.Containment, target.Containment, alpha)
	r.current.Sway = onePole(r.current.Sway, target.Sway, alpha)

	return r.current
}

// Route scales the current modulators by their routing intensities and
// produces the solver/boundary/emitter-visible targets.
func Route(m Modulators, intensity RoutingIntensity, base BaseParameters, overall float32) Targets {
	flow := m.Flow * intensity.FlowTurbulence
	pulse := m.Pulse * intensity.PulseForce
	aura := m.Aura * intensity.AuraBloom
	density := m.Density * intensity.DensitySpawn

	return Targets{
		SolverNoise:            base.BaseNoise * (1 + flow),
		SolverDT:               base.BaseSpeed * (1 + overall*base.ParticleInfluence),
		SolverStiffness:        lerp(base.StiffMin, base.StiffMax, aura),
		SolverDynamicViscosity: lerp(base.ViscMin, base.ViscMax, 1-aura),
		BoundaryPulseStrength:  pulse,
		EmitterRateMultiplier:  density,
	}
}

func smoothstep(x float32) float32 {
	x = clamp01(x)
	return x * x * (3 - 2*x)
}

// swayWindow shapes stereoBalance into a [0,1] envelope for warp's width
// weighting.
func swayWindow(balance float32) float32 {
	return 1 - absf(balance)*0.5
}

// dynamicRangeEnvelope approximates containment's "1 - dynamicRange
// envelope" input as the spread between instant and smoothed overall
// energy.
func dynamicRangeEnvelope(f audio.Frame) float32 {
	return clamp01(absf(f.Overall - f.SmoothOverall))
}

func onePole(prev, target, alpha float32) float32 {
	return (1-alpha)*prev + alpha*target
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampRange(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
