package modulation

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/fluidmpm/audio"
	"github.com/pthm-cable/fluidmpm/groove"
)

// Fuzz-style boundedness check: every modulator except Sway must stay in
// [0,1], and Sway must stay in [-1,1], for a wide range of plausible
// audio frames.
func TestModulatorsStayBounded(t *testing.T) {
	r := NewRouter(0.2, 0.5)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 5000; i++ {
		f := audio.Frame{
			Bass: rng.Float32(), Mid: rng.Float32(), Treble: rng.Float32(), Overall: rng.Float32(),
			SmoothBass: rng.Float32(), SmoothMid: rng.Float32(), SmoothTreble: rng.Float32(), SmoothOverall: rng.Float32(),
			Beat: rng.Float32() < 0.1, BeatIntensity: rng.Float32(),
			SpectralFlux: rng.Float32() * 3, OnsetEnergy: rng.Float32() * 2,
			HarmonicRatio: rng.Float32(), RhythmConfidence: rng.Float32(),
			StereoBalance: rng.Float32()*2 - 1, StereoWidth: rng.Float32(),
		}
		m := r.Update(f, rng.Float32(), groove.AnticipationWindows{Swell: 0.5, Attack: 0.1, Accent: 0.2, Breath: 1.0})

		checkUnit := func(name string, v float32) {
			if v < -1e-4 || v > 1+1e-4 {
				t.Fatalf("%s out of [0,1]: %v (iter %d)", name, v, i)
			}
		}
		checkUnit("Pulse", m.Pulse)
		checkUnit("Flow", m.Flow)
		checkUnit("Shimmer", m.Shimmer)
		checkUnit("Warp", m.Warp)
		checkUnit("Density", m.Density)
		checkUnit("Aura", m.Aura)
		checkUnit("Containment", m.Containment)

		if m.Sway < -1-1e-4 || m.Sway > 1+1e-4 {
			t.Fatalf("Sway out of [-1,1]: %v (iter %d)", m.Sway, i)
		}
	}
}

func TestRouteProducesFiniteTargets(t *testing.T) {
	m := Modulators{Pulse: 0.5, Flow: 0.3, Aura: 0.8, Density: 0.4}
	intensity := RoutingIntensity{FlowTurbulence: 1, PulseForce: 1, AuraBloom: 1, DensitySpawn: 1}
	base := BaseParameters{BaseNoise: 0.1, BaseSpeed: 1.0 / 60, StiffMin: 1, StiffMax: 5, ViscMin: 0.01, ViscMax: 0.5, ParticleInfluence: 0.2}

	targets := Route(m, intensity, base, 0.6)
	if targets.SolverStiffness < base.StiffMin || targets.SolverStiffness > base.StiffMax {
		t.Fatalf("stiffness out of configured range: %v", targets.SolverStiffness)
	}
	if targets.SolverDynamicViscosity < base.ViscMin || targets.SolverDynamicViscosity > base.ViscMax {
		t.Fatalf("viscosity out of configured range: %v", targets.SolverDynamicViscosity)
	}
}
