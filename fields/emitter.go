package fields

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/fluidmpm/solver"
)

// EmitterKind is the emitter's spawn-volume shape.
type EmitterKind uint8

const (
	EmitterPoint EmitterKind = iota
	EmitterLine
	EmitterDisk
	EmitterSphere
	EmitterBox
)

func ParseEmitterKind(s string) EmitterKind {
	switch s {
	case "line":
		return EmitterLine
	case "disk":
		return EmitterDisk
	case "sphere":
		return EmitterSphere
	case "box":
		return EmitterBox
	default:
		return EmitterPoint
	}
}

// Pattern is the emitter's temporal firing pattern.
type Pattern uint8

const (
	PatternContinuous Pattern = iota
	PatternBurst
	PatternPulse
)

func ParsePattern(s string) Pattern {
	switch s {
	case "burst":
		return PatternBurst
	case "pulse":
		return PatternPulse
	default:
		return PatternContinuous
	}
}

// Emitter is the ark ECS component storing one emitter's parameters and
// its fractional-particle accumulator.
type Emitter struct {
	Kind         EmitterKind
	Pattern      Pattern
	Position     [3]float32
	Extent       [3]float32 // half-size (box), length (line), radius (disk/sphere)
	Rate         float32    // particles per second
	VelocityMean [3]float32
	VelocitySpread float32
	LifetimeMean   float32
	LifetimeSpread float32
	Material       solver.Material

	accumulator float32
	pulsePhase  float32
	burstFired  bool
}

// EmitterRegistry owns up to Capacity emitters and, each frame, converts
// their accumulated rate into solver.SpawnRequest values: a real
// particle-injection path rather than a stub.
type EmitterRegistry struct {
	world *ecs.World
	comp  *ecs.Map1[Emitter]
	live  []ecs.Entity
	rng   *rand.Rand
	drift opensimplex.Noise
	clock float32
}

// NewEmitterRegistry creates an empty emitter registry.
func NewEmitterRegistry(seed int64) *EmitterRegistry {
	world := ecs.NewWorld()
	return &EmitterRegistry{
		world: world,
		comp:  ecs.NewMap1[Emitter](world),
		rng:   rand.New(rand.NewSource(seed)),
		drift: opensimplex.New(seed),
	}
}

// Add inserts an emitter, recycling the oldest once Capacity is reached.
func (r *EmitterRegistry) Add(e Emitter) ecs.Entity {
	if len(r.live) >= Capacity {
		oldest := r.live[0]
		r.live = r.live[1:]
		r.comp.Remove(oldest)
	}
	ent := r.comp.NewEntity(&e)
	r.live = append(r.live, ent)
	return ent
}

// Remove deletes an emitter by entity handle.
func (r *EmitterRegistry) Remove(e ecs.Entity) {
	for i, live := range r.live {
		if live == e {
			r.live = append(r.live[:i], r.live[i+1:]...)
			r.comp.Remove(e)
			return
		}
	}
}

// Len reports the number of live emitters.
func (r *EmitterRegistry) Len() int { return len(r.live) }

// Advance turns each live emitter's pattern into spawn requests. A
// continuous emitter's accumulator grows by dt*rate each frame and, for
// every whole accumulated particle, the emitter's position/velocity
// distributions are sampled into a SpawnRequest. A burst emitter spawns
// int(Rate)+1 particles once; a pulse emitter spawns int(Rate)+1
// particles each time one second has passed.
func (r *EmitterRegistry) Advance(dt float32) []solver.SpawnRequest {
	r.clock += dt
	var out []solver.SpawnRequest
	for _, e := range r.live {
		em := r.comp.Get(e)
		switch em.Pattern {
		case PatternBurst:
			if em.burstFired {
				continue
			}
			em.burstFired = true
			out = append(out, r.spawnFrom(em, int(em.Rate)+1)...)
			continue
		case PatternPulse:
			em.pulsePhase += dt
			if em.pulsePhase < 1 {
				continue
			}
			em.pulsePhase = 0
			out = append(out, r.spawnFrom(em, int(em.Rate)+1)...)
			continue
		default: // continuous
			em.accumulator += dt * em.Rate
			n := int(em.accumulator)
			if n <= 0 {
				continue
			}
			em.accumulator -= float32(n)
			out = append(out, r.spawnFrom(em, n)...)
		}
	}
	return out
}

// spawnFrom samples n particles from one emitter's spawn volume and
// velocity distribution. Lifetime is not sampled: particles do not
// expire in the solver.
func (r *EmitterRegistry) spawnFrom(em *Emitter, n int) []solver.SpawnRequest {
	reqs := make([]solver.SpawnRequest, 0, n)
	// drift is a tiled coherent noise sample over (position, time) so
	// successive particles from one emitter wander together instead of
	// each picking an independent random heading.
	driftX := float32(r.drift.Eval3(float64(em.Position[0])*0.2, float64(em.Position[2])*0.2, float64(r.clock)*0.3))
	driftZ := float32(r.drift.Eval3(float64(em.Position[2])*0.2, float64(em.Position[0])*0.2, float64(r.clock)*0.3+100))
	for i := 0; i < n; i++ {
		pos := r.sampleVolume(em)
		vel := [3]float32{
			em.VelocityMean[0] + (r.rng.Float32()*2-1)*em.VelocitySpread + driftX*em.VelocitySpread*0.5,
			em.VelocityMean[1] + (r.rng.Float32()*2-1)*em.VelocitySpread,
			em.VelocityMean[2] + (r.rng.Float32()*2-1)*em.VelocitySpread + driftZ*em.VelocitySpread*0.5,
		}
		reqs = append(reqs, solver.SpawnRequest{
			PosX: pos[0], PosY: pos[1], PosZ: pos[2],
			VelX: vel[0], VelY: vel[1], VelZ: vel[2],
			Mass:     1 - r.rng.Float32()*0.002,
			Material: em.Material,
		})
	}
	return reqs
}

func (r *EmitterRegistry) sampleVolume(em *Emitter) [3]float32 {
	p := em.Position
	switch em.Kind {
	case EmitterLine:
		t := r.rng.Float32()*2 - 1
		return [3]float32{p[0] + em.Extent[0]*t, p[1], p[2]}
	case EmitterDisk:
		angle := r.rng.Float32() * 6.2831855
		radius := em.Extent[0] * sqrt32(r.rng.Float32())
		return [3]float32{p[0] + radius*cos32(angle), p[1], p[2] + radius*sin32(angle)}
	case EmitterSphere:
		for {
			x := r.rng.Float32()*2 - 1
			y := r.rng.Float32()*2 - 1
			z := r.rng.Float32()*2 - 1
			if x*x+y*y+z*z <= 1 {
				return [3]float32{p[0] + x*em.Extent[0], p[1] + y*em.Extent[0], p[2] + z*em.Extent[0]}
			}
		}
	case EmitterBox:
		return [3]float32{
			p[0] + (r.rng.Float32()*2-1)*em.Extent[0],
			p[1] + (r.rng.Float32()*2-1)*em.Extent[1],
			p[2] + (r.rng.Float32()*2-1)*em.Extent[2],
		}
	default: // point
		return p
	}
}
