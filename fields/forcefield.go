// Package fields implements the CPU-side force-field and emitter
// registries: bounded typed collections uploaded each frame as uniform
// arrays, backed by ark ECS worlds (normally used here for organism/cell
// entities, repurposed for these small bounded registries since raw
// slices would lose the free-list/generation bookkeeping ark already
// provides).
package fields

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fluidmpm/solver"
)

// Capacity is the maximum number of live force fields or emitters.
const Capacity = 8

// Kind names a force field's contribution model.
type Kind uint8

const (
	KindAttractor Kind = iota
	KindRepeller
	KindVortex
	KindTurbulence
	KindDirectional
	KindCurl
)

func ParseKind(s string) Kind {
	switch s {
	case "repeller":
		return KindRepeller
	case "vortex":
		return KindVortex
	case "turbulence":
		return KindTurbulence
	case "directional":
		return KindDirectional
	case "curl":
		return KindCurl
	default:
		return KindAttractor
	}
}

// ForceField is the ark ECS component storing one field's parameters.
type ForceField struct {
	Kind     Kind
	Position [3]float32
	Strength float32
	Radius   float32
	Falloff  float32
	Axis     [3]float32
}

// Registry owns up to Capacity force fields in an ark world. Force
// fields never interact with each other, so a single-component world is
// enough; it exists mainly to reuse ark's entity free-list instead of
// hand-rolling one.
type Registry struct {
	world *ecs.World
	comp  *ecs.Map1[ForceField]
	live  []ecs.Entity
}

// NewRegistry creates an empty force-field registry.
func NewRegistry() *Registry {
	world := ecs.NewWorld()
	return &Registry{
		world: world,
		comp:  ecs.NewMap1[ForceField](world),
	}
}

// Add inserts a force field, recycling the oldest entry once Capacity is
// reached. Returns the entity handle, usable with Remove.
func (r *Registry) Add(f ForceField) ecs.Entity {
	if len(r.live) >= Capacity {
		oldest := r.live[0]
		r.live = r.live[1:]
		r.comp.Remove(oldest)
	}
	e := r.comp.NewEntity(&f)
	r.live = append(r.live, e)
	return e
}

// Remove deletes a force field by entity handle.
func (r *Registry) Remove(e ecs.Entity) {
	for i, live := range r.live {
		if live == e {
			r.live = append(r.live[:i], r.live[i+1:]...)
			r.comp.Remove(e)
			return
		}
	}
}

// Len reports the number of live force fields.
func (r *Registry) Len() int { return len(r.live) }

// Snapshot returns the current force fields as solver.ForceFieldSample
// values for per-frame uniform-array upload. This is the one place
// fields depends on solver: a plain DTO conversion, not a back-pointer.
func (r *Registry) Snapshot() []solver.ForceFieldSample {
	out := make([]solver.ForceFieldSample, 0, len(r.live))
	for _, e := range r.live {
		f := r.comp.Get(e)
		out = append(out, solver.ForceFieldSample{
			Kind:     solver.ForceFieldKind(f.Kind),
			Position: f.Position,
			Strength: f.Strength,
			Radius:   f.Radius,
			Falloff:  f.Falloff,
			Axis:     f.Axis,
		})
	}
	return out
}
