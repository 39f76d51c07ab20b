// Package renderer implements the particle draw variants selected by
// the adaptive performance controller, generalized from a 2D draw loop
// of oriented triangles over an ECS query to 3D particle variants over
// a solver.ParticleBuffer.
package renderer

import "github.com/pthm-cable/fluidmpm/solver"

// Variant is the shared contract every draw style implements. The perf
// controller names a variant only by its perf.RendererHint tag; it
// never holds a Variant reference itself.
type Variant interface {
	// Update adjusts the variant's live particle count and per-particle
	// draw size ahead of the next Draw call.
	Update(count int, size float32)

	// Draw renders the live particle range of pb using the simulation's
	// current camera/transform, set up by the caller before invoking it.
	Draw(pb *solver.ParticleBuffer)

	// Dispose releases any GPU-side resources (meshes, shaders) the
	// variant allocated.
	Dispose()
}
