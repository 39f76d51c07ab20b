package solver

import "math"

// CollisionMode mirrors boundary.CollisionMode as a small solver-local
// enum so solver has no import dependency on the boundary package; the
// pipeline translates between the two (see pipeline/convert.go).
type CollisionMode uint8

const (
	CollisionReflect CollisionMode = iota
	CollisionClamp
	CollisionWrap
	CollisionKill
)

// BoundaryField is the per-frame, decoupled view of the boundary engine
// that updateGrid/g2p need. The solver package
// has no dependency on the boundary package (Design Note 6: "the solver
// owns no back-pointer"); the pipeline supplies this each frame from
// boundary.State.
type BoundaryField struct {
	Enabled       bool
	Distance      func(p [3]float32) float32
	Normal        func(p [3]float32) [3]float32
	WallStiffness float32
	Restitution   float32
	Friction      float32
	CollisionMode CollisionMode
}

// ForceFieldKind mirrors fields.Kind as a solver-local enum, same
// decoupling rationale as CollisionMode above.
type ForceFieldKind uint8

const (
	ForceAttractor ForceFieldKind = iota
	ForceRepeller
	ForceVortex
	ForceTurbulence
	ForceDirectional
	ForceCurl
)

// ForceFieldSample is the per-frame snapshot of one force field,
// uploaded to the solver as part of its uniform arrays.
type ForceFieldSample struct {
	Kind     ForceFieldKind
	Position [3]float32
	Strength float32
	Radius   float32
	Falloff  float32
	Axis     [3]float32
}

// SpawnRequest is one emitter-issued particle injection, queued with
// Solver.Enqueue and written into the particle buffer at the start of
// the next Step, before p2g1 runs — see DESIGN.md's open-question
// resolution: emitters really inject particles rather than just
// tracking a would-be count.
type SpawnRequest struct {
	PosX, PosY, PosZ float32
	VelX, VelY, VelZ float32
	Mass             float32
	Material         Material
}

// clearGrid zeroes the fixed-point accumulators and the real view.
// Idempotent: running it twice is identical to running it once.
func clearGrid(g *GridBuffer) {
	for i := range g.IntVX {
		g.IntVX[i] = 0
		g.IntVY[i] = 0
		g.IntVZ[i] = 0
		g.IntMass[i] = 0
		g.VX[i] = 0
		g.VY[i] = 0
		g.VZ[i] = 0
		g.Mass[i] = 0
	}
}

// neighborLoop calls fn for each of the 27 neighbour cells around a
// particle at grid-space position pos, passing the cell's linear index
// (or -1 if out of bounds, which callers treat as zero neighbour
// weight), the combined weight W and the offset cd = (i+g+0.5)-x.
func neighborLoop(g *GridBuffer, posX, posY, posZ float32, fn func(idx int, w float32, cd [3]float32)) {
	ix, dx := cellBase(posX)
	iy, dy := cellBase(posY)
	iz, dz := cellBase(posZ)
	wx := quadWeights(dx)
	wy := quadWeights(dy)
	wz := quadWeights(dz)

	for gz := int32(0); gz < 3; gz++ {
		for gy := int32(0); gy < 3; gy++ {
			for gx := int32(0); gx < 3; gx++ {
				cx, cy, cz := ix+gx, iy+gy, iz+gz
				w := wx[gx] * wy[gy] * wz[gz]
				cd := [3]float32{
					(float32(cx) + 0.5) - posX,
					(float32(cy) + 0.5) - posY,
					(float32(cz) + 0.5) - posZ,
				}
				if !g.InBounds(cx, cy, cz) {
					fn(-1, w, cd)
					continue
				}
				fn(g.Index(cx, cy, cz), w, cd)
			}
		}
	}
}

// p2g1 is the momentum-scatter pass.
func p2g1(pb *ParticleBuffer, g *GridBuffer, scale float32) {
	for p := 0; p < pb.Live; p++ {
		v := [3]float32{pb.VelX[p], pb.VelY[p], pb.VelZ[p]}
		C := pb.C[p]
		neighborLoop(g, pb.PosX[p], pb.PosY[p], pb.PosZ[p], func(idx int, w float32, cd [3]float32) {
			if idx < 0 {
				return
			}
			q := C.MulVec3(cd)
			massW := w
			velW := [3]float32{w * (v[0] + q[0]), w * (v[1] + q[1]), w * (v[2] + q[2])}

			atomicAddFixed(&g.IntMass[idx], massW, scale)
			atomicAddFixed(&g.IntVX[idx], velW[0], scale)
			atomicAddFixed(&g.IntVY[idx], velW[1], scale)
			atomicAddFixed(&g.IntVZ[idx], velW[2], scale)
		})
	}
}

// p2g2 is the stress-scatter pass. The reference treats every particle
// as fluid; material-dependent stress substitution is a documented
// extension point (switch on pb.MaterialTag[p]), left fluid-only for
// now since that's what the reference backend does.
func p2g2(pb *ParticleBuffer, g *GridBuffer, dt, stiffness, restDensity, viscosity, scale float32) {
	for p := 0; p < pb.Live; p++ {
		var rho float32
		neighborLoop(g, pb.PosX[p], pb.PosY[p], pb.PosZ[p], func(idx int, w float32, _ [3]float32) {
			if idx < 0 {
				return
			}
			rho += g.Mass[idx] * w
		})

		pb.Density[p] = lerp(pb.Density[p], rho, 0.05)
		if pb.Density[p] <= 0 {
			pb.Density[p] = 1e-6
		}
		volume := 1 / pb.Density[p]

		ratio := pb.Density[p] / restDensity
		pressure := maxf(0, stiffness*(ratio*ratio*ratio*ratio*ratio-1))

		C := pb.C[p]
		symC := C.Add(C.Transpose())
		sigma := Identity3().Scale(-pressure).Add(symC.Scale(viscosity))

		neighborLoop(g, pb.PosX[p], pb.PosY[p], pb.PosZ[p], func(idx int, w float32, cd [3]float32) {
			if idx < 0 {
				return
			}
			sigCd := sigma.MulVec3(cd)
			factor := -4 * volume * w * dt
			term := [3]float32{sigCd[0] * factor, sigCd[1] * factor, sigCd[2] * factor}

			atomicAddFixed(&g.IntVX[idx], term[0], scale)
			atomicAddFixed(&g.IntVY[idx], term[1], scale)
			atomicAddFixed(&g.IntVZ[idx], term[2], scale)
		})
	}
}

// updateGrid converts the accumulated fixed-point momentum into real
// velocity, applies solid-wall forcing near domain edges and the
// boundary shape, and (optionally) vorticity confinement / surface
// tension.
func updateGrid(g *GridBuffer, u Uniforms, bf BoundaryField, noiseGen *PerlinNoise, scale float32) {
	// Decode fixed-point into the real view first so every cell has a
	// stable velocity before vorticity/surface-tension read neighbours.
	for i := range g.IntMass {
		mass := DecodeFixed(clampFixed(g.IntMass[i]), scale)
		if mass <= 0 {
			g.Mass[i] = 0
			g.VX[i], g.VY[i], g.VZ[i] = 0, 0, 0
			continue
		}
		vx := DecodeFixed(clampFixed(g.IntVX[i]), scale) / mass
		vy := DecodeFixed(clampFixed(g.IntVY[i]), scale) / mass
		vz := DecodeFixed(clampFixed(g.IntVZ[i]), scale) / mass
		g.VX[i], g.VY[i], g.VZ[i] = vx, vy, vz
		g.Mass[i] = mass
	}

	sx, sy, sz := g.Size.X, g.Size.Y, g.Size.Z
	for z := int32(0); z < sz; z++ {
		for y := int32(0); y < sy; y++ {
			for x := int32(0); x < sx; x++ {
				idx := g.Index(x, y, z)
				if g.Mass[idx] <= 0 {
					continue
				}
				if x < 2 || x >= sx-2 {
					g.VX[idx] = 0
				}
				if y < 2 || y >= sy-2 {
					g.VY[idx] = 0
				}
				if z < 2 || z >= sz-2 {
					g.VZ[idx] = 0
				}

				if bf.Enabled && bf.Distance != nil {
					applyBoundaryForce(g, idx, x, y, z, bf)
				}
			}
		}
	}

	if u.VorticityEnabled != 0 {
		applyVorticityConfinement(g, u)
	}
	if u.SurfaceTensionEnabled != 0 {
		applySurfaceTension(g, u)
	}
}

// applyBoundaryForce implements the per-cell near-surface collision
// response: inside the shape beyond a threshold the cell is untouched;
// near the surface the velocity component along the outward normal is
// reflected/clamped/wrapped/killed, scaled by wallStiffness and
// restitution, with tangential friction damping.
func applyBoundaryForce(g *GridBuffer, idx int, x, y, z int32, bf BoundaryField) {
	p := [3]float32{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
	dist := bf.Distance(p)
	const surfaceBand = 2.0
	if dist > surfaceBand {
		return
	}

	n := bf.Normal(p)
	v := [3]float32{g.VX[idx], g.VY[idx], g.VZ[idx]}
	vn := v[0]*n[0] + v[1]*n[1] + v[2]*n[2]

	switch bf.CollisionMode {
	case CollisionKill:
		g.Mass[idx] = 0
		return
	case CollisionClamp:
		if vn < 0 {
			v[0] -= vn * n[0]
			v[1] -= vn * n[1]
			v[2] -= vn * n[2]
		}
	case CollisionWrap:
		// Wrap has no particle-level position teleport; the grid
		// pass only damps the inbound normal component, scaled by
		// wallStiffness, so momentum doesn't pile up at the seam.
		if vn < 0 {
			v[0] -= vn * n[0] * bf.WallStiffness
			v[1] -= vn * n[1] * bf.WallStiffness
			v[2] -= vn * n[2] * bf.WallStiffness
		}
	default: // CollisionReflect
		if vn < 0 {
			reflectScale := (1 + bf.Restitution) * bf.WallStiffness
			v[0] -= reflectScale * vn * n[0]
			v[1] -= reflectScale * vn * n[1]
			v[2] -= reflectScale * vn * n[2]
		}
	}

	// Tangential friction: damp the component orthogonal to n.
	vn2 := v[0]*n[0] + v[1]*n[1] + v[2]*n[2]
	tangent := [3]float32{v[0] - vn2*n[0], v[1] - vn2*n[1], v[2] - vn2*n[2]}
	frictionScale := 1 - bf.Friction
	v[0] = vn2*n[0] + tangent[0]*frictionScale
	v[1] = vn2*n[1] + tangent[1]*frictionScale
	v[2] = vn2*n[2] + tangent[2]*frictionScale

	g.VX[idx], g.VY[idx], g.VZ[idx] = v[0], v[1], v[2]
}

// applyVorticityConfinement augments grid velocity with a swirl force
// proportional to eps*(grad|omega|/|grad|omega||) x omega. omega =
// curl(v) is estimated via central differences on the grid.
func applyVorticityConfinement(g *GridBuffer, u Uniforms) {
	sx, sy, sz := g.Size.X, g.Size.Y, g.Size.Z
	omega := make([][3]float32, len(g.VX))
	mag := make([]float32, len(g.VX))

	vat := func(x, y, z int32) [3]float32 {
		if !g.InBounds(x, y, z) {
			return [3]float32{}
		}
		i := g.Index(x, y, z)
		return [3]float32{g.VX[i], g.VY[i], g.VZ[i]}
	}

	for z := int32(1); z < sz-1; z++ {
		for y := int32(1); y < sy-1; y++ {
			for x := int32(1); x < sx-1; x++ {
				idx := g.Index(x, y, z)
				if g.Mass[idx] <= 0 {
					continue
				}
				dVzDy := (vat(x, y+1, z)[2] - vat(x, y-1, z)[2]) * 0.5
				dVyDz := (vat(x, y, z+1)[1] - vat(x, y, z-1)[1]) * 0.5
				dVxDz := (vat(x, y, z+1)[0] - vat(x, y, z-1)[0]) * 0.5
				dVzDx := (vat(x+1, y, z)[2] - vat(x-1, y, z)[2]) * 0.5
				dVyDx := (vat(x+1, y, z)[1] - vat(x-1, y, z)[1]) * 0.5
				dVxDy := (vat(x, y+1, z)[0] - vat(x, y-1, z)[0]) * 0.5

				w := [3]float32{dVzDy - dVyDz, dVxDz - dVzDx, dVyDx - dVxDy}
				omega[idx] = w
				mag[idx] = sqrtf(w[0]*w[0] + w[1]*w[1] + w[2]*w[2])
			}
		}
	}

	magAt := func(x, y, z int32) float32 {
		if !g.InBounds(x, y, z) {
			return 0
		}
		return mag[g.Index(x, y, z)]
	}

	eps := u.VorticityEpsilon
	for z := int32(1); z < sz-1; z++ {
		for y := int32(1); y < sy-1; y++ {
			for x := int32(1); x < sx-1; x++ {
				idx := g.Index(x, y, z)
				if g.Mass[idx] <= 0 || mag[idx] == 0 {
					continue
				}
				grad := [3]float32{
					(magAt(x+1, y, z) - magAt(x-1, y, z)) * 0.5,
					(magAt(x, y+1, z) - magAt(x, y-1, z)) * 0.5,
					(magAt(x, y, z+1) - magAt(x, y, z-1)) * 0.5,
				}
				gl := sqrtf(grad[0]*grad[0] + grad[1]*grad[1] + grad[2]*grad[2])
				if gl < 1e-6 {
					continue
				}
				grad[0] /= gl
				grad[1] /= gl
				grad[2] /= gl

				w := omega[idx]
				force := cross3(grad, w)
				g.VX[idx] += eps * force[0] * u.DT
				g.VY[idx] += eps * force[1] * u.DT
				g.VZ[idx] += eps * force[2] * u.DT
			}
		}
	}
}

// applySurfaceTension adds a force proportional to kappa*grad(rho) at
// each cell, pulling mass toward local density maxima so thin sheets of
// fluid bead up instead of smearing out. rho is the grid mass field
// already produced by P2G (the same field p2g2 divides by restDensity
// for pressure), estimated via central differences like
// applyVorticityConfinement's gradient term.
func applySurfaceTension(g *GridBuffer, u Uniforms) {
	sx, sy, sz := g.Size.X, g.Size.Y, g.Size.Z
	kappa := u.SurfaceTensionCoeff

	rhoAt := func(x, y, z int32) float32 {
		if !g.InBounds(x, y, z) {
			return 0
		}
		return g.Mass[g.Index(x, y, z)]
	}

	for z := int32(1); z < sz-1; z++ {
		for y := int32(1); y < sy-1; y++ {
			for x := int32(1); x < sx-1; x++ {
				idx := g.Index(x, y, z)
				if g.Mass[idx] <= 0 {
					continue
				}
				grad := [3]float32{
					(rhoAt(x+1, y, z) - rhoAt(x-1, y, z)) * 0.5,
					(rhoAt(x, y+1, z) - rhoAt(x, y-1, z)) * 0.5,
					(rhoAt(x, y, z+1) - rhoAt(x, y, z-1)) * 0.5,
				}
				g.VX[idx] += kappa * grad[0] * u.DT
				g.VY[idx] += kappa * grad[1] * u.DT
				g.VZ[idx] += kappa * grad[2] * u.DT
			}
		}
	}
}

func cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// g2pContext carries the per-frame external inputs g2p needs beyond the
// uniform block: the active force fields, a noise generator for the
// curl perturbation, the simulation clock, and the boundary field.
type g2pContext struct {
	Fields   []ForceFieldSample
	Noise    *PerlinNoise
	Time     float32
	Boundary BoundaryField
}

// g2p is the grid-to-particle gather pass.
func g2p(pb *ParticleBuffer, g *GridBuffer, u Uniforms, ctx g2pContext) {
	gravity := u.Gravity
	for p := 0; p < pb.Live; p++ {
		var newVel [3]float32
		var B Mat3

		neighborLoop(g, pb.PosX[p], pb.PosY[p], pb.PosZ[p], func(idx int, w float32, cd [3]float32) {
			if idx < 0 {
				return
			}
			cv := [3]float32{g.VX[idx], g.VY[idx], g.VZ[idx]}
			newVel[0] += w * cv[0]
			newVel[1] += w * cv[1]
			newVel[2] += w * cv[2]
			wCv := [3]float32{w * cv[0], w * cv[1], w * cv[2]}
			B = B.Add(OuterProduct3(wCv, cd))
		})

		switch TransferMode(u.TransferMode) {
		case TransferPIC:
			// newVel already holds the gathered grid velocity.
		case TransferFLIP:
			// FLIP: particle velocity + grid velocity delta. On frame 1
			// PrevVX/Y/Z are zero, so the delta silently equals the new
			// grid velocity (documented open-question resolution).
			prevVel := gatherPrevVel(g, pb.PosX[p], pb.PosY[p], pb.PosZ[p])
			delta := [3]float32{newVel[0] - prevVel[0], newVel[1] - prevVel[1], newVel[2] - prevVel[2]}
			newVel = [3]float32{pb.VelX[p] + delta[0], pb.VelY[p] + delta[1], pb.VelZ[p] + delta[2]}
		default: // Hybrid
			prevVel := gatherPrevVel(g, pb.PosX[p], pb.PosY[p], pb.PosZ[p])
			delta := [3]float32{newVel[0] - prevVel[0], newVel[1] - prevVel[1], newVel[2] - prevVel[2]}
			flipVel := [3]float32{pb.VelX[p] + delta[0], pb.VelY[p] + delta[1], pb.VelZ[p] + delta[2]}
			newVel[0] = lerp(flipVel[0], newVel[0], u.FlipRatio)
			newVel[1] = lerp(flipVel[1], newVel[1], u.FlipRatio)
			newVel[2] = lerp(flipVel[2], newVel[2], u.FlipRatio)
		}

		newVel[0] += gravity[0] * u.DT
		newVel[1] += gravity[1] * u.DT
		newVel[2] += gravity[2] * u.DT

		if u.Noise != 0 && ctx.Noise != nil {
			n := ctx.Noise.TriNoise3D(float64(pb.PosX[p])*0.015, float64(ctx.Time), float64(pb.PosZ[p])*0.015, 0.11, float64(u.Noise))
			newVel[0] += float32(n[0])
			newVel[1] += float32(n[1])
			newVel[2] += float32(n[2])
		}

		pos := [3]float32{pb.PosX[p], pb.PosY[p], pb.PosZ[p]}
		for _, ff := range ctx.Fields {
			fv := sampleForceField(ff, pos, ctx.Time, ctx.Noise)
			newVel[0] += fv[0] * u.DT
			newVel[1] += fv[1] * u.DT
			newVel[2] += fv[2] * u.DT
		}

		mouseForce := applyMouseForce(&newVel, pos, u)

		newVel[0] *= pb.Mass[p]
		newVel[1] *= pb.Mass[p]
		newVel[2] *= pb.Mass[p]

		pb.C[p] = B.Scale(4)
		pb.VelX[p], pb.VelY[p], pb.VelZ[p] = newVel[0], newVel[1], newVel[2]

		newPos := [3]float32{
			clamp(pos[0]+newVel[0]*u.DT, 2, float32(g.Size.X)-2),
			clamp(pos[1]+newVel[1]*u.DT, 2, float32(g.Size.Y)-2),
			clamp(pos[2]+newVel[2]*u.DT, 2, float32(g.Size.Z)-2),
		}
		if isNaN3(newPos) {
			newPos = [3]float32{float32(g.Size.X) / 2, float32(g.Size.Y) / 2, float32(g.Size.Z) / 2}
		}

		if ctx.Boundary.Enabled {
			applySoftWallCorrection(&newVel, newPos, u, ctx.Boundary)
		}

		pb.PosX[p], pb.PosY[p], pb.PosZ[p] = newPos[0], newPos[1], newPos[2]

		pb.DirX[p] = lerp(pb.DirX[p], newVel[0], 0.1)
		pb.DirY[p] = lerp(pb.DirY[p], newVel[1], 0.1)
		pb.DirZ[p] = lerp(pb.DirZ[p], newVel[2], 0.1)

		speed := sqrtf(newVel[0]*newVel[0] + newVel[1]*newVel[1] + newVel[2]*newVel[2])
		h := pb.Density[p]/u.RestDensity*0.25 + ctx.Time*0.05
		s := clamp(speed*0.5, 0, 1)*0.3 + 0.7
		v := mouseForce*0.3 + 0.7
		pb.ColorR[p], pb.ColorG[p], pb.ColorB[p] = HSVToRGB(h, s, v)
	}
}

func gatherPrevVel(g *GridBuffer, x, y, z float32) [3]float32 {
	var out [3]float32
	neighborLoop(g, x, y, z, func(idx int, w float32, _ [3]float32) {
		if idx < 0 {
			return
		}
		out[0] += w * g.PrevVX[idx]
		out[1] += w * g.PrevVY[idx]
		out[2] += w * g.PrevVZ[idx]
	})
	return out
}

// SnapshotPrevVelocity copies the current real grid velocity into
// PrevVX/Y/Z for next frame's FLIP/Hybrid delta, called by Solver.Step
// after g2p.
func SnapshotPrevVelocity(g *GridBuffer) {
	copy(g.PrevVX, g.VX)
	copy(g.PrevVY, g.VY)
	copy(g.PrevVZ, g.VZ)
}

// SampleForceField exposes the kernel's own force-field evaluation for
// tooling (cmd/fieldpreview) so a preview always matches what the solver
// actually does with the same field at the same position.
func SampleForceField(ff ForceFieldSample, pos [3]float32, t float32, noiseGen *PerlinNoise) [3]float32 {
	return sampleForceField(ff, pos, t, noiseGen)
}

// sampleForceField evaluates one force field's contribution at pos.
func sampleForceField(ff ForceFieldSample, pos [3]float32, t float32, noiseGen *PerlinNoise) [3]float32 {
	d := [3]float32{ff.Position[0] - pos[0], ff.Position[1] - pos[1], ff.Position[2] - pos[2]}
	dist := sqrtf(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])

	falloff := func(r float32) float32 {
		if ff.Radius <= 0 {
			return 0
		}
		x := 1 - r/ff.Radius
		x = clamp(x, 0, 1)
		return x * x
	}

	switch ff.Kind {
	case ForceAttractor, ForceRepeller:
		sign := float32(1)
		if ff.Kind == ForceRepeller {
			sign = -1
		}
		denom := maxf(dist, 1e-4)
		fall := falloff(dist)
		return [3]float32{
			sign * ff.Strength * (d[0] / denom) * fall,
			sign * ff.Strength * (d[1] / denom) * fall,
			sign * ff.Strength * (d[2] / denom) * fall,
		}
	case ForceVortex:
		axis := ff.Axis
		axisLen := sqrtf(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
		if axisLen < 1e-6 {
			axis = [3]float32{0, 1, 0}
		} else {
			axis = [3]float32{axis[0] / axisLen, axis[1] / axisLen, axis[2] / axisLen}
		}
		radial := [3]float32{-d[0], -d[1], -d[2]}
		tangent := cross3(axis, radial)
		fall := falloff(dist)
		return [3]float32{
			ff.Strength * (tangent[0]*fall - radial[0]*fall*0.2),
			ff.Strength * (tangent[1]*fall - radial[1]*fall*0.2),
			ff.Strength * (tangent[2]*fall - radial[2]*fall*0.2),
		}
	case ForceTurbulence:
		if noiseGen == nil {
			return [3]float32{}
		}
		n := noiseGen.TriNoise3D(float64(pos[0])*float64(ff.Falloff), float64(t), float64(pos[2])*float64(ff.Falloff), 0.11, float64(ff.Strength))
		return [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
	case ForceDirectional:
		return [3]float32{ff.Axis[0] * ff.Strength, ff.Axis[1] * ff.Strength, ff.Axis[2] * ff.Strength}
	case ForceCurl:
		if noiseGen == nil {
			return [3]float32{}
		}
		c := noiseGen.CurlNoise3D(float64(pos[0])*float64(ff.Falloff), float64(pos[1])*float64(ff.Falloff), float64(pos[2])*float64(ff.Falloff))
		return [3]float32{float32(c[0]) * ff.Strength, float32(c[1]) * ff.Strength, float32(c[2]) * ff.Strength}
	default:
		return [3]float32{}
	}
}

// applyMouseForce applies the cylindrical-falloff mouse contribution
// and returns the scalar mouseForce magnitude used by the color
// computation.
func applyMouseForce(vel *[3]float32, pos [3]float32, u Uniforms) float32 {
	mag := sqrtf(u.MouseForce[0]*u.MouseForce[0] + u.MouseForce[1]*u.MouseForce[1] + u.MouseForce[2]*u.MouseForce[2])
	if mag == 0 {
		return 0
	}
	o := u.MouseRayOrigin
	d := u.MouseRayDirection
	dl := sqrtf(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	if dl < 1e-6 {
		return 0
	}
	dn := [3]float32{d[0] / dl, d[1] / dl, d[2] / dl}

	toP := [3]float32{pos[0] - o[0], pos[1] - o[1], pos[2] - o[2]}
	proj := toP[0]*dn[0] + toP[1]*dn[1] + toP[2]*dn[2]
	closest := [3]float32{o[0] + dn[0]*proj, o[1] + dn[1]*proj, o[2] + dn[2]*proj}
	radial := [3]float32{pos[0] - closest[0], pos[1] - closest[1], pos[2] - closest[2]}
	radialDist := sqrtf(radial[0]*radial[0] + radial[1]*radial[1] + radial[2]*radial[2])

	const falloffRadius = 8.0
	fall := clamp(1-radialDist/falloffRadius, 0, 1)
	vel[0] += u.MouseForce[0] * fall
	vel[1] += u.MouseForce[1] * fall
	vel[2] += u.MouseForce[2] * fall
	return mag * fall
}

// applySoftWallCorrection is G2P's final per-axis soft-wall correction
//: if the projected position x+3*v*dt exits [3,gridSize-3]
// on an axis, add wallStiffness*(wall-projected) to that velocity
// component.
func applySoftWallCorrection(vel *[3]float32, pos [3]float32, u Uniforms, bf BoundaryField) {
	grid := [3]float32{float32(u.GridSize[0]), float32(u.GridSize[1]), float32(u.GridSize[2])}
	for axis := 0; axis < 3; axis++ {
		projected := pos[axis] + 3*vel[axis]*u.DT
		lo, hi := float32(3), grid[axis]-3
		if projected < lo {
			vel[axis] += bf.WallStiffness * (lo - projected)
		} else if projected > hi {
			vel[axis] += bf.WallStiffness * (hi - projected)
		}
	}
}

func isNaN3(v [3]float32) bool {
	return math.IsNaN(float64(v[0])) || math.IsNaN(float64(v[1])) || math.IsNaN(float64(v[2]))
}
