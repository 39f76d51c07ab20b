package solver

import (
	"context"
	"fmt"
	"math/rand"
)

// Options configures a new Solver.
type Options struct {
	Capacity         int
	InitialParticles int
	GridSize         GridSize
	FixedPointScale  float32
	Seed             int64
}

// Solver owns the particle and grid storage and runs the five-pass MPM
// step. It has no knowledge of rendering, audio, or
// configuration file formats; those live in pipeline, audio and config.
type Solver struct {
	Particles *ParticleBuffer
	Grid      *GridBuffer
	scale     float32
	noise     *PerlinNoise
	rng       *rand.Rand
	spawn     []SpawnRequest
	recycle   int // next slot inject overwrites once the buffer is full
}

// New allocates particle and grid storage and seeds the initial ball of
// particles.
func New(opts Options) *Solver {
	if opts.FixedPointScale == 0 {
		opts.FixedPointScale = FixedPointScale
	}
	s := &Solver{
		Particles: NewParticleBuffer(opts.Capacity),
		Grid:      NewGridBuffer(opts.GridSize),
		scale:     opts.FixedPointScale,
		noise:     NewPerlinNoise(opts.Seed),
		rng:       rand.New(rand.NewSource(opts.Seed)),
	}
	s.Particles.InitBall(opts.InitialParticles, opts.GridSize, s.rng)
	return s
}

// Enqueue queues a particle injection to be applied at the start of the
// next Step, implementing real emitter-driven particle injection
// (DESIGN.md's resolution of the emitter Open Question).
func (s *Solver) Enqueue(req SpawnRequest) {
	s.spawn = append(s.spawn, req)
}

// inject drains the spawn queue into the particle buffer, overwriting
// the oldest live slot once Capacity is reached: slots are recycled in
// index order, continuing across calls, so the particle overwritten is
// always the one written longest ago.
func (s *Solver) inject() {
	if len(s.spawn) == 0 {
		return
	}
	pb := s.Particles
	for _, req := range s.spawn {
		idx := s.recycle
		if pb.Live < pb.Capacity {
			idx = pb.Live
			pb.Live++
		} else {
			s.recycle = (s.recycle + 1) % pb.Capacity
		}
		pb.PosX[idx], pb.PosY[idx], pb.PosZ[idx] = req.PosX, req.PosY, req.PosZ
		pb.VelX[idx], pb.VelY[idx], pb.VelZ[idx] = req.VelX, req.VelY, req.VelZ
		pb.C[idx] = Mat3{}
		pb.Mass[idx] = req.Mass
		pb.Density[idx] = 1
		pb.MaterialTag[idx] = req.Material
	}
	s.spawn = s.spawn[:0]
}

// StepInput carries everything a frame contributes beyond the uniform
// block: active force fields, the boundary's distance/normal callbacks,
// and the simulation clock (for noise and turbulent fields).
type StepInput struct {
	Uniforms Uniforms
	Boundary BoundaryField
	Fields   []ForceFieldSample
	Time     float32
}

// Step runs clearGrid, P2G-1, P2G-2, updateGrid and G2P in that order.
// Each pass is a full barrier: no pass reads a cell this
// frame's later pass hasn't produced yet. ctx is checked between passes so
// a caller running Step in a cancellable frame loop can bail out cleanly;
// MPM itself has no async I/O to cancel mid-pass.
func (s *Solver) Step(ctx context.Context, in StepInput) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("solver: step cancelled before clearGrid: %w", err)
	}
	s.inject()
	in.Uniforms.NumParticles = uint32(s.Particles.Live)

	if in.Uniforms.AdaptiveTimestep != 0 {
		in.Uniforms.DT = cflClamp(s.Particles, in.Uniforms.DT, in.Uniforms.CFLTarget)
	}

	clearGrid(s.Grid)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("solver: step cancelled after clearGrid: %w", err)
	}

	p2g1(s.Particles, s.Grid, s.scale)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("solver: step cancelled after p2g1: %w", err)
	}

	p2g2(s.Particles, s.Grid, in.Uniforms.DT, in.Uniforms.Stiffness, in.Uniforms.RestDensity, in.Uniforms.DynamicViscosity, s.scale)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("solver: step cancelled after p2g2: %w", err)
	}

	updateGrid(s.Grid, in.Uniforms, in.Boundary, s.noise, s.scale)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("solver: step cancelled after updateGrid: %w", err)
	}

	g2p(s.Particles, s.Grid, in.Uniforms, g2pContext{
		Fields:   in.Fields,
		Noise:    s.noise,
		Time:     in.Time,
		Boundary: in.Boundary,
	})
	SnapshotPrevVelocity(s.Grid)
	return nil
}

// Resize reallocates the grid to a new size, called when the viewport
// aspect ratio changes. Particles outside the new bounds
// are clamped in the following G2P pass; no particle data is touched here.
func (s *Solver) Resize(size GridSize) {
	s.Grid = NewGridBuffer(size)
}

// cflClamp scales dt down so that max(|v|)*dt <= cflTarget, using last
// frame's particle velocities as the estimate for this frame's motion.
// dt is only ever shrunk, never grown past the caller's requested value.
func cflClamp(pb *ParticleBuffer, dt, cflTarget float32) float32 {
	if cflTarget <= 0 {
		return dt
	}
	var maxSpeedSq float32
	for p := 0; p < pb.Live; p++ {
		speedSq := pb.VelX[p]*pb.VelX[p] + pb.VelY[p]*pb.VelY[p] + pb.VelZ[p]*pb.VelZ[p]
		if speedSq > maxSpeedSq {
			maxSpeedSq = speedSq
		}
	}
	if maxSpeedSq <= 1e-12 {
		return dt
	}
	maxSpeed := sqrtf(maxSpeedSq)
	limit := cflTarget / maxSpeed
	if limit < dt {
		return limit
	}
	return dt
}
