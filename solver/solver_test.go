package solver

import (
	"context"
	"math"
	"testing"
)

func testUniforms(grid GridSize) Uniforms {
	return Uniforms{
		GridSize:     [3]int32{grid.X, grid.Y, grid.Z},
		DT:           1.0 / 60,
		Stiffness:    3,
		RestDensity:  4,
		DynamicViscosity: 0.1,
		Gravity:      [3]float32{0, -9.8, 0},
		TransferMode: uint32(TransferPIC),
		CFLTarget:    1,
	}
}

func newTestSolver(t *testing.T) *Solver {
	t.Helper()
	grid := GridSize{X: 16, Y: 16, Z: 16}
	return New(Options{
		Capacity:         512,
		InitialParticles: 256,
		GridSize:         grid,
		Seed:             1,
	})
}

// Mass is conserved across steps: no pass creates or destroys particles
// outside of explicit Enqueue/inject.
func TestStepConservesMass(t *testing.T) {
	s := newTestSolver(t)
	before := s.Particles.TotalMass()

	in := StepInput{Uniforms: testUniforms(s.Grid.Size)}
	for i := 0; i < 5; i++ {
		if err := s.Step(context.Background(), in); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	after := s.Particles.TotalMass()
	if math.Abs(before-after) > 1e-6 {
		t.Fatalf("mass not conserved: before=%v after=%v", before, after)
	}
}

// Particles never leave [2, gridSize-2] on any axis: g2p clamps position
// every frame.
func TestStepKeepsParticlesInBounds(t *testing.T) {
	s := newTestSolver(t)
	in := StepInput{Uniforms: testUniforms(s.Grid.Size)}

	for i := 0; i < 30; i++ {
		if err := s.Step(context.Background(), in); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	pb := s.Particles
	for i := 0; i < pb.Live; i++ {
		if pb.PosX[i] < 2 || pb.PosX[i] > float32(s.Grid.Size.X)-2 {
			t.Fatalf("particle %d escaped on X: %v", i, pb.PosX[i])
		}
		if pb.PosY[i] < 2 || pb.PosY[i] > float32(s.Grid.Size.Y)-2 {
			t.Fatalf("particle %d escaped on Y: %v", i, pb.PosY[i])
		}
		if pb.PosZ[i] < 2 || pb.PosZ[i] > float32(s.Grid.Size.Z)-2 {
			t.Fatalf("particle %d escaped on Z: %v", i, pb.PosZ[i])
		}
	}
}

// EncodeFixed/DecodeFixed round-trip within one ULP-ish tolerance of the
// scale.
func TestFixedPointRoundTrip(t *testing.T) {
	const scale = FixedPointScale
	cases := []float32{0, 1, -1, 0.333333, -123.456, 1000}
	for _, v := range cases {
		enc := EncodeFixed(v, scale)
		dec := DecodeFixed(enc, scale)
		if math.Abs(float64(dec-v)) > 1e-5 {
			t.Errorf("round trip mismatch for %v: got %v", v, dec)
		}
	}
}

// The three quadratic B-spline weights always sum to 1.
func TestQuadWeightsSumToOne(t *testing.T) {
	for d := float32(-0.5); d <= 0.5; d += 0.05 {
		w := quadWeights(d)
		sum := w[0] + w[1] + w[2]
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Errorf("weights for d=%v sum to %v, want 1", d, sum)
		}
	}
}

// clearGrid is idempotent: running it twice in a row is identical to
// running it once.
func TestClearGridIdempotent(t *testing.T) {
	g := NewGridBuffer(GridSize{X: 4, Y: 4, Z: 4})
	for i := range g.IntMass {
		g.IntMass[i] = 7
		g.Mass[i] = 7
	}
	clearGrid(g)
	snapshot := append([]int64(nil), g.IntMass...)
	clearGrid(g)
	for i := range g.IntMass {
		if g.IntMass[i] != snapshot[i] || g.IntMass[i] != 0 {
			t.Fatalf("clearGrid not idempotent at cell %d", i)
		}
	}
}

// A still fluid ball under zero gravity and zero noise should not gain
// energy: total kinetic energy stays bounded rather than blowing up.
func TestStillFluidStaysBounded(t *testing.T) {
	s := newTestSolver(t)
	in := testUniforms(s.Grid.Size)
	in.Gravity = [3]float32{0, 0, 0}
	step := StepInput{Uniforms: in}

	for i := 0; i < 20; i++ {
		if err := s.Step(context.Background(), step); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	pb := s.Particles
	var ke float64
	for i := 0; i < pb.Live; i++ {
		v := float64(pb.VelX[i]*pb.VelX[i] + pb.VelY[i]*pb.VelY[i] + pb.VelZ[i]*pb.VelZ[i])
		ke += v
	}
	if ke > 1e4 {
		t.Fatalf("kinetic energy exploded under zero gravity: %v", ke)
	}
}

// A sudden large mouse force injected for one frame (modelling a beat
// impulse routed through modulation) should perturb particle velocity
// without producing NaNs.
func TestBeatImpulseDoesNotProduceNaN(t *testing.T) {
	s := newTestSolver(t)
	in := testUniforms(s.Grid.Size)
	in.MouseForce = [3]float32{50, 0, 0}
	in.MouseRayOrigin = [3]float32{8, 8, 8}
	in.MouseRayDirection = [3]float32{0, 0, 1}
	step := StepInput{Uniforms: in}

	if err := s.Step(context.Background(), step); err != nil {
		t.Fatalf("Step: %v", err)
	}

	pb := s.Particles
	for i := 0; i < pb.Live; i++ {
		if math.IsNaN(float64(pb.VelX[i])) || math.IsNaN(float64(pb.VelY[i])) || math.IsNaN(float64(pb.VelZ[i])) {
			t.Fatalf("particle %d has NaN velocity after beat impulse", i)
		}
	}
}

// Switching collision mode mid-run (modelling a boundary-switch scenario
// driven by groove/structure detection) must not panic or corrupt state.
func TestBoundarySwitchScenario(t *testing.T) {
	s := newTestSolver(t)
	in := testUniforms(s.Grid.Size)

	box := BoundaryField{
		Enabled: true,
		Distance: func(p [3]float32) float32 {
			return minf(minf(p[0], float32(s.Grid.Size.X)-p[0]), minf(p[1], float32(s.Grid.Size.Y)-p[1]))
		},
		Normal:        func(p [3]float32) [3]float32 { return [3]float32{0, 1, 0} },
		WallStiffness: 0.5,
		Restitution:   0.3,
		CollisionMode: CollisionReflect,
	}

	if err := s.Step(context.Background(), StepInput{Uniforms: in, Boundary: box}); err != nil {
		t.Fatalf("Step with reflect: %v", err)
	}

	box.CollisionMode = CollisionClamp
	if err := s.Step(context.Background(), StepInput{Uniforms: in, Boundary: box}); err != nil {
		t.Fatalf("Step with clamp: %v", err)
	}

	box.CollisionMode = CollisionKill
	if err := s.Step(context.Background(), StepInput{Uniforms: in, Boundary: box}); err != nil {
		t.Fatalf("Step with kill: %v", err)
	}
}

// Step honours context cancellation rather than running to completion.
func TestStepRespectsCancellation(t *testing.T) {
	s := newTestSolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Step(ctx, StepInput{Uniforms: testUniforms(s.Grid.Size)}); err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
}

// Real particle injection: Enqueue grows the live particle count up to
// capacity, then recycles the oldest slot.
func TestEnqueueInjectsParticles(t *testing.T) {
	s := New(Options{Capacity: 4, InitialParticles: 2, GridSize: GridSize{X: 8, Y: 8, Z: 8}, Seed: 2})
	s.Enqueue(SpawnRequest{PosX: 4, PosY: 4, PosZ: 4, Mass: 1, Material: MaterialFluid})
	s.Enqueue(SpawnRequest{PosX: 5, PosY: 5, PosZ: 5, Mass: 1, Material: MaterialFluid})

	if err := s.Step(context.Background(), StepInput{Uniforms: testUniforms(s.Grid.Size)}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Particles.Live != 4 {
		t.Fatalf("expected 4 live particles after injection, got %d", s.Particles.Live)
	}

	s.Enqueue(SpawnRequest{PosX: 6, PosY: 6, PosZ: 6, Mass: 1, Material: MaterialSand})
	if err := s.Step(context.Background(), StepInput{Uniforms: testUniforms(s.Grid.Size)}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.Particles.Live != 4 {
		t.Fatalf("expected live count to stay at capacity 4, got %d", s.Particles.Live)
	}
}
