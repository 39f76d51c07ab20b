// Package solver implements the MLS-MPM particle/grid storage and the
// five-pass compute pipeline: clearGrid, P2G-1, P2G-2, updateGrid, G2P.
package solver

import "math/rand"

// Material tags the constitutive model a particle uses during P2G-2.
type Material uint8

// Material tags. The reference backend treats all particles as Fluid;
// other tags are accepted and stored but fall back to the fluid stress
// model until a material-specific kernel claims them.
const (
	MaterialFluid Material = iota
	MaterialElastic
	MaterialSand
	MaterialSnow
	MaterialFoam
	MaterialViscous
	MaterialRigid
	MaterialPlasma
)

// TransferMode selects the P2G/G2P velocity transfer policy.
type TransferMode uint8

const (
	TransferPIC TransferMode = iota
	TransferFLIP
	TransferHybrid
)

func ParseTransferMode(s string) TransferMode {
	switch s {
	case "flip":
		return TransferFLIP
	case "hybrid":
		return TransferHybrid
	default:
		return TransferPIC
	}
}

// GravityMode selects how the G2P pass derives the gravity vector.
type GravityMode uint8

const (
	GravityDown GravityMode = iota
	GravityBack
	GravityCentre
	GravityDevice
)

func ParseGravityMode(s string) GravityMode {
	switch s {
	case "back":
		return GravityBack
	case "centre", "center":
		return GravityCentre
	case "device":
		return GravityDevice
	default:
		return GravityDown
	}
}

// GridSize is the per-axis cell count of the Eulerian grid.
type GridSize struct {
	X, Y, Z int32
}

// Count returns the total number of cells.
func (g GridSize) Count() int {
	return int(g.X) * int(g.Y) * int(g.Z)
}

// ComputeGridSize recomputes gridSize from the current viewport aspect
// ratio: gridSize = (base*max(1,aspect), base*max(1,1/aspect), base).
func ComputeGridSize(base int32, aspect float32) GridSize {
	ax := aspect
	if ax < 1 {
		ax = 1
	}
	ay := float32(1)
	if aspect < 1 {
		ay = 1 / aspect
	}
	return GridSize{
		X: int32(float32(base) * ax),
		Y: int32(float32(base) * ay),
		Z: base,
	}
}

// Mat3 is a row-major 3x3 matrix, used for the APIC affine velocity field C
// and the Cauchy stress tensor sigma.
type Mat3 [9]float32

func (m Mat3) At(r, c int) float32 { return m[r*3+c] }

func (m *Mat3) Set(r, c int, v float32) { m[r*3+c] = v }

// MulVec3 returns m*v.
func (m Mat3) MulVec3(v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Add returns m+o.
func (m Mat3) Add(o Mat3) Mat3 {
	var r Mat3
	for i := range m {
		r[i] = m[i] + o[i]
	}
	return r
}

// Scale returns m*s.
func (m Mat3) Scale(s float32) Mat3 {
	var r Mat3
	for i := range m {
		r[i] = m[i] * s
	}
	return r
}

// Identity3 returns a 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// OuterProduct3 returns a outer b (a column vector times b row vector).
func OuterProduct3(a, b [3]float32) Mat3 {
	var m Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = a[r] * b[c]
		}
	}
	return m
}

// ParticleBuffer is the structure-of-arrays particle store. Every field
// is its own slice sized to Capacity so the same bytes can be handed to
// a compute backend (GPU SSBO) without an intermediate
// struct-of-structs copy.
type ParticleBuffer struct {
	Capacity int
	Live     int // numParticles <= Capacity

	PosX, PosY, PosZ []float32
	VelX, VelY, VelZ []float32
	C                []Mat3 // APIC affine velocity matrix, one per particle
	Mass             []float32
	Density          []float32
	DirX, DirY, DirZ []float32 // low-pass filtered velocity, for render orientation
	ColorR, ColorG, ColorB []float32
	MaterialTag      []Material
}

// NewParticleBuffer allocates a buffer with the given capacity.
func NewParticleBuffer(capacity int) *ParticleBuffer {
	return &ParticleBuffer{
		Capacity: capacity,
		PosX:     make([]float32, capacity),
		PosY:     make([]float32, capacity),
		PosZ:     make([]float32, capacity),
		VelX:     make([]float32, capacity),
		VelY:     make([]float32, capacity),
		VelZ:     make([]float32, capacity),
		C:        make([]Mat3, capacity),
		Mass:     make([]float32, capacity),
		Density:  make([]float32, capacity),
		DirX:     make([]float32, capacity),
		DirY:     make([]float32, capacity),
		DirZ:     make([]float32, capacity),
		ColorR:   make([]float32, capacity),
		ColorG:   make([]float32, capacity),
		ColorB:   make([]float32, capacity),
		MaterialTag: make([]Material, capacity),
	}
}

// InitBall rejection-samples the unit sphere and remaps particles into
// [0.1, 0.9]*gridSize, guaranteeing a roughly uniform ball. Mass is
// 1-U(0,0.002) so otherwise-symmetric particles take slightly different
// trajectories.
func (pb *ParticleBuffer) InitBall(n int, grid GridSize, rng *rand.Rand) {
	if n > pb.Capacity {
		n = pb.Capacity
	}
	pb.Live = n
	gx, gy, gz := float32(grid.X), float32(grid.Y), float32(grid.Z)
	for i := 0; i < n; i++ {
		var x, y, z float32
		for {
			x = rng.Float32()*2 - 1
			y = rng.Float32()*2 - 1
			z = rng.Float32()*2 - 1
			if x*x+y*y+z*z <= 1 {
				break
			}
		}
		pb.PosX[i] = (0.1 + 0.8*(x*0.5+0.5)) * gx
		pb.PosY[i] = (0.1 + 0.8*(y*0.5+0.5)) * gy
		pb.PosZ[i] = (0.1 + 0.8*(z*0.5+0.5)) * gz
		pb.VelX[i], pb.VelY[i], pb.VelZ[i] = 0, 0, 0
		pb.C[i] = Mat3{}
		pb.Mass[i] = 1 - rng.Float32()*0.002
		pb.Density[i] = 1
		pb.MaterialTag[i] = MaterialFluid
		pb.ColorR[i], pb.ColorG[i], pb.ColorB[i] = 0.4, 0.6, 1.0
	}
}

// TotalMass sums Mass over the live particle range. Used by the mass
// conservation test.
func (pb *ParticleBuffer) TotalMass() float64 {
	var sum float64
	for i := 0; i < pb.Live; i++ {
		sum += float64(pb.Mass[i])
	}
	return sum
}

// GridBuffer is the dense Eulerian grid, held as two views of each cell
// in separate slices. During P2G the cells are accumulated as
// fixed-point integers via atomic add; updateGrid decodes them into the
// real-valued (vx,vy,vz,mass) slices. solver.go runs the passes one
// after another, so no pass reads a view another pass is still writing.
type GridBuffer struct {
	Size GridSize

	// Fixed-point atomic accumulators, zeroed by clearGrid, written during
	// P2G, and decoded by updateGrid.
	IntVX, IntVY, IntVZ, IntMass []int64

	// Real-valued view written by updateGrid, consumed by G2P. Aliases
	// the same semantic cell as the Int* slices above, one array per
	// component rather than a literal unsafe cast, since Go has no
	// portable int32/float32 union without `unsafe` games that would
	// defeat the race detector.
	VX, VY, VZ, Mass []float32

	// PrevVX/PrevVY/PrevVZ hold the previous frame's decoded grid
	// velocity, read by G2P when TransferMode is FLIP or Hybrid. Zero on
	// frame 1 — see DESIGN.md's "FLIP with no previous grid velocity"
	// open-question resolution.
	PrevVX, PrevVY, PrevVZ []float32
}

// NewGridBuffer allocates grid storage for the given size.
func NewGridBuffer(size GridSize) *GridBuffer {
	n := size.Count()
	return &GridBuffer{
		Size:   size,
		IntVX:  make([]int64, n),
		IntVY:  make([]int64, n),
		IntVZ:  make([]int64, n),
		IntMass: make([]int64, n),
		VX:     make([]float32, n),
		VY:     make([]float32, n),
		VZ:     make([]float32, n),
		Mass:   make([]float32, n),
		PrevVX: make([]float32, n),
		PrevVY: make([]float32, n),
		PrevVZ: make([]float32, n),
	}
}

// Index converts a 3D cell coordinate to its row-major linear index.
func (g *GridBuffer) Index(x, y, z int32) int {
	return int(z)*int(g.Size.X)*int(g.Size.Y) + int(y)*int(g.Size.X) + int(x)
}

// InBounds reports whether (x,y,z) is a valid cell coordinate.
func (g *GridBuffer) InBounds(x, y, z int32) bool {
	return x >= 0 && x < g.Size.X && y >= 0 && y < g.Size.Y && z >= 0 && z < g.Size.Z
}

// Uniforms is the solver uniform block read by the CPU kernel passes in
// kernels.go, the only dispatch backend.
type Uniforms struct {
	NumParticles uint32
	GridSize     [3]int32
	DT           float32
	Stiffness    float32
	RestDensity  float32
	DynamicViscosity float32
	Noise        float32
	GravityMode  uint32
	Gravity      [3]float32
	MouseRayOrigin    [3]float32
	MouseRayDirection [3]float32
	MouseForce        [3]float32
	TransferMode      uint32
	FlipRatio         float32
	VorticityEnabled  uint32
	VorticityEpsilon  float32
	SurfaceTensionEnabled uint32
	SurfaceTensionCoeff   float32
	SparseGrid       uint32
	AdaptiveTimestep uint32
	CFLTarget        float32
}
