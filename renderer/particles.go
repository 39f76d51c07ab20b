package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluidmpm/solver"
)

// MeshVariant draws each live particle as a shaded sphere. This is the
// "mesh" tier (perf.HintMesh): the most detailed and most expensive,
// selected only while the adaptive controller reports the high tier.
type MeshVariant struct {
	count int
	size  float32
}

func NewMeshVariant() *MeshVariant { return &MeshVariant{size: 1} }

func (v *MeshVariant) Update(count int, size float32) { v.count, v.size = count, size }

func (v *MeshVariant) Draw(pb *solver.ParticleBuffer) {
	n := v.count
	if n > pb.Live {
		n = pb.Live
	}
	for i := 0; i < n; i++ {
		pos := rl.NewVector3(pb.PosX[i], pb.PosY[i], pb.PosZ[i])
		color := rl.NewColor(
			uint8(clamp01(pb.ColorR[i])*255),
			uint8(clamp01(pb.ColorG[i])*255),
			uint8(clamp01(pb.ColorB[i])*255),
			255,
		)
		rl.DrawSphere(pos, v.size, color)
	}
}

func (v *MeshVariant) Dispose() {}

// SpriteVariant draws each particle as a camera-facing circle, grounded
// on the billboard-style rl.DrawCircle3D usage in the retrieved "hand of
// god" example. Cheaper than a full sphere mesh; the medium tier's
// preferred variant.
type SpriteVariant struct {
	count int
	size  float32
	cam   rl.Camera3D
}

func NewSpriteVariant() *SpriteVariant { return &SpriteVariant{size: 1} }

func (v *SpriteVariant) Update(count int, size float32) { v.count, v.size = count, size }

// SetCamera supplies the camera whose forward vector the billboard
// circles face, since Variant.Draw's signature carries no camera.
func (v *SpriteVariant) SetCamera(cam rl.Camera3D) { v.cam = cam }

func (v *SpriteVariant) Draw(pb *solver.ParticleBuffer) {
	n := v.count
	if n > pb.Live {
		n = pb.Live
	}
	forward := rl.Vector3Normalize(rl.Vector3Subtract(v.cam.Target, v.cam.Position))
	for i := 0; i < n; i++ {
		pos := rl.NewVector3(pb.PosX[i], pb.PosY[i], pb.PosZ[i])
		color := rl.NewColor(
			uint8(clamp01(pb.ColorR[i])*255),
			uint8(clamp01(pb.ColorG[i])*255),
			uint8(clamp01(pb.ColorB[i])*255),
			220,
		)
		rl.DrawCircle3D(pos, v.size, forward, 0, color)
	}
}

func (v *SpriteVariant) Dispose() {}

// PointVariant draws each particle as a single GPU point, the cheapest
// tier and the low-tier default.
type PointVariant struct {
	count int
	size  float32 // unused; points have no radius in raylib, kept for the shared Update signature
}

func NewPointVariant() *PointVariant { return &PointVariant{} }

func (v *PointVariant) Update(count int, size float32) { v.count, v.size = count, size }

func (v *PointVariant) Draw(pb *solver.ParticleBuffer) {
	n := v.count
	if n > pb.Live {
		n = pb.Live
	}
	for i := 0; i < n; i++ {
		pos := rl.NewVector3(pb.PosX[i], pb.PosY[i], pb.PosZ[i])
		color := rl.NewColor(
			uint8(clamp01(pb.ColorR[i])*255),
			uint8(clamp01(pb.ColorG[i])*255),
			uint8(clamp01(pb.ColorB[i])*255),
			255,
		)
		rl.DrawPoint3D(pos, color)
	}
}

func (v *PointVariant) Dispose() {}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
