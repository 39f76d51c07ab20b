package pipeline

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MouseState tracks the simulation-space hit-plane intersection across
// frames. The ray origin and direction are supplied in simulation space
// (origin multiplied by gridScale and offset by gridOffset from the
// world hit-plane intersection); Force is the inter-frame displacement
// of that intersection averaged over the last three samples and then
// divided once more by the number of displacements averaged. Grounded
// on the raycast-to-Z=0-plane pattern used for "hand of god" mouse
// interaction in the retrieved example pack.
type MouseState struct {
	history   [3]rl.Vector3
	count     int
	active    bool
	RayOrigin [3]float32
	RayDir    [3]float32
	Force     [3]float32
}

// gridScale and gridOffset implement the simulation-space remap: the
// world hit point is multiplied by 64 and offset by (32,0,0).
const gridScale = 64

var gridOffset = rl.NewVector3(32, 0, 0)

// Update casts a ray from the current mouse position through cam,
// intersects the world Z=0 plane, and updates RayOrigin/RayDir/Force in
// simulation space. pressed indicates whether a mouse button that should
// exert force is currently held.
func (m *MouseState) Update(cam rl.Camera3D, mousePos rl.Vector2, pressed bool) {
	ray := rl.GetMouseRay(mousePos, cam)

	simOrigin := rl.Vector3Add(rl.Vector3Scale(ray.Position, gridScale), gridOffset)
	m.RayOrigin = [3]float32{simOrigin.X, simOrigin.Y, simOrigin.Z}
	m.RayDir = [3]float32{ray.Direction.X, ray.Direction.Y, ray.Direction.Z}

	if ray.Direction.Z == 0 {
		m.active = false
		m.Force = [3]float32{}
		return
	}
	t := -ray.Position.Z / ray.Direction.Z
	if t <= 0 || !pressed {
		m.active = false
		m.Force = [3]float32{}
		return
	}

	hit := rl.NewVector3(
		ray.Position.X+t*ray.Direction.X,
		ray.Position.Y+t*ray.Direction.Y,
		0,
	)
	simHit := rl.Vector3Add(rl.Vector3Scale(hit, gridScale), gridOffset)

	m.history[2] = m.history[1]
	m.history[1] = m.history[0]
	m.history[0] = simHit
	if m.count < 3 {
		m.count++
	}
	m.active = true

	if m.count < 2 {
		m.Force = [3]float32{}
		return
	}
	var sum rl.Vector3
	samples := m.count - 1
	for i := 0; i < samples; i++ {
		d := rl.Vector3Subtract(m.history[i], m.history[i+1])
		sum = rl.Vector3Add(sum, d)
	}
	avg := rl.Vector3Scale(sum, 1/float32(samples))
	m.Force = [3]float32{avg.X / float32(samples), avg.Y / float32(samples), avg.Z / float32(samples)}
}

// Active reports whether the last Update produced a valid plane hit
// while the interaction button was held.
func (m *MouseState) Active() bool { return m.active }
