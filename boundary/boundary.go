package boundary

// CollisionMode selects how a near-surface grid cell responds to a wall
//: reflect, clamp, wrap or kill.
type CollisionMode uint8

const (
	CollisionReflect CollisionMode = iota
	CollisionClamp
	CollisionWrap
	CollisionKill
)

func ParseCollisionMode(s string) CollisionMode {
	switch s {
	case "clamp":
		return CollisionClamp
	case "wrap":
		return CollisionWrap
	case "kill":
		return CollisionKill
	default:
		return CollisionReflect
	}
}

func (c CollisionMode) String() string {
	switch c {
	case CollisionClamp:
		return "clamp"
	case CollisionWrap:
		return "wrap"
	case CollisionKill:
		return "kill"
	default:
		return "reflect"
	}
}

// State is the boundary engine's mutable configuration: "shape tag, gridSize 3-vector, wallThickness,
// wallStiffness, restitution, friction, collisionMode, enabled flag,
// visible flag, cached simulation-space affine transform." It is mutated
// from the control surface (pipeline.Command) and read-only during a
// solver step — the pipeline snapshots it into a solver.BoundaryField
// once per frame (pipeline/convert.go) rather than handing the solver a
// pointer into this struct.
type State struct {
	Kind          ShapeKind
	GridSize      [3]float32
	Center        [3]float32
	Radius        float32
	HalfExtents   [3]float32
	Axis          [3]float32
	HalfHeight    float32
	WallThickness float32
	WallStiffness float32
	Restitution   float32
	Friction      float32
	CollisionMode CollisionMode
	Enabled       bool
	Visible       bool
}

// New returns a State centred in a grid of the given size, defaulting to
// a box shape filling 90% of the domain, deriving a sane default from
// the current extents rather than a fixed literal.
func New(gridSize [3]float32) *State {
	s := &State{
		Kind:          ShapeBox,
		GridSize:      gridSize,
		Center:        [3]float32{gridSize[0] / 2, gridSize[1] / 2, gridSize[2] / 2},
		HalfExtents:   [3]float32{gridSize[0] * 0.45, gridSize[1] * 0.45, gridSize[2] * 0.45},
		Radius:        minf(gridSize[0], minf(gridSize[1], gridSize[2])) * 0.45,
		Axis:          [3]float32{0, 1, 0},
		HalfHeight:    gridSize[1] * 0.45,
		WallThickness: 2,
		WallStiffness: 0.3,
		Restitution:   0.1,
		Friction:      0.1,
		CollisionMode: CollisionReflect,
		Enabled:       true,
		Visible:       false,
	}
	return s
}

// SetShape changes which analytic shape is active.
func (s *State) SetShape(kind ShapeKind) { s.Kind = kind }

// SetEnabled toggles whether the solver enforces this boundary at all.
func (s *State) SetEnabled(enabled bool) { s.Enabled = enabled }

// SetCollisionMode changes the near-surface response policy.
func (s *State) SetCollisionMode(mode CollisionMode) { s.CollisionMode = mode }

// SetWallStiffness sets wallStiffness, clamped to [0,1].
func (s *State) SetWallStiffness(v float32) { s.WallStiffness = clamp01(v) }

// SetRestitution sets restitution, clamped to [0,1].
func (s *State) SetRestitution(v float32) { s.Restitution = clamp01(v) }

// SetFriction sets friction, clamped to [0,1].
func (s *State) SetFriction(v float32) { s.Friction = clamp01(v) }

// Resize updates GridSize (and re-derives Center/HalfExtents/Radius
// proportionally) when the viewport aspect ratio changes.
func (s *State) Resize(gridSize [3]float32) {
	scaleX := gridSize[0] / s.GridSize[0]
	scaleY := gridSize[1] / s.GridSize[1]
	scaleZ := gridSize[2] / s.GridSize[2]
	s.GridSize = gridSize
	s.Center = [3]float32{s.Center[0] * scaleX, s.Center[1] * scaleY, s.Center[2] * scaleZ}
	s.HalfExtents = [3]float32{s.HalfExtents[0] * scaleX, s.HalfExtents[1] * scaleY, s.HalfExtents[2] * scaleZ}
	s.Radius *= (scaleX + scaleY + scaleZ) / 3
	s.HalfHeight *= scaleY
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Shape builds the analytic Shape for the current Kind and parameters.
// Called once per frame by the pipeline; cheap enough that caching isn't
// worth the invalidation bookkeeping.
func (s *State) Shape() Shape {
	switch s.Kind {
	case ShapeSphere:
		return SphereShape{Center: s.Center, Radius: s.Radius}
	case ShapeTube:
		return TubeShape{Center: s.Center, Axis: s.Axis, Radius: s.Radius, HalfHeight: s.HalfHeight}
	case ShapeDodecahedron:
		return DodecahedronShape{Center: s.Center, Radius: s.Radius}
	case ShapeNone:
		return NoneShape{GridSize: s.GridSize}
	default:
		return BoxShape{Center: s.Center, HalfExtents: s.HalfExtents}
	}
}
