package pipeline

import (
	"github.com/pthm-cable/fluidmpm/boundary"
	"github.com/pthm-cable/fluidmpm/solver"
)

// collisionModeToSolver translates boundary.CollisionMode to its
// solver-local equivalent. The two packages intentionally don't import
// each other (solver has no back-pointer into boundary); this is the one
// place that bridges them, once per frame.
func collisionModeToSolver(m boundary.CollisionMode) solver.CollisionMode {
	switch m {
	case boundary.CollisionClamp:
		return solver.CollisionClamp
	case boundary.CollisionWrap:
		return solver.CollisionWrap
	case boundary.CollisionKill:
		return solver.CollisionKill
	default:
		return solver.CollisionReflect
	}
}

// boundaryFieldFrom snapshots a boundary.State into the solver's
// BoundaryField callback struct for one frame's Step call.
func boundaryFieldFrom(state *boundary.State) solver.BoundaryField {
	shape := state.Shape()
	return solver.BoundaryField{
		Enabled:       state.Enabled,
		Distance:      shape.Distance,
		Normal:        shape.Normal,
		WallStiffness: state.WallStiffness,
		Restitution:   state.Restitution,
		Friction:      state.Friction,
		CollisionMode: collisionModeToSolver(state.CollisionMode),
	}
}
