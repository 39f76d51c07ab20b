package pipeline

// applyCommands drains the command queue and applies each mutation to
// the pipeline's subsystems, once per frame before the solver runs.
func (p *Pipeline) applyCommands() {
	for _, c := range p.Commands.Drain() {
		switch c.Kind {
		case CmdSetBoundaryShape:
			p.Boundary.SetShape(c.BoundaryShape)
			p.Bookmarks.RecordBoundaryShapeSwitch(p.frame, c.BoundaryShape.String())
		case CmdSetBoundaryEnabled:
			p.Boundary.SetEnabled(c.BoundaryEnabled)
		case CmdSetCollisionMode:
			p.Boundary.SetCollisionMode(c.CollisionMode)
		case CmdSetTransferMode:
			p.transferMode = c.TransferMode
		case CmdSetGravityMode:
			p.gravityMode = c.GravityMode
		case CmdAddForceField:
			p.Fields.Add(c.ForceField)
		case CmdRemoveForceField:
			p.Fields.Remove(c.ForceFieldHandle)
		case CmdAddEmitter:
			p.Emitters.Add(c.Emitter)
		case CmdRemoveEmitter:
			p.Emitters.Remove(c.EmitterHandle)
		case CmdSetRunning:
			p.running = c.Running
		case CmdResize:
			p.resize(c.ResizeWidth, c.ResizeHeight)
		}
	}
}
