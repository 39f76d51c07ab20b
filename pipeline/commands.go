package pipeline

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fluidmpm/boundary"
	"github.com/pthm-cable/fluidmpm/fields"
	"github.com/pthm-cable/fluidmpm/solver"
)

// CommandKind tags which field of Command is populated, making Command a
// closed sum type over every mutation the pipeline accepts.
type CommandKind uint8

const (
	CmdSetBoundaryShape CommandKind = iota
	CmdSetBoundaryEnabled
	CmdSetCollisionMode
	CmdSetTransferMode
	CmdSetGravityMode
	CmdAddForceField
	CmdRemoveForceField
	CmdAddEmitter
	CmdRemoveEmitter
	CmdSetRunning
	CmdResize
)

// Command is one mutation request placed on the pipeline's command
// queue: a single bounded channel the frame loop drains once per frame,
// in place of direct UI-callback wiring into simulation state.
type Command struct {
	Kind CommandKind

	BoundaryShape    boundary.ShapeKind
	BoundaryEnabled  bool
	CollisionMode    boundary.CollisionMode
	TransferMode     solver.TransferMode
	GravityMode      solver.GravityMode
	ForceField       fields.ForceField
	ForceFieldHandle ecs.Entity
	Emitter          fields.Emitter
	EmitterHandle    ecs.Entity
	Running          bool
	ResizeWidth      int32
	ResizeHeight     int32
}

// CommandQueueCapacity bounds the command channel so a runaway producer
// (e.g. a misbehaving UI binding) cannot grow memory without limit; a
// command submitted while the queue is full is dropped.
const CommandQueueCapacity = 256

// CommandQueue is a bounded, non-blocking mutation queue.
type CommandQueue struct {
	ch chan Command
}

// NewCommandQueue creates an empty command queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{ch: make(chan Command, CommandQueueCapacity)}
}

// Submit enqueues a command, dropping it if the queue is full rather
// than blocking the caller.
func (q *CommandQueue) Submit(c Command) (accepted bool) {
	select {
	case q.ch <- c:
		return true
	default:
		return false
	}
}

// Drain removes and returns every command currently queued, called once
// per frame by the pipeline before the solver step.
func (q *CommandQueue) Drain() []Command {
	var out []Command
	for {
		select {
		case c := <-q.ch:
			out = append(out, c)
		default:
			return out
		}
	}
}
