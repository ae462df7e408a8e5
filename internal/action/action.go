package action

import (
	"errors"
	"fmt"
	"math"

	"github.com/joeycumines/goap/internal/worldstate"
)

var (
	// ErrTargetLost is the cancel cause when the target became invalid or
	// unreachable while the action was moving or executing.
	ErrTargetLost = errors.New("action: target lost")
	// ErrNoMover is the cancel cause when an approach is needed but the
	// host cannot move.
	ErrNoMover = errors.New("action: host has no mover")
)

// Status is the lifecycle state of an action.
type Status int

const (
	Inactive Status = iota
	Moving
	Executing
)

func (s Status) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Moving:
		return "moving"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// Outcome is what a Begin or Update call reports to the owner.
type Outcome int

const (
	// Running means the action needs more ticks.
	Running Outcome = iota
	// Ended means the action completed; its effects now hold.
	Ended
	// Canceled means the action gave up; see Err for the cause.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Ended:
		return "ended"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Definition is the static description of a capability.
type Definition struct {
	Name string
	// Cost is the additive planning cost, never negative.
	Cost          float64
	Preconditions worldstate.WorldState
	Effects       worldstate.WorldState
	// RequiresRange makes Begin approach the target until within Range.
	RequiresRange bool
	Range         float64
	// Duration is the time, in the same unit as Update's dt, spent
	// executing before the effect is produced.
	Duration float64
}

// Behavior supplies the capability-specific hooks of an Action.
type Behavior interface {
	// ResolveTarget is the context precondition. It returns the target the
	// action will use (nil for targetless behaviors) and whether the action
	// is usable at all right now.
	ResolveTarget(host Host) (Object, bool)
	OnBegin(host Host, target Object)
	// OnExecute produces the action's single discrete effect.
	OnExecute(host Host, target Object)
	OnEnd(host Host, target Object)
	OnReset()
}

// Action is one agent's instance of a capability. It is not safe for
// concurrent use; an agent ticks its actions from a single goroutine.
type Action struct {
	def      Definition
	behavior Behavior
	host     Host

	status   Status
	target   Object
	progress float64
	executed bool
	err      error
}

// New creates an Action. It panics if behavior is nil or the cost is
// negative, as both indicate a malformed definition.
func New(def Definition, behavior Behavior) *Action {
	if behavior == nil {
		panic(fmt.Sprintf("action.New: behavior cannot be nil (action=%s)", def.Name))
	}
	if def.Cost < 0 || math.IsNaN(def.Cost) {
		panic(fmt.Sprintf("action.New: cost must be >= 0 (action=%s, cost=%v)", def.Name, def.Cost))
	}
	if def.Preconditions == nil {
		def.Preconditions = worldstate.New()
	}
	if def.Effects == nil {
		def.Effects = worldstate.New()
	}
	return &Action{def: def, behavior: behavior}
}

// Bind attaches the action to the agent that owns it.
func (a *Action) Bind(host Host) { a.host = host }

// Host returns the bound host, or nil.
func (a *Action) Host() Host { return a.host }

func (a *Action) Name() string { return a.def.Name }

func (a *Action) Cost() float64 { return a.def.Cost }

// Preconditions returns the static precondition template. Callers must not
// mutate it.
func (a *Action) Preconditions() worldstate.WorldState { return a.def.Preconditions }

// Effects returns the static effect template. Callers must not mutate it.
func (a *Action) Effects() worldstate.WorldState { return a.def.Effects }

func (a *Action) Definition() Definition { return a.def }

func (a *Action) Behavior() Behavior { return a.behavior }

func (a *Action) Status() Status { return a.status }

// Target returns the target resolved by the last context check, or nil.
func (a *Action) Target() Object { return a.target }

// Err returns the cause of the last cancellation, or nil.
func (a *Action) Err() error { return a.err }

// Progress reports execution progress in [0, 1].
func (a *Action) Progress() float64 {
	if a.executed {
		return 1
	}
	if a.def.Duration <= 0 || a.status != Executing {
		return 0
	}
	return math.Min(a.progress/a.def.Duration, 1)
}

func (a *Action) String() string {
	return fmt.Sprintf("%s (%g)", a.def.Name, a.def.Cost)
}

// CheckContextPrecondition evaluates the dynamic precondition, caching the
// resolved target. On an inactive action it also clears the previous cancel
// cause. An unbound action is never usable.
func (a *Action) CheckContextPrecondition() bool {
	if a.status == Inactive {
		a.err = nil
	}
	if a.host == nil {
		return false
	}
	target, ok := a.behavior.ResolveTarget(a.host)
	if !ok {
		a.target = nil
		return false
	}
	a.target = target
	return true
}

// Begin starts the action. Calling Begin on an active action is a no-op.
func (a *Action) Begin() Outcome {
	if a.status != Inactive {
		return Running
	}
	a.err = nil
	a.executed = false
	a.progress = 0
	if a.def.RequiresRange {
		if !a.targetValid() {
			return a.cancel(ErrTargetLost)
		}
		if !a.inRange() {
			var mover Mover
			if a.host != nil {
				mover = a.host.Mover()
			}
			if mover == nil {
				return a.cancel(ErrNoMover)
			}
			mover.MoveTo(a.target, a.def.Range)
			a.status = Moving
			return Running
		}
	} else if a.target != nil && !a.target.Valid() {
		return a.cancel(ErrTargetLost)
	}
	a.startExecuting()
	return Running
}

// Update advances the action by dt.
func (a *Action) Update(dt float64) Outcome {
	switch a.status {
	case Moving:
		if !a.targetValid() {
			return a.cancel(ErrTargetLost)
		}
		mover := a.host.Mover()
		if mover == nil {
			return a.cancel(ErrNoMover)
		}
		switch st := mover.Status(); {
		case a.inRange() || st == MoveReached:
			mover.Stop()
			a.startExecuting()
			return a.execute(0)
		case st == MoveLost:
			return a.cancel(ErrTargetLost)
		case st == MoveIdle:
			// the mover dropped the request; ask again
			mover.MoveTo(a.target, a.def.Range)
		}
		return Running
	case Executing:
		return a.execute(dt)
	default:
		return Running
	}
}

// Validate reports whether the action's effect-producing step has occurred.
func (a *Action) Validate() bool { return a.executed }

// Reset clears the transient execution state so the action can be reused
// by a later plan. An approach in progress is stopped.
func (a *Action) Reset() {
	if a.status == Moving && a.host != nil {
		if mover := a.host.Mover(); mover != nil {
			mover.Stop()
		}
	}
	a.behavior.OnReset()
	a.status = Inactive
	a.target = nil
	a.progress = 0
	a.executed = false
	a.err = nil
}

func (a *Action) startExecuting() {
	a.behavior.OnBegin(a.host, a.target)
	a.status = Executing
}

func (a *Action) execute(dt float64) Outcome {
	if a.target != nil && !a.target.Valid() {
		return a.cancel(ErrTargetLost)
	}
	if !a.executed {
		a.progress += dt
		if a.progress >= a.def.Duration {
			a.behavior.OnExecute(a.host, a.target)
			a.executed = true
		}
	}
	if a.Validate() {
		a.end()
		return Ended
	}
	return Running
}

func (a *Action) end() {
	a.behavior.OnEnd(a.host, a.target)
	a.status = Inactive
	a.progress = 0
	a.executed = false
}

func (a *Action) cancel(cause error) Outcome {
	if a.status == Moving && a.host != nil {
		if mover := a.host.Mover(); mover != nil {
			mover.Stop()
		}
	}
	a.status = Inactive
	a.err = cause
	return Canceled
}

func (a *Action) targetValid() bool {
	return a.target != nil && a.target.Valid()
}

func (a *Action) inRange() bool {
	if a.host == nil || a.target == nil {
		return false
	}
	return a.host.Position().Dist(a.target.Position()) <= a.def.Range
}
