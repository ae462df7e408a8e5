// Package action implements the atomic capabilities a planner sequences into
// plans, and the per-action execution lifecycle:
//
//	Inactive -> Begin -> Moving -> Executing -> Validate -> End -> Inactive
//
// An Action is driven one tick at a time by its owner (the planner, or a
// behavior tree via Node). Nothing in this package blocks; "waiting" is the
// action remaining in the Moving or Executing status across ticks.
//
// Concrete capabilities are expressed by composition: an Action owns a
// Definition (name, cost, symbolic preconditions and effects, range and
// duration) and a Behavior supplying the hooks. Interaction is the stock
// approach-then-interact behavior, Self the stock targetless one.
package action

import (
	"github.com/joeycumines/goap/internal/worldstate"
)

// Object is an interactable entity in the world, as reported by a Sensor.
type Object interface {
	// ID is unique within a world.
	ID() string
	// Kind classifies the object, e.g. "depot" or "refinery".
	Kind() string
	Position() worldstate.Vec3
	// Valid is false once the object has been destroyed.
	Valid() bool
	// Props exposes the object's game-specific properties, read-only.
	Props() map[string]any
	// InteractionStarted is dispatched by an action when it uses the object.
	InteractionStarted(source string)
	// InteractionEnded is dispatched when the using action ends.
	InteractionEnded()
}

// Sensor refreshes the set of objects an agent may consider.
type Sensor interface {
	Scan() []Object
}

// MoveStatus is the state of an approach request.
type MoveStatus int

const (
	// MoveIdle means no approach is in progress.
	MoveIdle MoveStatus = iota
	// MoveInProgress means the agent is travelling.
	MoveInProgress
	// MoveReached means the agent arrived within the requested range.
	MoveReached
	// MoveLost means the target disappeared or became unreachable.
	MoveLost
)

func (s MoveStatus) String() string {
	switch s {
	case MoveIdle:
		return "idle"
	case MoveInProgress:
		return "in-progress"
	case MoveReached:
		return "reached"
	case MoveLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Mover is the movement/approach service. MoveTo starts (or restarts) an
// approach that progresses over later ticks, outside of the action.
type Mover interface {
	MoveTo(target Object, within float64)
	Status() MoveStatus
	Stop()
}

// Host is the action's view of the agent that owns it.
type Host interface {
	AgentID() string
	Position() worldstate.Vec3
	// Interactives returns the result of the most recent sensor scan.
	Interactives() []Object
	// Mover may return nil if the agent cannot move.
	Mover() Mover
	// PushFact reports a world-state change the action caused outside of
	// its declared effects.
	PushFact(f worldstate.Fact)
}
