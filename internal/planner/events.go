package planner

import (
	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
	"github.com/joeycumines/goap/internal/plan"
)

// Phase is the planner's position in its Idle, Planning, Executing cycle.
type Phase int

const (
	Idle Phase = iota
	Planning
	Executing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Planning:
		return "planning"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// EventKind identifies a planner notification.
type EventKind int

const (
	// PlanFormulated is emitted when Formulate produced a plan.
	PlanFormulated EventKind = iota
	// ActionSelected is emitted before an action of the plan begins.
	ActionSelected
	// ActionEnded is emitted after an action ended and its effects were
	// merged into the planner's state.
	ActionEnded
	// ActionCanceled is emitted when the running action gave up. Err holds
	// the cause.
	ActionCanceled
	// PlanExecuted is emitted when the plan drained and the goal finished.
	PlanExecuted
	// PlanAbandoned is emitted when a plan is dropped before draining,
	// either because it went stale or because it was canceled.
	PlanAbandoned
)

func (k EventKind) String() string {
	switch k {
	case PlanFormulated:
		return "plan-formulated"
	case ActionSelected:
		return "action-selected"
	case ActionEnded:
		return "action-ended"
	case ActionCanceled:
		return "action-canceled"
	case PlanExecuted:
		return "plan-executed"
	case PlanAbandoned:
		return "plan-abandoned"
	default:
		return "unknown"
	}
}

// Event is a planner notification. Fields not relevant to the kind are nil.
type Event struct {
	Kind   EventKind
	Agent  string
	Plan   *plan.Plan
	Action *action.Action
	Goal   *goal.Goal
	Err    error
}

// Listener receives planner events synchronously, on the ticking
// goroutine. Implementations must not call back into the planner's
// Update or Assess.
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(e Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }
