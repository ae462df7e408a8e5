package reactive

import (
	"fmt"
	"log/slog"

	bt "github.com/joeycumines/go-behaviortree"
	pabt "github.com/joeycumines/go-pabt"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Condition requires a fact to hold a specific value.
type Condition struct {
	fact   worldstate.Fact
	logger *slog.Logger
}

var _ pabt.Condition = (*Condition)(nil)

// EqualityCond is the condition "fact.Name == fact.Value()".
func EqualityCond(fact worldstate.Fact) *Condition {
	return &Condition{fact: fact, logger: logging.Discard()}
}

func (c *Condition) Key() any { return c.fact.Name }

// Match reports whether value equals the fact's value. A value of another
// kind never matches and is logged as a type mismatch.
func (c *Condition) Match(value any) bool {
	if value == nil {
		return false
	}
	if kind, ok := kindOf(value); !ok || kind != c.fact.Kind() {
		c.logger.Debug("fact type mismatch",
			"fact", c.fact.Name,
			"want", c.fact.Kind().String(),
			"got", fmt.Sprintf("%T", value))
		return false
	}
	return value == c.fact.Value()
}

func (c *Condition) String() string { return c.fact.String() }

// Effect is a fact an action sets.
type Effect struct {
	fact worldstate.Fact
}

var _ pabt.Effect = (*Effect)(nil)

func (e *Effect) Key() any { return e.fact.Name }

func (e *Effect) Value() any { return e.fact.Value() }

// Conditions converts a WorldState into a single AND group, ordered by
// fact name. Type mismatches are logged to logger, which may be nil.
func Conditions(ws worldstate.WorldState, logger *slog.Logger) pabt.IConditions {
	logger = logging.OrDiscard(logger)
	conds := make(pabt.IConditions, 0, ws.Len())
	for _, name := range ws.Names() {
		conds = append(conds, &Condition{fact: ws[name], logger: logger})
	}
	return conds
}

func kindOf(value any) (worldstate.Kind, bool) {
	switch value.(type) {
	case int:
		return worldstate.KindInteger, true
	case float64:
		return worldstate.KindFloat, true
	case bool:
		return worldstate.KindBoolean, true
	case worldstate.Vec3:
		return worldstate.KindVector3, true
	default:
		return 0, false
	}
}

// Action adapts an *action.Action to pabt.IAction. Its node runs the action
// lifecycle and merges the effects into the State when the action ends.
type Action struct {
	inner      *action.Action
	state      *State
	dt         func() float64
	onEnd      func(*action.Action)
	onCancel   func(*action.Action, error)
	conditions []pabt.IConditions
	effects    pabt.Effects
	// ticked is the State tick this action's node last ran in.
	ticked uint64
}

var _ pabt.IAction = (*Action)(nil)

// NewAction wraps a. The action must already be bound to its host. dt
// supplies the elapsed time for each tick. An action without preconditions
// has no condition groups.
func NewAction(state *State, a *action.Action, dt func() float64) *Action {
	effects := make(pabt.Effects, 0, a.Effects().Len())
	for _, name := range a.Effects().Names() {
		effects = append(effects, &Effect{fact: a.Effects()[name]})
	}
	var conditions []pabt.IConditions
	if !a.Preconditions().IsEmpty() {
		conditions = []pabt.IConditions{Conditions(a.Preconditions(), state.logger)}
	}
	return &Action{
		inner:      a,
		state:      state,
		dt:         dt,
		conditions: conditions,
		effects:    effects,
	}
}

func (a *Action) Name() string { return a.inner.Name() }

// Unwrap returns the adapted action.
func (a *Action) Unwrap() *action.Action { return a.inner }

func (a *Action) Conditions() []pabt.IConditions { return a.conditions }

func (a *Action) Effects() pabt.Effects { return a.effects }

func (a *Action) Node() bt.Node {
	inner := a.inner.Node(a.dt)
	return bt.New(func([]bt.Node) (bt.Status, error) {
		a.ticked = a.state.currentTick()
		status, err := inner.Tick()
		if err != nil {
			return status, err
		}
		switch status {
		case bt.Success:
			a.state.Merge(a.inner.Effects())
			a.state.logger.Debug("action ended", logging.KeyAction, a.inner.Name())
			if a.onEnd != nil {
				a.onEnd(a.inner)
			}
		case bt.Failure:
			if cause := a.inner.Err(); cause != nil {
				a.state.logger.Debug("action canceled", logging.KeyAction, a.inner.Name(), "error", cause)
				if a.onCancel != nil {
					a.onCancel(a.inner, cause)
				}
			}
		}
		return status, nil
	})
}

// usable reports whether the action may be offered to the planner. An
// action already in progress keeps its target.
func (a *Action) usable() bool {
	if a.inner.Status() != action.Inactive {
		return true
	}
	return a.inner.CheckContextPrecondition()
}
