// Package goal defines the desired world states a planner works towards.
package goal

import (
	"fmt"

	"github.com/joeycumines/goap/internal/worldstate"
)

// Goal is a named desired WorldState plus optional lifecycle hooks.
type Goal struct {
	Name    string
	Desired worldstate.WorldState

	setup    []func(worldstate.WorldState)
	finish   []func(worldstate.WorldState)
	resets   []worldstate.Fact
	prepared bool
}

// Option configures a Goal.
type Option func(*Goal)

// WithSetup registers a function that populates Desired the first time
// Setup is called.
func WithSetup(fn func(desired worldstate.WorldState)) Option {
	return func(g *Goal) {
		if fn != nil {
			g.setup = append(g.setup, fn)
		}
	}
}

// WithFinish registers a hook invoked with the planner's current state
// when a plan for this goal drains.
func WithFinish(fn func(state worldstate.WorldState)) Option {
	return func(g *Goal) {
		if fn != nil {
			g.finish = append(g.finish, fn)
		}
	}
}

// ResetOnFinish makes the goal repeatable: after each completed plan the
// given facts are re-applied to the planner's state, so the goal is
// unsatisfied again at the next assessment.
func ResetOnFinish(facts ...worldstate.Fact) Option {
	return func(g *Goal) {
		g.resets = append(g.resets, facts...)
	}
}

// New creates a goal. A nil desired state is replaced with an empty one.
func New(name string, desired worldstate.WorldState, opts ...Option) *Goal {
	if desired == nil {
		desired = worldstate.New()
	}
	g := &Goal{Name: name, Desired: desired}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Setup runs the setup hooks once. Later calls do nothing.
func (g *Goal) Setup() {
	if g.prepared {
		return
	}
	g.prepared = true
	for _, fn := range g.setup {
		fn(g.Desired)
	}
}

// Finish runs the finish hooks, then re-applies any reset facts to state.
func (g *Goal) Finish(state worldstate.WorldState) {
	for _, fn := range g.finish {
		fn(state)
	}
	if state == nil {
		return
	}
	for _, f := range g.resets {
		state.Apply(f)
	}
}

// Repeatable reports whether the goal resets facts on finish.
func (g *Goal) Repeatable() bool { return len(g.resets) != 0 }

// Satisfied reports whether state already achieves the goal.
func (g *Goal) Satisfied(state worldstate.WorldState) (bool, error) {
	return state.Check(g.Desired)
}

func (g *Goal) String() string {
	return fmt.Sprintf("%s %s", g.Name, g.Desired)
}
