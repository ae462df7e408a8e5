// Package plan implements the regression search that turns a goal into an
// ordered sequence of actions, and the Plan that an executor drains.
package plan

import (
	"fmt"
	"strings"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
)

// Plan is an ordered action sequence, consumed front to back.
type Plan struct {
	// ID is unique per formulation.
	ID   string
	Goal *goal.Goal
	// Cost is the sum of the action costs at formulation time.
	Cost float64

	actions []*action.Action
}

// Next removes and returns the first remaining action, or nil.
func (p *Plan) Next() *action.Action {
	if len(p.actions) == 0 {
		return nil
	}
	a := p.actions[0]
	p.actions = p.actions[1:]
	return a
}

// Peek returns the first remaining action without consuming it, or nil.
func (p *Plan) Peek() *action.Action {
	if len(p.actions) == 0 {
		return nil
	}
	return p.actions[0]
}

// Len returns the number of remaining actions.
func (p *Plan) Len() int { return len(p.actions) }

// IsFinished reports whether every action has been consumed.
func (p *Plan) IsFinished() bool { return len(p.actions) == 0 }

// Actions returns a copy of the remaining actions.
func (p *Plan) Actions() []*action.Action {
	return append([]*action.Action(nil), p.actions...)
}

// Names returns the names of the remaining actions.
func (p *Plan) Names() []string {
	names := make([]string, len(p.actions))
	for i, a := range p.actions {
		names[i] = a.Name()
	}
	return names
}

// String renders one "- name (cost)" line per remaining action.
func (p *Plan) String() string {
	var b strings.Builder
	for _, a := range p.actions {
		fmt.Fprintf(&b, "- %s (%g)\n", a.Name(), a.Cost())
	}
	return b.String()
}
