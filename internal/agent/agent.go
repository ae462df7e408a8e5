// Package agent wraps a planner with the periodic assessment loop of a
// simulated character.
package agent

import (
	"time"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/goap/internal/planner"
)

// DefaultAssessmentPeriod is how often an idle agent looks for a new plan.
const DefaultAssessmentPeriod = 400 * time.Millisecond

// Agent owns a planner and decides when it assesses.
type Agent struct {
	Name    string
	Planner *planner.Planner

	timer *Countdown
}

// New creates an agent. A non-positive period uses
// DefaultAssessmentPeriod.
func New(name string, p *planner.Planner, period time.Duration) *Agent {
	if period <= 0 {
		period = DefaultAssessmentPeriod
	}
	return &Agent{Name: name, Planner: p, timer: NewCountdown(period.Seconds())}
}

// ID is the planner's ID.
func (a *Agent) ID() string { return a.Planner.ID() }

// Update advances the agent by dt seconds. When the assessment timer
// expires the timer restarts, and an idle planner assesses. The planner is
// then updated.
func (a *Agent) Update(dt float64) error {
	if a.timer.Update(dt) {
		a.timer.Reset()
		if a.Planner.Phase() == planner.Idle {
			if err := a.Planner.Assess(); err != nil {
				return err
			}
		}
	}
	return a.Planner.Update(dt)
}

// Node adapts Update to a behavior tree leaf. It never finishes: each tick
// returns bt.Running, or the Update error.
func (a *Agent) Node(dt func() float64) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if err := a.Update(dt()); err != nil {
			return bt.Failure, err
		}
		return bt.Running, nil
	})
}
