package sim

import (
	"fmt"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
	"github.com/joeycumines/goap/internal/library"
	"github.com/joeycumines/goap/internal/scenario"
)

// Setup is what a Factory receives for each scenario agent: its body,
// sensor, fresh actions and goal.
type Setup struct {
	Spec    scenario.Agent
	Body    *Body
	Sensor  *Sensor
	Actions []*action.Action
	Goal    *goal.Goal
}

// Factory builds the runner driving one agent.
type Factory func(Setup) (Runner, error)

// FromScenario builds a world holding the scenario's objects, with one
// agent per scenario agent, driven by the runners factory returns.
func FromScenario(sc *scenario.Scenario, factory Factory, opts ...Option) (*World, error) {
	w := NewWorld(opts...)
	for _, o := range sc.Objects {
		if err := w.AddObject(NewObject(o.ID, o.Kind, o.Position, o.Props)); err != nil {
			return nil, err
		}
	}
	registry, err := sc.Registry(library.WithLogger(w.logger), library.WithRange(w.rng))
	if err != nil {
		return nil, err
	}
	for _, spec := range sc.Agents {
		actions, err := registry.Actions(spec.Actions, library.NewTool(spec.ToolCharges))
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		g, err := library.Goal(spec.Goal)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		body := NewBody(spec.Position, spec.Speed)
		sensor := NewSensor(w, body, spec.Sense)
		runner, err := factory(Setup{
			Spec:    spec,
			Body:    body,
			Sensor:  sensor,
			Actions: actions,
			Goal:    g,
		})
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		w.AddAgent(&Agent{Name: spec.Name, Body: body, Sensor: sensor, Runner: runner})
	}
	return w, nil
}
