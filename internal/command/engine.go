package command

import (
	"fmt"
	"log/slog"

	"github.com/joeycumines/goap/internal/agent"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/reactive"
	"github.com/joeycumines/goap/internal/scenario"
	"github.com/joeycumines/goap/internal/sim"
)

// Engine names.
const (
	EngineRegression = "regression"
	EngineReactive   = "reactive"
)

// newFactory returns the sim.Factory driving agents with engine. Every
// agent reports to listeners.
func newFactory(engine string, st settings, logger *slog.Logger, listeners ...planner.Listener) (sim.Factory, error) {
	switch engine {
	case EngineRegression, "":
		return func(s sim.Setup) (sim.Runner, error) {
			return agent.New(s.Spec.Name, newPlanner(s, st, logger, listeners...), st.AssessmentPeriod), nil
		}, nil

	case EngineReactive:
		return func(s sim.Setup) (sim.Runner, error) {
			opts := []reactive.Option{
				reactive.WithID(s.Spec.Name),
				reactive.WithLogger(logger),
				reactive.WithSensor(s.Sensor),
				reactive.WithMover(s.Body),
				reactive.WithActions(s.Actions...),
				reactive.WithState(s.Spec.State),
			}
			for _, l := range listeners {
				opts = append(opts, reactive.WithListener(l))
			}
			return reactive.NewDriver(s.Body, s.Goal, opts...)
		}, nil

	default:
		return nil, fmt.Errorf("unknown engine: %s", engine)
	}
}

func newPlanner(s sim.Setup, st settings, logger *slog.Logger, listeners ...planner.Listener) *planner.Planner {
	opts := []planner.Option{
		planner.WithID(s.Spec.Name),
		planner.WithLogger(logger),
		planner.WithSensor(s.Sensor),
		planner.WithMover(s.Body),
		planner.WithActions(s.Actions...),
		planner.WithGoal(s.Goal),
		planner.WithState(s.Spec.State),
		planner.WithRecheck(st.Recheck),
		planner.WithUnmetFrontier(st.UnmetFrontier),
		planner.WithMaxReplans(st.MaxReplans),
	}
	for _, l := range listeners {
		opts = append(opts, planner.WithListener(l))
	}
	return planner.New(s.Body, opts...)
}

// scenarioOptions applies the [sim] agent defaults.
func scenarioOptions(st settings) []scenario.Option {
	return []scenario.Option{scenario.WithDefaults(scenario.Defaults{Speed: st.AgentSpeed, Sense: st.SensorRange})}
}

func worldOptions(st settings, logger *slog.Logger) []sim.Option {
	return []sim.Option{sim.WithLogger(logger), sim.WithInteractionRange(st.InteractionRange)}
}
