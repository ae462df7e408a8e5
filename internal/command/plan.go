package command

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/plan"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/scenario"
	"github.com/joeycumines/goap/internal/sim"
)

// PlanCommand formulates one plan per scenario agent, from the initial
// world, and prints it.
type PlanCommand struct {
	*BaseCommand
	config *config.Config

	agentName string
	logFile   string
	logLevel  string
}

func NewPlanCommand(cfg *config.Config) *PlanCommand {
	return &PlanCommand{
		BaseCommand: NewBaseCommand(
			"plan",
			"Formulate and print each agent's plan for a scenario",
			"plan [options] <scenario.yaml>",
		),
		config: cfg,
	}
}

func (c *PlanCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.agentName, "agent", "", "Only plan for the named agent")
	fs.StringVar(&c.logFile, "log-file", "", "Log file path (overrides log.file)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level (overrides log.level)")
}

func (c *PlanCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: goap %s\n", c.Usage())
		return fmt.Errorf("expected one scenario file")
	}
	st := resolveSettings(c.config)
	logger, closer, err := logging.New(resolveLogConfig(c.logFile, c.logLevel, c.config), stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	sc, err := scenario.Load(args[0], scenarioOptions(st)...)
	if err != nil {
		return err
	}

	var agents []*planned
	_, err = sim.FromScenario(sc, func(s sim.Setup) (sim.Runner, error) {
		a := &planned{}
		a.planner = newPlanner(s, st, logger, a)
		if c.agentName == "" || c.agentName == s.Spec.Name {
			agents = append(agents, a)
		}
		return a.planner, nil
	}, worldOptions(st, logger)...)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		return fmt.Errorf("agent not found: %s", c.agentName)
	}

	s := newStyles(colorEnabled(config.DefaultSchema().GetString(c.config, "", "color"), stdout))
	var failed []error
	for i, a := range agents {
		p := a.planner
		if i > 0 {
			_, _ = fmt.Fprintln(stdout)
		}
		_, _ = fmt.Fprintf(stdout, "%s %s\n", s.agent.Render(p.ID()), s.faint.Render("("+p.Goal().Name+")"))
		if err := p.Assess(); err != nil {
			failed = append(failed, fmt.Errorf("agent %s: %w", p.ID(), err))
			_, _ = fmt.Fprintf(stdout, "  %s\n", s.bad.Render(err.Error()))
			continue
		}
		switch {
		case a.plan == nil:
			_, _ = fmt.Fprintf(stdout, "  %s\n", s.bad.Render("no plan"))
			continue
		case len(a.actions) == 0:
			_, _ = fmt.Fprintf(stdout, "  %s\n", s.good.Render("goal already satisfied"))
			continue
		}
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for j, act := range a.actions {
			target := ""
			if t := act.Target(); t != nil {
				target = "@ " + t.ID()
			}
			_, _ = fmt.Fprintf(w, "  %d.\t%s\tcost %g\t%s\n", j+1, s.action.Render(act.Name()), act.Cost(), target)
		}
		_ = w.Flush()
		_, _ = fmt.Fprintf(stdout, "  total cost %g\n", a.plan.Cost)
	}
	return errors.Join(failed...)
}

// planned records the plan an agent formulates, before its first action
// is taken off it.
type planned struct {
	planner *planner.Planner
	plan    *plan.Plan
	actions []*action.Action
}

func (a *planned) OnEvent(e planner.Event) {
	if e.Kind == planner.PlanFormulated && a.plan == nil {
		a.plan = e.Plan
		a.actions = e.Plan.Actions()
	}
}
