package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/scenario"
	"github.com/joeycumines/goap/internal/sim"
	"github.com/joeycumines/goap/internal/telemetry"
)

// RunCommand simulates a scenario tick by tick and prints each agent's
// notifications as they happen.
type RunCommand struct {
	*BaseCommand
	config *config.Config

	engine   string
	watch    bool
	ticks    int
	tick     time.Duration
	fast     bool
	trace    bool
	quiet    bool
	logFile  string
	logLevel string

	// context returns the context a run stops on; interrupts by default.
	context func() (context.Context, context.CancelFunc)
}

func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Simulate a scenario and print agent notifications",
			"run [options] <scenario.yaml>",
		),
		config: cfg,
		context: func() (context.Context, context.CancelFunc) {
			return signal.NotifyContext(context.Background(), os.Interrupt)
		},
	}
}

func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.engine, "engine", EngineRegression, "Planning engine: regression or reactive")
	fs.BoolVar(&c.watch, "watch", false, "Restart the simulation whenever the scenario file changes")
	fs.IntVar(&c.ticks, "ticks", -1, "Ticks to simulate, 0 for no limit (default sim.max-ticks)")
	fs.DurationVar(&c.tick, "tick", 0, "Simulated time per tick (default sim.tick)")
	fs.BoolVar(&c.fast, "fast", false, "Step without waiting for each tick to elapse")
	fs.BoolVar(&c.trace, "trace", false, "Log a span per plan (also planner.trace)")
	fs.BoolVar(&c.quiet, "quiet", false, "Only print the final summary")
	fs.StringVar(&c.logFile, "log-file", "", "Log file path (overrides log.file)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level (overrides log.level)")
}

func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: goap %s\n", c.Usage())
		return fmt.Errorf("expected one scenario file")
	}
	path := args[0]

	st := resolveSettings(c.config)
	if c.tick > 0 {
		st.Tick = c.tick
	}
	if c.ticks >= 0 {
		st.MaxTicks = c.ticks
	}
	st.Trace = st.Trace || c.trace
	if _, err := newFactory(c.engine, st, nil); err != nil {
		return err
	}

	logger, closer, err := logging.New(resolveLogConfig(c.logFile, c.logLevel, c.config), stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	sc, err := scenario.Load(path, scenarioOptions(st)...)
	if err != nil {
		return err
	}

	ctx, cancel := c.context()
	defer cancel()

	r := &runner{
		engine: c.engine,
		st:     st,
		fast:   c.fast,
		quiet:  c.quiet,
		out:    stdout,
		logger: logger,
		styles: newStyles(colorEnabled(config.DefaultSchema().GetString(c.config, "", "color"), stdout)),
	}
	if !c.watch {
		return r.simulate(ctx, sc)
	}
	return r.watch(ctx, path, sc)
}

// runner runs one scenario at a time.
type runner struct {
	engine string
	st     settings
	fast   bool
	quiet  bool
	out    io.Writer
	logger *slog.Logger
	styles styles
}

// simulate runs sc until the tick limit or ctx is done, then prints a
// summary. Stopping on ctx is not an error.
func (r *runner) simulate(ctx context.Context, sc *scenario.Scenario) error {
	var listeners []planner.Listener

	var ticks atomic.Int64
	if !r.quiet {
		listeners = append(listeners, &notifier{
			out:    r.out,
			styles: r.styles,
			tick:   func() int { return int(ticks.Load()) + 1 },
		})
	}

	var tel *telemetry.Listener
	if r.st.Trace {
		tp := telemetry.NewTracerProvider(telemetry.NewLogExporter(r.logger))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		var err error
		if tel, err = telemetry.New(tp, otel.GetMeterProvider()); err != nil {
			return err
		}
		defer tel.Close()
		listeners = append(listeners, tel)
	}

	factory, err := newFactory(r.engine, r.st, r.logger, listeners...)
	if err != nil {
		return err
	}
	world, err := sim.FromScenario(sc, factory, worldOptions(r.st, r.logger)...)
	if err != nil {
		return err
	}

	after := func(*sim.World) { ticks.Add(1) }
	if r.fast {
		err = world.RunFast(ctx, r.st.Tick, r.st.MaxTicks, after)
	} else {
		err = world.Run(ctx, r.st.Tick, r.st.MaxTicks, after)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	r.summarize(world.Snapshot())
	if tel != nil {
		n := tel.Counts()
		_, _ = fmt.Fprintf(r.out, "plans: %d formulated, %d executed, %d abandoned; actions: %d ended, %d canceled\n",
			n.Formulated, n.Executed, n.Abandoned, n.Ended, n.Canceled)
	}
	return nil
}

func (r *runner) summarize(snap sim.Snapshot) {
	s := r.styles
	_, _ = fmt.Fprintf(r.out, "\n%s after %d ticks (%.2fs)\n", s.good.Render("stopped"), snap.Tick, snap.Elapsed)
	w := tabwriter.NewWriter(r.out, 0, 8, 2, ' ', 0)
	for _, a := range snap.Agents {
		_, _ = fmt.Fprintf(w, "  %s\tat %s\t\n", s.agent.Render(a.Name), a.Position)
	}
	for _, o := range snap.Objects {
		state := formatProps(o.Props)
		if !o.Valid {
			state = s.faint.Render("gone")
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\n", o.ID, o.Kind, state)
	}
	_ = w.Flush()
}

func formatProps(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, props[k])
	}
	return strings.Join(parts, " ")
}

// watch simulates sc and restarts with the new scenario each time the file
// at path changes. A scenario that fails to load is reported, and the next
// change is awaited.
func (r *runner) watch(ctx context.Context, path string, sc *scenario.Scenario) error {
	w, err := scenario.NewWatcher(path, 0, scenarioOptions(r.st)...)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		runCtx, stop := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func(sc *scenario.Scenario) { done <- r.simulate(runCtx, sc) }(sc)

		var (
			update scenario.Update
			ok     bool
		)
		select {
		case <-ctx.Done():
			stop()
			return <-done

		case err := <-done:
			stop()
			if err != nil {
				_, _ = fmt.Fprintf(r.out, "%s %v\n", r.styles.bad.Render("simulation failed:"), err)
			}
			_, _ = fmt.Fprintln(r.out, r.styles.faint.Render("waiting for changes..."))
			select {
			case <-ctx.Done():
				return nil
			case update, ok = <-w.Updates:
			}

		case update, ok = <-w.Updates:
			stop()
			if err := <-done; err != nil {
				_, _ = fmt.Fprintf(r.out, "%s %v\n", r.styles.bad.Render("simulation failed:"), err)
			}
		}

		if !ok {
			return nil
		}
		for update.Err != nil {
			_, _ = fmt.Fprintf(r.out, "%s %v\n", r.styles.bad.Render("reload failed:"), update.Err)
			select {
			case <-ctx.Done():
				return nil
			case update, ok = <-w.Updates:
				if !ok {
					return nil
				}
			}
		}
		sc = update.Scenario
		_, _ = fmt.Fprintf(r.out, "%s %s\n", r.styles.good.Render("reloaded"), path)
	}
}
