package reactive

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	pabt "github.com/joeycumines/go-pabt"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Option configures a Driver.
type Option func(*Driver)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

func WithSensor(sensor action.Sensor) Option {
	return func(d *Driver) { d.sensor = sensor }
}

func WithMover(mover action.Mover) Option {
	return func(d *Driver) { d.mover = mover }
}

func WithActions(actions ...*action.Action) Option {
	return func(d *Driver) { d.pending = append(d.pending, actions...) }
}

func WithState(ws worldstate.WorldState) Option {
	return func(d *Driver) { d.initial = ws }
}

// WithListener receives the same events as a planner.Listener would:
// ActionEnded, ActionCanceled and PlanExecuted.
func WithListener(l planner.Listener) Option {
	return func(d *Driver) {
		if l != nil {
			d.listeners = append(d.listeners, l)
		}
	}
}

func WithID(id string) Option {
	return func(d *Driver) {
		if id != "" {
			d.id = id
		}
	}
}

// Driver ticks a PA-BT tree for a single goal. It is the reactive
// counterpart of planner.Planner and, like it, is the action.Host of the
// actions it runs.
type Driver struct {
	id        string
	body      planner.Body
	goal      *goal.Goal
	logger    *slog.Logger
	sensor    action.Sensor
	mover     action.Mover
	listeners []planner.Listener
	pending   []*action.Action
	initial   worldstate.WorldState

	state        *State
	node         bt.Node
	dt           float64
	status       bt.Status
	interactives []action.Object
}

var _ action.Host = (*Driver)(nil)

// NewDriver builds the PA-BT plan for g. body may be nil.
func NewDriver(body planner.Body, g *goal.Goal, opts ...Option) (*Driver, error) {
	if g == nil {
		return nil, fmt.Errorf("reactive: goal cannot be nil")
	}
	d := &Driver{id: uuid.NewString(), body: body, goal: g}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrDiscard(d.logger).With(logging.KeyAgent, d.id, logging.KeyGoal, g.Name)
	d.state = NewState(d.initial, d.logger)

	dt := func() float64 { return d.dt }
	for _, a := range d.pending {
		a.Bind(d)
		ra := NewAction(d.state, a, dt)
		ra.onEnd = func(a *action.Action) {
			d.emit(planner.Event{Kind: planner.ActionEnded, Action: a})
		}
		ra.onCancel = func(a *action.Action, cause error) {
			d.emit(planner.Event{Kind: planner.ActionCanceled, Action: a, Err: cause})
		}
		d.state.Register(ra)
	}
	d.pending = nil

	g.Setup()
	p, err := pabt.INew(d.state, []pabt.IConditions{Conditions(g.Desired, d.logger)})
	if err != nil {
		return nil, fmt.Errorf("failed to create reactive plan for goal %s: %w", g.Name, err)
	}
	d.node = p.Node()
	return d, nil
}

func (d *Driver) ID() string { return d.id }

func (d *Driver) Goal() *goal.Goal { return d.goal }

// State exposes the facts the tree reads and writes.
func (d *Driver) State() *State { return d.state }

// Status is the result of the last tick.
func (d *Driver) Status() bt.Status { return d.status }

// Update refreshes perception and ticks the tree once. When the tree
// succeeds the goal finishes; a repeatable goal then fails its conditions
// again and the tree keeps working on the next tick. A failing tree is not
// an error: it is ticked again next time.
func (d *Driver) Update(dt float64) error {
	if d.sensor != nil {
		d.interactives = d.sensor.Scan()
	}
	d.dt = dt
	d.state.nextTick()
	status, err := d.node.Tick()
	if err != nil {
		return fmt.Errorf("reactive tick failed: %w", err)
	}
	for _, a := range d.state.resetUnticked() {
		d.logger.Debug("action abandoned by tree", logging.KeyAction, a.Name())
	}
	prev := d.status
	d.status = status
	if status == bt.Success && prev != bt.Success {
		d.state.update(d.goal.Finish)
		d.logger.Info("goal reached")
		d.emit(planner.Event{Kind: planner.PlanExecuted})
		if d.goal.Repeatable() {
			d.status = bt.Running
		}
	}
	return nil
}

// Node adapts Update to a behavior tree leaf that always reports
// bt.Running unless Update fails.
func (d *Driver) Node(dt func() float64) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if err := d.Update(dt()); err != nil {
			return bt.Failure, err
		}
		return bt.Running, nil
	})
}

// action.Host

func (d *Driver) AgentID() string { return d.id }

func (d *Driver) Position() worldstate.Vec3 {
	if d.body == nil {
		return worldstate.Vec3{}
	}
	return d.body.Position()
}

func (d *Driver) Interactives() []action.Object { return d.interactives }

func (d *Driver) Mover() action.Mover { return d.mover }

func (d *Driver) PushFact(f worldstate.Fact) { d.state.Apply(f) }

func (d *Driver) Facts() worldstate.WorldState { return d.state.Facts() }

// ModifyFact is PushFact, named as on planner.Planner.
func (d *Driver) ModifyFact(f worldstate.Fact) { d.state.Apply(f) }

func (d *Driver) emit(e planner.Event) {
	e.Agent = d.id
	e.Goal = d.goal
	for _, l := range d.listeners {
		l.OnEvent(e)
	}
}
