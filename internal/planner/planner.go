// Package planner drives one agent's goal-oriented behavior: it formulates
// plans for the current goal and drains them one action at a time.
//
// A Planner is single-threaded. The owner calls Assess when the planner is
// idle (typically on a timer, see the agent package) and Update once per
// tick. Neither call blocks.
package planner

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/plan"
	"github.com/joeycumines/goap/internal/worldstate"
)

var (
	// ErrStalePlan is the PlanAbandoned cause when an action's symbolic
	// preconditions no longer hold right before it would begin.
	ErrStalePlan = errors.New("planner: plan is stale")
	// ErrPlanCanceled is the PlanAbandoned cause for Cancel and SetGoal.
	ErrPlanCanceled = errors.New("planner: plan canceled")
)

// Body is the physical side of the agent.
type Body interface {
	Position() worldstate.Vec3
}

// Option configures a Planner.
type Option func(*Planner)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

func WithSensor(sensor action.Sensor) Option {
	return func(p *Planner) { p.sensor = sensor }
}

func WithMover(mover action.Mover) Option {
	return func(p *Planner) { p.mover = mover }
}

// WithActions registers actions, in search order, binding them to the
// planner.
func WithActions(actions ...*action.Action) Option {
	return func(p *Planner) { p.actions = append(p.actions, actions...) }
}

func WithGoal(g *goal.Goal) Option {
	return func(p *Planner) { p.goal = g }
}

// WithState seeds the current world state with a copy of ws.
func WithState(ws worldstate.WorldState) Option {
	return func(p *Planner) { p.state.Merge(ws) }
}

func WithListener(l Listener) Option {
	return func(p *Planner) {
		if l != nil {
			p.listeners = append(p.listeners, l)
		}
	}
}

// WithRecheck toggles the symbolic precondition check made before each
// action begins. Enabled by default.
func WithRecheck(enabled bool) Option {
	return func(p *Planner) { p.recheck = enabled }
}

// WithUnmetFrontier makes formulation regress only the facts the current
// state does not hold. See plan.WithUnmetFrontier.
func WithUnmetFrontier(enabled bool) Option {
	return func(p *Planner) { p.unmet = enabled }
}

// WithMaxReplans bounds the replans a single Update or Assess may trigger
// after cancellations. Zero defers all replanning to the next assessment.
func WithMaxReplans(n int) Option {
	return func(p *Planner) { p.maxReplans = max(n, 0) }
}

func WithID(id string) Option {
	return func(p *Planner) {
		if id != "" {
			p.id = id
		}
	}
}

// Planner is the per-agent orchestrator. It implements action.Host for the
// actions it owns.
type Planner struct {
	id         string
	body       Body
	logger     *slog.Logger
	sensor     action.Sensor
	mover      action.Mover
	actions    []*action.Action
	goal       *goal.Goal
	state      worldstate.WorldState
	listeners  []Listener
	recheck    bool
	unmet      bool
	maxReplans int

	phase        Phase
	plan         *plan.Plan
	current      *action.Action
	interactives []action.Object
	replans      int
}

var _ action.Host = (*Planner)(nil)

// New creates an idle planner for body, which may be nil for agents that
// have no position.
func New(body Body, opts ...Option) *Planner {
	p := &Planner{
		id:         uuid.NewString(),
		body:       body,
		state:      worldstate.New(),
		recheck:    true,
		maxReplans: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDiscard(p.logger).With(logging.KeyAgent, p.id)
	for _, a := range p.actions {
		a.Bind(p)
	}
	return p
}

func (p *Planner) ID() string { return p.id }

func (p *Planner) Phase() Phase { return p.phase }

// Plan returns the plan being executed, or nil.
func (p *Planner) Plan() *plan.Plan { return p.plan }

// Current returns the running action, or nil.
func (p *Planner) Current() *action.Action { return p.current }

func (p *Planner) Goal() *goal.Goal { return p.goal }

// State returns a copy of the current world state.
func (p *Planner) State() worldstate.WorldState { return p.state.Copy() }

// Actions returns the registered actions in search order.
func (p *Planner) Actions() []*action.Action {
	return append([]*action.Action(nil), p.actions...)
}

// AddActions registers more actions, binding them to the planner.
func (p *Planner) AddActions(actions ...*action.Action) {
	for _, a := range actions {
		a.Bind(p)
	}
	p.actions = append(p.actions, actions...)
}

// SetGoal replaces the goal, abandoning any plan in progress.
func (p *Planner) SetGoal(g *goal.Goal) {
	p.Cancel()
	p.goal = g
}

// ModifyFact applies a fact reported by another system. The in-flight
// plan is left alone; the change is seen by the next precondition
// re-check or replan.
func (p *Planner) ModifyFact(f worldstate.Fact) {
	p.logger.Debug("fact modified", "fact", f.String())
	p.state.Apply(f)
}

// Cancel abandons the plan in progress, if any, and returns to Idle.
func (p *Planner) Cancel() {
	if p.phase != Executing {
		return
	}
	pl := p.plan
	p.abandon()
	p.emit(Event{Kind: PlanAbandoned, Plan: pl, Goal: p.goal, Err: ErrPlanCanceled})
}

// Assess refreshes perception and formulates a plan for the goal. It does
// nothing unless the planner is Idle. Failing to find a plan is not an
// error: the planner stays Idle.
func (p *Planner) Assess() error {
	if p.phase != Idle {
		return nil
	}
	p.replans = 0
	return p.assess()
}

// Update advances the running action by dt.
func (p *Planner) Update(dt float64) error {
	p.replans = 0
	if p.phase != Executing || p.current == nil {
		return nil
	}
	a := p.current
	switch a.Update(dt) {
	case action.Ended:
		p.state.Merge(a.Effects())
		p.current = nil
		p.logger.Debug("action ended", logging.KeyAction, a.Name(), "state", p.state.String())
		p.emit(Event{Kind: ActionEnded, Plan: p.plan, Action: a, Goal: p.goal})
		return p.advance()
	case action.Canceled:
		return p.canceled(a)
	}
	return nil
}

// action.Host

func (p *Planner) AgentID() string { return p.id }

func (p *Planner) Position() worldstate.Vec3 {
	if p.body == nil {
		return worldstate.Vec3{}
	}
	return p.body.Position()
}

func (p *Planner) Interactives() []action.Object { return p.interactives }

func (p *Planner) Mover() action.Mover { return p.mover }

func (p *Planner) PushFact(f worldstate.Fact) { p.ModifyFact(f) }

// Facts is State, for actions that read the agent's facts through the host.
func (p *Planner) Facts() worldstate.WorldState { return p.state.Copy() }

func (p *Planner) assess() error {
	if p.goal == nil {
		return nil
	}
	p.phase = Planning
	p.goal.Setup()
	if p.sensor != nil {
		p.interactives = p.sensor.Scan()
	}

	popts := []plan.Option{plan.WithLogger(p.logger)}
	if p.unmet {
		popts = append(popts, plan.WithUnmetFrontier())
	}
	pl, err := plan.Formulate(p.actions, p.state, p.goal, popts...)
	if err != nil {
		p.phase = Idle
		if errors.Is(err, plan.ErrNoPlan) {
			p.logger.Debug("no plan found", logging.KeyGoal, p.goal.Name)
			return nil
		}
		return fmt.Errorf("failed to formulate plan for goal %s: %w", p.goal.Name, err)
	}

	p.plan = pl
	p.phase = Executing
	p.logger.Info("plan formulated",
		logging.KeyGoal, p.goal.Name,
		logging.KeyPlan, pl.ID,
		logging.KeyCost, pl.Cost,
		"actions", pl.Names())
	p.emit(Event{Kind: PlanFormulated, Plan: pl, Goal: p.goal})
	return p.advance()
}

// advance begins the next action of the plan, or completes the plan.
func (p *Planner) advance() error {
	if p.plan.IsFinished() {
		p.complete()
		return nil
	}
	a := p.plan.Next()

	if p.recheck {
		ok, err := p.state.Check(a.Preconditions())
		if err != nil {
			p.abandon()
			return fmt.Errorf("failed to check preconditions of %s: %w", a.Name(), err)
		}
		if !ok {
			pl := p.plan
			p.logger.Info("plan is stale", logging.KeyPlan, pl.ID, logging.KeyAction, a.Name())
			a.Reset()
			p.abandon()
			p.emit(Event{Kind: PlanAbandoned, Plan: pl, Action: a, Goal: p.goal, Err: ErrStalePlan})
			return p.replan()
		}
	}

	p.current = a
	p.logger.Debug("action selected", logging.KeyAction, a.Name())
	p.emit(Event{Kind: ActionSelected, Plan: p.plan, Action: a, Goal: p.goal})

	// the target cached at formulation time may be gone, or no longer the
	// best choice
	if !a.CheckContextPrecondition() {
		return p.canceledWith(a, action.ErrTargetLost)
	}
	if a.Begin() == action.Canceled {
		return p.canceled(a)
	}
	if t := a.Target(); t != nil {
		p.logger.Debug("action began", logging.KeyAction, a.Name(), logging.KeyTarget, t.ID(), "status", a.Status().String())
	}
	return nil
}

func (p *Planner) canceled(a *action.Action) error {
	return p.canceledWith(a, a.Err())
}

func (p *Planner) canceledWith(a *action.Action, cause error) error {
	p.logger.Info("action canceled", logging.KeyAction, a.Name(), "error", cause)
	pl := p.plan
	a.Reset()
	p.abandon()
	p.emit(Event{Kind: ActionCanceled, Plan: pl, Action: a, Goal: p.goal, Err: cause})
	return p.replan()
}

func (p *Planner) replan() error {
	if p.replans >= p.maxReplans {
		return nil
	}
	p.replans++
	return p.assess()
}

func (p *Planner) complete() {
	pl := p.plan
	p.plan = nil
	p.current = nil
	p.phase = Idle
	p.goal.Finish(p.state)
	p.logger.Info("plan executed", logging.KeyGoal, p.goal.Name, logging.KeyPlan, pl.ID)
	p.emit(Event{Kind: PlanExecuted, Plan: pl, Goal: p.goal})
}

// abandon resets the running and remaining actions and returns to Idle.
func (p *Planner) abandon() {
	if p.current != nil {
		p.current.Reset()
	}
	if p.plan != nil {
		for _, a := range p.plan.Actions() {
			a.Reset()
		}
	}
	p.plan = nil
	p.current = nil
	p.phase = Idle
}

func (p *Planner) emit(e Event) {
	e.Agent = p.id
	for _, l := range p.listeners {
		l.OnEvent(e)
	}
}
