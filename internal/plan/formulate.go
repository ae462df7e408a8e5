package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/worldstate"
)

// ErrNoPlan is returned by Formulate when no action sequence reaches the
// goal. It is an expected outcome: callers stay idle and retry later.
var ErrNoPlan = errors.New("plan: no plan found")

type options struct {
	logger *slog.Logger
	newID  func() string
	unmet  bool
}

// Option configures Formulate.
type Option func(*options)

// WithLogger traces the search at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIDs overrides the plan ID generator (uuid.NewString by default).
func WithIDs(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithUnmetFrontier narrows every frontier to the facts current does not
// hold, so facts already true never need an action. Plans may then rely on
// state that no earlier action produces.
func WithUnmetFrontier() Option {
	return func(o *options) { o.unmet = true }
}

// Formulate searches backwards from the goal for a sequence of actions
// that achieves it from current.
//
// Every action is reset first. Actions whose context precondition fails,
// or whose effects already hold in current, are excluded. The frontier
// starts as the full desired state. Each step picks the usable action whose
// effects cover the whole frontier at the lowest cumulative cost (ties keep
// the earlier action), and the frontier becomes that action's
// preconditions. The search succeeds when the frontier is empty, or when no
// action covers it but current already satisfies it. An action is used at
// most once per plan. WithUnmetFrontier selects a narrower regression.
//
// The returned plan is in execution order. A goal that already holds yields
// an empty, finished plan. ErrNoPlan is returned when some frontier can be
// neither covered nor satisfied by current; a fact kind conflict between
// definitions yields an error wrapping worldstate.ErrTypeMismatch.
func Formulate(actions []*action.Action, current worldstate.WorldState, g *goal.Goal, opts ...Option) (*Plan, error) {
	o := options{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	if g == nil {
		return nil, errors.New("plan: goal cannot be nil")
	}
	logger := logging.OrDiscard(o.logger).With(logging.KeyGoal, g.Name)

	for _, a := range actions {
		a.Reset()
	}

	usable := make([]*action.Action, 0, len(actions))
	for _, a := range actions {
		if !a.CheckContextPrecondition() {
			logger.Debug("action excluded, context precondition failed", logging.KeyAction, a.Name())
			continue
		}
		holds, err := current.Check(a.Effects())
		if err != nil {
			return nil, fmt.Errorf("plan: effects of action %s: %w", a.Name(), err)
		}
		if holds {
			logger.Debug("action excluded, effects already hold", logging.KeyAction, a.Name())
			continue
		}
		usable = append(usable, a)
	}

	done, err := current.Check(g.Desired)
	if err != nil {
		return nil, fmt.Errorf("plan: goal %s: %w", g.Name, err)
	}
	logger.Debug("formulating plan", "desired", g.Desired.String(), "usable", len(usable))

	regress := func(ws worldstate.WorldState) (worldstate.WorldState, error) {
		if !o.unmet {
			return ws, nil
		}
		return current.Unsatisfied(ws)
	}

	var (
		path []*action.Action
		cost float64
	)
	next, err := regress(g.Desired)
	if err != nil {
		return nil, fmt.Errorf("plan: goal %s: %w", g.Name, err)
	}
	for !done && !next.IsEmpty() {
		logger.Debug("looking to fulfil", "frontier", next.String())
		best := -1
		var bestCost float64
		for i, a := range usable {
			ok, err := a.Effects().Check(next)
			if err != nil {
				return nil, fmt.Errorf("plan: effects of action %s: %w", a.Name(), err)
			}
			if !ok {
				continue
			}
			if c := cost + a.Cost(); best < 0 || c < bestCost {
				best, bestCost = i, c
			}
		}
		if best < 0 {
			held, err := current.Check(next)
			if err != nil {
				return nil, fmt.Errorf("plan: frontier %s: %w", next, err)
			}
			if !held {
				missing, _ := current.Unsatisfied(next)
				logger.Debug("no action fulfils the frontier", "frontier", next.String(), "missing", missing.String())
				return nil, ErrNoPlan
			}
			logger.Debug("frontier already holds", "frontier", next.String())
			break
		}

		chosen := usable[best]
		logger.Debug("adding action to path", logging.KeyAction, chosen.Name(), logging.KeyCost, bestCost)
		path = append(path, chosen)
		cost = bestCost
		usable = slices.Delete(usable, best, best+1)
		if next, err = regress(chosen.Preconditions()); err != nil {
			return nil, fmt.Errorf("plan: preconditions of action %s: %w", chosen.Name(), err)
		}
	}

	slices.Reverse(path)
	p := &Plan{ID: o.newID(), Goal: g, Cost: cost, actions: path}
	logger.Debug("plan formulated", logging.KeyPlan, p.ID, logging.KeyCost, p.Cost, "actions", p.Names())
	return p, nil
}
