// Package reactive runs an agent's actions under a Planning-and-Acting
// behavior tree (go-pabt) instead of the regression planner. The tree is
// grown lazily from the goal: whenever a condition fails, the actions whose
// effects would fix it are spliced in as fallbacks.
//
// Both engines share the action package, so the same library of actions
// serves either one.
package reactive

import (
	"fmt"
	"log/slog"
	"sync"

	pabt "github.com/joeycumines/go-pabt"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/worldstate"
)

var _ pabt.IState = (*State)(nil)

// State is the world state as seen by the PA-BT planner, plus the action
// registry it expands from. Safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	facts   worldstate.WorldState
	actions []*Action
	logger  *slog.Logger
	tick    uint64
}

// NewState creates a State holding a copy of facts.
func NewState(facts worldstate.WorldState, logger *slog.Logger) *State {
	ws := worldstate.New()
	ws.Merge(facts)
	return &State{facts: ws, logger: logging.OrDiscard(logger)}
}

// Variable implements pabt.IState. Keys are fact names (strings or
// fmt.Stringer). A missing fact reads as nil.
func (s *State) Variable(key any) (any, error) {
	name, err := keyName(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facts.Get(name)
	if !ok {
		return nil, nil
	}
	return f.Value(), nil
}

// Actions implements pabt.IState: it returns, in registration order, the
// actions with an effect that satisfies failed. Inactive actions whose
// context precondition fails are left out.
func (s *State) Actions(failed pabt.Condition) ([]pabt.IAction, error) {
	s.mu.RLock()
	registered := append([]*Action(nil), s.actions...)
	s.mu.RUnlock()

	if failed == nil {
		out := make([]pabt.IAction, len(registered))
		for i, a := range registered {
			out[i] = a
		}
		return out, nil
	}

	var relevant []pabt.IAction
	for _, a := range registered {
		if !hasRelevantEffect(a, failed) {
			continue
		}
		if !a.usable() {
			s.logger.Debug("action skipped, context precondition failed", logging.KeyAction, a.Name())
			continue
		}
		relevant = append(relevant, a)
	}
	s.logger.Debug("expanding failed condition", "key", failed.Key(), "candidates", len(relevant))
	return relevant, nil
}

// Register appends actions to the registry.
func (s *State) Register(actions ...*Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, actions...)
}

// Apply sets a single fact.
func (s *State) Apply(f worldstate.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts.Apply(f)
}

// Merge overwrites facts with effects.
func (s *State) Merge(effects worldstate.WorldState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts.Merge(effects)
}

// Facts returns a copy of the current facts.
func (s *State) Facts() worldstate.WorldState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facts.Copy()
}

// nextTick starts a new tick of the tree.
func (s *State) nextTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
}

func (s *State) currentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// resetUnticked resets every in-flight action the current tick did not
// reach, stopping any approach it started, and returns them.
func (s *State) resetUnticked() []*Action {
	s.mu.RLock()
	tick := s.tick
	registered := append([]*Action(nil), s.actions...)
	s.mu.RUnlock()

	var reset []*Action
	for _, a := range registered {
		if a.ticked == tick || a.inner.Status() == action.Inactive {
			continue
		}
		a.inner.Reset()
		reset = append(reset, a)
	}
	return reset
}

// update runs fn with exclusive access to the facts.
func (s *State) update(fn func(worldstate.WorldState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.facts)
}

func keyName(key any) (string, error) {
	switch k := key.(type) {
	case nil:
		return "", fmt.Errorf("variable key cannot be nil")
	case string:
		return k, nil
	case fmt.Stringer:
		return k.String(), nil
	default:
		return "", fmt.Errorf("unsupported key type: %T", key)
	}
}

func hasRelevantEffect(a pabt.IAction, failed pabt.Condition) bool {
	key := failed.Key()
	for _, e := range a.Effects() {
		if e != nil && e.Key() == key && failed.Match(e.Value()) {
			return true
		}
	}
	return false
}
