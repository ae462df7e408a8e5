// Package sim is a small deterministic world for running agents outside a
// game engine: objects with properties, bodies moving in straight lines,
// range-limited sensors, and a fixed-step clock.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Runner is anything advanced once per world step, e.g. an agent.Agent or
// a reactive.Driver.
type Runner interface {
	Update(dt float64) error
}

// Agent is a runner placed in the world.
type Agent struct {
	Name   string
	Body   *Body
	Sensor *Sensor
	Runner Runner
}

// World owns objects and agents and advances them together.
type World struct {
	mu      sync.Mutex
	objects []*Object
	byID    map[string]*Object
	agents  []*Agent
	ticks   int
	elapsed float64
	logger  *slog.Logger
	rng     float64
}

// Option configures a World.
type Option func(*World)

func WithLogger(logger *slog.Logger) Option {
	return func(w *World) { w.logger = logger }
}

// WithInteractionRange sets the range of scenario actions that do not
// declare one.
func WithInteractionRange(r float64) Option {
	return func(w *World) { w.rng = r }
}

func NewWorld(opts ...Option) *World {
	w := &World{byID: make(map[string]*Object)}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.OrDiscard(w.logger)
	return w
}

// AddObject registers obj. IDs must be unique.
func (w *World) AddObject(obj *Object) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byID[obj.id]; ok {
		return fmt.Errorf("duplicate object: %s", obj.id)
	}
	obj.onDestroy = w.destroyed
	w.objects = append(w.objects, obj)
	w.byID[obj.id] = obj
	return nil
}

// Object looks up an object by ID, destroyed or not.
func (w *World) Object(id string) (*Object, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	obj, ok := w.byID[id]
	return obj, ok
}

// Objects returns every object in insertion order.
func (w *World) Objects() []*Object {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Object(nil), w.objects...)
}

// Destroy invalidates the object with the given ID, reporting whether it
// existed and was still valid.
func (w *World) Destroy(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	obj, ok := w.byID[id]
	if !ok || !obj.Valid() {
		return false
	}
	obj.Destroy()
	return true
}

func (w *World) destroyed(obj *Object) {
	w.logger.Debug("object destroyed", "object", obj.id, "kind", obj.kind)
}

// AddAgent places an agent in the world. Its runner is updated after the
// bodies move on each step.
func (w *World) AddAgent(a *Agent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.agents = append(w.agents, a)
}

func (w *World) Agents() []*Agent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Agent(nil), w.agents...)
}

// Step advances the world by dt seconds: bodies move, then every runner
// updates. Runner errors are joined; a failing runner does not stop the
// others.
func (w *World) Step(dt float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.agents {
		if a.Body != nil {
			a.Body.step(dt)
		}
	}
	var errs []error
	for _, a := range w.agents {
		if a.Runner == nil {
			continue
		}
		if err := a.Runner.Update(dt); err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", a.Name, err))
		}
	}
	w.ticks++
	w.elapsed += dt
	return errors.Join(errs...)
}

// Run steps the world every tick with a fixed dt of tick seconds, until
// ctx is done, a step fails, or maxTicks steps ran (zero means no limit).
// after, if non-nil, is called after each step.
func (w *World) Run(ctx context.Context, tick time.Duration, maxTicks int, after func(*World)) error {
	if tick <= 0 {
		return fmt.Errorf("invalid tick: %s", tick)
	}
	dt := tick.Seconds()
	n := 0
	ticker := bt.NewTickerStopOnFailure(ctx, tick, bt.New(func([]bt.Node) (bt.Status, error) {
		if maxTicks > 0 && n >= maxTicks {
			return bt.Failure, nil
		}
		n++
		if err := w.Step(dt); err != nil {
			return bt.Failure, err
		}
		if after != nil {
			after(w)
		}
		return bt.Success, nil
	}))
	<-ticker.Done()
	return ticker.Err()
}

// RunFast is Run without waiting between steps: simulated time advances
// by tick per step as fast as the steps complete.
func (w *World) RunFast(ctx context.Context, tick time.Duration, maxTicks int, after func(*World)) error {
	if tick <= 0 {
		return fmt.Errorf("invalid tick: %s", tick)
	}
	dt := tick.Seconds()
	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Step(dt); err != nil {
			return err
		}
		if after != nil {
			after(w)
		}
	}
	return nil
}

// Snapshot is a point-in-time copy of the world for display.
type Snapshot struct {
	Tick    int
	Elapsed float64
	Objects []ObjectState
	Agents  []AgentState
}

type ObjectState struct {
	ID, Kind string
	Position worldstate.Vec3
	Valid    bool
	User     string
	Props    map[string]any
}

type AgentState struct {
	Name     string
	Position worldstate.Vec3
	Moving   bool
}

func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{Tick: w.ticks, Elapsed: w.elapsed}
	for _, o := range w.objects {
		s.Objects = append(s.Objects, ObjectState{
			ID:       o.id,
			Kind:     o.kind,
			Position: o.pos,
			Valid:    o.Valid(),
			User:     o.user,
			Props:    maps.Clone(o.props),
		})
	}
	for _, a := range w.agents {
		st := AgentState{Name: a.Name}
		if a.Body != nil {
			st.Position = a.Body.pos
			st.Moving = a.Body.status == action.MoveInProgress
		}
		s.Agents = append(s.Agents, st)
	}
	return s
}
