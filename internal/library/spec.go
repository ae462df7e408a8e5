package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/expression"
	"github.com/joeycumines/goap/internal/logging"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Spec declares an action in YAML:
//
//	- name: ChopWood
//	  cost: 2
//	  range: 1.5
//	  duration: 0.5
//	  preconditions: {EquippedTool: true}
//	  effects: {HasResource: true, EquippedTool: false}
//	  target: kind == "tree" && count > 0
//	  when: facts.Money >= 0
//	  on_interact: [{prop: count, add: -1}]
//	  push: {Tired: true}
//
// A spec naming a builtin may only tune cost, range and duration.
type Spec struct {
	Name          string                `yaml:"name"`
	Builtin       string                `yaml:"builtin,omitempty"`
	Cost          *float64              `yaml:"cost,omitempty"`
	Range         *float64              `yaml:"range,omitempty"`
	Duration      *float64              `yaml:"duration,omitempty"`
	RequiresRange *bool                 `yaml:"requires_range,omitempty"`
	Preconditions worldstate.WorldState `yaml:"preconditions,omitempty"`
	Effects       worldstate.WorldState `yaml:"effects,omitempty"`
	Target        string                `yaml:"target,omitempty"`
	When          string                `yaml:"when,omitempty"`
	OnInteract    []PropChange          `yaml:"on_interact,omitempty"`
	Push          worldstate.WorldState `yaml:"push,omitempty"`
}

// PropChange adds Add to the integer property Prop of the target.
type PropChange struct {
	Prop string `yaml:"prop"`
	Add  int    `yaml:"add"`
}

// ParseSpecs decodes a YAML list of action specs.
func ParseSpecs(r io.Reader) ([]Spec, error) {
	var specs []Spec
	if err := yaml.NewDecoder(r).Decode(&specs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode action specs: %w", err)
	}
	return specs, nil
}

type buildOptions struct {
	logger *slog.Logger
	tool   *Tool
	cache  *expression.Cache
	rng    float64
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLogger reports expression evaluation errors at warn level.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = logger }
}

// WithTool shares tool with tool-handling builtins.
func WithTool(tool *Tool) BuildOption {
	return func(o *buildOptions) { o.tool = tool }
}

// WithCache compiles expressions through cache instead of the default.
func WithCache(cache *expression.Cache) BuildOption {
	return func(o *buildOptions) { o.cache = cache }
}

// WithRange sets the interaction range of actions that do not declare one.
func WithRange(r float64) BuildOption {
	return func(o *buildOptions) { o.rng = r }
}

func resolve(opts []BuildOption) buildOptions {
	o := buildOptions{cache: expression.DefaultCache(), rng: DefaultRange}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrDiscard(o.logger)
	if o.rng <= 0 {
		o.rng = DefaultRange
	}
	return o
}

// Build creates a fresh action from spec.
func Build(spec Spec, opts ...BuildOption) (*action.Action, error) {
	o := resolve(opts)

	if spec.Builtin != "" {
		return spec.builtin(o)
	}
	if spec.Name == "" {
		return nil, errors.New("action spec: name is required")
	}
	if len(spec.Effects) == 0 {
		return nil, fmt.Errorf("action %s: no effects", spec.Name)
	}

	def := action.Definition{
		Name:          spec.Name,
		Cost:          DefaultCost,
		Preconditions: spec.Preconditions.Copy(),
		Effects:       spec.Effects.Copy(),
		RequiresRange: spec.Target != "",
		Range:         o.rng,
	}
	if spec.Cost != nil {
		def.Cost = *spec.Cost
	}
	if def.Cost < 0 || math.IsNaN(def.Cost) {
		return nil, fmt.Errorf("action %s: invalid cost: %v", spec.Name, def.Cost)
	}
	if spec.Range != nil {
		def.Range = *spec.Range
	}
	if spec.Duration != nil {
		def.Duration = max(*spec.Duration, 0)
	}
	if spec.RequiresRange != nil {
		def.RequiresRange = *spec.RequiresRange
	}
	if def.RequiresRange && spec.Target == "" {
		return nil, fmt.Errorf("action %s: requires_range needs a target", spec.Name)
	}

	b := &scripted{
		name:    spec.Name,
		changes: spec.OnInteract,
		push:    spec.Push.Copy(),
		logger:  o.logger,
	}
	var err error
	if spec.Target != "" {
		if b.target, err = expression.CompileWith(o.cache, spec.Target); err != nil {
			return nil, fmt.Errorf("action %s: target: %w", spec.Name, err)
		}
	}
	if spec.When != "" {
		if b.when, err = expression.CompileWith(o.cache, spec.When); err != nil {
			return nil, fmt.Errorf("action %s: when: %w", spec.Name, err)
		}
	}
	for _, c := range spec.OnInteract {
		if c.Prop == "" {
			return nil, fmt.Errorf("action %s: on_interact: prop is required", spec.Name)
		}
	}
	return action.New(def, b), nil
}

func (s Spec) builtin(o buildOptions) (*action.Action, error) {
	if len(s.Preconditions) != 0 || len(s.Effects) != 0 || len(s.Push) != 0 || len(s.OnInteract) != 0 ||
		s.Target != "" || s.When != "" || s.RequiresRange != nil {
		return nil, fmt.Errorf("action %s: builtin %s: only cost, range and duration may be set", s.Name, s.Builtin)
	}
	p := Params{Name: s.Name, Range: o.rng}
	if s.Cost != nil {
		if *s.Cost < 0 || math.IsNaN(*s.Cost) {
			return nil, fmt.Errorf("action %s: invalid cost: %v", s.Builtin, *s.Cost)
		}
		p.Cost = *s.Cost
	}
	if s.Range != nil {
		p.Range = *s.Range
	}
	if s.Duration != nil {
		p.Duration = *s.Duration
	}
	return Builtin(s.Builtin, p, o.tool)
}

// scripted is the behavior of a spec-declared action.
type scripted struct {
	name    string
	target  *expression.Predicate
	when    *expression.Predicate
	changes []PropChange
	push    worldstate.WorldState
	logger  *slog.Logger
}

var _ action.Behavior = (*scripted)(nil)

func (s *scripted) ResolveTarget(host action.Host) (action.Object, bool) {
	state := hostFacts(host)
	if s.when != nil && !s.eval(s.when, expression.ContextEnv(state, host.Interactives())) {
		return nil, false
	}
	if s.target == nil {
		return nil, true
	}
	pos := host.Position()
	target := action.Nearest(host, func(obj action.Object) bool {
		return s.eval(s.target, expression.ObjectEnv(obj, pos, state))
	})
	return target, target != nil
}

func (s *scripted) OnBegin(action.Host, action.Object) {}

func (s *scripted) OnExecute(host action.Host, target action.Object) {
	if target != nil {
		target.InteractionStarted(host.AgentID())
		if m, ok := target.(Mutable); ok {
			for _, c := range s.changes {
				m.Adjust(c.Prop, c.Add)
			}
		}
	}
	for _, name := range s.push.Names() {
		f, _ := s.push.Get(name)
		host.PushFact(f)
	}
}

func (s *scripted) OnEnd(_ action.Host, target action.Object) {
	if target != nil && target.Valid() {
		target.InteractionEnded()
	}
}

func (s *scripted) OnReset() {}

func (s *scripted) eval(p *expression.Predicate, env map[string]any) bool {
	ok, err := p.Eval(env)
	if err != nil {
		s.logger.Warn("expression failed", logging.KeyAction, s.name, "expr", p.String(), "error", err)
		return false
	}
	return ok
}

func hostFacts(host action.Host) worldstate.WorldState {
	if fr, ok := host.(FactReader); ok {
		if ws := fr.Facts(); ws != nil {
			return ws
		}
	}
	return worldstate.New()
}
