// Package scenario loads simulation scenarios from YAML: the objects of a
// world, the agents acting in it, and any data-driven actions they use.
//
//	name: quarry
//	actions:
//	  - name: Rest
//	    effects: {Tired: false}
//	objects:
//	  - {id: depot-1, kind: depot, position: [10, 0, 0], props: {resources: 2}}
//	agents:
//	  - name: worker
//	    position: [0, 0, 0]
//	    speed: 4
//	    goal: CollectResources
//	    actions: [PickUpResource, DeliverResource]
//	    state: {HasResource: false}
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joeycumines/goap/internal/library"
	"github.com/joeycumines/goap/internal/worldstate"
)

const (
	// DefaultSpeed is the agent speed in units per second.
	DefaultSpeed = 5.0
	// DefaultSense is the agent's consideration range.
	DefaultSense = 50.0
)

type Scenario struct {
	Name    string         `yaml:"name,omitempty"`
	Actions []library.Spec `yaml:"actions,omitempty"`
	Objects []Object       `yaml:"objects"`
	Agents  []Agent        `yaml:"agents"`
}

type Object struct {
	ID       string          `yaml:"id"`
	Kind     string          `yaml:"kind"`
	Position worldstate.Vec3 `yaml:"position"`
	Props    map[string]any  `yaml:"props,omitempty"`
}

type Agent struct {
	Name     string          `yaml:"name"`
	Position worldstate.Vec3 `yaml:"position"`
	Speed    float64         `yaml:"speed,omitempty"`
	Sense    float64         `yaml:"sense,omitempty"`
	Goal     string          `yaml:"goal"`
	// Actions names builtins or declared actions; empty means all of them.
	Actions     []string              `yaml:"actions,omitempty"`
	State       worldstate.WorldState `yaml:"state,omitempty"`
	ToolCharges int                   `yaml:"tool_charges,omitempty"`
}

// Defaults fills in agent fields a scenario leaves unset.
type Defaults struct {
	Speed float64
	Sense float64
}

// Option configures Load and Parse.
type Option func(*Defaults)

// WithDefaults replaces DefaultSpeed and DefaultSense. Non-positive values
// keep the package defaults.
func WithDefaults(d Defaults) Option {
	return func(o *Defaults) {
		if d.Speed > 0 {
			o.Speed = d.Speed
		}
		if d.Sense > 0 {
			o.Sense = d.Sense
		}
	}
}

// Load reads and validates the scenario at path.
func Load(path string, opts ...Option) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario: %w", err)
	}
	defer f.Close()
	sc, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario, filling in defaults.
func Parse(r io.Reader, opts ...Option) (*Scenario, error) {
	d := Defaults{Speed: DefaultSpeed, Sense: DefaultSense}
	for _, opt := range opts {
		opt(&d)
	}
	var sc Scenario
	if err := yaml.NewDecoder(r).Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	sc.defaults(d)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) defaults(d Defaults) {
	for i := range sc.Agents {
		a := &sc.Agents[i]
		if a.Speed == 0 {
			a.Speed = d.Speed
		}
		if a.Sense == 0 {
			a.Sense = d.Sense
		}
		if a.ToolCharges == 0 {
			a.ToolCharges = library.DefaultToolCharges
		}
		if a.State == nil {
			a.State = worldstate.New()
		}
	}
	for i := range sc.Objects {
		if sc.Objects[i].Props == nil {
			sc.Objects[i].Props = map[string]any{}
		}
	}
}

// Validate reports every problem found, joined.
func (sc *Scenario) Validate() error {
	var errs []error
	ids := make(map[string]bool, len(sc.Objects))
	for i, o := range sc.Objects {
		switch {
		case o.ID == "":
			errs = append(errs, fmt.Errorf("objects[%d]: id is required", i))
		case ids[o.ID]:
			errs = append(errs, fmt.Errorf("objects[%d]: duplicate id %q", i, o.ID))
		}
		ids[o.ID] = true
		if o.Kind == "" {
			errs = append(errs, fmt.Errorf("objects[%d]: kind is required", i))
		}
	}

	registry, err := library.NewRegistry(sc.Actions)
	if err != nil {
		errs = append(errs, fmt.Errorf("actions: %w", err))
	}
	names := make(map[string]bool, len(sc.Agents))
	for i, a := range sc.Agents {
		switch {
		case a.Name == "":
			errs = append(errs, fmt.Errorf("agents[%d]: name is required", i))
		case names[a.Name]:
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate name %q", i, a.Name))
		}
		names[a.Name] = true
		if a.Speed < 0 || a.Sense < 0 {
			errs = append(errs, fmt.Errorf("agents[%d]: speed and sense must not be negative", i))
		}
		if _, err := library.Goal(a.Goal); err != nil {
			errs = append(errs, fmt.Errorf("agents[%d]: %w", i, err))
		}
		if registry != nil {
			if _, err := registry.Actions(a.Actions, nil); err != nil {
				errs = append(errs, fmt.Errorf("agents[%d]: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Registry resolves the scenario's action names.
func (sc *Scenario) Registry(opts ...library.BuildOption) (*library.Registry, error) {
	return library.NewRegistry(sc.Actions, opts...)
}
