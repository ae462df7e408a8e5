package library

import (
	"fmt"

	"github.com/joeycumines/goap/internal/action"
)

// Registry resolves action names to fresh actions: declared specs first,
// then the builtins.
type Registry struct {
	specs map[string]Spec
	order []string
	opts  []BuildOption
}

// NewRegistry validates specs by building each once. Names must be unique.
func NewRegistry(specs []Spec, opts ...BuildOption) (*Registry, error) {
	r := &Registry{specs: make(map[string]Spec, len(specs)), opts: opts}
	for _, spec := range specs {
		name := spec.Name
		if name == "" {
			name = spec.Builtin
		}
		if _, ok := r.specs[name]; ok {
			return nil, fmt.Errorf("duplicate action: %s", name)
		}
		if _, err := Build(spec, opts...); err != nil {
			return nil, err
		}
		if spec.Name == "" {
			spec.Name = name
		}
		r.specs[name] = spec
		r.order = append(r.order, name)
	}
	return r, nil
}

// Declared lists the declared spec names in declaration order.
func (r *Registry) Declared() []string {
	return append([]string(nil), r.order...)
}

// Actions creates one fresh action per name, in order, for a single agent
// carrying tool. No names means every builtin (or the spec overriding it)
// followed by the remaining declared specs.
func (r *Registry) Actions(names []string, tool *Tool) ([]*action.Action, error) {
	if tool == nil {
		tool = NewTool(DefaultToolCharges)
	}
	if len(names) == 0 {
		names = Names()
		for _, name := range r.order {
			if !IsBuiltin(name) {
				names = append(names, name)
			}
		}
	}
	opts := append(append([]BuildOption(nil), r.opts...), WithTool(tool))
	rng := resolve(opts).rng
	out := make([]*action.Action, 0, len(names))
	for _, name := range names {
		var (
			a   *action.Action
			err error
		)
		if spec, ok := r.specs[name]; ok {
			a, err = Build(spec, opts...)
		} else {
			a, err = Builtin(name, Params{Name: name, Range: rng}, tool)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
