package worldstate

import (
	"sort"
	"strings"
)

// WorldState maps fact names to facts. It is a value type by convention:
// copy it with Copy before handing it to code that may mutate it.
//
// The nil WorldState is empty and readable; Apply and Merge need a non-nil
// map, so construct with New or make.
type WorldState map[string]Fact

// New returns a WorldState holding the given facts, later facts overwriting
// earlier ones of the same name.
func New(facts ...Fact) WorldState {
	ws := make(WorldState, len(facts))
	for _, f := range facts {
		ws[f.Name] = f
	}
	return ws
}

// Apply inserts or overwrites a fact.
func (ws WorldState) Apply(f Fact) {
	ws[f.Name] = f
}

// SetInt applies an integer fact.
func (ws WorldState) SetInt(name string, value int) { ws.Apply(Int(name, value)) }

// SetFloat applies a float fact.
func (ws WorldState) SetFloat(name string, value float64) { ws.Apply(Float(name, value)) }

// SetBool applies a boolean fact.
func (ws WorldState) SetBool(name string, value bool) { ws.Apply(Bool(name, value)) }

// SetVec applies a vector fact.
func (ws WorldState) SetVec(name string, value Vec3) { ws.Apply(Vec(name, value)) }

// Get returns the named fact.
func (ws WorldState) Get(name string) (Fact, bool) {
	f, ok := ws[name]
	return f, ok
}

// Has reports whether the named fact exists.
func (ws WorldState) Has(name string) bool {
	_, ok := ws[name]
	return ok
}

// Delete removes the named fact.
func (ws WorldState) Delete(name string) {
	delete(ws, name)
}

// Len returns the number of facts.
func (ws WorldState) Len() int { return len(ws) }

// IsEmpty reports whether the state holds no facts.
func (ws WorldState) IsEmpty() bool { return len(ws) == 0 }

// Names returns the fact names in sorted order.
func (ws WorldState) Names() []string {
	names := make([]string, 0, len(ws))
	for name := range ws {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check reports whether every fact in goal is held by ws with an equal
// value. Facts of ws not named by goal are ignored. A missing fact yields
// false; a kind mismatch yields a *TypeMismatchError.
func (ws WorldState) Check(goal WorldState) (bool, error) {
	// sorted so that the reported mismatch is deterministic
	for _, name := range goal.Names() {
		have, ok := ws[name]
		if !ok {
			return false, nil
		}
		eq, err := have.Equal(goal[name])
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

// Satisfies is Check for callers that treat a kind mismatch as a programming
// error: it panics with the *TypeMismatchError.
func (ws WorldState) Satisfies(goal WorldState) bool {
	ok, err := ws.Check(goal)
	if err != nil {
		panic(err)
	}
	return ok
}

// Unsatisfied returns the facts of goal that ws does not currently hold.
func (ws WorldState) Unsatisfied(goal WorldState) (WorldState, error) {
	out := make(WorldState)
	for name, want := range goal {
		have, ok := ws[name]
		if !ok {
			out[name] = want
			continue
		}
		eq, err := have.Equal(want)
		if err != nil {
			return nil, err
		}
		if !eq {
			out[name] = want
		}
	}
	return out, nil
}

// Merge overwrites or inserts every fact of effects into ws.
func (ws WorldState) Merge(effects WorldState) {
	for name, f := range effects {
		ws[name] = f
	}
}

// Copy returns an independent copy of ws. Facts are values, so a shallow
// map copy is a deep copy.
func (ws WorldState) Copy() WorldState {
	out := make(WorldState, len(ws))
	for name, f := range ws {
		out[name] = f
	}
	return out
}

// Values returns the fact values keyed by name, for expression environments.
func (ws WorldState) Values() map[string]any {
	out := make(map[string]any, len(ws))
	for name, f := range ws {
		out[name] = f.Value()
	}
	return out
}

// String renders the state as {a: 1, b: true} with sorted names.
func (ws WorldState) String() string {
	if len(ws) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range ws.Names() {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		f := ws[name]
		if f.Kind() == KindVector3 {
			b.WriteString(f.Vec().String())
		} else {
			b.WriteString(formatScalar(f))
		}
	}
	b.WriteByte('}')
	return b.String()
}
