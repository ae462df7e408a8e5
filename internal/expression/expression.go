// Package expression compiles the boolean expressions used by data-driven
// actions (github.com/expr-lang/expr), with a shared LRU of compiled
// programs.
//
// Target filters run once per candidate object with this environment:
//
//	id, kind     the object's ID and kind
//	distance     distance from the agent to the object
//	props        the object's property map
//	<prop>       every property, also at top level
//	facts        the agent's current facts, by name
//
// Property names take precedence over expr builtins of the same name, so
// the aggregate builtins (count, sum, min, max, mean, median, first, last)
// are disabled and resolve as variables instead.
//
// Context conditions run once per check with facts and objects (a list of
// object environments as above, without distance).
package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrEmpty is returned when compiling a blank expression.
var ErrEmpty = errors.New("expression: empty expression")

var defaultCache = NewCache(DefaultCacheSize)

// shadowed lists builtins that commonly double as object property names.
var shadowed = []string{"count", "sum", "min", "max", "mean", "median", "first", "last"}

func compileOptions() []expr.Option {
	opts := make([]expr.Option, 0, len(shadowed)+2)
	opts = append(opts, expr.AsBool(), expr.AllowUndefinedVariables())
	for _, name := range shadowed {
		opts = append(opts, expr.DisableBuiltin(name))
	}
	return opts
}

// DefaultCache returns the package-level cache used by Compile.
func DefaultCache() *Cache { return defaultCache }

// Predicate is a compiled boolean expression.
type Predicate struct {
	source  string
	program *vm.Program
}

// Compile compiles source as a boolean expression, reusing the default
// cache. Undefined variables evaluate to nil rather than failing.
func Compile(source string) (*Predicate, error) {
	return CompileWith(defaultCache, source)
}

// CompileWith is Compile with an explicit cache; a nil cache disables
// caching.
func CompileWith(cache *Cache, source string) (*Predicate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmpty
	}
	if cache != nil {
		if program, ok := cache.Get(source); ok {
			return &Predicate{source: source, program: program}, nil
		}
	}
	program, err := expr.Compile(source, compileOptions()...)
	if err != nil {
		return nil, fmt.Errorf("expression: compile %q: %w", source, err)
	}
	if cache != nil {
		cache.Put(source, program)
	}
	return &Predicate{source: source, program: program}, nil
}

// MustCompile is Compile that panics on error, for static expressions.
func MustCompile(source string) *Predicate {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Predicate) String() string { return p.source }

// Eval runs the predicate against env.
func (p *Predicate) Eval(env map[string]any) (bool, error) {
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("expression: eval %q: %w", p.source, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression: eval %q: got %T, want bool", p.source, out)
	}
	return b, nil
}
