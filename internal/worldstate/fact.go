// Package worldstate implements the symbolic fact store shared by the planner,
// its actions and its goals.
//
// A WorldState maps fact names to typed values. Two facts are only ever
// compared when they carry the same Kind; comparing an integer fact with a
// boolean fact of the same name is a malformed definition and is reported as
// a TypeMismatchError.
package worldstate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind is the value tag of a Fact.
type Kind int

const (
	// KindInteger facts hold an int.
	KindInteger Kind = iota
	// KindFloat facts hold a float64.
	KindFloat
	// KindBoolean facts hold a bool.
	KindBoolean
	// KindVector3 facts hold a Vec3.
	KindVector3
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindVector3:
		return "vector3"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ErrTypeMismatch is matched (via errors.Is) by every TypeMismatchError.
var ErrTypeMismatch = errors.New("worldstate: fact type mismatch")

// TypeMismatchError reports a comparison between two facts of the same name
// but different kinds.
type TypeMismatchError struct {
	Name string
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("worldstate: fact %q compared as %s against %s", e.Name, e.Want, e.Got)
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Vec3 is a position or direction in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v*s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Len returns the euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Dist returns the distance between v and o.
func (v Vec3) Dist(o Vec3) float64 { return v.Sub(o).Len() }

// Equal reports exact component-wise equality.
func (v Vec3) Equal(o Vec3) bool { return v == o }

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Fact is a named, typed symbolic proposition.
//
// The zero Fact is an integer fact with an empty name and value 0.
type Fact struct {
	Name string
	kind Kind
	i    int
	f    float64
	b    bool
	v    Vec3
}

// Int returns an integer fact.
func Int(name string, value int) Fact { return Fact{Name: name, kind: KindInteger, i: value} }

// Float returns a float fact.
func Float(name string, value float64) Fact { return Fact{Name: name, kind: KindFloat, f: value} }

// Bool returns a boolean fact.
func Bool(name string, value bool) Fact { return Fact{Name: name, kind: KindBoolean, b: value} }

// Vec returns a vector fact.
func Vec(name string, value Vec3) Fact { return Fact{Name: name, kind: KindVector3, v: value} }

// Kind returns the value tag of the fact.
func (f Fact) Kind() Kind { return f.kind }

// Int returns the integer value. Only meaningful for Integer facts.
func (f Fact) Int() int { return f.i }

// Float returns the float value. Only meaningful for Float facts.
func (f Fact) Float() float64 { return f.f }

// Bool returns the boolean value. Only meaningful for Boolean facts.
func (f Fact) Bool() bool { return f.b }

// Vec returns the vector value. Only meaningful for Vector3 facts.
func (f Fact) Vec() Vec3 { return f.v }

// Value returns the fact's value boxed according to its kind.
func (f Fact) Value() any {
	switch f.kind {
	case KindFloat:
		return f.f
	case KindBoolean:
		return f.b
	case KindVector3:
		return f.v
	default:
		return f.i
	}
}

// Equal compares the values of two facts. The names are not compared; the
// caller is expected to have matched them already. A kind mismatch returns a
// *TypeMismatchError, where Want is the kind of other.
func (f Fact) Equal(other Fact) (bool, error) {
	if f.kind != other.kind {
		return false, &TypeMismatchError{Name: other.Name, Want: other.kind, Got: f.kind}
	}
	switch f.kind {
	case KindFloat:
		return f.f == other.f, nil
	case KindBoolean:
		return f.b == other.b, nil
	case KindVector3:
		return f.v.Equal(other.v), nil
	default:
		return f.i == other.i, nil
	}
}

func (f Fact) String() string {
	return fmt.Sprintf("%s = %v", f.Name, f.Value())
}
