package sim

import (
	"maps"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/library"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Object is a world entity agents can sense and interact with. Integer
// properties change through Adjust, which also applies the world's rules:
// a resource whose count reaches zero is destroyed, and a building whose
// progress reaches needed is finished.
type Object struct {
	id    string
	kind  string
	pos   worldstate.Vec3
	props map[string]any

	destroyed bool
	user      string
	uses      int
	onDestroy func(*Object)
}

var (
	_ action.Object   = (*Object)(nil)
	_ library.Mutable = (*Object)(nil)
)

// NewObject creates an object with a copy of props.
func NewObject(id, kind string, pos worldstate.Vec3, props map[string]any) *Object {
	if props == nil {
		props = map[string]any{}
	} else {
		props = maps.Clone(props)
	}
	return &Object{id: id, kind: kind, pos: pos, props: props}
}

func (o *Object) ID() string                { return o.id }
func (o *Object) Kind() string              { return o.kind }
func (o *Object) Position() worldstate.Vec3 { return o.pos }
func (o *Object) Valid() bool               { return !o.destroyed }

// Props returns the live property map. Callers must not modify it.
func (o *Object) Props() map[string]any { return o.props }

func (o *Object) InteractionStarted(source string) {
	o.user = source
	o.uses++
}

func (o *Object) InteractionEnded() { o.user = "" }

// User is the agent currently interacting with the object, if any.
func (o *Object) User() string { return o.user }

// Uses counts the interactions the object has received.
func (o *Object) Uses() int { return o.uses }

// Int reads an integer property; missing or non-numeric values are 0.
func (o *Object) Int(prop string) int {
	switch v := o.props[prop].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (o *Object) Adjust(prop string, delta int) int {
	n := o.Int(prop) + delta
	o.props[prop] = n
	switch prop {
	case library.PropCount:
		if n <= 0 {
			o.Destroy()
		}
	case library.PropProgress:
		if needed := o.Int(library.PropNeeded); needed > 0 && n >= needed {
			o.props[library.PropFinished] = true
		}
	}
	return n
}

// Destroy invalidates the object. Destroying twice does nothing.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	if o.onDestroy != nil {
		o.onDestroy(o)
	}
}
