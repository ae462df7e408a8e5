package expression

import (
	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/worldstate"
)

// ObjectEnv is the target filter environment for obj, seen from an agent
// at from holding facts.
func ObjectEnv(obj action.Object, from worldstate.Vec3, facts worldstate.WorldState) map[string]any {
	env := objectEnv(obj)
	env["distance"] = from.Dist(obj.Position())
	env["facts"] = facts.Values()
	return env
}

// ContextEnv is the context condition environment.
func ContextEnv(facts worldstate.WorldState, objects []action.Object) map[string]any {
	objs := make([]any, 0, len(objects))
	for _, obj := range objects {
		if obj != nil && obj.Valid() {
			objs = append(objs, objectEnv(obj))
		}
	}
	return map[string]any{
		"facts":   facts.Values(),
		"objects": objs,
	}
}

func objectEnv(obj action.Object) map[string]any {
	props := obj.Props()
	env := make(map[string]any, len(props)+4)
	for k, v := range props {
		env[k] = v
	}
	env["id"] = obj.ID()
	env["kind"] = obj.Kind()
	env["props"] = props
	return env
}
