package action

import (
	bt "github.com/joeycumines/go-behaviortree"
)

// Node exposes the action lifecycle as a behavior tree leaf. Each tick of
// an Inactive action runs the context check and Begin; later ticks call
// Update with dt(). Ended maps to bt.Success, Canceled (or a failed context
// check) to bt.Failure, anything else to bt.Running.
//
// The node never applies effects; wrap it (see the reactive package) when
// the tree owns the world state.
func (a *Action) Node(dt func() float64) bt.Node {
	if dt == nil {
		panic("action.Node: dt cannot be nil (action=" + a.def.Name + ")")
	}
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if a.status == Inactive {
			if !a.CheckContextPrecondition() {
				return bt.Failure, nil
			}
			if a.Begin() == Canceled {
				return bt.Failure, nil
			}
		}
		switch a.Update(dt()) {
		case Ended:
			return bt.Success, nil
		case Canceled:
			return bt.Failure, nil
		default:
			return bt.Running, nil
		}
	})
}
