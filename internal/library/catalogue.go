// Package library is the stock catalogue of actions and goals for resource
// gathering agents, plus a YAML format for declaring more actions without
// writing Go.
//
// The built-ins cover the gather, refine and build loop:
//
//	PickUpResource   depot (resources > 0)  -> HasResource
//	DeliverResource  depot   HasResource    -> HasDeliveredResource
//	HarvestResource  resource EquippedTool  -> HasResource, !EquippedTool
//	ProcessResource  refinery HasResource   -> HasProcessedResource, !HasResource
//	Build            building HasProcessedResource -> HasBuilt
//	BuyTool          shop     HasMoney      -> HasTool, !HasMoney
//	PickUpTool       tool                   -> HasTool
//	EquipTool        (self)   HasTool       -> EquippedTool
package library

import (
	"fmt"
	"maps"
	"slices"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
	"github.com/joeycumines/goap/internal/worldstate"
)

// Object kinds the built-in actions target.
const (
	KindDepot    = "depot"
	KindResource = "resource"
	KindRefinery = "refinery"
	KindBuilding = "building"
	KindShop     = "shop"
	KindTool     = "tool"
)

// Fact names used by the built-in actions and goals.
const (
	HasResource          = "HasResource"
	HasDeliveredResource = "HasDeliveredResource"
	HasProcessedResource = "HasProcessedResource"
	HasBuilt             = "HasBuilt"
	HasTool              = "HasTool"
	HasMoney             = "HasMoney"
	EquippedTool         = "EquippedTool"
)

// Object property names.
const (
	PropResources = "resources"
	PropCount     = "count"
	PropProgress  = "progress"
	PropNeeded    = "needed"
	PropFinished  = "finished"
)

const (
	DefaultCost        = 1.0
	DefaultRange       = 2.0
	DefaultDuration    = 1.0
	DefaultToolCharges = 3
)

// Mutable is implemented by objects whose properties actions can change.
// Adjust adds delta to an integer property and returns the new value.
type Mutable interface {
	Adjust(prop string, delta int) int
}

// FactReader is implemented by hosts exposing the agent's current facts.
type FactReader interface {
	Facts() worldstate.WorldState
}

// Tool tracks the charges left on the tool an agent carries.
type Tool struct {
	Charges  int
	capacity int
}

// NewTool returns a fully charged tool. Capacities below one become one.
func NewTool(capacity int) *Tool {
	capacity = max(capacity, 1)
	return &Tool{Charges: capacity, capacity: capacity}
}

func (t *Tool) Capacity() int { return t.capacity }

// Refill restores the tool's charges, e.g. on acquiring a new one.
func (t *Tool) Refill() { t.Charges = t.capacity }

// Consume uses one charge and returns the charges left.
func (t *Tool) Consume() int {
	if t.Charges > 0 {
		t.Charges--
	}
	return t.Charges
}

// Params tune a built-in action. Zero fields take the defaults; Name
// renames the action.
type Params struct {
	Name     string
	Cost     float64
	Range    float64
	Duration float64
}

type builtin struct {
	name string
	make func(p Params, tool *Tool) *action.Action
}

// builtins in registration order.
var builtins = []builtin{
	{"PickUpResource", pickUpResource},
	{"DeliverResource", deliverResource},
	{"HarvestResource", harvestResource},
	{"ProcessResource", processResource},
	{"Build", build},
	{"BuyTool", buyTool},
	{"PickUpTool", pickUpTool},
	{"EquipTool", equipTool},
}

// Names lists the built-in actions in registration order.
func Names() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}

// IsBuiltin reports whether name is a built-in action.
func IsBuiltin(name string) bool {
	return slices.Contains(Names(), name)
}

// Builtin creates a fresh instance of the named built-in action. A nil
// tool gets a new one with DefaultToolCharges.
func Builtin(name string, p Params, tool *Tool) (*action.Action, error) {
	for _, b := range builtins {
		if b.name == name {
			if tool == nil {
				tool = NewTool(DefaultToolCharges)
			}
			if p.Name == "" {
				p.Name = name
			}
			return b.make(p, tool), nil
		}
	}
	return nil, fmt.Errorf("unknown action: %s", name)
}

// Standard returns fresh instances of every built-in, sharing tool.
func Standard(tool *Tool) []*action.Action {
	if tool == nil {
		tool = NewTool(DefaultToolCharges)
	}
	actions := make([]*action.Action, len(builtins))
	for i, b := range builtins {
		actions[i] = b.make(Params{Name: b.name}, tool)
	}
	return actions
}

func (p Params) interaction(pre, eff worldstate.WorldState) action.Definition {
	d := p.self(pre, eff)
	d.RequiresRange = true
	d.Range = p.Range
	if d.Range <= 0 {
		d.Range = DefaultRange
	}
	return d
}

func (p Params) self(pre, eff worldstate.WorldState) action.Definition {
	d := action.Definition{
		Name:          p.Name,
		Cost:          p.Cost,
		Duration:      p.Duration,
		Preconditions: pre,
		Effects:       eff,
	}
	if d.Cost <= 0 {
		d.Cost = DefaultCost
	}
	if d.Duration <= 0 {
		d.Duration = DefaultDuration
	}
	return d
}

func facts(fs ...worldstate.Fact) worldstate.WorldState { return worldstate.New(fs...) }

func pickUpResource(p Params, _ *Tool) *action.Action {
	return action.New(p.interaction(
		facts(),
		facts(worldstate.Bool(HasResource, true)),
	), &action.Interaction{
		Match: func(obj action.Object) bool {
			return obj.Kind() == KindDepot && intProp(obj, PropResources) > 0
		},
		Interact: adjust(PropResources, -1),
	})
}

func deliverResource(p Params, _ *Tool) *action.Action {
	return action.New(p.interaction(
		facts(worldstate.Bool(HasResource, true)),
		facts(worldstate.Bool(HasDeliveredResource, true)),
	), &action.Interaction{
		Match:    action.OfKind(KindDepot),
		Interact: adjust(PropResources, 1),
	})
}

func harvestResource(p Params, _ *Tool) *action.Action {
	return action.New(p.interaction(
		facts(worldstate.Bool(EquippedTool, true)),
		facts(worldstate.Bool(EquippedTool, false), worldstate.Bool(HasResource, true)),
	), &action.Interaction{
		Match: func(obj action.Object) bool {
			return obj.Kind() == KindResource && intProp(obj, PropCount) > 0
		},
		Interact: adjust(PropCount, -1),
	})
}

func processResource(p Params, _ *Tool) *action.Action {
	return action.New(p.interaction(
		facts(worldstate.Bool(HasResource, true)),
		facts(worldstate.Bool(HasResource, false), worldstate.Bool(HasProcessedResource, true)),
	), &action.Interaction{Match: action.OfKind(KindRefinery)})
}

func build(p Params, _ *Tool) *action.Action {
	return action.New(p.interaction(
		facts(worldstate.Bool(HasProcessedResource, true)),
		facts(worldstate.Bool(HasProcessedResource, false), worldstate.Bool(HasBuilt, true)),
	), &action.Interaction{
		Match: func(obj action.Object) bool {
			return obj.Kind() == KindBuilding && !boolProp(obj, PropFinished)
		},
		Interact: adjust(PropProgress, 1),
	})
}

func buyTool(p Params, tool *Tool) *action.Action {
	return action.New(p.interaction(
		facts(worldstate.Bool(HasMoney, true)),
		facts(worldstate.Bool(HasMoney, false), worldstate.Bool(HasTool, true)),
	), &action.Interaction{
		Match:    action.OfKind(KindShop),
		Interact: func(action.Host, action.Object) { tool.Refill() },
	})
}

func pickUpTool(p Params, tool *Tool) *action.Action {
	return action.New(p.interaction(
		facts(),
		facts(worldstate.Bool(HasTool, true)),
	), &action.Interaction{
		Match:    action.OfKind(KindTool),
		Interact: func(action.Host, action.Object) { tool.Refill() },
	})
}

// equipTool spends a charge; the last one drops HasTool.
func equipTool(p Params, tool *Tool) *action.Action {
	return action.New(p.self(
		facts(worldstate.Bool(HasTool, true)),
		facts(worldstate.Bool(EquippedTool, true)),
	), &action.Self{
		Apply: func(host action.Host) {
			if tool.Consume() <= 0 {
				host.PushFact(worldstate.Bool(HasTool, false))
			}
		},
	})
}

func adjust(prop string, delta int) func(action.Host, action.Object) {
	return func(_ action.Host, target action.Object) {
		if m, ok := target.(Mutable); ok {
			m.Adjust(prop, delta)
		}
	}
}

func intProp(obj action.Object, name string) int {
	switch v := obj.Props()[name].(type) {
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

func boolProp(obj action.Object, name string) bool {
	v, _ := obj.Props()[name].(bool)
	return v
}

var goals = map[string]func() *goal.Goal{
	"CollectResources":   CollectResources,
	"ProcessResources":   ProcessResources,
	"ConstructBuildings": ConstructBuildings,
}

// CollectResources wants a resource delivered to a depot, over and over.
func CollectResources() *goal.Goal {
	return goal.New("CollectResources",
		facts(worldstate.Bool(HasDeliveredResource, true)),
		goal.ResetOnFinish(worldstate.Bool(HasDeliveredResource, false)),
	)
}

// ProcessResources wants a processed resource in hand. It is not
// repeatable.
func ProcessResources() *goal.Goal {
	return goal.New("ProcessResources", facts(worldstate.Bool(HasProcessedResource, true)))
}

// ConstructBuildings wants buildings advanced, over and over.
func ConstructBuildings() *goal.Goal {
	return goal.New("ConstructBuildings",
		facts(worldstate.Bool(HasBuilt, true)),
		goal.ResetOnFinish(worldstate.Bool(HasBuilt, false)),
	)
}

// Goal returns a fresh instance of the named stock goal.
func Goal(name string) (*goal.Goal, error) {
	fn, ok := goals[name]
	if !ok {
		return nil, fmt.Errorf("unknown goal: %s", name)
	}
	return fn(), nil
}

// GoalNames lists the stock goals, sorted.
func GoalNames() []string {
	return slices.Sorted(maps.Keys(goals))
}
