package action

// Interaction is the approach-then-interact behavior: the action targets
// the nearest valid object accepted by Match, and on execution notifies the
// object and runs Interact.
type Interaction struct {
	// Match filters candidate targets. Nil accepts every object.
	Match func(Object) bool
	// Interact applies the action's side effects to the world, e.g.
	// decrementing a depot's resources. May be nil.
	Interact func(host Host, target Object)
}

var _ Behavior = (*Interaction)(nil)

func (i *Interaction) ResolveTarget(host Host) (Object, bool) {
	target := Nearest(host, i.Match)
	return target, target != nil
}

func (i *Interaction) OnBegin(Host, Object) {}

func (i *Interaction) OnExecute(host Host, target Object) {
	if target == nil {
		return
	}
	target.InteractionStarted(host.AgentID())
	if i.Interact != nil {
		i.Interact(host, target)
	}
}

func (i *Interaction) OnEnd(_ Host, target Object) {
	if target != nil && target.Valid() {
		target.InteractionEnded()
	}
}

func (i *Interaction) OnReset() {}

// Self is the targetless behavior, e.g. equipping a tool already carried.
type Self struct {
	// Check is the context precondition. Nil means always usable.
	Check func(host Host) bool
	// Apply is the side effect produced on execution. May be nil.
	Apply func(host Host)
}

var _ Behavior = (*Self)(nil)

func (s *Self) ResolveTarget(host Host) (Object, bool) {
	return nil, s.Check == nil || s.Check(host)
}

func (s *Self) OnBegin(Host, Object) {}

func (s *Self) OnExecute(host Host, _ Object) {
	if s.Apply != nil {
		s.Apply(host)
	}
}

func (s *Self) OnEnd(Host, Object) {}

func (s *Self) OnReset() {}

// Nearest returns the valid object of host.Interactives() closest to the
// host that satisfies match (nil matches all), or nil. Ties keep the object
// reported first.
func Nearest(host Host, match func(Object) bool) Object {
	if host == nil {
		return nil
	}
	var (
		best     Object
		bestDist float64
		pos      = host.Position()
	)
	for _, obj := range host.Interactives() {
		if obj == nil || !obj.Valid() {
			continue
		}
		if match != nil && !match(obj) {
			continue
		}
		d := pos.Dist(obj.Position())
		if best == nil || d < bestDist {
			best, bestDist = obj, d
		}
	}
	return best
}

// OfKind returns a Match function accepting objects of the given kind.
func OfKind(kind string) func(Object) bool {
	return func(obj Object) bool { return obj.Kind() == kind }
}
