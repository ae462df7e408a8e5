package sim

import (
	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/worldstate"
)

const reachEpsilon = 1e-9

// Body is an agent's position and its straight-line mover.
type Body struct {
	pos    worldstate.Vec3
	speed  float64
	target action.Object
	within float64
	status action.MoveStatus
}

var _ action.Mover = (*Body)(nil)

// NewBody places a body at pos, moving at speed units per second.
func NewBody(pos worldstate.Vec3, speed float64) *Body {
	return &Body{pos: pos, speed: speed}
}

func (b *Body) Position() worldstate.Vec3 { return b.pos }

func (b *Body) Speed() float64 { return b.speed }

// MoveTo starts an approach. A body that cannot move reports MoveLost.
func (b *Body) MoveTo(target action.Object, within float64) {
	b.target, b.within = target, max(within, 0)
	switch {
	case target == nil || b.speed <= 0:
		b.target = nil
		b.status = action.MoveLost
	default:
		b.status = action.MoveInProgress
	}
}

func (b *Body) Status() action.MoveStatus { return b.status }

func (b *Body) Stop() {
	b.target = nil
	b.status = action.MoveIdle
}

// step moves the body towards its target for dt seconds.
func (b *Body) step(dt float64) {
	if b.status != action.MoveInProgress {
		return
	}
	if !b.target.Valid() {
		b.target = nil
		b.status = action.MoveLost
		return
	}
	to := b.target.Position()
	d := b.pos.Dist(to)
	if gap := d - b.within; gap > reachEpsilon {
		travel := min(b.speed*dt, gap)
		b.pos = b.pos.Add(to.Sub(b.pos).Scale(travel / d))
		d = b.pos.Dist(to)
	}
	if d <= b.within+reachEpsilon {
		b.status = action.MoveReached
	}
}

// Sensor reports the valid objects within range of a body.
type Sensor struct {
	world *World
	body  *Body
	rng   float64
}

var _ action.Sensor = (*Sensor)(nil)

// NewSensor creates a sensor over w. A non-positive rng senses everything.
func NewSensor(w *World, body *Body, rng float64) *Sensor {
	return &Sensor{world: w, body: body, rng: rng}
}

func (s *Sensor) Scan() []action.Object {
	var out []action.Object
	pos := s.body.Position()
	for _, obj := range s.world.objects {
		if !obj.Valid() {
			continue
		}
		if s.rng > 0 && pos.Dist(obj.Position()) > s.rng {
			continue
		}
		out = append(out, obj)
	}
	return out
}
