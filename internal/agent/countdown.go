package agent

// Countdown is a repeating timer advanced by explicit time deltas.
type Countdown struct {
	period  float64
	current float64
}

// NewCountdown returns a countdown that first fires after period.
func NewCountdown(period float64) *Countdown {
	return &Countdown{period: period, current: period}
}

// Update advances the countdown by dt, reporting whether it has expired.
// An expired countdown stays expired until Reset.
func (c *Countdown) Update(dt float64) bool {
	c.current -= dt
	return c.current <= 0
}

// Reset restarts the countdown from its period.
func (c *Countdown) Reset() { c.current = c.period }

// Remaining returns the time left, never negative.
func (c *Countdown) Remaining() float64 { return max(c.current, 0) }

func (c *Countdown) Period() float64 { return c.period }
