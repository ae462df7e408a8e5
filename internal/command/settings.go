package command

import (
	"time"

	"github.com/joeycumines/goap/internal/config"
)

// settings are the resolved [planner] and [sim] options.
type settings struct {
	AssessmentPeriod time.Duration
	Recheck          bool
	UnmetFrontier    bool
	Trace            bool
	MaxReplans       int

	Tick             time.Duration
	MaxTicks         int
	SensorRange      float64
	AgentSpeed       float64
	InteractionRange float64
}

func resolveSettings(cfg *config.Config) settings {
	s := config.DefaultSchema()
	const p, sim = config.SectionPlanner, config.SectionSim
	return settings{
		AssessmentPeriod: s.GetDuration(cfg, p, "assessment-period"),
		Recheck:          s.GetBool(cfg, p, "recheck-preconditions"),
		UnmetFrontier:    s.GetBool(cfg, p, "unmet-frontier"),
		Trace:            s.GetBool(cfg, p, "trace"),
		MaxReplans:       s.GetInt(cfg, p, "max-replans-per-tick"),

		Tick:             s.GetDuration(cfg, sim, "tick"),
		MaxTicks:         s.GetInt(cfg, sim, "max-ticks"),
		SensorRange:      s.GetFloat(cfg, sim, "sensor-range"),
		AgentSpeed:       s.GetFloat(cfg, sim, "agent-speed"),
		InteractionRange: s.GetFloat(cfg, sim, "interaction-range"),
	}
}
