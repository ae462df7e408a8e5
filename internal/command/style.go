package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/joeycumines/goap/internal/planner"
)

// colorEnabled applies the color option: always, never, or auto, which
// colors only terminals and honours NO_COLOR.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

type styles struct {
	agent  lipgloss.Style
	action lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
	faint  lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		agent:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		action: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		faint:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// notifier prints planner events as one line each, prefixed with the tick
// they happened on.
type notifier struct {
	out    io.Writer
	styles styles
	tick   func() int
}

func (n *notifier) OnEvent(e planner.Event) {
	s := n.styles
	var msg string
	switch e.Kind {
	case planner.PlanFormulated:
		msg = fmt.Sprintf("plan for %s: %s %s",
			goalName(e),
			s.action.Render(strings.Join(e.Plan.Names(), " > ")),
			s.faint.Render(fmt.Sprintf("(cost %g)", e.Plan.Cost)))
	case planner.ActionSelected:
		msg = "start " + s.action.Render(e.Action.Name())
		if t := e.Action.Target(); t != nil {
			msg += " " + s.faint.Render("@ "+t.ID())
		}
	case planner.ActionEnded:
		msg = "done " + s.action.Render(e.Action.Name())
	case planner.ActionCanceled:
		msg = s.bad.Render("canceled") + " " + s.action.Render(e.Action.Name())
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	case planner.PlanExecuted:
		msg = s.good.Render("reached " + goalName(e))
	case planner.PlanAbandoned:
		msg = s.bad.Render("abandoned plan for " + goalName(e))
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	default:
		return
	}
	_, _ = fmt.Fprintf(n.out, "%s %s %s\n", s.faint.Render(fmt.Sprintf("%5d", n.tick())), s.agent.Render(e.Agent), msg)
}

func goalName(e planner.Event) string {
	if e.Goal == nil {
		return "goal"
	}
	return e.Goal.Name
}
