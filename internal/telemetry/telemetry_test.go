package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/joeycumines/goap/internal/action"
	"github.com/joeycumines/goap/internal/goal"
	"github.com/joeycumines/goap/internal/planner"
	"github.com/joeycumines/goap/internal/worldstate"
)

func newListener(t *testing.T) (*Listener, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	l, err := New(tp, noop.NewMeterProvider())
	require.NoError(t, err)
	return l, sr
}

func newPlanner(l planner.Listener) *planner.Planner {
	pickUp := action.New(action.Definition{
		Name:    "PickUp",
		Cost:    1,
		Effects: worldstate.New(worldstate.Bool("HasResource", true)),
	}, &action.Self{})
	deliver := action.New(action.Definition{
		Name:          "Deliver",
		Cost:          1,
		Preconditions: worldstate.New(worldstate.Bool("HasResource", true)),
		Effects:       worldstate.New(worldstate.Bool("HasDeliveredResource", true)),
		Duration:      1,
	}, &action.Self{})
	return planner.New(nil,
		planner.WithID("hauler"),
		planner.WithActions(pickUp, deliver),
		planner.WithGoal(goal.New("CollectResources", worldstate.New(worldstate.Bool("HasDeliveredResource", true)))),
		planner.WithListener(l),
		planner.WithMaxReplans(0),
	)
}

func attr(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestListener_PlanSpan(t *testing.T) {
	l, sr := newListener(t)
	p := newPlanner(l)

	require.NoError(t, p.Assess())
	require.NoError(t, p.Update(0))
	require.NoError(t, p.Update(1))
	require.Equal(t, planner.Idle, p.Phase())

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, SpanPlan, span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)
	assert.Equal(t, "hauler", attr(span.Attributes(), "agent").AsString())
	assert.Equal(t, "CollectResources", attr(span.Attributes(), "goal").AsString())
	assert.Equal(t, []string{"PickUp", "Deliver"}, attr(span.Attributes(), "plan.actions").AsStringSlice())
	assert.Equal(t, 2.0, attr(span.Attributes(), "plan.cost").AsFloat64())
	assert.NotEmpty(t, attr(span.Attributes(), "plan.id").AsString())

	var names []string
	for _, ev := range span.Events() {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"action.selected", "action.ended", "action.selected", "action.ended"}, names)
	assert.Equal(t, Counts{Formulated: 1, Executed: 1, Ended: 2}, l.Counts())
}

func TestListener_CanceledPlan(t *testing.T) {
	l, sr := newListener(t)
	p := newPlanner(l)

	require.NoError(t, p.Assess())
	require.NoError(t, p.Update(0))
	p.Cancel()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, planner.ErrPlanCanceled.Error(), spans[0].Status().Description)
	assert.Equal(t, Counts{Formulated: 1, Abandoned: 1, Ended: 1}, l.Counts())
}

func TestListener_CloseEndsOpenSpans(t *testing.T) {
	l, sr := newListener(t)
	p := newPlanner(l)
	require.NoError(t, p.Assess())
	assert.Empty(t, sr.Ended())

	l.Close()
	assert.Len(t, sr.Ended(), 1)
	l.Close()
	assert.Len(t, sr.Ended(), 1)
}

func TestListener_ActionEventsWithoutPlan(t *testing.T) {
	l, sr := newListener(t)
	a := action.New(action.Definition{Name: "Rest"}, &action.Self{})
	l.OnEvent(planner.Event{Kind: planner.ActionEnded, Agent: "x", Action: a})
	l.OnEvent(planner.Event{Kind: planner.PlanExecuted, Agent: "x"})
	assert.Empty(t, sr.Ended())
	assert.Equal(t, Counts{Executed: 1, Ended: 1}, l.Counts())
}

func TestLogExporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tp := NewTracerProvider(NewLogExporter(logger))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	l, err := New(tp, noop.NewMeterProvider())
	require.NoError(t, err)

	p := newPlanner(l)
	require.NoError(t, p.Assess())
	p.Cancel()

	out := buf.String()
	assert.Contains(t, out, "span=goap.plan")
	assert.Contains(t, out, "agent=hauler")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=\"planner: plan canceled\"")
}
