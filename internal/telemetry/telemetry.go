// Package telemetry records planner events with OpenTelemetry: one span
// per plan, span events per action, and counters for plans and actions.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joeycumines/goap/internal/planner"
)

// ScopeName is the instrumentation scope of the tracer and meter.
const ScopeName = "github.com/joeycumines/goap"

// Span and metric names.
const (
	SpanPlan             = "goap.plan"
	MetricPlansFormed    = "goap.plans.formulated"
	MetricPlansExecuted  = "goap.plans.executed"
	MetricPlansAbandoned = "goap.plans.abandoned"
	MetricActionsEnded   = "goap.actions.ended"
	MetricActionsCancel  = "goap.actions.canceled"
)

// Counts mirrors the counters, for summaries.
type Counts struct {
	Formulated int64
	Executed   int64
	Abandoned  int64
	Ended      int64
	Canceled   int64
}

// Listener is a planner.Listener that records events. It is safe for use
// by several planners at once.
type Listener struct {
	tracer trace.Tracer

	formulated metric.Int64Counter
	executed   metric.Int64Counter
	abandoned  metric.Int64Counter
	ended      metric.Int64Counter
	canceled   metric.Int64Counter

	mu     sync.Mutex
	spans  map[string]trace.Span
	counts Counts
}

var _ planner.Listener = (*Listener)(nil)

// New creates a Listener using the given providers.
func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Listener, error) {
	meter := mp.Meter(ScopeName)
	l := &Listener{
		tracer: tp.Tracer(ScopeName),
		spans:  make(map[string]trace.Span),
	}
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&l.formulated, MetricPlansFormed, "Plans formulated"},
		{&l.executed, MetricPlansExecuted, "Plans drained to completion"},
		{&l.abandoned, MetricPlansAbandoned, "Plans abandoned before completion"},
		{&l.ended, MetricActionsEnded, "Actions that ended successfully"},
		{&l.canceled, MetricActionsCancel, "Actions canceled while running"},
	} {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return l, nil
}

func (l *Listener) OnEvent(e planner.Event) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{attribute.String("agent", e.Agent)}
	if e.Goal != nil {
		attrs = append(attrs, attribute.String("goal", e.Goal.Name))
	}
	set := metric.WithAttributes(attrs...)

	l.mu.Lock()
	defer l.mu.Unlock()

	switch e.Kind {
	case planner.PlanFormulated:
		l.endSpan(e.Agent)
		spanAttrs := attrs
		if e.Plan != nil {
			spanAttrs = append(spanAttrs,
				attribute.String("plan.id", e.Plan.ID),
				attribute.StringSlice("plan.actions", e.Plan.Names()),
				attribute.Float64("plan.cost", e.Plan.Cost),
			)
		}
		_, span := l.tracer.Start(ctx, SpanPlan, trace.WithAttributes(spanAttrs...))
		l.spans[e.Agent] = span
		l.formulated.Add(ctx, 1, set)
		l.counts.Formulated++

	case planner.ActionSelected:
		l.actionEvent(e, "action.selected")

	case planner.ActionEnded:
		l.actionEvent(e, "action.ended")
		l.ended.Add(ctx, 1, set)
		l.counts.Ended++

	case planner.ActionCanceled:
		l.actionEvent(e, "action.canceled")
		l.canceled.Add(ctx, 1, set)
		l.counts.Canceled++

	case planner.PlanExecuted:
		if span, ok := l.spans[e.Agent]; ok {
			span.SetStatus(codes.Ok, "")
		}
		l.endSpan(e.Agent)
		l.executed.Add(ctx, 1, set)
		l.counts.Executed++

	case planner.PlanAbandoned:
		if span, ok := l.spans[e.Agent]; ok {
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			} else {
				span.SetStatus(codes.Error, "abandoned")
			}
		}
		l.endSpan(e.Agent)
		l.abandoned.Add(ctx, 1, set)
		l.counts.Abandoned++
	}
}

func (l *Listener) actionEvent(e planner.Event, name string) {
	span, ok := l.spans[e.Agent]
	if !ok || e.Action == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("action", e.Action.Name()),
		attribute.Float64("cost", e.Action.Cost()),
	}
	if target := e.Action.Target(); target != nil {
		attrs = append(attrs, attribute.String("target", target.ID()))
	}
	if e.Err != nil {
		attrs = append(attrs, attribute.String("error", e.Err.Error()))
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (l *Listener) endSpan(agent string) {
	if span, ok := l.spans[agent]; ok {
		span.End()
		delete(l.spans, agent)
	}
}

// Counts returns the totals recorded so far.
func (l *Listener) Counts() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts
}

// Close ends any plan span still open, e.g. when a run stops mid-plan.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for agent := range l.spans {
		l.endSpan(agent)
	}
}
