package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/joeycumines/goap/internal/logging"
)

// LogExporter writes finished spans to a structured logger.
type LogExporter struct {
	logger *slog.Logger
}

var _ sdktrace.SpanExporter = (*LogExporter)(nil)

func NewLogExporter(logger *slog.Logger) *LogExporter {
	return &LogExporter{logger: logging.OrDiscard(logger)}
}

func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		args := []any{
			"span", span.Name(),
			"duration", span.EndTime().Sub(span.StartTime()),
			"events", len(span.Events()),
		}
		for _, kv := range span.Attributes() {
			args = append(args, string(kv.Key), kv.Value.Emit())
		}
		level := slog.LevelInfo
		if st := span.Status(); st.Code == codes.Error {
			level = slog.LevelWarn
			args = append(args, "status", st.Description)
		}
		e.logger.Log(ctx, level, "span", args...)
	}
	return nil
}

func (e *LogExporter) Shutdown(context.Context) error { return nil }

// NewTracerProvider exports every span synchronously through exporter.
func NewTracerProvider(exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
}
