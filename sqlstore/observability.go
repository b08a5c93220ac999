package sqlstore

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/arllen133/fixture/sqlstore"
	meterName  = "github.com/arllen133/fixture/sqlstore"
)

// Metrics holds the OpenTelemetry instruments recorded per statement.
type Metrics struct {
	PersistCount    metric.Int64Counter
	PersistDuration metric.Float64Histogram
	PersistErrors   metric.Int64Counter
}

// ObservabilityConfig holds logging, tracing and metrics configuration.
type ObservabilityConfig struct {
	Logger        *slog.Logger
	Tracer        trace.Tracer
	Meter         metric.Meter
	Metrics       *Metrics
	SlowThreshold time.Duration
	LogStatements bool
}

func defaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		SlowThreshold: 200 * time.Millisecond,
	}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger logs failed and slow statements.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.obs.Logger = logger
	}
}

// WithTracer starts one span per statement on tracer.
func WithTracer(tracer trace.Tracer) SessionOption {
	return func(s *Session) {
		s.obs.Tracer = tracer
	}
}

// WithDefaultTracer uses the global OpenTelemetry tracer provider.
func WithDefaultTracer() SessionOption {
	return func(s *Session) {
		s.obs.Tracer = otel.Tracer(tracerName)
	}
}

// WithMeter records statement metrics on meter.
func WithMeter(meter metric.Meter) SessionOption {
	return func(s *Session) {
		s.obs.Meter = meter
		s.obs.Metrics = initMetrics(meter)
	}
}

// WithDefaultMeter uses the global OpenTelemetry meter provider.
func WithDefaultMeter() SessionOption {
	return func(s *Session) {
		meter := otel.Meter(meterName)
		s.obs.Meter = meter
		s.obs.Metrics = initMetrics(meter)
	}
}

// WithSlowThreshold sets the duration above which statements log a warning.
func WithSlowThreshold(d time.Duration) SessionOption {
	return func(s *Session) {
		s.obs.SlowThreshold = d
	}
}

// WithStatementLogging logs every statement, SQL text included, at Debug.
func WithStatementLogging(enabled bool) SessionOption {
	return func(s *Session) {
		s.obs.LogStatements = enabled
	}
}

func initMetrics(meter metric.Meter) *Metrics {
	count, _ := meter.Int64Counter("fixture.persist.count",
		metric.WithDescription("Statements executed while persisting fixtures"),
		metric.WithUnit("{statement}"),
	)
	duration, _ := meter.Float64Histogram("fixture.persist.duration",
		metric.WithDescription("Statement duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	errs, _ := meter.Int64Counter("fixture.persist.errors",
		metric.WithDescription("Statements that failed while persisting fixtures"),
		metric.WithUnit("{error}"),
	)
	return &Metrics{
		PersistCount:    count,
		PersistDuration: duration,
		PersistErrors:   errs,
	}
}

// spanWrapper tolerates a nil span so call sites need no tracing checks.
type spanWrapper struct {
	span trace.Span
}

func (w spanWrapper) End() {
	if w.span != nil {
		w.span.End()
	}
}

func (w spanWrapper) fail(err error) {
	if w.span != nil {
		w.span.RecordError(err)
		w.span.SetStatus(codes.Error, err.Error())
	}
}

// observe feeds one finished statement to the span, metrics and logger.
func (s *Session) observe(ctx context.Context, span spanWrapper, operation, query string, d time.Duration, err error) {
	if err != nil {
		span.fail(err)
	}

	if m := s.obs.Metrics; m != nil {
		attrs := metric.WithAttributes(
			attribute.String("db.operation", operation),
			attribute.String("db.system", s.dialect.Name()),
		)
		m.PersistCount.Add(ctx, 1, attrs)
		m.PersistDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
		if err != nil {
			m.PersistErrors.Add(ctx, 1, attrs)
		}
	}

	logger := s.obs.Logger
	if logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Duration("duration", d),
	}
	if s.obs.LogStatements {
		attrs = append(attrs, slog.String("query", query))
	}

	switch {
	case err != nil:
		logger.LogAttrs(ctx, slog.LevelError, "statement failed", append(attrs, slog.String("error", err.Error()))...)
	case d > s.obs.SlowThreshold:
		logger.LogAttrs(ctx, slog.LevelWarn, "slow statement", attrs...)
	case s.obs.LogStatements:
		logger.LogAttrs(ctx, slog.LevelDebug, "statement executed", attrs...)
	}
}
