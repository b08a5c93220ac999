package sqlstore_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/arllen133/fixture"
	"github.com/arllen133/fixture/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	session := setupSession(t,
		sqlstore.WithLogger(logger),
		sqlstore.WithStatementLogging(true),
	)
	s := newSettings(t, session)

	require.NoError(t, fixture.Persist(context.Background(), s, &Ticket{Title: "logged"}))

	out := buf.String()
	assert.Contains(t, out, "statement executed")
	assert.Contains(t, out, "INSERT INTO tickets")
}

func TestWithLogger_Failure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	session := setupSession(t, sqlstore.WithLogger(logger))
	schema, err := sqlstore.ReflectSchema[Ticket]("missing_table")
	require.NoError(t, err)

	err = sqlstore.Insert(context.Background(), session, schema, &Ticket{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "statement failed")
}

func TestWithSlowThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	session := setupSession(t,
		sqlstore.WithLogger(logger),
		sqlstore.WithSlowThreshold(time.Nanosecond),
	)
	s := newSettings(t, session)

	require.NoError(t, fixture.Persist(context.Background(), s, &Ticket{Title: "slow"}))
	assert.Contains(t, buf.String(), "slow statement")
}

func TestWithTracerAndMeter(t *testing.T) {
	session := setupSession(t,
		sqlstore.WithTracer(tracenoop.NewTracerProvider().Tracer("test")),
		sqlstore.WithMeter(noop.NewMeterProvider().Meter("test")),
	)
	s := newSettings(t, session)

	tk := &Ticket{Title: "traced"}
	require.NoError(t, fixture.Persist(context.Background(), s, tk))
	assert.NotZero(t, tk.ID)
}

func TestWithDefaultTracerAndMeter(t *testing.T) {
	session := setupSession(t,
		sqlstore.WithDefaultTracer(),
		sqlstore.WithDefaultMeter(),
	)
	s := newSettings(t, session)

	require.NoError(t, fixture.Persist(context.Background(), s, &Ticket{Title: "global"}))
}
