// Package sqlstore persists generated test objects into a SQL database.
//
// It plugs into fixture.Settings as a persistence service: Bind registers
// create and update methods for a model type that INSERT and UPDATE rows
// through a Session.
//
// Usage example:
//
//	db, _ := sql.Open("sqlite3", ":memory:")
//	session := sqlstore.NewSession(db, sqlstore.SQLite, sqlstore.WithLogger(logger))
//
//	settings := fixture.NewSettings()
//	if err := sqlstore.Bind[models.User](settings, session, nil); err != nil {
//	    return err
//	}
//
//	users := []*models.User{{}, {}}
//	_ = fixture.PropertyNamerFor[models.User](settings).SetValuesOfAll(users[0], users[1])
//	_ = fixture.Persist(ctx, settings, users...) // rows inserted, IDs back-filled
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Executor is the subset of *sqlx.DB and *sqlx.Tx a Session runs statements on.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Session manages the database connection and the current transaction.
type Session struct {
	db       *sqlx.DB // Underlying DB for starting transactions
	executor Executor // Current executor (DB or Tx)
	dialect  Dialect
	obs      *ObservabilityConfig
}

// NewSession wraps db. Struct fields map to columns through their `db` tag,
// or their snake_cased name when untagged, matching ReflectSchema.
func NewSession(db *sql.DB, dialect Dialect, opts ...SessionOption) *Session {
	xdb := sqlx.NewDb(db, dialect.Name())
	xdb.Mapper = reflectx.NewMapperFunc("db", toSnakeCase)

	s := &Session{
		db:       xdb,
		executor: xdb,
		dialect:  dialect,
		obs:      defaultObservabilityConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the session's dialect.
func (s *Session) Dialect() Dialect { return s.dialect }

func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := s.startSpan(ctx, "sqlstore.exec", query)
	defer span.End()

	start := time.Now()
	res, err := s.executor.ExecContext(ctx, query, args...)
	s.observe(ctx, span, "exec", query, time.Since(start), err)
	return res, err
}

func (s *Session) Get(ctx context.Context, dest any, query string, args ...any) error {
	ctx, span := s.startSpan(ctx, "sqlstore.get", query)
	defer span.End()

	start := time.Now()
	err := s.executor.GetContext(ctx, dest, query, args...)
	s.observe(ctx, span, "get", query, time.Since(start), err)
	return err
}

func (s *Session) Select(ctx context.Context, dest any, query string, args ...any) error {
	ctx, span := s.startSpan(ctx, "sqlstore.select", query)
	defer span.End()

	start := time.Now()
	err := s.executor.SelectContext(ctx, dest, query, args...)
	s.observe(ctx, span, "select", query, time.Since(start), err)
	return err
}

// Begin starts a transaction and returns a Session bound to it.
func (s *Session) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Session{
		db:       s.db,
		executor: tx,
		dialect:  s.dialect,
		obs:      s.obs,
	}, nil
}

func (s *Session) Commit() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return sql.ErrTxDone
}

func (s *Session) Rollback() error {
	if tx, ok := s.executor.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return sql.ErrTxDone
}

// Transaction runs fn inside a transaction, committing when fn returns nil
// and rolling back otherwise. Nested calls reuse the open transaction.
func (s *Session) Transaction(ctx context.Context, fn func(txSession *Session) error) (err error) {
	if _, ok := s.executor.(*sqlx.Tx); ok {
		return fn(s)
	}

	txSession, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txSession.Rollback()
			panic(p)
		} else if err != nil {
			_ = txSession.Rollback()
		}
	}()

	if err = fn(txSession); err != nil {
		return err
	}
	return txSession.Commit()
}

func (s *Session) startSpan(ctx context.Context, name, query string) (context.Context, spanWrapper) {
	if s.obs.Tracer == nil {
		return ctx, spanWrapper{nil}
	}
	ctx, span := s.obs.Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.dialect.Name()),
			attribute.String("db.statement", query),
		),
	)
	return ctx, spanWrapper{span}
}
