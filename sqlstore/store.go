package sqlstore

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/arllen133/fixture"
)

var (
	// ErrNoPrimaryKey is returned when updating or finding through a schema
	// without a primary key.
	ErrNoPrimaryKey = errors.New("sqlstore: schema has no primary key")
	// ErrNoRowsAffected is returned when an UPDATE matched no row.
	ErrNoRowsAffected = errors.New("sqlstore: no rows affected")
)

// Bind registers create and update persistence methods for T on the
// settings' persistence service, writing through session.
//
// A nil schema is derived with ReflectSchema[T]("").
func Bind[T any](s *fixture.Settings, session *Session, schema Schema[T]) error {
	if schema == nil {
		derived, err := ReflectSchema[T]("")
		if err != nil {
			return err
		}
		schema = derived
	}

	fixture.SetCreatePersistenceMethod(s, func(ctx context.Context, m *T) error {
		return Insert(ctx, session, schema, m)
	})
	fixture.SetUpdatePersistenceMethod(s, func(ctx context.Context, m *T) error {
		return Update(ctx, session, schema, m)
	})
	return nil
}

// Insert writes m as a new row.
//
// Operation flow:
//  1. BeforeCreate hook, if m implements BeforeCreateInterface
//  2. INSERT built from schema.InsertRow
//  3. Auto-increment key written back to m
//  4. AfterCreate hook, if m implements AfterCreateInterface
func Insert[T any](ctx context.Context, session *Session, schema Schema[T], m *T) error {
	if err := triggerBeforeCreate(ctx, m); err != nil {
		return err
	}

	cols, vals := schema.InsertRow(m)
	builder := sq.Insert(schema.TableName()).
		Columns(cols...).
		Values(vals...).
		PlaceholderFormat(session.dialect.PlaceholderFormat())

	pkCol, _ := schema.PK(nil)
	returning := schema.AutoIncrement() && session.dialect.Returning()
	if returning {
		builder = builder.Suffix("RETURNING " + pkCol)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: build insert into %s: %w", schema.TableName(), err)
	}

	if returning {
		var id int64
		if err := session.Get(ctx, &id, query, args...); err != nil {
			return fmt.Errorf("sqlstore: insert into %s: %w", schema.TableName(), err)
		}
		schema.SetPK(m, id)
	} else {
		result, err := session.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("sqlstore: insert into %s: %w", schema.TableName(), err)
		}
		if schema.AutoIncrement() {
			if id, err := result.LastInsertId(); err == nil {
				schema.SetPK(m, id)
			}
		}
	}

	return triggerAfterCreate(ctx, m)
}

// Update rewrites the row identified by m's primary key.
func Update[T any](ctx context.Context, session *Session, schema Schema[T], m *T) error {
	pkCol, pkVal := schema.PK(m)
	if pkCol == "" {
		return fmt.Errorf("%w: %s", ErrNoPrimaryKey, schema.TableName())
	}

	if err := triggerBeforeUpdate(ctx, m); err != nil {
		return err
	}

	query, args, err := sq.Update(schema.TableName()).
		SetMap(schema.UpdateMap(m)).
		Where(sq.Eq{pkCol: pkVal}).
		PlaceholderFormat(session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: build update of %s: %w", schema.TableName(), err)
	}

	result, err := session.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlstore: update %s: %w", schema.TableName(), err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s=%v", ErrNoRowsAffected, schema.TableName(), pkCol, pkVal)
	}

	return triggerAfterUpdate(ctx, m)
}

// Find loads the row whose primary key equals id.
// A missing row returns sql.ErrNoRows.
func Find[T any](ctx context.Context, session *Session, schema Schema[T], id any) (*T, error) {
	pkCol, _ := schema.PK(nil)
	if pkCol == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, schema.TableName())
	}

	query, args, err := sq.Select(schema.SelectColumns()...).
		From(schema.TableName()).
		Where(sq.Eq{pkCol: id}).
		Limit(1).
		PlaceholderFormat(session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return nil, err
	}

	m := new(T)
	if err := session.Get(ctx, m, query, args...); err != nil {
		return nil, err
	}
	return m, nil
}

// Count returns the number of rows in schema's table.
func Count[T any](ctx context.Context, session *Session, schema Schema[T]) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From(schema.TableName()).
		PlaceholderFormat(session.dialect.PlaceholderFormat()).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	err = session.Get(ctx, &n, query, args...)
	return n, err
}
