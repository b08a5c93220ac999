package sqlstore

import (
	sq "github.com/Masterminds/squirrel"
)

var (
	SQLite     = SQLiteDialect{}
	MySQL      = MySQLDialect{}
	PostgreSQL = PostgreSQLDialect{}
)

// Dialect abstracts the database-specific parts of the statements a Session
// runs: the driver name and the placeholder format.
type Dialect interface {
	// Name returns the driver name ("sqlite3", "mysql", "postgres").
	// Used for sqlx binding, logging and metric attributes.
	Name() string

	// PlaceholderFormat returns the squirrel placeholder format.
	PlaceholderFormat() sq.PlaceholderFormat

	// Returning reports whether inserted ids come back through a
	// RETURNING clause instead of LastInsertId.
	Returning() bool
}

// MySQLDialect uses ? placeholders and LastInsertId.
type MySQLDialect struct{}

func (MySQLDialect) Name() string                            { return "mysql" }
func (MySQLDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }
func (MySQLDialect) Returning() bool                         { return false }

// PostgreSQLDialect uses $n placeholders. The lib/pq driver does not
// implement LastInsertId, so ids are read back with RETURNING.
type PostgreSQLDialect struct{}

func (PostgreSQLDialect) Name() string                            { return "postgres" }
func (PostgreSQLDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Dollar }
func (PostgreSQLDialect) Returning() bool                         { return true }

// SQLiteDialect uses ? placeholders and LastInsertId.
// Mostly used with an in-memory database in tests.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string                            { return "sqlite3" }
func (SQLiteDialect) PlaceholderFormat() sq.PlaceholderFormat { return sq.Question }
func (SQLiteDialect) Returning() bool                         { return false }
