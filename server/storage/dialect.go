package storage

import (
	"fmt"
	"strings"
)

// Dialect abstracts the SQL differences between SQLite and PostgreSQL.
// Queries are written with ? placeholders and converted for PostgreSQL.
type Dialect interface {
	// Name returns the dialect name ("sqlite" or "postgres").
	Name() string

	// Placeholder returns a parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// AutoIncrement returns the column type for auto-incrementing primary keys.
	AutoIncrement(big bool) string

	// TimestampType returns the column type for timestamps.
	TimestampType() string

	// BoolType returns the column type for boolean values.
	BoolType() string

	// BoolLiteral renders a boolean default value.
	BoolLiteral(v bool) string

	// UpsertConflict returns "ON CONFLICT (cols) DO UPDATE SET".
	UpsertConflict(conflictColumns []string) string

	// ReturningClause returns "RETURNING cols".
	ReturningClause(columns ...string) string

	// LimitOffset returns the LIMIT/OFFSET clause.
	LimitOffset(limit, offset int) string
}

// SQLiteDialect implements Dialect for SQLite.
type SQLiteDialect struct{}

var _ Dialect = (*SQLiteDialect)(nil)

func (d *SQLiteDialect) Name() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string { return "?" }

func (d *SQLiteDialect) AutoIncrement(big bool) string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d *SQLiteDialect) TimestampType() string { return "DATETIME" }

func (d *SQLiteDialect) BoolType() string { return "INTEGER" }

func (d *SQLiteDialect) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *SQLiteDialect) UpsertConflict(conflictColumns []string) string {
	return fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET", strings.Join(conflictColumns, ", "))
}

func (d *SQLiteDialect) ReturningClause(columns ...string) string {
	return returning(columns)
}

func (d *SQLiteDialect) LimitOffset(limit, offset int) string {
	return limitOffset(limit, offset)
}

// PostgresDialect implements Dialect for PostgreSQL.
type PostgresDialect struct{}

var _ Dialect = (*PostgresDialect)(nil)

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) AutoIncrement(big bool) string {
	if big {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "SERIAL PRIMARY KEY"
}

func (d *PostgresDialect) TimestampType() string { return "TIMESTAMPTZ" }

func (d *PostgresDialect) BoolType() string { return "BOOLEAN" }

func (d *PostgresDialect) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (d *PostgresDialect) UpsertConflict(conflictColumns []string) string {
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET", strings.Join(conflictColumns, ", "))
}

func (d *PostgresDialect) ReturningClause(columns ...string) string {
	return returning(columns)
}

func (d *PostgresDialect) LimitOffset(limit, offset int) string {
	if limit <= 0 && offset > 0 {
		return fmt.Sprintf("OFFSET %d", offset)
	}
	return limitOffset(limit, offset)
}

func returning(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	return "RETURNING " + strings.Join(columns, ", ")
}

func limitOffset(limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return ""
	}
	if offset <= 0 {
		return fmt.Sprintf("LIMIT %d", limit)
	}
	if limit <= 0 {
		return fmt.Sprintf("LIMIT -1 OFFSET %d", offset)
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
}

// ConvertPlaceholders converts ? placeholders to PostgreSQL-style $n
// placeholders. Question marks inside single-quoted literals are left alone.
func ConvertPlaceholders(query string) string {
	var result strings.Builder
	result.Grow(len(query) + 10)
	n := 1
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			result.WriteByte(c)
		case c == '?' && !inQuote:
			fmt.Fprintf(&result, "$%d", n)
			n++
		default:
			result.WriteByte(c)
		}
	}
	return result.String()
}

// PlaceholderSet generates a comma-separated list of placeholders for IN
// clauses, e.g. "?, ?, ?" or "$1, $2, $3".
func PlaceholderSet(dialect Dialect, count int, startIndex int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = dialect.Placeholder(startIndex + i)
	}
	return strings.Join(placeholders, ", ")
}
