package storage

import (
	"database/sql"
	"strings"
	"time"
)

// nullString returns a sql.NullString for optional string values.
// Empty strings are treated as NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// now is the store clock, truncated so values survive a database round trip
// unchanged on both backends.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
