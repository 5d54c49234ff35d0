package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a create collides with an existing id.
	ErrAlreadyExists = errors.New("already exists")
	// ErrClientNotFound is returned when a write references an unknown client.
	ErrClientNotFound = errors.New("referenced client does not exist")
	// ErrDepartmentNotFound is returned when a write references an unknown
	// department.
	ErrDepartmentNotFound = errors.New("referenced department does not exist")
	// ErrClientInUse is returned when deleting a client that printers still
	// reference.
	ErrClientInUse = errors.New("client is referenced by printers")
)

// isUniqueViolation reports a primary key or unique constraint failure on
// either backend.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		// Without extended result codes only the primary code is set.
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// isForeignKeyViolation reports a foreign key failure on either backend.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			strings.Contains(liteErr.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}
