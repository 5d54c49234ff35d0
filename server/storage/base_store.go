package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BaseStore implements Store on top of database/sql for both backends.
// Queries are written with ? placeholders and converted when the dialect is
// PostgreSQL.
type BaseStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ Store = (*BaseStore)(nil)

// NewBaseStore wraps an open database. The schema must already exist.
func NewBaseStore(db *sql.DB, dialect Dialect) *BaseStore {
	return &BaseStore{db: db, dialect: dialect}
}

// DB returns the underlying database connection.
func (s *BaseStore) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect being used.
func (s *BaseStore) Dialect() Dialect {
	return s.dialect
}

// Driver returns the dialect name.
func (s *BaseStore) Driver() string {
	return s.dialect.Name()
}

// Ping verifies the database is reachable.
func (s *BaseStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *BaseStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *BaseStore) query(q string) string {
	if s.dialect.Name() == "postgres" {
		return ConvertPlaceholders(q)
	}
	return q
}

func (s *BaseStore) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.query(query), args...)
}

func (s *BaseStore) queryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.query(query), args...)
}

func (s *BaseStore) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.query(query), args...)
}

// txn carries a transaction with the same placeholder conversion as the
// store.
type txn struct {
	tx    *sql.Tx
	store *BaseStore
}

func (t *txn) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.store.query(query), args...)
}

func (t *txn) queryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.store.query(query), args...)
}

func (t *txn) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.store.query(query), args...)
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (s *BaseStore) withTx(ctx context.Context, fn func(*txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txn{tx: tx, store: s}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logWarn("Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// expectOne maps a zero-row update or delete to ErrNotFound.
func expectOne(res sql.Result, err error, what, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

// rowQuerier is satisfied by *BaseStore and *txn.
type rowQuerier interface {
	queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// exists reports whether table has a row with the given id.
func exists(ctx context.Context, q rowQuerier, table, id string) (bool, error) {
	var one int
	err := q.queryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// checkRefs verifies the client and department a record points at exist.
func checkRefs(ctx context.Context, q rowQuerier, clientID, departmentID string) error {
	if clientID != "" {
		ok, err := exists(ctx, q, "clients", clientID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("client %s: %w", clientID, ErrClientNotFound)
		}
	}
	if departmentID != "" {
		ok, err := exists(ctx, q, "departments", departmentID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("department %s: %w", departmentID, ErrDepartmentNotFound)
		}
	}
	return nil
}
