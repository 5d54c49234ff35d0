package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   func(d Dialect) []string
}

var migrations = []migration{
	{1, "initial registry schema", schemaV1},
	{2, "log lookup indexes", func(Dialect) []string {
		return []string{
			`CREATE INDEX IF NOT EXISTS idx_transfer_logs_printer ON transfer_logs(printer_id, timestamp)`,
			`CREATE INDEX IF NOT EXISTS idx_maintenance_logs_printer ON maintenance_logs(printer_id, timestamp)`,
		}
	}},
}

func quotedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}

func schemaV1(d Dialect) []string {
	ts := d.TimestampType()
	statuses := make([]string, 0, 5)
	for _, s := range model.PrinterStatuses() {
		statuses = append(statuses, string(s))
	}
	owners := make([]string, 0, 2)
	for _, o := range model.OwnershipTypes() {
		owners = append(owners, string(o))
	}
	colors := []string{string(model.ColorBlack), string(model.ColorCyan), string(model.ColorMagenta), string(model.ColorYellow)}

	return []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			company TEXT,
			email TEXT,
			phone TEXT,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS departments (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			client_id TEXT REFERENCES clients(id) ON DELETE SET NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_departments_client ON departments(client_id)`,
		`CREATE TABLE IF NOT EXISTS printers (
			id TEXT PRIMARY KEY,
			make TEXT NOT NULL,
			series TEXT,
			model TEXT NOT NULL,
			serial_number TEXT,
			notes TEXT,
			status TEXT NOT NULL CHECK (status IN (` + quotedList(statuses) + `)),
			owned_by TEXT NOT NULL CHECK (owned_by IN (` + quotedList(owners) + `)),
			client_id TEXT REFERENCES clients(id) ON DELETE RESTRICT,
			assigned_to TEXT,
			department TEXT REFERENCES departments(id) ON DELETE SET NULL,
			location TEXT,
			is_rental ` + d.BoolType() + ` NOT NULL DEFAULT ` + d.BoolLiteral(false) + `,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL,
			CHECK (owned_by <> 'client' OR client_id IS NOT NULL)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_printers_status ON printers(status)`,
		`CREATE INDEX IF NOT EXISTS idx_printers_client ON printers(client_id)`,
		`CREATE TABLE IF NOT EXISTS toner_types (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			brand TEXT NOT NULL,
			color TEXT NOT NULL CHECK (color IN (` + quotedList(colors) + `)),
			page_yield INTEGER NOT NULL DEFAULT 0,
			notes TEXT,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS toner_compat (
			toner_id TEXT NOT NULL REFERENCES toner_types(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			printer_model TEXT NOT NULL,
			PRIMARY KEY (toner_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_toner_compat_model ON toner_compat(printer_model)`,
		`CREATE TABLE IF NOT EXISTS transfer_logs (
			id ` + d.AutoIncrement(true) + `,
			printer_id TEXT NOT NULL REFERENCES printers(id) ON DELETE CASCADE,
			timestamp ` + ts + ` NOT NULL,
			type TEXT NOT NULL,
			from_client_id TEXT,
			to_client_id TEXT,
			from_department TEXT,
			to_department TEXT,
			from_location TEXT,
			to_location TEXT,
			performed_by TEXT,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS maintenance_logs (
			id ` + d.AutoIncrement(true) + `,
			printer_id TEXT NOT NULL REFERENCES printers(id) ON DELETE CASCADE,
			timestamp ` + ts + ` NOT NULL,
			type TEXT NOT NULL,
			description TEXT,
			performed_by TEXT,
			notes TEXT
		)`,
	}
}

// migrate applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction.
func migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	create := `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at ` + d.TimestampType() + ` NOT NULL
	)`
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&current); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if int64(m.version) <= current.Int64 {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, stmt := range m.stmts(d) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		insert := "INSERT INTO schema_version (version, applied_at) VALUES (?, ?)"
		if d.Name() == "postgres" {
			insert = ConvertPlaceholders(insert)
		}
		if _, err := tx.ExecContext(ctx, insert, m.version, now()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		logInfo("Applied schema migration", "version", m.version, "name", m.name, "driver", d.Name())
	}
	return nil
}

// SchemaVersion returns the newest schema version this build knows.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}
