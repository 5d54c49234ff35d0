package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

// AppendTransferLog records a custody change and, in the same transaction,
// moves the printer to the log's "to" client, department and location. Empty
// From fields are filled from the printer's current placement. The move is
// validated like any other printer update, so a client-owned printer cannot
// be transferred away from every client.
func (s *BaseStore) AppendTransferLog(ctx context.Context, l *model.TransferLog) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = now()
	}
	if err := model.ValidateTransferLog(*l); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *txn) error {
		p, err := scanPrinter(tx.queryRowContext(ctx,
			`SELECT `+printerColumns+` FROM printers WHERE id = ?`, l.PrinterID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("printer %s: %w", l.PrinterID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load printer: %w", err)
		}

		if l.FromClientID == "" {
			l.FromClientID = p.ClientID
		}
		if l.FromDepartment == "" {
			l.FromDepartment = p.Department
		}
		if l.FromLocation == "" {
			l.FromLocation = p.Location
		}

		moved := *p
		moved.ClientID = l.ToClientID
		moved.Department = l.ToDepartment
		moved.Location = l.ToLocation
		if err := model.ValidatePrinter(moved); err != nil {
			return err
		}
		if err := checkRefs(ctx, tx, l.ToClientID, l.ToDepartment); err != nil {
			return err
		}

		err = tx.queryRowContext(ctx, `
			INSERT INTO transfer_logs (
				printer_id, timestamp, type, from_client_id, to_client_id, from_department,
				to_department, from_location, to_location, performed_by, notes
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) `+s.dialect.ReturningClause("id"),
			l.PrinterID, l.Timestamp.UTC(), l.Type, nullString(l.FromClientID), nullString(l.ToClientID),
			nullString(l.FromDepartment), nullString(l.ToDepartment), nullString(l.FromLocation),
			nullString(l.ToLocation), nullString(l.PerformedBy), nullString(l.Notes),
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert transfer log: %w", err)
		}

		_, err = tx.execContext(ctx,
			`UPDATE printers SET client_id = ?, department = ?, location = ?, updated_at = ? WHERE id = ?`,
			nullString(moved.ClientID), nullString(moved.Department), nullString(moved.Location), now(), p.ID)
		if err != nil {
			return fmt.Errorf("move printer: %w", err)
		}
		return nil
	})
}

// ListTransferLogs returns a printer's transfers, oldest first.
func (s *BaseStore) ListTransferLogs(ctx context.Context, printerID string) ([]*model.TransferLog, error) {
	rows, err := s.queryContext(ctx, `
		SELECT id, printer_id, timestamp, type, from_client_id, to_client_id, from_department,
		       to_department, from_location, to_location, performed_by, notes
		FROM transfer_logs WHERE printer_id = ? ORDER BY timestamp, id`, printerID)
	if err != nil {
		return nil, fmt.Errorf("list transfer logs: %w", err)
	}
	defer rows.Close()

	logs := []*model.TransferLog{}
	for rows.Next() {
		var l model.TransferLog
		var fromClient, toClient, fromDept, toDept, fromLoc, toLoc, by, notes sql.NullString
		if err := rows.Scan(&l.ID, &l.PrinterID, &l.Timestamp, &l.Type, &fromClient, &toClient,
			&fromDept, &toDept, &fromLoc, &toLoc, &by, &notes); err != nil {
			return nil, err
		}
		l.FromClientID, l.ToClientID = fromClient.String, toClient.String
		l.FromDepartment, l.ToDepartment = fromDept.String, toDept.String
		l.FromLocation, l.ToLocation = fromLoc.String, toLoc.String
		l.PerformedBy, l.Notes = by.String, notes.String
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

// AppendMaintenanceLog records a service event.
func (s *BaseStore) AppendMaintenanceLog(ctx context.Context, l *model.MaintenanceLog) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = now()
	}
	if err := model.ValidateMaintenanceLog(*l); err != nil {
		return err
	}
	ok, err := exists(ctx, s, "printers", l.PrinterID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("printer %s: %w", l.PrinterID, ErrNotFound)
	}

	err = s.queryRowContext(ctx, `
		INSERT INTO maintenance_logs (printer_id, timestamp, type, description, performed_by, notes)
		VALUES (?, ?, ?, ?, ?, ?) `+s.dialect.ReturningClause("id"),
		l.PrinterID, l.Timestamp.UTC(), l.Type, nullString(l.Description), nullString(l.PerformedBy), nullString(l.Notes),
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert maintenance log: %w", err)
	}
	return nil
}

// ListMaintenanceLogs returns a printer's service history, oldest first.
func (s *BaseStore) ListMaintenanceLogs(ctx context.Context, printerID string) ([]*model.MaintenanceLog, error) {
	rows, err := s.queryContext(ctx, `
		SELECT id, printer_id, timestamp, type, description, performed_by, notes
		FROM maintenance_logs WHERE printer_id = ? ORDER BY timestamp, id`, printerID)
	if err != nil {
		return nil, fmt.Errorf("list maintenance logs: %w", err)
	}
	defer rows.Close()

	logs := []*model.MaintenanceLog{}
	for rows.Next() {
		var l model.MaintenanceLog
		var desc, by, notes sql.NullString
		if err := rows.Scan(&l.ID, &l.PrinterID, &l.Timestamp, &l.Type, &desc, &by, &notes); err != nil {
			return nil, err
		}
		l.Description, l.PerformedBy, l.Notes = desc.String, by.String, notes.String
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
