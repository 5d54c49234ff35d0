package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

const printerColumns = `id, make, series, model, serial_number, notes, status, owned_by,
	client_id, assigned_to, department, location, is_rental, created_at, updated_at`

func scanPrinter(row scanner) (*model.Printer, error) {
	var p model.Printer
	var series, serial, notes, clientID, assignedTo, department, location sql.NullString
	err := row.Scan(
		&p.ID, &p.Make, &series, &p.Model, &serial, &notes, &p.Status, &p.OwnedBy,
		&clientID, &assignedTo, &department, &location, &p.IsRental, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Series = series.String
	p.SerialNumber = serial.String
	p.Notes = notes.String
	p.ClientID = clientID.String
	p.AssignedTo = assignedTo.String
	p.Department = department.String
	p.Location = location.String
	return &p, nil
}

// CreatePrinter inserts a new printer. An empty ID is assigned; timestamps
// are always set by the store.
func (s *BaseStore) CreatePrinter(ctx context.Context, p *model.Printer) error {
	if p.ID == "" {
		p.ID = model.NewID()
	}
	if err := model.ValidatePrinter(*p); err != nil {
		return err
	}
	if err := checkRefs(ctx, s, p.ClientID, p.Department); err != nil {
		return err
	}

	ts := now()
	_, err := s.execContext(ctx, `
		INSERT INTO printers (`+printerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Make, nullString(p.Series), p.Model, nullString(p.SerialNumber), nullString(p.Notes),
		p.Status, p.OwnedBy, nullString(p.ClientID), nullString(p.AssignedTo), nullString(p.Department),
		nullString(p.Location), p.IsRental, ts, ts,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("printer %s: %w", p.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert printer: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = ts, ts
	logDebug("Printer created", "printer_id", p.ID, "status", p.Status, "owned_by", p.OwnedBy)
	return nil
}

// GetPrinter returns the printer with the given id.
func (s *BaseStore) GetPrinter(ctx context.Context, id string) (*model.Printer, error) {
	p, err := scanPrinter(s.queryRowContext(ctx, `SELECT `+printerColumns+` FROM printers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("printer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get printer %s: %w", id, err)
	}
	return p, nil
}

// ListPrinters returns printers matching filter, oldest first.
func (s *BaseStore) ListPrinters(ctx context.Context, filter model.PrinterFilter) ([]*model.Printer, error) {
	var where []string
	var args []interface{}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.OwnedBy != "" {
		where = append(where, "owned_by = ?")
		args = append(args, filter.OwnedBy)
	}
	if filter.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Department != "" {
		where = append(where, "department = ?")
		args = append(args, filter.Department)
	}

	q := `SELECT ` + printerColumns + ` FROM printers`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id " + s.dialect.LimitOffset(filter.Limit, 0)

	rows, err := s.queryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list printers: %w", err)
	}
	defer rows.Close()

	printers := []*model.Printer{}
	for rows.Next() {
		p, err := scanPrinter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan printer: %w", err)
		}
		printers = append(printers, p)
	}
	return printers, rows.Err()
}

// UpdatePrinter replaces every mutable field of an existing printer.
func (s *BaseStore) UpdatePrinter(ctx context.Context, p *model.Printer) error {
	if err := model.ValidatePrinter(*p); err != nil {
		return err
	}
	if err := checkRefs(ctx, s, p.ClientID, p.Department); err != nil {
		return err
	}

	ts := now()
	res, err := s.execContext(ctx, `
		UPDATE printers SET
			make = ?, series = ?, model = ?, serial_number = ?, notes = ?, status = ?,
			owned_by = ?, client_id = ?, assigned_to = ?, department = ?, location = ?,
			is_rental = ?, updated_at = ?
		WHERE id = ?`,
		p.Make, nullString(p.Series), p.Model, nullString(p.SerialNumber), nullString(p.Notes), p.Status,
		p.OwnedBy, nullString(p.ClientID), nullString(p.AssignedTo), nullString(p.Department), nullString(p.Location),
		p.IsRental, ts, p.ID,
	)
	if err := expectOne(res, err, "printer", p.ID); err != nil {
		return err
	}
	p.UpdatedAt = ts
	return nil
}

// UpdatePrinterStatus moves a printer to another lifecycle state. Any legal
// status may follow any other.
func (s *BaseStore) UpdatePrinterStatus(ctx context.Context, id string, status model.PrinterStatus) error {
	if _, err := model.ParsePrinterStatus(string(status)); err != nil {
		return err
	}
	res, err := s.execContext(ctx, `UPDATE printers SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	return expectOne(res, err, "printer", id)
}

// DeletePrinter removes a printer together with its history.
func (s *BaseStore) DeletePrinter(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *txn) error {
		for _, table := range []string{"transfer_logs", "maintenance_logs"} {
			if _, err := tx.execContext(ctx, `DELETE FROM `+table+` WHERE printer_id = ?`, id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		res, err := tx.execContext(ctx, `DELETE FROM printers WHERE id = ?`, id)
		return expectOne(res, err, "printer", id)
	})
}
