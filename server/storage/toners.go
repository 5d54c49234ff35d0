package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

const tonerColumns = `id, model, brand, color, page_yield, notes`

func scanToner(row scanner) (*model.TonerType, error) {
	var t model.TonerType
	var notes sql.NullString
	if err := row.Scan(&t.ID, &t.Model, &t.Brand, &t.Color, &t.PageYield, &notes); err != nil {
		return nil, err
	}
	t.Notes = notes.String
	return &t, nil
}

// UpsertTonerType inserts or replaces a toner and its compatibility list.
func (s *BaseStore) UpsertTonerType(ctx context.Context, t *model.TonerType) error {
	if err := model.ValidateTonerType(*t); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *txn) error {
		_, err := tx.execContext(ctx, `
			INSERT INTO toner_types (`+tonerColumns+`, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			`+s.dialect.UpsertConflict([]string{"id"})+`
				model = excluded.model,
				brand = excluded.brand,
				color = excluded.color,
				page_yield = excluded.page_yield,
				notes = excluded.notes,
				updated_at = excluded.updated_at`,
			t.ID, t.Model, t.Brand, t.Color, t.PageYield, nullString(t.Notes), now())
		if err != nil {
			return fmt.Errorf("upsert toner %s: %w", t.ID, err)
		}
		if _, err := tx.execContext(ctx, `DELETE FROM toner_compat WHERE toner_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear compatibility: %w", err)
		}
		for i, m := range t.CompatiblePrinters {
			if _, err := tx.execContext(ctx,
				`INSERT INTO toner_compat (toner_id, position, printer_model) VALUES (?, ?, ?)`,
				t.ID, i, m); err != nil {
				return fmt.Errorf("insert compatibility: %w", err)
			}
		}
		return nil
	})
}

// GetTonerType returns a toner with its compatibility list.
func (s *BaseStore) GetTonerType(ctx context.Context, id string) (*model.TonerType, error) {
	t, err := scanToner(s.queryRowContext(ctx, `SELECT `+tonerColumns+` FROM toner_types WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("toner %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get toner %s: %w", id, err)
	}
	if err := s.loadCompat(ctx, []*model.TonerType{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTonerTypes returns the catalogue ordered by id. A non-empty
// printerModel keeps only toners listing that model (case-insensitive).
func (s *BaseStore) ListTonerTypes(ctx context.Context, printerModel string) ([]*model.TonerType, error) {
	q := `SELECT ` + tonerColumns + ` FROM toner_types`
	var args []interface{}
	if printerModel != "" {
		q += ` WHERE id IN (SELECT toner_id FROM toner_compat WHERE LOWER(printer_model) = LOWER(?))`
		args = append(args, printerModel)
	}
	q += ` ORDER BY id`

	rows, err := s.queryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list toners: %w", err)
	}
	toners := []*model.TonerType{}
	for rows.Next() {
		t, err := scanToner(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		toners = append(toners, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadCompat(ctx, toners); err != nil {
		return nil, err
	}
	return toners, nil
}

// loadCompat fills CompatiblePrinters for toners with one query.
func (s *BaseStore) loadCompat(ctx context.Context, toners []*model.TonerType) error {
	if len(toners) == 0 {
		return nil
	}
	byID := make(map[string]*model.TonerType, len(toners))
	args := make([]interface{}, len(toners))
	for i, t := range toners {
		byID[t.ID] = t
		t.CompatiblePrinters = []string{}
		args[i] = t.ID
	}

	rows, err := s.queryContext(ctx, `
		SELECT toner_id, printer_model FROM toner_compat
		WHERE toner_id IN (`+placeholders(len(args))+`)
		ORDER BY toner_id, position`, args...)
	if err != nil {
		return fmt.Errorf("load compatibility: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, printerModel string
		if err := rows.Scan(&id, &printerModel); err != nil {
			return err
		}
		if t := byID[id]; t != nil {
			t.CompatiblePrinters = append(t.CompatiblePrinters, printerModel)
		}
	}
	return rows.Err()
}

// DeleteTonerType removes a toner and its compatibility rows.
func (s *BaseStore) DeleteTonerType(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *txn) error {
		if _, err := tx.execContext(ctx, `DELETE FROM toner_compat WHERE toner_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.execContext(ctx, `DELETE FROM toner_types WHERE id = ?`, id)
		return expectOne(res, err, "toner", id)
	})
}
