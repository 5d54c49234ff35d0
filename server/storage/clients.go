package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

func scanClient(row scanner) (*model.Client, error) {
	var c model.Client
	var company, email, phone sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &company, &email, &phone, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Company = company.String
	c.Email = email.String
	c.Phone = phone.String
	return &c, nil
}

// CreateClient inserts a client, assigning an ID when empty.
func (s *BaseStore) CreateClient(ctx context.Context, c *model.Client) error {
	if c.ID == "" {
		c.ID = model.NewID()
	}
	if err := model.ValidateClient(*c); err != nil {
		return err
	}
	ts := now()
	_, err := s.execContext(ctx,
		`INSERT INTO clients (id, name, company, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, nullString(c.Company), nullString(c.Email), nullString(c.Phone), ts)
	if isUniqueViolation(err) {
		return fmt.Errorf("client %s: %w", c.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	c.CreatedAt = ts
	return nil
}

// GetClient returns the client with the given id.
func (s *BaseStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	c, err := scanClient(s.queryRowContext(ctx,
		`SELECT id, name, company, email, phone, created_at FROM clients WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return c, nil
}

// ListClients returns all clients ordered by name.
func (s *BaseStore) ListClients(ctx context.Context) ([]*model.Client, error) {
	rows, err := s.queryContext(ctx, `SELECT id, name, company, email, phone, created_at FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []*model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClient replaces a client's contact details.
func (s *BaseStore) UpdateClient(ctx context.Context, c *model.Client) error {
	if err := model.ValidateClient(*c); err != nil {
		return err
	}
	res, err := s.execContext(ctx,
		`UPDATE clients SET name = ?, company = ?, email = ?, phone = ? WHERE id = ?`,
		c.Name, nullString(c.Company), nullString(c.Email), nullString(c.Phone), c.ID)
	return expectOne(res, err, "client", c.ID)
}

// DeleteClient removes a client. It fails with ErrClientInUse while any
// printer references the client; departments belonging to it are detached.
func (s *BaseStore) DeleteClient(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *txn) error {
		var inUse int
		if err := tx.queryRowContext(ctx, `SELECT COUNT(*) FROM printers WHERE client_id = ?`, id).Scan(&inUse); err != nil {
			return fmt.Errorf("count client printers: %w", err)
		}
		if inUse > 0 {
			return fmt.Errorf("client %s has %d printer(s): %w", id, inUse, ErrClientInUse)
		}
		if _, err := tx.execContext(ctx, `UPDATE departments SET client_id = NULL WHERE client_id = ?`, id); err != nil {
			return fmt.Errorf("detach departments: %w", err)
		}
		res, err := tx.execContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("client %s: %w", id, ErrClientInUse)
		}
		return expectOne(res, err, "client", id)
	})
}

func scanDepartment(row scanner) (*model.Department, error) {
	var d model.Department
	var clientID sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &clientID, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.ClientID = clientID.String
	return &d, nil
}

// CreateDepartment inserts a department. A non-empty ClientID must name an
// existing client.
func (s *BaseStore) CreateDepartment(ctx context.Context, d *model.Department) error {
	if d.ID == "" {
		d.ID = model.NewID()
	}
	if err := model.ValidateDepartment(*d); err != nil {
		return err
	}
	if err := checkRefs(ctx, s, d.ClientID, ""); err != nil {
		return err
	}
	ts := now()
	_, err := s.execContext(ctx,
		`INSERT INTO departments (id, name, client_id, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, nullString(d.ClientID), ts)
	if isUniqueViolation(err) {
		return fmt.Errorf("department %s: %w", d.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	d.CreatedAt = ts
	return nil
}

// GetDepartment returns the department with the given id.
func (s *BaseStore) GetDepartment(ctx context.Context, id string) (*model.Department, error) {
	d, err := scanDepartment(s.queryRowContext(ctx,
		`SELECT id, name, client_id, created_at FROM departments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get department %s: %w", id, err)
	}
	return d, nil
}

// ListDepartments returns departments, restricted to one client when
// clientID is set.
func (s *BaseStore) ListDepartments(ctx context.Context, clientID string) ([]*model.Department, error) {
	q := `SELECT id, name, client_id, created_at FROM departments`
	var args []interface{}
	if clientID != "" {
		q += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	q += ` ORDER BY name, id`

	rows, err := s.queryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := []*model.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// DeleteDepartment removes a department and clears it from printers.
func (s *BaseStore) DeleteDepartment(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *txn) error {
		if _, err := tx.execContext(ctx, `UPDATE printers SET department = NULL WHERE department = ?`, id); err != nil {
			return fmt.Errorf("detach printers: %w", err)
		}
		res, err := tx.execContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
		return expectOne(res, err, "department", id)
	})
}
