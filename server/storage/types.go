package storage

import (
	"context"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

// Store persists the fleet registry. Every write validates the record with
// the model package first; every read parses enum columns through the
// model's sql.Scanner implementations, so a row holding an unknown status
// fails to load rather than leaking an invalid value.
type Store interface {
	// Printers
	CreatePrinter(ctx context.Context, p *model.Printer) error
	GetPrinter(ctx context.Context, id string) (*model.Printer, error)
	ListPrinters(ctx context.Context, filter model.PrinterFilter) ([]*model.Printer, error)
	UpdatePrinter(ctx context.Context, p *model.Printer) error
	UpdatePrinterStatus(ctx context.Context, id string, status model.PrinterStatus) error
	DeletePrinter(ctx context.Context, id string) error

	// Clients and departments
	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListClients(ctx context.Context) ([]*model.Client, error)
	UpdateClient(ctx context.Context, c *model.Client) error
	DeleteClient(ctx context.Context, id string) error
	CreateDepartment(ctx context.Context, d *model.Department) error
	GetDepartment(ctx context.Context, id string) (*model.Department, error)
	ListDepartments(ctx context.Context, clientID string) ([]*model.Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	// Toner catalogue
	UpsertTonerType(ctx context.Context, t *model.TonerType) error
	GetTonerType(ctx context.Context, id string) (*model.TonerType, error)
	ListTonerTypes(ctx context.Context, printerModel string) ([]*model.TonerType, error)
	DeleteTonerType(ctx context.Context, id string) error

	// Append-only history
	AppendTransferLog(ctx context.Context, l *model.TransferLog) error
	ListTransferLogs(ctx context.Context, printerID string) ([]*model.TransferLog, error)
	AppendMaintenanceLog(ctx context.Context, l *model.MaintenanceLog) error
	ListMaintenanceLogs(ctx context.Context, printerID string) ([]*model.MaintenanceLog, error)

	// Utility
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
