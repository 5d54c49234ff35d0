package types

import "time"

// TransferLog records a printer changing custody. Entries are immutable once
// written.
type TransferLog struct {
	ID             int64     `json:"id"`
	PrinterID      string    `json:"printer_id"`
	Timestamp      time.Time `json:"timestamp"`
	Type           string    `json:"type"` // deploy, return, reassign, ...
	FromClientID   string    `json:"from_client_id,omitempty"`
	ToClientID     string    `json:"to_client_id,omitempty"`
	FromDepartment string    `json:"from_department,omitempty"`
	ToDepartment   string    `json:"to_department,omitempty"`
	FromLocation   string    `json:"from_location,omitempty"`
	ToLocation     string    `json:"to_location,omitempty"`
	PerformedBy    string    `json:"performed_by,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

// MaintenanceLog records a service event on a printer. Entries are
// immutable once written.
type MaintenanceLog struct {
	ID          int64     `json:"id"`
	PrinterID   string    `json:"printer_id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"` // repair, cleaning, toner_replacement, ...
	Description string    `json:"description,omitempty"`
	PerformedBy string    `json:"performed_by,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}
