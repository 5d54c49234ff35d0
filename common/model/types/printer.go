package types

import "time"

// Printer is a managed print device.
type Printer struct {
	ID           string        `json:"id"`
	Make         string        `json:"make"`
	Series       string        `json:"series,omitempty"`
	Model        string        `json:"model"`
	SerialNumber string        `json:"serial_number,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Status       PrinterStatus `json:"status"`
	OwnedBy      OwnershipType `json:"owned_by"`
	ClientID     string        `json:"client_id,omitempty"`   // required when OwnedBy is client
	AssignedTo   string        `json:"assigned_to,omitempty"` // person or desk currently holding it
	Department   string        `json:"department,omitempty"`  // Department.ID
	Location     string        `json:"location,omitempty"`
	IsRental     bool          `json:"is_rental"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DisplayName joins make, series and model for list views.
func (p Printer) DisplayName() string {
	name := p.Make
	for _, part := range []string{p.Series, p.Model} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}

// PrinterFilter narrows printer listings. Zero values mean "any".
type PrinterFilter struct {
	Status     PrinterStatus
	OwnedBy    OwnershipType
	ClientID   string
	Department string
	Limit      int
}
