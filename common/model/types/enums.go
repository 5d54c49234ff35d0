package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PrinterStatus is the lifecycle state of a printer. Closed set.
type PrinterStatus string

const (
	StatusAvailable   PrinterStatus = "available"
	StatusRented      PrinterStatus = "rented"
	StatusMaintenance PrinterStatus = "maintenance"
	StatusForRepair   PrinterStatus = "for_repair"
	StatusDeployed    PrinterStatus = "deployed"
)

// PrinterStatuses lists every legal PrinterStatus in declaration order.
func PrinterStatuses() []PrinterStatus {
	return []PrinterStatus{StatusAvailable, StatusRented, StatusMaintenance, StatusForRepair, StatusDeployed}
}

// ParsePrinterStatus converts an untrusted string into a PrinterStatus. The
// match is exact: no trimming, no case folding.
func ParsePrinterStatus(raw string) (PrinterStatus, error) {
	s := PrinterStatus(raw)
	if !s.Valid() {
		return "", &InvalidEnumValueError{Field: "status", Value: raw, Allowed: statusNames()}
	}
	return s, nil
}

// Valid reports whether s is a member of the closed set.
func (s PrinterStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance, StatusForRepair, StatusDeployed:
		return true
	default:
		return false
	}
}

func (s PrinterStatus) String() string { return string(s) }

// UnmarshalJSON rejects values outside the closed set.
func (s *PrinterStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	parsed, err := ParsePrinterStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scan implements sql.Scanner so rows are parsed at the storage boundary.
func (s *PrinterStatus) Scan(src any) error {
	raw, err := scanString(src, "status")
	if err != nil {
		return err
	}
	parsed, err := ParsePrinterStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer. Invalid values never reach the database.
func (s PrinterStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, &InvalidEnumValueError{Field: "status", Value: string(s), Allowed: statusNames()}
	}
	return string(s), nil
}

// OwnershipType records who owns a printer. Closed set.
type OwnershipType string

const (
	OwnedBySystem OwnershipType = "system"
	OwnedByClient OwnershipType = "client"
)

// OwnershipTypes lists every legal OwnershipType.
func OwnershipTypes() []OwnershipType {
	return []OwnershipType{OwnedBySystem, OwnedByClient}
}

// ParseOwnershipType converts an untrusted string into an OwnershipType.
func ParseOwnershipType(raw string) (OwnershipType, error) {
	o := OwnershipType(raw)
	if !o.Valid() {
		return "", &InvalidEnumValueError{Field: "owned_by", Value: raw, Allowed: ownershipNames()}
	}
	return o, nil
}

// Valid reports whether o is a member of the closed set.
func (o OwnershipType) Valid() bool {
	return o == OwnedBySystem || o == OwnedByClient
}

func (o OwnershipType) String() string { return string(o) }

// UnmarshalJSON rejects values outside the closed set.
func (o *OwnershipType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("owned_by: %w", err)
	}
	parsed, err := ParseOwnershipType(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Scan implements sql.Scanner.
func (o *OwnershipType) Scan(src any) error {
	raw, err := scanString(src, "owned_by")
	if err != nil {
		return err
	}
	parsed, err := ParseOwnershipType(raw)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Value implements driver.Valuer.
func (o OwnershipType) Value() (driver.Value, error) {
	if !o.Valid() {
		return nil, &InvalidEnumValueError{Field: "owned_by", Value: string(o), Allowed: ownershipNames()}
	}
	return string(o), nil
}

// TonerColor is the canonical colour of a toner cartridge. Closed set.
type TonerColor string

const (
	ColorBlack   TonerColor = "black"
	ColorCyan    TonerColor = "cyan"
	ColorMagenta TonerColor = "magenta"
	ColorYellow  TonerColor = "yellow"
)

// ParseTonerColor converts an untrusted string into a TonerColor.
func ParseTonerColor(raw string) (TonerColor, error) {
	c := TonerColor(raw)
	if !c.Valid() {
		return "", &InvalidEnumValueError{Field: "color", Value: raw, Allowed: []string{"black", "cyan", "magenta", "yellow"}}
	}
	return c, nil
}

// Valid reports whether c is a member of the closed set.
func (c TonerColor) Valid() bool {
	switch c {
	case ColorBlack, ColorCyan, ColorMagenta, ColorYellow:
		return true
	default:
		return false
	}
}

func (c TonerColor) String() string { return string(c) }

// Scan implements sql.Scanner.
func (c *TonerColor) Scan(src any) error {
	raw, err := scanString(src, "color")
	if err != nil {
		return err
	}
	parsed, err := ParseTonerColor(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer.
func (c TonerColor) Value() (driver.Value, error) {
	if _, err := ParseTonerColor(string(c)); err != nil {
		return nil, err
	}
	return string(c), nil
}

func scanString(src any, field string) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", &InvalidEnumValueError{Field: field, Value: ""}
	default:
		return "", fmt.Errorf("%s: unsupported column type %T", field, src)
	}
}

func statusNames() []string {
	out := make([]string, 0, 5)
	for _, s := range PrinterStatuses() {
		out = append(out, string(s))
	}
	return out
}

func ownershipNames() []string {
	return []string{string(OwnedBySystem), string(OwnedByClient)}
}
