package model

import (
	"errors"
	"net/mail"
	"strconv"
	"strings"

	"github.com/an1noX/techpinoyv3-sub002/common/model/types"
)

// ErrMissingClientReference is wrapped by the ValidationError raised when a
// client-owned printer has no client_id.
var ErrMissingClientReference = errors.New("client-owned printer has no client reference")

func invalid(entity, field, reason string) error {
	return &types.ValidationError{Entity: entity, Field: field, Reason: reason}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ValidatePrinter checks a printer's field and referential invariants. All
// problems are reported, joined.
func ValidatePrinter(p Printer) error {
	var errs []error
	if blank(p.ID) {
		errs = append(errs, invalid("printer", "id", "required"))
	}
	if blank(p.Make) {
		errs = append(errs, invalid("printer", "make", "required"))
	}
	if blank(p.Model) {
		errs = append(errs, invalid("printer", "model", "required"))
	}
	if _, err := ParsePrinterStatus(string(p.Status)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseOwnershipType(string(p.OwnedBy)); err != nil {
		errs = append(errs, err)
	}
	if p.OwnedBy == OwnedByClient && blank(p.ClientID) {
		errs = append(errs, &types.ValidationError{
			Entity: "printer",
			Field:  "client_id",
			Reason: "required when owned_by is client",
			Err:    ErrMissingClientReference,
		})
	}
	return errors.Join(errs...)
}

// ValidateClient checks a client record.
func ValidateClient(c Client) error {
	var errs []error
	if blank(c.ID) {
		errs = append(errs, invalid("client", "id", "required"))
	}
	if blank(c.Name) {
		errs = append(errs, invalid("client", "name", "required"))
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			errs = append(errs, invalid("client", "email", "not a valid address"))
		}
	}
	return errors.Join(errs...)
}

// ValidateDepartment checks a department record. ClientID is a weak
// reference and is not required.
func ValidateDepartment(d Department) error {
	var errs []error
	if blank(d.ID) {
		errs = append(errs, invalid("department", "id", "required"))
	}
	if blank(d.Name) {
		errs = append(errs, invalid("department", "name", "required"))
	}
	return errors.Join(errs...)
}

// ValidateTonerType checks a canonical toner record.
func ValidateTonerType(t TonerType) error {
	var errs []error
	if blank(t.ID) {
		errs = append(errs, invalid("toner", "id", "required"))
	}
	if blank(t.Model) {
		errs = append(errs, invalid("toner", "model", "required"))
	}
	if blank(t.Brand) {
		errs = append(errs, invalid("toner", "brand", "required"))
	}
	if _, err := ParseTonerColor(string(t.Color)); err != nil {
		errs = append(errs, err)
	}
	if t.PageYield < 0 {
		errs = append(errs, invalid("toner", "page_yield", "must not be negative"))
	}
	if len(t.CompatiblePrinters) == 0 {
		errs = append(errs, invalid("toner", "compatible_printers", "at least one printer model required"))
	}
	for _, m := range t.CompatiblePrinters {
		if blank(m) || strings.ContainsAny(m, ",;\n") {
			errs = append(errs, invalid("toner", "compatible_printers", "blank model or list separator in "+strconv.Quote(m)))
			break
		}
	}
	return errors.Join(errs...)
}

// ValidateTransferLog checks a custody change entry before it is appended.
func ValidateTransferLog(l TransferLog) error {
	return validateLog("transfer_log", l.PrinterID, l.Type, l.Timestamp.IsZero())
}

// ValidateMaintenanceLog checks a service entry before it is appended.
func ValidateMaintenanceLog(l MaintenanceLog) error {
	return validateLog("maintenance_log", l.PrinterID, l.Type, l.Timestamp.IsZero())
}

func validateLog(entity, printerID, typ string, zeroTime bool) error {
	var errs []error
	if blank(printerID) {
		errs = append(errs, invalid(entity, "printer_id", "required"))
	}
	if blank(typ) {
		errs = append(errs, invalid(entity, "type", "required"))
	}
	if zeroTime {
		errs = append(errs, invalid(entity, "timestamp", "required"))
	}
	return errors.Join(errs...)
}
