package model

import (
	"github.com/google/uuid"

	"github.com/an1noX/techpinoyv3-sub002/common/model/types"
)

// Entity and enumeration aliases.
type (
	Printer        = types.Printer
	PrinterFilter  = types.PrinterFilter
	PrinterStatus  = types.PrinterStatus
	OwnershipType  = types.OwnershipType
	Client         = types.Client
	Department     = types.Department
	WikiToner      = types.WikiToner
	TonerType      = types.TonerType
	TonerColor     = types.TonerColor
	TransferLog    = types.TransferLog
	MaintenanceLog = types.MaintenanceLog
)

// Error aliases.
type (
	ErrorKind                    = types.ErrorKind
	InvalidEnumValueError        = types.InvalidEnumValueError
	IncompatibleRecordShapeError = types.IncompatibleRecordShapeError
	ValidationError              = types.ValidationError
)

const (
	StatusAvailable   = types.StatusAvailable
	StatusRented      = types.StatusRented
	StatusMaintenance = types.StatusMaintenance
	StatusForRepair   = types.StatusForRepair
	StatusDeployed    = types.StatusDeployed

	OwnedBySystem = types.OwnedBySystem
	OwnedByClient = types.OwnedByClient

	ColorBlack   = types.ColorBlack
	ColorCyan    = types.ColorCyan
	ColorMagenta = types.ColorMagenta
	ColorYellow  = types.ColorYellow

	KindInvalidEnumValue        = types.KindInvalidEnumValue
	KindIncompatibleRecordShape = types.KindIncompatibleRecordShape
	KindValidation              = types.KindValidation
)

var (
	ErrInvalidEnumValue        = types.ErrInvalidEnumValue
	ErrIncompatibleRecordShape = types.ErrIncompatibleRecordShape
	ErrValidation              = types.ErrValidation
)

// ParsePrinterStatus converts an untrusted string into a PrinterStatus,
// failing with *InvalidEnumValueError for anything outside the closed set.
func ParsePrinterStatus(raw string) (PrinterStatus, error) {
	return types.ParsePrinterStatus(raw)
}

// ParseOwnershipType converts an untrusted string into an OwnershipType.
func ParseOwnershipType(raw string) (OwnershipType, error) {
	return types.ParseOwnershipType(raw)
}

// ParseTonerColor converts an untrusted string into a TonerColor.
func ParseTonerColor(raw string) (TonerColor, error) {
	return types.ParseTonerColor(raw)
}

// PrinterStatuses lists the legal printer statuses.
func PrinterStatuses() []PrinterStatus { return types.PrinterStatuses() }

// OwnershipTypes lists the legal ownership values.
func OwnershipTypes() []OwnershipType { return types.OwnershipTypes() }

// IsKind reports whether err carries the given error kind.
func IsKind(err error, kind ErrorKind) bool { return types.IsKind(err, kind) }

// NewID returns a fresh random identifier for a new entity.
func NewID() string {
	return uuid.NewString()
}
