package types

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors for broad classification with errors.Is.
var (
	ErrInvalidEnumValue        = errors.New("invalid enum value")
	ErrIncompatibleRecordShape = errors.New("incompatible record shape")
	ErrValidation              = errors.New("validation failed")
)

// ErrorKind is a coarse-grained categorization for domain errors.
type ErrorKind string

const (
	KindInvalidEnumValue        ErrorKind = "invalid_enum_value"
	KindIncompatibleRecordShape ErrorKind = "incompatible_record_shape"
	KindValidation              ErrorKind = "validation"
)

// InvalidEnumValueError reports a raw string that is not a member of a
// closed enumeration.
type InvalidEnumValueError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidEnumValueError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invalid %s %q (allowed: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Is makes errors.Is(err, ErrInvalidEnumValue) true.
func (e *InvalidEnumValueError) Is(target error) bool {
	return target == ErrInvalidEnumValue
}

// Kind returns KindInvalidEnumValue.
func (e *InvalidEnumValueError) Kind() ErrorKind { return KindInvalidEnumValue }

// IncompatibleRecordShapeError reports a source record that cannot be mapped
// onto a canonical shape. Missing lists absent required fields, Invalid maps
// present-but-unusable fields to the reason they were rejected. Index is the
// position in the source batch, or -1 for a single record.
type IncompatibleRecordShapeError struct {
	Record  string
	Index   int
	Missing []string
	Invalid map[string]string
}

func (e *IncompatibleRecordShapeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("record")
	if e.Index >= 0 {
		fmt.Fprintf(&b, " %d", e.Index)
	}
	if e.Record != "" {
		fmt.Fprintf(&b, " (%s)", e.Record)
	}
	b.WriteString(": incompatible shape")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ", "))
	}
	for _, field := range sortedKeys(e.Invalid) {
		fmt.Fprintf(&b, "; %s: %s", field, e.Invalid[field])
	}
	return b.String()
}

// Is makes errors.Is(err, ErrIncompatibleRecordShape) true.
func (e *IncompatibleRecordShapeError) Is(target error) bool {
	return target == ErrIncompatibleRecordShape
}

// Kind returns KindIncompatibleRecordShape.
func (e *IncompatibleRecordShapeError) Kind() ErrorKind { return KindIncompatibleRecordShape }

// ValidationError reports a field that breaks an entity invariant. Err, when
// set, is a more specific sentinel (for example ErrMissingClientReference).
type ValidationError struct {
	Entity string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind returns KindValidation.
func (e *ValidationError) Kind() ErrorKind { return KindValidation }

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind() == kind
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
