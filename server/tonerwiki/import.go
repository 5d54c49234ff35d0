package tonerwiki

import (
	"context"
	"errors"
	"fmt"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

// ErrStrictRejected is returned by a strict import that refused the whole
// dump because at least one record was rejected.
var ErrStrictRejected = errors.New("strict import rejected dump")

// TonerWriter is the storage surface an import writes to.
type TonerWriter interface {
	UpsertTonerType(ctx context.Context, t *model.TonerType) error
}

// Logger is the logging surface the importer needs.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

// RecordError describes one rejected wiki record.
type RecordError struct {
	Index   int               `json:"index"`
	ID      string            `json:"id,omitempty"`
	Missing []string          `json:"missing,omitempty"`
	Invalid map[string]string `json:"invalid,omitempty"`
	Message string            `json:"message"`
}

// Report summarises an import.
type Report struct {
	Source        string        `json:"source,omitempty"`
	SchemaVersion string        `json:"schema_version"`
	Policy        string        `json:"policy"`
	Received      int           `json:"received"`
	Imported      int           `json:"imported"`
	Rejected      []RecordError `json:"rejected"`
}

// Importer converts wiki dumps and stores the accepted toners.
type Importer struct {
	store TonerWriter
	log   Logger
}

// NewImporter creates an Importer. A nil logger is allowed.
func NewImporter(store TonerWriter, log Logger) *Importer {
	if log == nil {
		log = nopLogger{}
	}
	return &Importer{store: store, log: log}
}

// Import converts every record in dump and upserts the accepted ones.
// Under PolicyStrict a single rejection aborts the import before anything is
// written; the report lists the rejections and ErrStrictRejected is returned.
func (im *Importer) Import(ctx context.Context, dump *Dump, policy model.ConversionPolicy) (*Report, error) {
	if dump == nil {
		return nil, fmt.Errorf("nil dump")
	}
	if err := dump.CheckSchema(); err != nil {
		return nil, err
	}

	report := &Report{
		Source:        dump.Source,
		SchemaVersion: dump.SchemaVersion,
		Policy:        policy.String(),
		Received:      len(dump.Toners),
		Rejected:      []RecordError{},
	}
	if report.SchemaVersion == "" {
		report.SchemaVersion = LegacySchemaVersion
	}

	toners, rejected := model.Collect(model.WikiTonersToTonerTypes(dump.Toners), policy)
	for _, err := range rejected {
		report.Rejected = append(report.Rejected, recordError(err, dump.Toners))
	}
	if policy == model.PolicyStrict && len(rejected) > 0 {
		im.log.Warn("Toner import rejected", "source", dump.Source, "rejected", len(rejected))
		return report, ErrStrictRejected
	}

	for i := range toners {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := im.store.UpsertTonerType(ctx, &toners[i]); err != nil {
			return report, fmt.Errorf("store toner %s: %w", toners[i].ID, err)
		}
		report.Imported++
	}

	im.log.Info("Toner import finished", "source", dump.Source, "policy", report.Policy,
		"received", report.Received, "imported", report.Imported, "rejected", len(report.Rejected))
	return report, nil
}

func recordError(err error, records []model.WikiToner) RecordError {
	re := RecordError{Index: -1, Message: err.Error()}
	var shape *model.IncompatibleRecordShapeError
	if errors.As(err, &shape) {
		re.Index = shape.Index
		re.Missing = shape.Missing
		re.Invalid = shape.Invalid
		if shape.Index >= 0 && shape.Index < len(records) {
			re.ID = records[shape.Index].ID
		}
	}
	return re
}
