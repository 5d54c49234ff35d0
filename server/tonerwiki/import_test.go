package tonerwiki

import (
	"context"
	"errors"
	"testing"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

type memWriter struct {
	toners map[string]model.TonerType
	err    error
}

func (m *memWriter) UpsertTonerType(_ context.Context, t *model.TonerType) error {
	if m.err != nil {
		return m.err
	}
	if m.toners == nil {
		m.toners = map[string]model.TonerType{}
	}
	m.toners[t.ID] = *t
	return nil
}

func mixedDump() *Dump {
	return &Dump{
		SchemaVersion: "1.0.0",
		Source:        "test",
		Toners: []model.WikiToner{
			{ID: "tk-1150", Name: "TK-1150", Brand: "Kyocera", Color: "Black", Yield: "3,000", Compatible: "ECOSYS M2540dn"},
			{ID: "bad", Name: "X-1", Brand: "Acme", Color: "teal", Compatible: "Acme 1"},
			{ID: "tn-243y", Name: "TN-243Y", Brand: "Brother", Color: "Y", Compatible: "HL-L3210CW"},
		},
	}
}

func TestImport_Partial(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	report, err := NewImporter(w, nil).Import(context.Background(), mixedDump(), model.PolicyPartial)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Received != 3 || report.Imported != 2 || len(report.Rejected) != 1 {
		t.Fatalf("report = %+v", report)
	}
	rej := report.Rejected[0]
	if rej.Index != 1 || rej.ID != "bad" || rej.Invalid["color"] == "" {
		t.Errorf("rejection = %+v", rej)
	}
	if got := w.toners["tn-243y"]; got.Color != model.ColorYellow {
		t.Errorf("stored toner = %+v", got)
	}
	if report.Policy != "partial" {
		t.Errorf("policy = %q", report.Policy)
	}
}

func TestImport_StrictWritesNothing(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	report, err := NewImporter(w, nil).Import(context.Background(), mixedDump(), model.PolicyStrict)
	if !errors.Is(err, ErrStrictRejected) {
		t.Fatalf("Import error = %v, want ErrStrictRejected", err)
	}
	if report == nil || report.Imported != 0 || len(report.Rejected) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(w.toners) != 0 {
		t.Errorf("strict import wrote %d toners", len(w.toners))
	}
}

func TestImport_StrictClean(t *testing.T) {
	t.Parallel()

	d := mixedDump()
	d.Toners = append(d.Toners[:1], d.Toners[2:]...)
	w := &memWriter{}
	report, err := NewImporter(w, nil).Import(context.Background(), d, model.PolicyStrict)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Imported != 2 || len(report.Rejected) != 0 || report.Rejected == nil {
		t.Errorf("report = %+v", report)
	}
}

func TestImport_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if _, err := NewImporter(&memWriter{}, nil).Import(ctx, &Dump{SchemaVersion: "2.1.0"}, model.PolicyPartial); !errors.Is(err, ErrUnsupportedSchema) {
		t.Errorf("schema error = %v", err)
	}

	storeErr := errors.New("disk full")
	report, err := NewImporter(&memWriter{err: storeErr}, nil).Import(ctx, mixedDump(), model.PolicyPartial)
	if !errors.Is(err, storeErr) {
		t.Errorf("store error = %v", err)
	}
	if report == nil || report.Imported != 0 {
		t.Errorf("report after store error = %+v", report)
	}
}
