package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePrinterStatusIdentity(t *testing.T) {
	t.Parallel()

	for _, want := range PrinterStatuses() {
		got, err := ParsePrinterStatus(string(want))
		if err != nil {
			t.Fatalf("ParsePrinterStatus(%q) error: %v", want, err)
		}
		if got != want {
			t.Errorf("ParsePrinterStatus(%q) = %q", want, got)
		}
	}
}

func TestParsePrinterStatusRejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "Available", " rented", "repair", "for-repair", "retired", "deployed\n"} {
		_, err := ParsePrinterStatus(raw)
		if err == nil {
			t.Fatalf("ParsePrinterStatus(%q) succeeded", raw)
		}
		if !errors.Is(err, ErrInvalidEnumValue) {
			t.Errorf("ParsePrinterStatus(%q) error %v is not ErrInvalidEnumValue", raw, err)
		}
		var enumErr *InvalidEnumValueError
		if !errors.As(err, &enumErr) || enumErr.Field != "status" || enumErr.Value != raw {
			t.Errorf("ParsePrinterStatus(%q) error = %#v", raw, err)
		}
		if !IsKind(err, KindInvalidEnumValue) {
			t.Errorf("IsKind(%v, KindInvalidEnumValue) = false", err)
		}
	}
}

func TestParseOwnershipType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    OwnershipType
		wantErr bool
	}{
		{"system", OwnedBySystem, false},
		{"client", OwnedByClient, false},
		{"System", "", true},
		{"vendor", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOwnershipType(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseOwnershipType(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOwnershipType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPrinterStatusJSON(t *testing.T) {
	t.Parallel()

	var p Printer
	if err := json.Unmarshal([]byte(`{"id":"p1","status":"rented","owned_by":"system"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Status != StatusRented || p.OwnedBy != OwnedBySystem {
		t.Errorf("got status=%q owned_by=%q", p.Status, p.OwnedBy)
	}

	err := json.Unmarshal([]byte(`{"id":"p1","status":"broken"}`), &p)
	if !errors.Is(err, ErrInvalidEnumValue) {
		t.Errorf("unmarshal bad status error = %v", err)
	}
	err = json.Unmarshal([]byte(`{"id":"p1","owned_by":"nobody"}`), &p)
	if !errors.Is(err, ErrInvalidEnumValue) {
		t.Errorf("unmarshal bad owned_by error = %v", err)
	}
}

func TestPrinterStatusScan(t *testing.T) {
	t.Parallel()

	var s PrinterStatus
	if err := s.Scan([]byte("maintenance")); err != nil || s != StatusMaintenance {
		t.Fatalf("Scan([]byte) = %q, %v", s, err)
	}
	if err := s.Scan("deployed"); err != nil || s != StatusDeployed {
		t.Fatalf("Scan(string) = %q, %v", s, err)
	}
	if err := s.Scan("lost"); !errors.Is(err, ErrInvalidEnumValue) {
		t.Errorf("Scan(lost) error = %v", err)
	}
	if err := s.Scan(nil); err == nil {
		t.Error("Scan(nil) succeeded")
	}

	v, err := StatusForRepair.Value()
	if err != nil || v != "for_repair" {
		t.Errorf("Value() = %v, %v", v, err)
	}
}

func TestParseTonerColor(t *testing.T) {
	t.Parallel()

	for _, c := range []string{"black", "cyan", "magenta", "yellow"} {
		if got, err := ParseTonerColor(c); err != nil || string(got) != c {
			t.Errorf("ParseTonerColor(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseTonerColor("Black"); err == nil {
		t.Error("ParseTonerColor(Black) succeeded")
	}
}
