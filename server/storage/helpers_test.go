package storage

import (
	"database/sql"
	"testing"
	"time"
)

func TestNullString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  sql.NullString
	}{
		{"empty string returns invalid", "", sql.NullString{String: "", Valid: false}},
		{"non-empty string returns valid", "hello", sql.NullString{String: "hello", Valid: true}},
		{"whitespace is valid", " ", sql.NullString{String: " ", Valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nullString(tt.input)
			if got.String != tt.want.String || got.Valid != tt.want.Valid {
				t.Errorf("nullString(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNowIsUTCMicroseconds(t *testing.T) {
	t.Parallel()

	ts := now()
	if ts.Location() != time.UTC {
		t.Errorf("now() location = %v, want UTC", ts.Location())
	}
	if ts.Nanosecond()%1000 != 0 {
		t.Errorf("now() = %v carries sub-microsecond precision", ts)
	}
}
