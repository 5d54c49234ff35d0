package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func wiki(id, color string) WikiToner {
	return WikiToner{
		ID:         id,
		Name:       strings.ToUpper(id),
		Brand:      "Kyocera",
		Color:      color,
		Yield:      "3,000 pages",
		Compatible: "ECOSYS P5026cdn, ECOSYS M5526cdw",
	}
}

func TestWikiTonerToTonerType(t *testing.T) {
	t.Parallel()

	got, err := WikiTonerToTonerType(WikiToner{
		ID:         " tk-5240k ",
		Name:       "TK-5240K",
		Brand:      "Kyocera",
		Color:      "Black",
		Yield:      "~4,000 pages",
		Compatible: "ECOSYS P5026cdn; ECOSYS M5526cdw\n",
		Notes:      "OEM",
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := TonerType{
		ID:                 "tk-5240k",
		Model:              "TK-5240K",
		Brand:              "Kyocera",
		Color:              ColorBlack,
		PageYield:          4000,
		CompatiblePrinters: []string{"ECOSYS P5026cdn", "ECOSYS M5526cdw"},
		Notes:              "OEM",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %+v\nwant %+v", got, want)
	}
}

func TestWikiTonerToTonerTypeRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*WikiToner)
		missing string
		invalid string
	}{
		{"no id", func(w *WikiToner) { w.ID = "" }, "id", ""},
		{"no name", func(w *WikiToner) { w.Name = "  " }, "name", ""},
		{"no brand", func(w *WikiToner) { w.Brand = "" }, "brand", ""},
		{"no color", func(w *WikiToner) { w.Color = "" }, "color", ""},
		{"no compatible", func(w *WikiToner) { w.Compatible = " , ;" }, "compatible", ""},
		{"unknown color", func(w *WikiToner) { w.Color = "teal" }, "", "color"},
		{"drum is not a colour", func(w *WikiToner) { w.Color = "Drum Unit" }, "", "color"},
		{"unreadable yield", func(w *WikiToner) { w.Yield = "lots" }, "", "yield"},
		{"zero yield", func(w *WikiToner) { w.Yield = "0" }, "", "yield"},
		{"wrapping yield", func(w *WikiToner) { w.Yield = "18446744073709552k" }, "", "yield"},
		{"four colours", func(w *WikiToner) { w.Color = "Black/Cyan/Magenta/Yellow" }, "", "color"},
		{"two colours", func(w *WikiToner) { w.Color = "Cyan, Magenta" }, "", "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := wiki("tk-1", "black")
			tt.mutate(&w)
			_, err := WikiTonerToTonerType(w)
			if !errors.Is(err, ErrIncompatibleRecordShape) {
				t.Fatalf("error = %v, want ErrIncompatibleRecordShape", err)
			}
			var shape *IncompatibleRecordShapeError
			if !errors.As(err, &shape) {
				t.Fatalf("error type %T", err)
			}
			if tt.missing != "" && !contains(shape.Missing, tt.missing) {
				t.Errorf("Missing = %v, want %q", shape.Missing, tt.missing)
			}
			if tt.invalid != "" {
				if _, ok := shape.Invalid[tt.invalid]; !ok {
					t.Errorf("Invalid = %v, want key %q", shape.Invalid, tt.invalid)
				}
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestParseYield(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3000", 3000, true},
		{"3,000", 3000, true},
		{"3,000 pages", 3000, true},
		{"~6000", 6000, true},
		{"approx. 12,500 pp", 12500, true},
		{"2.5k", 2500, true},
		{"7K pages", 7000, true},
		{"1 page", 1, true},
		{"2.5", 0, false},
		{"30,00", 0, false},
		{"many", 0, false},
		{"-100", 0, false},
		{"10,000,000", 10000000, true},
		{"10000k", 10000000, true},
		{"10000001", 0, false},
		{"10000.001k", 0, false},
		{"18446744073709552k", 0, false},
		{"9300000000000000k", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseYield(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseYield(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWikiTonersToTonerTypesPreservesOrder(t *testing.T) {
	t.Parallel()

	colors := []string{"black", "bogus", "Cyan", "", "M", "yellow", "BK"}
	in := make([]WikiToner, len(colors))
	for i, c := range colors {
		in[i] = wiki(fmt.Sprintf("tn-%d", i), c)
	}

	out := WikiTonersToTonerTypes(in)
	if len(out) != len(in) {
		t.Fatalf("got %d results for %d records", len(out), len(in))
	}
	for i, r := range out {
		if r.Index != i {
			t.Errorf("result %d has Index %d", i, r.Index)
		}
		if r.OK() && r.Toner.ID != in[i].ID {
			t.Errorf("result %d is toner %q, want %q", i, r.Toner.ID, in[i].ID)
		}
	}
	for _, i := range []int{1, 3} {
		if out[i].OK() {
			t.Errorf("record %d (%q) converted", i, colors[i])
		}
		var shape *IncompatibleRecordShapeError
		if errors.As(out[i].Err, &shape) && shape.Index != i {
			t.Errorf("record %d error carries index %d", i, shape.Index)
		}
	}
}

func TestWikiTonersToTonerTypesEmpty(t *testing.T) {
	t.Parallel()

	for _, in := range [][]WikiToner{nil, {}} {
		out := WikiTonersToTonerTypes(in)
		if out == nil || len(out) != 0 {
			t.Errorf("WikiTonersToTonerTypes(%v) = %#v, want empty", in, out)
		}
		toners, err := CollectStrict(out)
		if err != nil || toners == nil || len(toners) != 0 {
			t.Errorf("CollectStrict(empty) = %#v, %v", toners, err)
		}
	}
}

func TestTonerRoundTrip(t *testing.T) {
	t.Parallel()

	first, err := WikiTonerToTonerType(wiki("tk-8517c", "Cyan"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	again, err := WikiTonerToTonerType(TonerTypeToWikiToner(first))
	if err != nil {
		t.Fatalf("reconvert: %v", err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Errorf("round trip changed record:\n%+v\n%+v", first, again)
	}

	noYield := first
	noYield.PageYield = 0
	back, err := WikiTonerToTonerType(TonerTypeToWikiToner(noYield))
	if err != nil || !reflect.DeepEqual(back, noYield) {
		t.Errorf("round trip without yield = %+v, %v", back, err)
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	out := WikiTonersToTonerTypes([]WikiToner{wiki("a", "black"), wiki("b", "teal"), wiki("c", "yellow")})

	if toners, err := CollectStrict(out); err == nil || toners != nil {
		t.Errorf("CollectStrict = %v, %v; want nil and error", toners, err)
	} else if !errors.Is(err, ErrIncompatibleRecordShape) {
		t.Errorf("CollectStrict error = %v", err)
	}

	toners, rejected := CollectPartial(out)
	if len(toners) != 2 || toners[0].ID != "a" || toners[1].ID != "c" {
		t.Errorf("CollectPartial toners = %+v", toners)
	}
	if len(rejected) != 1 {
		t.Errorf("CollectPartial rejected = %v", rejected)
	}
}

func TestParseConversionPolicy(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]ConversionPolicy{"": PolicyStrict, "strict": PolicyStrict, "partial": PolicyPartial} {
		got, err := ParseConversionPolicy(raw)
		if err != nil || got != want {
			t.Errorf("ParseConversionPolicy(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseConversionPolicy("lenient"); !errors.Is(err, ErrInvalidEnumValue) {
		t.Errorf("ParseConversionPolicy(lenient) error = %v", err)
	}
}

func TestRenderToners(t *testing.T) {
	t.Parallel()

	in := []WikiToner{wiki("a", "black"), wiki("b", ""), wiki("c", "magenta")}
	ids := func(ts []TonerType) string {
		parts := make([]string, len(ts))
		for i, t := range ts {
			parts[i] = t.ID
		}
		return strings.Join(parts, ",")
	}

	called := false
	got, rejected := RenderToners(in, PolicyStrict, func(ts []TonerType) string {
		called = true
		return ids(ts)
	})
	if called || got != "" || len(rejected) != 1 {
		t.Errorf("strict: called=%v got=%q rejected=%v", called, got, rejected)
	}

	got, rejected = RenderToners(in, PolicyPartial, ids)
	if got != "a,c" || len(rejected) != 1 {
		t.Errorf("partial: got=%q rejected=%v", got, rejected)
	}

	got, rejected = RenderToners(in[:1], PolicyStrict, ids)
	if got != "a" || rejected != nil {
		t.Errorf("strict clean: got=%q rejected=%v", got, rejected)
	}
}
