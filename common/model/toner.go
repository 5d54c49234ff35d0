package model

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/an1noX/techpinoyv3-sub002/common/model/types"
	"github.com/an1noX/techpinoyv3-sub002/common/supplies"
)

// TonerConversion is the outcome of converting one wiki record. Exactly one
// of Toner or Err is meaningful.
type TonerConversion struct {
	Index int
	Toner TonerType
	Err   error
}

// OK reports whether the record converted.
func (c TonerConversion) OK() bool { return c.Err == nil }

// yieldPattern accepts "3000", "3,000", "~3,000 pages", "approx. 2.5k pp".
var yieldPattern = regexp.MustCompile(`(?i)^(?:~|approx\.?|ca\.?)?\s*(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d+))?\s*(k)?\s*(?:pages?|pp\.?)?$`)

// WikiTonerToTonerType converts a single wiki record into the canonical
// shape. A record missing a required field, or carrying a colour or yield
// that cannot be read, fails with *IncompatibleRecordShapeError; no field is
// defaulted.
func WikiTonerToTonerType(w WikiToner) (TonerType, error) {
	return convertWikiToner(-1, w)
}

// WikiTonersToTonerTypes converts a batch. The result has one entry per
// input, in input order; each record is converted independently.
func WikiTonersToTonerTypes(in []WikiToner) []TonerConversion {
	out := make([]TonerConversion, len(in))
	for i, w := range in {
		t, err := convertWikiToner(i, w)
		out[i] = TonerConversion{Index: i, Toner: t, Err: err}
	}
	return out
}

// TonerTypeToWikiToner renders a canonical record in wiki form. For records
// produced by WikiTonerToTonerType, converting the result back yields the
// original record.
func TonerTypeToWikiToner(t TonerType) WikiToner {
	w := WikiToner{
		ID:         t.ID,
		Name:       t.Model,
		Brand:      t.Brand,
		Color:      string(t.Color),
		Compatible: strings.Join(t.CompatiblePrinters, ", "),
		Notes:      t.Notes,
	}
	if t.PageYield > 0 {
		w.Yield = strconv.Itoa(t.PageYield)
	}
	return w
}

func convertWikiToner(index int, w WikiToner) (TonerType, error) {
	shapeErr := &types.IncompatibleRecordShapeError{Index: index, Record: strings.TrimSpace(w.ID)}
	reject := func(field, reason string) {
		if shapeErr.Invalid == nil {
			shapeErr.Invalid = make(map[string]string)
		}
		shapeErr.Invalid[field] = reason
	}

	t := TonerType{
		ID:    strings.TrimSpace(w.ID),
		Model: strings.TrimSpace(w.Name),
		Brand: strings.TrimSpace(w.Brand),
		Notes: strings.TrimSpace(w.Notes),
	}
	if t.ID == "" {
		shapeErr.Missing = append(shapeErr.Missing, "id")
	}
	if t.Model == "" {
		shapeErr.Missing = append(shapeErr.Missing, "name")
	}
	if t.Brand == "" {
		shapeErr.Missing = append(shapeErr.Missing, "brand")
	}

	switch color := strings.TrimSpace(w.Color); {
	case color == "":
		shapeErr.Missing = append(shapeErr.Missing, "color")
	case len(supplies.ColorKeys(color)) > 1:
		reject("color", "multiple colours in "+strconv.Quote(color))
	default:
		c, err := types.ParseTonerColor(supplies.TonerColor(color))
		if err != nil {
			reject("color", "unrecognised colour "+strconv.Quote(color))
		}
		t.Color = c
	}

	if y := strings.TrimSpace(w.Yield); y != "" {
		n, ok := parseYield(y)
		if !ok {
			reject("yield", "unreadable page yield "+strconv.Quote(y))
		}
		t.PageYield = n
	}

	t.CompatiblePrinters = splitModels(w.Compatible)
	if len(t.CompatiblePrinters) == 0 {
		shapeErr.Missing = append(shapeErr.Missing, "compatible")
	}

	if len(shapeErr.Missing) > 0 || len(shapeErr.Invalid) > 0 {
		return TonerType{}, shapeErr
	}
	return t, nil
}

// maxPageYield bounds parsed yields; no cartridge comes near it.
const maxPageYield = 10_000_000

func parseYield(raw string) (int, bool) {
	m := yieldPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, false
	}
	whole, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	frac, thousands := m[2], m[3] != ""
	if !thousands {
		if frac != "" {
			return 0, false
		}
		return whole, whole > 0 && whole <= maxPageYield
	}
	if whole > maxPageYield/1000 {
		return 0, false
	}
	n := whole * 1000
	if frac != "" {
		if len(frac) > 3 {
			return 0, false
		}
		f, _ := strconv.Atoi(frac + strings.Repeat("0", 3-len(frac)))
		n += f
	}
	return n, n > 0 && n <= maxPageYield
}

func splitModels(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ConversionPolicy decides what a batch conversion does with rejected
// records.
type ConversionPolicy int

const (
	// PolicyStrict rejects the whole batch when any record fails.
	PolicyStrict ConversionPolicy = iota
	// PolicyPartial keeps converted records and reports the rest.
	PolicyPartial
)

func (p ConversionPolicy) String() string {
	if p == PolicyPartial {
		return "partial"
	}
	return "strict"
}

// ParseConversionPolicy reads "strict" or "partial". Empty means strict.
func ParseConversionPolicy(raw string) (ConversionPolicy, error) {
	switch raw {
	case "", "strict":
		return PolicyStrict, nil
	case "partial":
		return PolicyPartial, nil
	default:
		return PolicyStrict, &types.InvalidEnumValueError{Field: "policy", Value: raw, Allowed: []string{"strict", "partial"}}
	}
}

// CollectStrict returns every converted toner, or nil and all record errors
// joined when any record failed.
func CollectStrict(results []TonerConversion) ([]TonerType, error) {
	toners, rejected := CollectPartial(results)
	if len(rejected) > 0 {
		return nil, errors.Join(rejected...)
	}
	return toners, nil
}

// CollectPartial splits results into converted toners and per-record errors,
// both in input order.
func CollectPartial(results []TonerConversion) ([]TonerType, []error) {
	toners := make([]TonerType, 0, len(results))
	var rejected []error
	for _, r := range results {
		if r.Err != nil {
			rejected = append(rejected, r.Err)
			continue
		}
		toners = append(toners, r.Toner)
	}
	return toners, rejected
}

// Collect applies policy to results.
func Collect(results []TonerConversion, policy ConversionPolicy) ([]TonerType, []error) {
	if policy == PolicyPartial {
		return CollectPartial(results)
	}
	toners, rejected := CollectPartial(results)
	if len(rejected) > 0 {
		return nil, rejected
	}
	return toners, nil
}

// RenderToners converts wiki records and hands the canonical list to render.
// Under PolicyStrict render is not called when any record fails; the zero R
// is returned with the rejections. Under PolicyPartial render receives the
// converted records and the rejections are returned alongside its result.
func RenderToners[R any](in []WikiToner, policy ConversionPolicy, render func([]TonerType) R) (R, []error) {
	toners, rejected := Collect(WikiTonersToTonerTypes(in), policy)
	if policy == PolicyStrict && len(rejected) > 0 {
		var zero R
		return zero, rejected
	}
	return render(toners), rejected
}
