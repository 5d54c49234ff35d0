// Package supplies classifies free-text consumable descriptions (SNMP supply
// descriptions, wiki colour fields, vendor part numbers) into canonical keys.
package supplies

import (
	"regexp"
	"strings"
)

// Canonical supply keys shared by the probe and the toner registry.
const (
	KeyTonerBlack   = "toner_black"
	KeyTonerCyan    = "toner_cyan"
	KeyTonerMagenta = "toner_magenta"
	KeyTonerYellow  = "toner_yellow"
	KeyDrum         = "drum_life"
	KeyWasteToner   = "waste_toner"
	KeyFuser        = "fuser_life"
	KeyTransferBelt = "transfer_belt"
)

// colorPartNumber matches vendor part numbers whose last letter encodes the
// colour: TK-8517K, TN-243C, CE401A is not covered (HP uses A/X suffixes).
var colorPartNumber = regexp.MustCompile(`(?i)^(tk|tn|ce|cf|w\d|cb|cc|q\d|c\d)[- ]?\d{3,5}([kcmy])$`)

// monoPartNumber matches mono toner part numbers without a colour suffix
// (TK-3182, TN-760). Those are always black.
var monoPartNumber = regexp.MustCompile(`(?i)^(tk|tn)[- ]?\d{3,5}$`)

type colorRule struct {
	key     string
	needles []string
}

var colorRules = []colorRule{
	{KeyTonerBlack, []string{"black", " bk", "bk ", "blk", "negro", "noir", "schwarz", "nero"}},
	{KeyTonerCyan, []string{"cyan", " cy", "cy ", "cyn"}},
	{KeyTonerMagenta, []string{"magenta", " mg", "mg ", " mag", "mag "}},
	{KeyTonerYellow, []string{"yellow", " yl", "yl ", "yel", "amarillo", "jaune", "gelb", "giallo"}},
}

// shortColors are whole-field colour abbreviations used by wikis and
// spreadsheets.
var shortColors = map[string]string{
	"k": KeyTonerBlack, "bk": KeyTonerBlack, "blk": KeyTonerBlack,
	"c": KeyTonerCyan, "cy": KeyTonerCyan,
	"m": KeyTonerMagenta, "mg": KeyTonerMagenta,
	"y": KeyTonerYellow, "yl": KeyTonerYellow,
}

var suffixKeys = map[byte]string{
	'k': KeyTonerBlack,
	'c': KeyTonerCyan,
	'm': KeyTonerMagenta,
	'y': KeyTonerYellow,
}

// NormalizeDescription maps a raw supply description to a canonical key
// (e.g. "Black Toner" -> "toner_black"). Returns "" when the description
// cannot be classified.
func NormalizeDescription(desc string) string {
	clean := strings.TrimSpace(desc)
	if clean == "" {
		return ""
	}
	if key := keyFromPartNumber(clean); key != "" {
		return key
	}

	lower := fold(clean)
	if lower == "" {
		return ""
	}
	if key, ok := shortColors[lower]; ok {
		return key
	}

	toner := containsAny(lower, "toner", "ink", "cartridge", "developer", "supply")
	drum := containsAny(lower, "drum", "imaging", "image", "opc", "photoconductor")

	for _, rule := range colorRules {
		if !containsAny(lower, rule.needles...) {
			continue
		}
		// Colour words on a drum unit describe the drum, not the toner.
		if drum && !toner {
			if rule.key == KeyTonerBlack {
				return KeyDrum
			}
			return ""
		}
		return rule.key
	}

	switch {
	case drum:
		return KeyDrum
	case containsAny(lower, "waste", "used"):
		return KeyWasteToner
	case containsAny(lower, "fuser", "fusing"):
		return KeyFuser
	case containsAny(lower, "transfer", "belt"):
		return KeyTransferBelt
	}
	return ""
}

// TonerColor returns the bare colour name ("black", "cyan", "magenta",
// "yellow") for a description or part number, or "" when the input is not a
// toner colour.
func TonerColor(desc string) string {
	key := NormalizeDescription(desc)
	if !strings.HasPrefix(key, "toner_") {
		return ""
	}
	return strings.TrimPrefix(key, "toner_")
}

// ColorKeys returns every toner colour key named in desc, in black, cyan,
// magenta, yellow order. A part number yields at most one key.
func ColorKeys(desc string) []string {
	clean := strings.TrimSpace(desc)
	if key := keyFromPartNumber(clean); key != "" {
		return []string{key}
	}
	lower := fold(clean)
	if key, ok := shortColors[lower]; ok {
		return []string{key}
	}
	var keys []string
	for _, rule := range colorRules {
		if containsAny(lower, rule.needles...) {
			keys = append(keys, rule.key)
		}
	}
	return keys
}

func fold(desc string) string {
	lower := strings.ToLower(desc)
	lower = strings.NewReplacer("_", " ", "-", " ", "\t", " ", "\n", " ").Replace(lower)
	return strings.TrimSpace(lower)
}

func keyFromPartNumber(desc string) string {
	if m := colorPartNumber.FindStringSubmatch(desc); len(m) == 3 {
		return suffixKeys[strings.ToLower(m[2])[0]]
	}
	if monoPartNumber.MatchString(desc) {
		return KeyTonerBlack
	}

	// "Supply TK-8517K" and other prefixed variants: a digit followed by a
	// colour letter at the very end.
	lower := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(desc), "supply "))
	if len(lower) < 4 || !strings.ContainsAny(lower, "0123456789") {
		return ""
	}
	prev := lower[len(lower)-2]
	if prev < '0' || prev > '9' {
		return ""
	}
	return suffixKeys[lower[len(lower)-1]]
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
