package types

// WikiToner is a toner record as published by the toner wiki. Every field is
// free text; nothing is guaranteed to be present.
type WikiToner struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"` // vendor part number, e.g. "TK-5240K"
	Brand      string `json:"brand" yaml:"brand"`
	Color      string `json:"color" yaml:"color"`           // "Black", "BK", "cyan", ...
	Yield      string `json:"yield" yaml:"yield"`           // "3,000 pages", "~6000", ""
	Compatible string `json:"compatible" yaml:"compatible"` // comma separated printer models
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TonerType is the canonical toner consumable shape.
type TonerType struct {
	ID                 string     `json:"id"`
	Model              string     `json:"model"`
	Brand              string     `json:"brand"`
	Color              TonerColor `json:"color"`
	PageYield          int        `json:"page_yield,omitempty"` // 0 when unknown
	CompatiblePrinters []string   `json:"compatible_printers"`
	Notes              string     `json:"notes,omitempty"`
}

// CompatibleWith reports whether the toner lists the printer model.
func (t TonerType) CompatibleWith(model string) bool {
	for _, m := range t.CompatiblePrinters {
		if m == model {
			return true
		}
	}
	return false
}
