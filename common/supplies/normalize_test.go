package supplies

import (
	"strings"
	"testing"
)

func TestNormalizeDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty string", "", ""},
		{"whitespace only", "  \t\n ", ""},

		{"black toner", "Black Toner", KeyTonerBlack},
		{"bk cartridge", "BK Cartridge", KeyTonerBlack},
		{"noir", "Noir", KeyTonerBlack},
		{"single letter k", "K", KeyTonerBlack},
		{"cyan ink", "Cyan Ink", KeyTonerCyan},
		{"mag supply", "Mag Supply", KeyTonerMagenta},
		{"jaune", "Jaune", KeyTonerYellow},

		{"kyocera color part", "TK-8517K", KeyTonerBlack},
		{"kyocera cyan part", "TK-8517C", KeyTonerCyan},
		{"brother magenta part", "TN-243M", KeyTonerMagenta},
		{"mono part number", "TK-3182", KeyTonerBlack},
		{"prefixed part number", "Supply TK-8517Y", KeyTonerYellow},

		{"drum unit", "Drum Unit", KeyDrum},
		{"black drum", "Black Drum", KeyDrum},
		{"cyan drum", "Cyan Imaging Unit", ""},
		{"waste box", "Waste Toner Box", KeyWasteToner},
		{"fuser", "Fuser Kit", KeyFuser},
		{"transfer belt", "Transfer Belt", KeyTransferBelt},

		{"unknown", "Staple Cartridge Holder", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeDescription(tt.input); got != tt.want {
				t.Errorf("NormalizeDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTonerColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"black", "black"},
		{"Cyan", "cyan"},
		{"magenta", "magenta"},
		{"YELLOW", "yellow"},
		{"TK-5240K", "black"},
		{"BK", "black"},
		{"mg", "magenta"},
		{"Drum Unit", ""},
		{"Waste Toner", ""},
		{"", ""},
		{"teal", ""},
	}

	for _, tt := range tests {
		if got := TonerColor(tt.input); got != tt.want {
			t.Errorf("TonerColor(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestColorKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []string
	}{
		{"Black", []string{KeyTonerBlack}},
		{"TN-243C", []string{KeyTonerCyan}},
		{"y", []string{KeyTonerYellow}},
		{"Cyan, Magenta", []string{KeyTonerCyan, KeyTonerMagenta}},
		{"Black/Cyan/Magenta/Yellow", []string{KeyTonerBlack, KeyTonerCyan, KeyTonerMagenta, KeyTonerYellow}},
		{"teal", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := ColorKeys(tt.input)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("ColorKeys(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
