package usecase

import "testing"

func TestExtractSKU(t *testing.T) {
	e := NewCodeExtractor([]string{"rev"})

	tests := []struct {
		input string
		want  string
	}{
		{"нужен REV-41-1097", "REV-41-1097"},
		{"rev-41-1305-pk8 x2", "REV-41-1305-PK8"},
		{"ARD-10-UNO пожалуйста", "ARD-10-UNO"},
		{"просто аккумулятор", ""},
		{"REV-41", ""}, // qisqa kod, to'liq SKU emas
		{"", ""},
	}

	for _, tt := range tests {
		if got := e.ExtractSKU(tt.input); got != tt.want {
			t.Errorf("ExtractSKU(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractProductCode(t *testing.T) {
	e := NewCodeExtractor([]string{"rev"})

	tests := []struct {
		input string
		want  string
	}{
		{"rev-41", "REV-41"},
		{"rev 41", "REV-41"},
		{"rev41", "REV-41"},
		{"рев 41", "REV-41"},
		{"рев41", "REV-41"},
		{"abc-41", ""}, // whitelist da yo'q prefiks
		{"rev-1", ""},  // raqam qismi juda qisqa
		{"", ""},
	}

	for _, tt := range tests {
		if got := e.ExtractProductCode(tt.input); got != tt.want {
			t.Errorf("ExtractProductCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractProductCodeCustomPrefixes(t *testing.T) {
	e := NewCodeExtractor([]string{"rev", "ard"})

	if got := e.ExtractProductCode("ard 10"); got != "ARD-10" {
		t.Errorf("ExtractProductCode(%q) = %q, want %q", "ard 10", got, "ARD-10")
	}
	if got := e.ExtractProductCode("xyz 10"); got != "" {
		t.Errorf("ExtractProductCode(%q) = %q, want empty", "xyz 10", got)
	}
}

func TestExtractQty(t *testing.T) {
	e := NewCodeExtractor([]string{"rev"})

	tests := []struct {
		input string
		want  int
	}{
		{"rev-41-1303 x2", 2},
		{"x10", 10},
		{"10 шт", 10},
		{"3шт", 3},
		{"5 штук", 5},
		{"4 pcs", 4},
		{"2 pieces", 2},
		{"просто аккумулятор", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := e.ExtractQty(tt.input); got != tt.want {
			t.Errorf("ExtractQty(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestLooksLikeProductCode(t *testing.T) {
	e := NewCodeExtractor([]string{"rev"})

	tests := []struct {
		input string
		want  bool
	}{
		{"REV-41", true},
		{"rev 41", true},
		{"рев 41", true},
		{"REV-41-1097", true},
		{"ARD-10", true},
		{"RPI4B-4GB", false}, // prefiks harflardan keyin darhol raqam bloki kutiladi
		{"батарея", false},
		{"два аккумулятора", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := e.LooksLikeProductCode(tt.input); got != tt.want {
			t.Errorf("LooksLikeProductCode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
