package storage

import "testing"

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"battery", "battery"},
		{"100%", `100\%`},
		{"rev_41", `rev\_41`},
		{`back\slash`, `back\\slash`},
		{"%_", `\%\_`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.input); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
