package tokenizer

import (
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"ascii lowercased", "Hello", "hello"},
		{"acute accent", "Café", "cafe"},
		{"mixed marks", "Ångström naïve", "angstrom naive"},
		{"no decomposition", "straße", "straße"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Fold(tc.input)
			if got != tc.expected {
				t.Errorf("Fold(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
