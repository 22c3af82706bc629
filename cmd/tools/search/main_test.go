package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "Short string untouched", in: "Health Grant", n: 48, want: "Health Grant"},
		{name: "Exact length untouched", in: "abcdef", n: 6, want: "abcdef"},
		{name: "Long string cut with ellipsis", in: "abcdefghij", n: 8, want: "abcde..."},
		{name: "Multibyte titles cut on rune boundaries", in: strings.Repeat("é", 10), n: 8, want: strings.Repeat("é", 5) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
			}
		})
	}
}
