package post

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"empty", "", 0, ""},
		{"blank lines", "\n  \n\t\n", 0, ""},
		{"single sentence", "Hooks change how we think.", 0, "Hooks change how we think."},
		{"first of many", "First one. Second one. Third.", 0, "First one."},
		{"first line only", "Heading line\nBody text. More.", 0, "Heading line"},
		{"skips leading blank", "\n\n  Starts here. Then.", 0, "Starts here."},
		{"collapses spaces", "a   lot\tof    space.", 0, "a lot of space."},
		{"decimal kept", "Version 1.5 is out. Upgrade.", 0, "Version 1.5 is out."},
		{"cut at word", "alpha beta gamma delta", 12, "alpha beta..."},
		{"cut without space", "abcdefghij", 4, "abcd..."},
		{"cut trims punctuation", "alpha, beta gamma", 8, "alpha..."},
		{"multibyte", "sincronização em vez de ciclos", 14, "sincronização..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.text, tt.max); got != tt.want {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestExcerpt_DefaultCap(t *testing.T) {
	long := strings.Repeat("palavra ", 100)
	got := Excerpt(long, 0)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("excerpt = %q, want ellipsis", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n > MaxExcerpt {
		t.Errorf("excerpt is %d chars, want <= %d", n, MaxExcerpt)
	}
}
