package post

import (
	"strings"
	"unicode/utf8"
)

// MaxExcerpt caps an excerpt, in characters, before the ellipsis.
const MaxExcerpt = 160

// Excerpt returns the first sentence of the first non-blank line of text,
// capped at maxLen characters. A cut sentence ends at a word boundary
// followed by "...".
func Excerpt(text string, maxLen int) string {
	if maxLen < 1 {
		maxLen = MaxExcerpt
	}

	var line string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			line = l
			break
		}
	}
	if line == "" {
		return ""
	}

	// First "." followed by a space.
	end := len(line)
	if idx := strings.Index(line, ". "); idx >= 0 {
		end = idx + 1
	}
	sentence := line[:end]
	if utf8.RuneCountInString(sentence) <= maxLen {
		return sentence
	}

	cut := sentence
	for i := range sentence {
		if utf8.RuneCountInString(sentence[:i]) == maxLen {
			cut = sentence[:i]
			break
		}
	}
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
