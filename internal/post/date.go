package post

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/ppiankov/spacetraveling/internal/cms"
)

// supported lists the display locales; the first is the fallback.
var supported = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
}

var matcher = language.NewMatcher(supported)

// Abbreviated month names, indexed like supported.
var monthNames = [][12]string{
	{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// DateFormatter renders publication timestamps as "dd mmm yyyy".
type DateFormatter struct {
	tag    language.Tag
	months [12]string
}

// NewDateFormatter picks the closest supported locale to the given BCP 47 tag.
func NewDateFormatter(locale string) (*DateFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	_, idx, _ := matcher.Match(tag)
	return &DateFormatter{tag: supported[idx], months: monthNames[idx]}, nil
}

// Locale returns the tag the formatter settled on.
func (f *DateFormatter) Locale() language.Tag {
	return f.tag
}

// Format converts a CMS timestamp to the display form using the
// timestamp's own offset. A string already in display form is returned
// unchanged, so Format(Format(x)) == Format(x). Empty input yields "".
func (f *DateFormatter) Format(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if f.isDisplay(raw) {
		return raw, nil
	}
	t, err := cms.ParseTimestamp(raw)
	if err != nil {
		return "", fmt.Errorf("format date %q: %w", raw, err)
	}
	return fmt.Sprintf("%02d %s %04d", t.Day(), f.months[t.Month()-1], t.Year()), nil
}

func (f *DateFormatter) isDisplay(s string) bool {
	parts := strings.Split(s, " ")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[2]) != 4 {
		return false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return false
	}
	if _, err := strconv.Atoi(parts[2]); err != nil {
		return false
	}
	for _, m := range f.months {
		if parts[1] == m {
			return true
		}
	}
	return false
}
