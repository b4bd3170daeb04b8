package output

import (
	"encoding/json"
	"io"
)

// Page is the JSON document of one listing page. NextPage is null on
// the last page.
type Page struct {
	Results  []Item  `json:"results"`
	NextPage *string `json:"next_page"`
}

// Item is one listing entry in JSON form.
type Item struct {
	UID           string `json:"uid"`
	FormattedDate string `json:"formatted_date"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	Author        string `json:"author"`
}

// JSONFormatter formats a listing as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the listing as JSON to w.
func (f *JSONFormatter) Format(w io.Writer, l Listing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToPage(l))
}

// ToPage converts a listing to its JSON document.
func ToPage(l Listing) Page {
	items := make([]Item, len(l.Posts))
	for i, p := range l.Posts {
		items[i] = Item{
			UID:           p.UID,
			FormattedDate: p.FormattedDate,
			Title:         p.Title,
			Subtitle:      p.Subtitle,
			Author:        p.Author,
		}
	}
	out := Page{Results: items}
	if l.NextPage != "" {
		next := l.NextPage
		out.NextPage = &next
	}
	return out
}
