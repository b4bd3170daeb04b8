package cms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/spacetraveling/internal/richtext"
)

// Publication timestamps arrive as RFC 3339 or with a colon-less offset
// ("2021-03-25T19:25:28+0000").
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
}

// ParseTimestamp parses a CMS publication timestamp, keeping its own offset.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Document is a content record as returned by the CMS.
type Document struct {
	ID                   string       `json:"id"`
	UID                  string       `json:"uid"`
	Type                 string       `json:"type"`
	Href                 string       `json:"href,omitempty"`
	Tags                 []string     `json:"tags,omitempty"`
	FirstPublicationDate string       `json:"first_publication_date"`
	LastPublicationDate  string       `json:"last_publication_date"`
	Lang                 string       `json:"lang,omitempty"`
	Data                 DocumentData `json:"data"`
}

// DocumentData holds the custom fields of a post document.
type DocumentData struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Author   string    `json:"author"`
	Banner   Image     `json:"banner"`
	Content  []Section `json:"content"`
}

// Image is a CMS image field.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Section is one entry of a post's content group.
type Section struct {
	Heading string         `json:"heading"`
	Body    richtext.Field `json:"body"`
}

// PublishedAt returns the first publication time. ok is false for
// documents that were never published.
func (d Document) PublishedAt() (t time.Time, ok bool) {
	if strings.TrimSpace(d.FirstPublicationDate) == "" {
		return time.Time{}, false
	}
	t, err := ParseTimestamp(d.FirstPublicationDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ErrMalformedDocument is wrapped by every ValidationError.
var ErrMalformedDocument = errors.New("malformed document")

// ValidationError describes the first problem found in a document.
type ValidationError struct {
	UID    string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	uid := e.UID
	if uid == "" {
		uid = "(no uid)"
	}
	return fmt.Sprintf("document %s: %s: %s", uid, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrMalformedDocument
}

// Validate rejects documents the view-model builder cannot render.
func (d Document) Validate() error {
	invalid := func(field, reason string) error {
		return &ValidationError{UID: d.UID, Field: field, Reason: reason}
	}

	if strings.TrimSpace(d.UID) == "" {
		return invalid("uid", "required")
	}
	if d.UID == "." || d.UID == ".." || strings.ContainsAny(d.UID, "/\\ \t\n?#") {
		return invalid("uid", "not a slug")
	}
	if strings.TrimSpace(d.Data.Title) == "" {
		return invalid("data.title", "required")
	}
	if strings.TrimSpace(d.FirstPublicationDate) != "" {
		if _, err := ParseTimestamp(d.FirstPublicationDate); err != nil {
			return invalid("first_publication_date", fmt.Sprintf("unparseable timestamp %q", d.FirstPublicationDate))
		}
	}
	if strings.TrimSpace(d.LastPublicationDate) != "" {
		if _, err := ParseTimestamp(d.LastPublicationDate); err != nil {
			return invalid("last_publication_date", fmt.Sprintf("unparseable timestamp %q", d.LastPublicationDate))
		}
	}
	for i, s := range d.Data.Content {
		if err := s.Body.Validate(); err != nil {
			return invalid(fmt.Sprintf("data.content[%d].body", i), err.Error())
		}
	}
	return nil
}

// Page is one page of a search response.
type Page struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"next_page"`
	PrevPage         string     `json:"prev_page"`
	Results          []Document `json:"results"`
}

// HasNext reports whether the CMS announced a further page.
func (p Page) HasNext() bool {
	return p.NextPage != ""
}

// Validate validates every document; the first failure rejects the page.
func (p Page) Validate() error {
	for i, d := range p.Results {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("result %d: %w", i, err)
		}
	}
	return nil
}
