// Package post builds display-ready view models from CMS documents.
package post

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/spacetraveling/internal/cms"
)

// DefaultWordsPerMinute is the reading speed used when none is configured.
const DefaultWordsPerMinute = 200

// Summary is a listing entry.
type Summary struct {
	UID           string
	FormattedDate string
	Title         string
	Subtitle      string
	Author        string
	// PublishedAt orders summaries; zero for unpublished documents.
	PublishedAt time.Time
}

// Section is one rendered block of a post body.
type Section struct {
	Heading  string
	HTMLBody template.HTML
}

// Detail is a single post page.
type Detail struct {
	UID           string
	FormattedDate string
	Title         string
	Subtitle      string
	BannerURL     string
	BannerAlt     string
	Author        string
	ReadingTime   int // minutes
	// Excerpt is the opening sentence of the body, or the subtitle when
	// the body has no text.
	Excerpt       string
	Sections      []Section
}

// Builder maps documents to view models.
type Builder struct {
	dates *DateFormatter
	wpm   int
}

// NewBuilder creates a builder. wordsPerMinute < 1 selects the default.
func NewBuilder(dates *DateFormatter, wordsPerMinute int) *Builder {
	if wordsPerMinute < 1 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	return &Builder{dates: dates, wpm: wordsPerMinute}
}

// Summary maps a document to its listing entry.
func (b *Builder) Summary(doc cms.Document) (Summary, error) {
	date, err := b.dates.Format(doc.FirstPublicationDate)
	if err != nil {
		return Summary{}, fmt.Errorf("summary %s: %w", doc.UID, err)
	}
	published, _ := doc.PublishedAt()
	return Summary{
		UID:           doc.UID,
		FormattedDate: date,
		Title:         doc.Data.Title,
		Subtitle:      doc.Data.Subtitle,
		Author:        doc.Data.Author,
		PublishedAt:   published,
	}, nil
}

// Summaries maps docs in order. The first failure aborts the batch.
func (b *Builder) Summaries(docs []cms.Document) ([]Summary, error) {
	out := make([]Summary, 0, len(docs))
	for _, d := range docs {
		s, err := b.Summary(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Detail maps a document to its post page, rendering every section body.
func (b *Builder) Detail(doc cms.Document) (Detail, error) {
	date, err := b.dates.Format(doc.FirstPublicationDate)
	if err != nil {
		return Detail{}, fmt.Errorf("detail %s: %w", doc.UID, err)
	}

	sections := make([]Section, 0, len(doc.Data.Content))
	words := 0
	excerpt := ""
	for i, s := range doc.Data.Content {
		html, err := s.Body.HTML()
		if err != nil {
			return Detail{}, fmt.Errorf("detail %s: section %d: %w", doc.UID, i, err)
		}
		text, err := s.Body.Text()
		if err != nil {
			return Detail{}, fmt.Errorf("detail %s: section %d: %w", doc.UID, i, err)
		}
		words += len(strings.Fields(s.Heading)) + len(strings.Fields(text))
		if excerpt == "" {
			excerpt = Excerpt(text, MaxExcerpt)
		}
		sections = append(sections, Section{
			Heading: s.Heading,
			// Rendered by richtext, which escapes all document text.
			HTMLBody: template.HTML(html),
		})
	}

	if excerpt == "" {
		excerpt = Excerpt(doc.Data.Subtitle, MaxExcerpt)
	}

	return Detail{
		UID:           doc.UID,
		FormattedDate: date,
		Title:         doc.Data.Title,
		Subtitle:      doc.Data.Subtitle,
		BannerURL:     doc.Data.Banner.URL,
		BannerAlt:     doc.Data.Banner.Alt,
		Author:        doc.Data.Author,
		ReadingTime:   ReadingTime(words, b.wpm),
		Excerpt:       excerpt,
		Sections:      sections,
	}, nil
}

// ReadingTime returns whole minutes to read words at wpm, rounding up.
// Any non-empty text takes at least one minute.
func ReadingTime(words, wpm int) int {
	if words <= 0 {
		return 0
	}
	if wpm < 1 {
		wpm = DefaultWordsPerMinute
	}
	return int(math.Ceil(float64(words) / float64(wpm)))
}
