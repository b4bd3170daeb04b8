// Package richtext renders CMS rich-text fields to HTML and plain text.
//
// A field arrives either as Prismic structured text (an array of blocks
// with character-offset spans) or as a Markdown string.
package richtext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Block types.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// ErrInvalid marks a structurally broken rich-text field.
var ErrInvalid = errors.New("invalid rich text")

// Span is an inline annotation over [Start, End) rune offsets of a block's text.
type Span struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Type  string   `json:"type"`
	Data  SpanData `json:"data"`
}

// SpanData carries hyperlink and label attributes.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Oembed is the provider payload of an embed block.
type Oembed struct {
	EmbedURL string `json:"embed_url"`
	HTML     string `json:"html"`
}

// Block is one structured-text element.
type Block struct {
	Type   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	Spans  []Span  `json:"spans,omitempty"`
	URL    string  `json:"url,omitempty"`
	Alt    string  `json:"alt,omitempty"`
	Oembed *Oembed `json:"oembed,omitempty"`
}

// Field is a rich-text value in either of the shapes the CMS emits.
type Field struct {
	Blocks   []Block
	Markdown string

	markdown bool
}

// FromBlocks wraps structured text.
func FromBlocks(blocks ...Block) Field {
	return Field{Blocks: blocks}
}

// FromMarkdown wraps a Markdown body.
func FromMarkdown(src string) Field {
	return Field{Markdown: src, markdown: true}
}

// IsMarkdown reports whether the field holds Markdown source.
func (f Field) IsMarkdown() bool {
	return f.markdown
}

// IsEmpty reports whether the field has no renderable content.
func (f Field) IsEmpty() bool {
	if f.markdown {
		return strings.TrimSpace(f.Markdown) == ""
	}
	return len(f.Blocks) == 0
}

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = Field{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return fmt.Errorf("decode structured text: %w", err)
		}
		f.Blocks = blocks
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode markdown: %w", err)
		}
		f.Markdown = s
		f.markdown = true
	default:
		return fmt.Errorf("%w: unsupported shape starting with %q", ErrInvalid, data[0])
	}
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if f.markdown {
		return json.Marshal(f.Markdown)
	}
	if f.Blocks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Blocks)
}

// Validate checks block and span structure.
func (f Field) Validate() error {
	if f.markdown {
		if !utf8.ValidString(f.Markdown) {
			return fmt.Errorf("%w: markdown is not valid UTF-8", ErrInvalid)
		}
		return nil
	}
	for i, b := range f.Blocks {
		if err := b.validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

func (b Block) validate() error {
	if _, ok := headingLevel(b.Type); !ok {
		switch b.Type {
		case TypeParagraph, TypePreformatted, TypeListItem, TypeOListItem, TypeEmbed:
		case TypeImage:
			if strings.TrimSpace(b.URL) == "" {
				return fmt.Errorf("%w: image without url", ErrInvalid)
			}
		case "":
			return fmt.Errorf("%w: missing block type", ErrInvalid)
		default:
			return fmt.Errorf("%w: unknown block type %q", ErrInvalid, b.Type)
		}
	}

	n := utf8.RuneCountInString(b.Text)
	for j, s := range b.Spans {
		if s.Start < 0 || s.End > n || s.Start > s.End {
			return fmt.Errorf("%w: span %d [%d,%d) outside text of %d chars", ErrInvalid, j, s.Start, s.End, n)
		}
		switch s.Type {
		case SpanStrong, SpanEm, SpanLabel:
		case SpanHyperlink:
			if strings.TrimSpace(s.Data.URL) == "" {
				return fmt.Errorf("%w: span %d: hyperlink without url", ErrInvalid, j)
			}
		default:
			return fmt.Errorf("%w: span %d: unknown span type %q", ErrInvalid, j, s.Type)
		}
	}
	return nil
}

// HTML renders the field.
func (f Field) HTML() (string, error) {
	if f.markdown {
		return markdownHTML(f.Markdown)
	}
	return AsHTML(f.Blocks), nil
}

// Text returns the field's plain text.
func (f Field) Text() (string, error) {
	if !f.markdown {
		return AsText(f.Blocks), nil
	}
	html, err := markdownHTML(f.Markdown)
	if err != nil {
		return "", err
	}
	return PlainText(html)
}

func headingLevel(blockType string) (int, bool) {
	if len(blockType) != len("heading1") || !strings.HasPrefix(blockType, "heading") {
		return 0, false
	}
	lvl := int(blockType[len(blockType)-1] - '0')
	if lvl < 1 || lvl > 6 {
		return 0, false
	}
	return lvl, true
}
