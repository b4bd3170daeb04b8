package cms

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/spacetraveling/internal/richtext"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2021-03-25T19:25:28+0000", want: time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)},
		{in: "2021-03-25T19:25:28Z", want: time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)},
		{in: "2021-03-19T23:30:00-03:00", want: time.Date(2021, 3, 20, 2, 30, 0, 0, time.UTC)},
		{in: "2021-03-25T19:25:28.123+0000", want: time.Date(2021, 3, 25, 19, 25, 28, 123e6, time.UTC)},
		{in: "25/03/2021", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp_KeepsOffset(t *testing.T) {
	got, err := ParseTimestamp("2021-03-19T23:30:00-0300")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, off := got.Zone(); off != -3*3600 {
		t.Errorf("offset = %d, want -10800", off)
	}
	if got.Day() != 19 {
		t.Errorf("day = %d, want 19", got.Day())
	}
}

func TestDocument_PublishedAt(t *testing.T) {
	d := Document{FirstPublicationDate: "2021-03-25T19:25:28+0000"}
	if _, ok := d.PublishedAt(); !ok {
		t.Error("expected published")
	}
	d.FirstPublicationDate = ""
	if _, ok := d.PublishedAt(); ok {
		t.Error("expected unpublished")
	}
}

func validDoc() Document {
	return Document{
		UID:                  "post",
		Type:                 "posts",
		FirstPublicationDate: "2021-03-25T19:25:28+0000",
		Data: DocumentData{
			Title: "Title",
			Content: []Section{{
				Heading: "Intro",
				Body:    richtext.FromBlocks(richtext.Block{Type: richtext.TypeParagraph, Text: "Hello"}),
			}},
		},
	}
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Document)
		wantField string
	}{
		{name: "valid", mutate: func(*Document) {}},
		{name: "never published", mutate: func(d *Document) { d.FirstPublicationDate = "" }},
		{name: "missing uid", mutate: func(d *Document) { d.UID = "" }, wantField: "uid"},
		{name: "path in uid", mutate: func(d *Document) { d.UID = "../etc" }, wantField: "uid"},
		{name: "dot uid", mutate: func(d *Document) { d.UID = ".." }, wantField: "uid"},
		{name: "blank title", mutate: func(d *Document) { d.Data.Title = "  " }, wantField: "data.title"},
		{name: "bad first date", mutate: func(d *Document) { d.FirstPublicationDate = "yesterday" }, wantField: "first_publication_date"},
		{name: "bad last date", mutate: func(d *Document) { d.LastPublicationDate = "soon" }, wantField: "last_publication_date"},
		{
			name: "bad block",
			mutate: func(d *Document) {
				d.Data.Content[0].Body = richtext.FromBlocks(richtext.Block{Type: "marquee", Text: "x"})
			},
			wantField: "data.content[0].body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDoc()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrMalformedDocument) {
				t.Fatalf("err = %v, want ErrMalformedDocument", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.wantField {
				t.Errorf("err = %v, want field %q", err, tt.wantField)
			}
		})
	}
}

func TestPage_DecodeNullCursor(t *testing.T) {
	raw := `{"page":1,"results_per_page":1,"results_size":1,"total_results_size":2,"total_pages":2,
		"next_page":null,"prev_page":null,
		"results":[{"id":"a","uid":"a","type":"posts","first_publication_date":"2021-03-25T19:25:28+0000",
		"data":{"title":"A","subtitle":"s","author":"x","content":[{"heading":"h","body":"**md** body"}]}}]}`

	var p Page
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.HasNext() {
		t.Errorf("next_page = %q, want empty", p.NextPage)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !p.Results[0].Data.Content[0].Body.IsMarkdown() {
		t.Error("expected markdown body")
	}
}

func TestPage_ValidateRejectsWholePage(t *testing.T) {
	good := validDoc()
	bad := validDoc()
	bad.UID = ""
	p := Page{Results: []Document{good, bad}}
	err := p.Validate()
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}
