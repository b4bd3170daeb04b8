package richtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const blockSelector = "p, li, pre, blockquote, h1, h2, h3, h4, h5, h6, td, th, div"

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

func markdownHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// PlainText extracts the visible text of an HTML fragment, collapsing
// whitespace runs to single spaces.
func PlainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find(blockSelector).AppendHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}
