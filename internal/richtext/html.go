package richtext

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// AsHTML renders structured text. Consecutive list items are grouped into
// a single <ul> or <ol>.
func AsHTML(blocks []Block) string {
	var b strings.Builder
	for i := 0; i < len(blocks); i++ {
		blk := blocks[i]
		if blk.Type == TypeListItem || blk.Type == TypeOListItem {
			tag := "ul"
			if blk.Type == TypeOListItem {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">")
			for ; i < len(blocks) && blocks[i].Type == blk.Type; i++ {
				b.WriteString("<li>")
				b.WriteString(renderSpans(blocks[i].Text, blocks[i].Spans))
				b.WriteString("</li>")
			}
			i--
			b.WriteString("</" + tag + ">")
			continue
		}
		writeBlock(&b, blk)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, blk Block) {
	if lvl, ok := headingLevel(blk.Type); ok {
		fmt.Fprintf(b, "<h%d>%s</h%d>", lvl, renderSpans(blk.Text, blk.Spans), lvl)
		return
	}

	switch blk.Type {
	case TypeParagraph:
		b.WriteString("<p>" + renderSpans(blk.Text, blk.Spans) + "</p>")
	case TypePreformatted:
		b.WriteString("<pre>" + renderSpans(blk.Text, blk.Spans) + "</pre>")
	case TypeImage:
		fmt.Fprintf(b, `<p class="block-img"><img src="%s" alt="%s" /></p>`,
			html.EscapeString(blk.URL), html.EscapeString(blk.Alt))
	case TypeEmbed:
		if blk.Oembed == nil {
			return
		}
		// Embed markup comes from the CMS's oEmbed provider and is emitted as is.
		fmt.Fprintf(b, `<div data-oembed="%s">%s</div>`,
			html.EscapeString(blk.Oembed.EmbedURL), blk.Oembed.HTML)
	}
}

// AsText joins the text of all blocks with a single space.
func AsText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		if t := strings.TrimSpace(blk.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// renderSpans escapes text and wraps annotated ranges in their tags.
// Overlapping spans are split so the result is always well nested.
func renderSpans(text string, spans []Span) string {
	runes := []rune(text)
	n := len(runes)

	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > n || s.Start >= s.End || openTag(s) == "" {
			continue
		}
		sorted = append(sorted, s)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var (
		b    strings.Builder
		open []Span
		next int
	)
	for pos := 0; pos <= n; pos++ {
		open = closeSpans(&b, open, pos)
		for next < len(sorted) && sorted[next].Start == pos {
			open = append(open, sorted[next])
			b.WriteString(openTag(sorted[next]))
			next++
		}
		if pos < n {
			writeRune(&b, runes[pos])
		}
	}
	return b.String()
}

// closeSpans closes every open span ending at pos, reopening the ones
// above it on the stack that continue past pos.
func closeSpans(b *strings.Builder, open []Span, pos int) []Span {
	lowest := -1
	for i, s := range open {
		if s.End == pos {
			lowest = i
			break
		}
	}
	if lowest == -1 {
		return open
	}

	for i := len(open) - 1; i >= lowest; i-- {
		b.WriteString(closeTag(open[i]))
	}
	var reopen []Span
	for _, s := range open[lowest:] {
		if s.End != pos {
			reopen = append(reopen, s)
		}
	}
	open = open[:lowest]
	for _, s := range reopen {
		open = append(open, s)
		b.WriteString(openTag(s))
	}
	return open
}

func openTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		if s.Data.Target != "" {
			return fmt.Sprintf(`<a href="%s" target="%s" rel="noopener noreferrer">`,
				html.EscapeString(s.Data.URL), html.EscapeString(s.Data.Target))
		}
		return fmt.Sprintf(`<a href="%s">`, html.EscapeString(s.Data.URL))
	case SpanLabel:
		return fmt.Sprintf(`<span class="%s">`, html.EscapeString(s.Data.Label))
	}
	return ""
}

func closeTag(s Span) string {
	switch s.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		return "</a>"
	case SpanLabel:
		return "</span>"
	}
	return ""
}

func writeRune(b *strings.Builder, r rune) {
	switch r {
	case '\n':
		b.WriteString("<br />")
	case '&':
		b.WriteString("&amp;")
	case '<':
		b.WriteString("&lt;")
	case '>':
		b.WriteString("&gt;")
	case '"':
		b.WriteString("&#34;")
	case '\'':
		b.WriteString("&#39;")
	default:
		b.WriteRune(r)
	}
}
