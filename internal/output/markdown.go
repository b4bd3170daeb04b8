package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter formats a listing as Markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format writes the listing as Markdown to w.
func (f *MarkdownFormatter) Format(w io.Writer, l Listing) error {
	fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(l.Title))

	if len(l.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	for _, p := range l.Posts {
		fmt.Fprintf(w, "## [%s](%s)\n\n", escapeMarkdown(p.Title), l.BaseURL+PostPath(p.UID))
		if p.Subtitle != "" {
			fmt.Fprintf(w, "%s\n\n", escapeMarkdown(p.Subtitle))
		}
		if by := byline(p); by != "" {
			fmt.Fprintf(w, "*%s*\n\n", escapeMarkdown(by))
		}
	}

	if l.NextPage != "" {
		fmt.Fprintf(w, "[Load more posts](%s)\n", l.NextPage)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
