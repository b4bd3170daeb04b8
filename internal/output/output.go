// Package output renders a post listing for the terminal, as Markdown, or
// as the JSON document served to "load more" requests.
package output

import (
	"fmt"
	"io"

	"github.com/ppiankov/spacetraveling/internal/post"
)

// Listing is one rendered slice of the post listing.
type Listing struct {
	Title    string // site title
	Posts    []post.Summary
	NextPage string // empty on the last page
	BaseURL  string // prefix for post links; may be empty
}

// Formatter writes a formatted listing to w.
type Formatter interface {
	Format(w io.Writer, l Listing) error
}

// ForName returns the formatter registered under name.
func ForName(name string, color bool) (Formatter, error) {
	switch name {
	case "terminal", "":
		return NewTerminal(color), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal, markdown or json)", name)
	}
}

// PostPath is the site path of a post page.
func PostPath(uid string) string {
	return "/post/" + uid
}

func byline(p post.Summary) string {
	switch {
	case p.FormattedDate != "" && p.Author != "":
		return p.FormattedDate + " · " + p.Author
	case p.FormattedDate != "":
		return p.FormattedDate
	default:
		return p.Author
	}
}
