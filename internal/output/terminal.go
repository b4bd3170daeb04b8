package output

import (
	"fmt"
	"io"
)

// TerminalFormatter formats a listing for terminal output.
type TerminalFormatter struct {
	color bool
}

// NewTerminal creates a terminal formatter. Set color=true for ANSI colors.
func NewTerminal(color bool) *TerminalFormatter {
	return &TerminalFormatter{color: color}
}

// Format writes one entry per post followed by a pagination hint.
func (f *TerminalFormatter) Format(w io.Writer, l Listing) error {
	fmt.Fprintln(w, f.bold(fmt.Sprintf("%s: %d posts", l.Title, len(l.Posts))))
	fmt.Fprintln(w)

	if len(l.Posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	for _, p := range l.Posts {
		fmt.Fprintf(w, "  %s\n", f.bold(p.Title))
		if p.Subtitle != "" {
			fmt.Fprintf(w, "      %s\n", p.Subtitle)
		}
		if by := byline(p); by != "" {
			fmt.Fprintf(w, "      %s\n", f.dim(by))
		}
		fmt.Fprintf(w, "      %s\n", f.green(l.BaseURL+PostPath(p.UID)))
		fmt.Fprintln(w)
	}

	if l.NextPage != "" {
		fmt.Fprintln(w, f.yellow("More posts available."))
		fmt.Fprintln(w, f.dim("next: "+l.NextPage))
	}
	return nil
}

// ANSI helpers, no-op when color=false.

func (f *TerminalFormatter) bold(s string) string {
	if !f.color {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func (f *TerminalFormatter) green(s string) string {
	if !f.color {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func (f *TerminalFormatter) yellow(s string) string {
	if !f.color {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}

func (f *TerminalFormatter) dim(s string) string {
	if !f.color {
		return s
	}
	return "\033[2m" + s + "\033[0m"
}
