// Package listing accumulates listing pages for "load more" pagination.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ppiankov/spacetraveling/internal/cms"
	"github.com/ppiankov/spacetraveling/internal/post"
)

var (
	// ErrLoadInProgress is returned by LoadMore while another load is outstanding.
	ErrLoadInProgress = errors.New("load more already in progress")
	// ErrNoMorePages is returned by LoadMore once the cursor is exhausted.
	ErrNoMorePages = errors.New("no more pages")
)

// SummaryBuilder turns fetched documents into listing entries.
type SummaryBuilder interface {
	Summaries(docs []cms.Document) ([]post.Summary, error)
}

// Fetcher follows a next-page cursor.
type Fetcher interface {
	NextPage(ctx context.Context, cursor string) (cms.Page, error)
}

// AppendPage returns existing followed by the summaries of docs, and the
// cursor to continue from. An empty next means there are no further pages.
// The result never shares its backing array with existing.
func AppendPage(b SummaryBuilder, existing []post.Summary, docs []cms.Document, next string) ([]post.Summary, string, error) {
	added, err := b.Summaries(docs)
	if err != nil {
		return nil, "", fmt.Errorf("append page: %w", err)
	}
	merged := make([]post.Summary, 0, len(existing)+len(added))
	merged = append(merged, existing...)
	merged = append(merged, added...)
	return merged, next, nil
}

// Accumulator owns the posts shown so far and the cursor to the next page.
// It allows one outstanding load at a time.
type Accumulator struct {
	builder SummaryBuilder

	mu      sync.Mutex
	posts   []post.Summary
	cursor  string
	pages   int
	loading bool
}

// New starts an accumulator from the first listing page.
func New(b SummaryBuilder, first cms.Page) (*Accumulator, error) {
	posts, cursor, err := AppendPage(b, nil, first.Results, first.NextPage)
	if err != nil {
		return nil, err
	}
	return &Accumulator{builder: b, posts: posts, cursor: cursor, pages: 1}, nil
}

// Posts returns a copy of the accumulated summaries.
func (a *Accumulator) Posts() []post.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]post.Summary, len(a.posts))
	copy(out, a.posts)
	return out
}

// Cursor returns the next-page cursor, empty when exhausted.
func (a *Accumulator) Cursor() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// HasMore reports whether a "load more" control should be offered.
func (a *Accumulator) HasMore() bool {
	return a.Cursor() != ""
}

// Pages returns how many pages have been merged.
func (a *Accumulator) Pages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pages
}

// LoadMore fetches the page at the cursor and appends it. It returns the
// number of posts added.
func (a *Accumulator) LoadMore(ctx context.Context, f Fetcher) (int, error) {
	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		return 0, ErrLoadInProgress
	}
	if a.cursor == "" {
		a.mu.Unlock()
		return 0, ErrNoMorePages
	}
	a.loading = true
	cursor := a.cursor
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.loading = false
		a.mu.Unlock()
	}()

	page, err := f.NextPage(ctx, cursor)
	if err != nil {
		return 0, fmt.Errorf("load more: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	merged, next, err := AppendPage(a.builder, a.posts, page.Results, page.NextPage)
	if err != nil {
		return 0, err
	}
	a.posts, a.cursor = merged, next
	a.pages++
	return len(page.Results), nil
}

// LoadAll follows the cursor until the listing is exhausted.
func (a *Accumulator) LoadAll(ctx context.Context, f Fetcher) error {
	for a.HasMore() {
		if _, err := a.LoadMore(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
