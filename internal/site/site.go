// Package site turns CMS content into HTML pages: the page hooks, the
// static build and the HTTP server.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/ppiankov/spacetraveling/internal/cms"
	"github.com/ppiankov/spacetraveling/internal/listing"
	"github.com/ppiankov/spacetraveling/internal/output"
	"github.com/ppiankov/spacetraveling/internal/post"
)

// enumPageSize is the page size used when walking every post.
const enumPageSize = 100

// ContentSource is the read side of the CMS.
type ContentSource interface {
	GetByType(ctx context.Context, kind string, q cms.Query) (cms.Page, error)
	GetByUID(ctx context.Context, kind, uid string) (cms.Document, error)
	NextPage(ctx context.Context, cursor string) (cms.Page, error)
}

// Options configures a Site.
type Options struct {
	Source         ContentSource
	DocumentType   string
	PageSize       int
	Orderings      string
	Title          string
	BaseURL        string
	Locale         string
	WordsPerMinute int
	Logger         *slog.Logger
}

// Info is the site-wide data every page sees.
type Info struct {
	Title   string
	BaseURL string
}

// Labels are the fixed interface strings of a locale.
type Labels struct {
	Lang     string
	LoadMore string
	NoPosts  string
	Previous string
	Next     string
}

var labels = map[language.Tag]Labels{
	language.BrazilianPortuguese: {
		Lang:     "pt-BR",
		LoadMore: "Carregar mais posts",
		NoPosts:  "Nenhum post publicado.",
		Previous: "Post anterior",
		Next:     "Próximo post",
	},
	language.English: {
		Lang:     "en",
		LoadMore: "Load more posts",
		NoPosts:  "No posts yet.",
		Previous: "Previous post",
		Next:     "Next post",
	},
}

// HomePage holds the listing page props. NextPage is the URL the
// "load more" control fetches; empty hides the control.
type HomePage struct {
	Site        Info
	Labels      Labels
	PageTitle   string
	Description string
	Posts       []post.Summary
	NextPage    string
}

// PostPage holds the props of a post page.
type PostPage struct {
	Site        Info
	Labels      Labels
	PageTitle   string
	Description string
	Post        post.Detail
	Neighbors   post.Neighbors
}

// Site generates page props from CMS content.
type Site struct {
	source   ContentSource
	builder  *post.Builder
	kind     string
	pageSize int
	order    string
	info     Info
	labels   Labels
	logger   *slog.Logger
}

// New creates a Site.
func New(opts Options) (*Site, error) {
	if opts.Source == nil {
		return nil, errors.New("site: content source is required")
	}
	dates, err := post.NewDateFormatter(opts.Locale)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	kind := opts.DocumentType
	if kind == "" {
		kind = "posts"
	}
	return &Site{
		source:   opts.Source,
		builder:  post.NewBuilder(dates, opts.WordsPerMinute),
		kind:     kind,
		pageSize: opts.PageSize,
		order:    opts.Orderings,
		info:     Info{Title: opts.Title, BaseURL: strings.TrimRight(opts.BaseURL, "/")},
		labels:   labels[dates.Locale()],
		logger:   logger,
	}, nil
}

// Builder returns the view-model builder the site uses.
func (s *Site) Builder() *post.Builder {
	return s.builder
}

// Info returns the site-wide page data.
func (s *Site) Info() Info {
	return s.info
}

// FirstPage fetches the first listing page.
func (s *Site) FirstPage(ctx context.Context) (cms.Page, error) {
	return s.source.GetByType(ctx, s.kind, cms.Query{Orderings: s.order, PageSize: s.pageSize})
}

// HomeProps builds the listing page from the first CMS page. NextPage
// holds the raw CMS cursor; callers point it at their own endpoint.
func (s *Site) HomeProps(ctx context.Context) (HomePage, error) {
	page, err := s.FirstPage(ctx)
	if err != nil {
		return HomePage{}, fmt.Errorf("home: %w", err)
	}
	posts, err := s.builder.Summaries(page.Results)
	if err != nil {
		return HomePage{}, fmt.Errorf("home: %w", err)
	}
	return HomePage{
		Site:     s.info,
		Labels:   s.labels,
		Posts:    posts,
		NextPage: page.NextPage,
	}, nil
}

// ListingPage follows a CMS cursor and returns the listing slice it
// points at, with the raw CMS cursor of the page after it.
func (s *Site) ListingPage(ctx context.Context, cursor string) (output.Listing, error) {
	page, err := s.source.NextPage(ctx, cursor)
	if err != nil {
		return output.Listing{}, fmt.Errorf("listing: %w", err)
	}
	posts, err := s.builder.Summaries(page.Results)
	if err != nil {
		return output.Listing{}, fmt.Errorf("listing: %w", err)
	}
	return output.Listing{Title: s.info.Title, Posts: posts, NextPage: page.NextPage, BaseURL: s.info.BaseURL}, nil
}

// AllPosts walks every listing page and returns the summaries in listing order.
func (s *Site) AllPosts(ctx context.Context) ([]post.Summary, error) {
	first, err := s.source.GetByType(ctx, s.kind, cms.Query{Orderings: s.order, PageSize: enumPageSize})
	if err != nil {
		return nil, fmt.Errorf("all posts: %w", err)
	}
	acc, err := listing.New(s.builder, first)
	if err != nil {
		return nil, fmt.Errorf("all posts: %w", err)
	}
	if err := acc.LoadAll(ctx, s.source); err != nil {
		return nil, fmt.Errorf("all posts: %w", err)
	}
	return acc.Posts(), nil
}

// StaticPaths returns the page path of every known post.
func (s *Site) StaticPaths(ctx context.Context) ([]string, error) {
	posts, err := s.AllPosts(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(posts))
	for i, p := range posts {
		paths[i] = output.PostPath(p.UID)
	}
	return paths, nil
}

// PostProps builds the page of one post. A slug the CMS does not know
// yields an error wrapping cms.ErrNotFound.
func (s *Site) PostProps(ctx context.Context, slug string) (PostPage, error) {
	doc, err := s.source.GetByUID(ctx, s.kind, slug)
	if err != nil {
		return PostPage{}, fmt.Errorf("post %s: %w", slug, err)
	}
	posts, err := s.AllPosts(ctx)
	if err != nil {
		return PostPage{}, fmt.Errorf("post %s: %w", slug, err)
	}
	return s.postPage(doc, post.OrderedRefs(posts))
}

func (s *Site) postPage(doc cms.Document, ordered []post.Ref) (PostPage, error) {
	detail, err := s.builder.Detail(doc)
	if err != nil {
		return PostPage{}, err
	}
	neighbors, err := post.ComputeNeighbors(ordered, doc.UID)
	if errors.Is(err, post.ErrNotFound) {
		s.logger.Debug("post not in listing, rendering without navigation", "uid", doc.UID)
		neighbors = post.Neighbors{}
	} else if err != nil {
		return PostPage{}, err
	}
	return PostPage{
		Site:        s.info,
		Labels:      s.labels,
		PageTitle:   detail.Title,
		Description: detail.Excerpt,
		Post:        detail,
		Neighbors:   neighbors,
	}, nil
}
