package site

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ppiankov/spacetraveling/internal/cms"
	"github.com/ppiankov/spacetraveling/internal/output"
	"github.com/ppiankov/spacetraveling/internal/post"
)

// BuildResult summarizes a static build.
type BuildResult struct {
	Posts int
	Pages int      // listing pages, including the home page
	Files []string // written paths, relative to the output dir
}

// APIPagePath is the static path of listing page n (n >= 2).
func APIPagePath(n int) string {
	return "/api/posts/" + strconv.Itoa(n) + ".json"
}

// Build renders the whole site into outDir. Every page is rendered in
// memory first, so a failed fetch or a malformed document leaves outDir
// untouched.
func (s *Site) Build(ctx context.Context, tmpl *Templates, outDir string) (BuildResult, error) {
	pages, err := s.fetchListing(ctx)
	if err != nil {
		return BuildResult{}, fmt.Errorf("build: %w", err)
	}

	files := map[string][]byte{}
	var docs []cms.Document
	var all []post.Summary

	for i, page := range pages {
		n := i + 1
		summaries, err := s.builder.Summaries(page.Results)
		if err != nil {
			return BuildResult{}, fmt.Errorf("build: listing page %d: %w", n, err)
		}
		docs = append(docs, page.Results...)
		all = append(all, summaries...)

		next := ""
		if n < len(pages) {
			next = s.info.BaseURL + APIPagePath(n+1)
		}

		if n == 1 {
			var buf bytes.Buffer
			home := HomePage{Site: s.info, Labels: s.labels, Posts: summaries, NextPage: next}
			if err := tmpl.Render(&buf, HomeTemplate, home); err != nil {
				return BuildResult{}, fmt.Errorf("build: %w", err)
			}
			files["index.html"] = buf.Bytes()
			continue
		}

		data, err := json.MarshalIndent(output.ToPage(output.Listing{Posts: summaries, NextPage: next}), "", "  ")
		if err != nil {
			return BuildResult{}, fmt.Errorf("build: listing page %d: %w", n, err)
		}
		files[filepath.FromSlash(APIPagePath(n)[1:])] = append(data, '\n')
	}

	feed, err := s.feed(all)
	if err != nil {
		return BuildResult{}, fmt.Errorf("build: %w", err)
	}
	files[FeedPath[1:]] = feed

	ordered := post.OrderedRefs(all)
	for _, doc := range docs {
		props, err := s.postPage(doc, ordered)
		if err != nil {
			return BuildResult{}, fmt.Errorf("build: post %s: %w", doc.UID, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Render(&buf, PostTemplate, props); err != nil {
			return BuildResult{}, fmt.Errorf("build: post %s: %w", doc.UID, err)
		}
		files[filepath.Join("post", doc.UID, "index.html")] = buf.Bytes()
	}

	written, err := writeFiles(outDir, files)
	if err != nil {
		return BuildResult{}, fmt.Errorf("build: %w", err)
	}
	s.logger.Info("site built", "dir", outDir, "posts", len(docs), "pages", len(pages))
	return BuildResult{Posts: len(docs), Pages: len(pages), Files: written}, nil
}

// fetchListing walks the listing with the configured page size.
func (s *Site) fetchListing(ctx context.Context) ([]cms.Page, error) {
	page, err := s.FirstPage(ctx)
	if err != nil {
		return nil, err
	}
	pages := []cms.Page{page}
	for page.HasNext() {
		if page, err = s.source.NextPage(ctx, page.NextPage); err != nil {
			return nil, fmt.Errorf("listing page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func writeFiles(outDir string, files map[string][]byte) ([]string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(outDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return names, nil
}
