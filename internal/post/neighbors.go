package post

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned when a slug is not in the ordered list.
var ErrNotFound = errors.New("post not in list")

// Ref identifies a post in the ordered list.
type Ref struct {
	Slug  string
	Title string
}

// NeighborLink is a previous/next navigation target. HasPage is false
// when there is no such post.
type NeighborLink struct {
	Slug    string
	Title   string
	HasPage bool
}

// Neighbors are the posts around the current one in listing order.
// Previous is the newer post and Next the older one.
type Neighbors struct {
	Previous NeighborLink
	Next     NeighborLink
}

// ComputeNeighbors finds slug in ordered (newest first) and returns the
// entries on either side of it.
func ComputeNeighbors(ordered []Ref, slug string) (Neighbors, error) {
	i := -1
	for j, r := range ordered {
		if r.Slug == slug {
			i = j
			break
		}
	}
	if i < 0 {
		return Neighbors{}, fmt.Errorf("neighbors of %q: %w", slug, ErrNotFound)
	}

	var n Neighbors
	if i > 0 {
		n.Previous = link(ordered[i-1])
	}
	if i < len(ordered)-1 {
		n.Next = link(ordered[i+1])
	}
	return n, nil
}

func link(r Ref) NeighborLink {
	return NeighborLink{Slug: r.Slug, Title: r.Title, HasPage: true}
}

// OrderedRefs returns the refs of summaries newest first. The sort is
// stable and puts unpublished posts last.
func OrderedRefs(summaries []Summary) []Ref {
	sorted := make([]Summary, len(summaries))
	copy(sorted, summaries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].PublishedAt, sorted[j].PublishedAt
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.After(b)
	})

	refs := make([]Ref, len(sorted))
	for i, s := range sorted {
		refs[i] = Ref{Slug: s.UID, Title: s.Title}
	}
	return refs
}
