package post

import (
	"errors"
	"testing"
	"time"
)

var ordered = []Ref{
	{Slug: "c", Title: "Post C"},
	{Slug: "b", Title: "Post B"},
	{Slug: "a", Title: "Post A"},
}

func TestComputeNeighbors(t *testing.T) {
	none := NeighborLink{}
	tests := []struct {
		name     string
		refs     []Ref
		slug     string
		wantPrev NeighborLink
		wantNext NeighborLink
	}{
		{
			name:     "middle",
			refs:     ordered,
			slug:     "b",
			wantPrev: NeighborLink{Slug: "c", Title: "Post C", HasPage: true},
			wantNext: NeighborLink{Slug: "a", Title: "Post A", HasPage: true},
		},
		{
			name:     "first",
			refs:     ordered,
			slug:     "c",
			wantPrev: none,
			wantNext: NeighborLink{Slug: "b", Title: "Post B", HasPage: true},
		},
		{
			name:     "last",
			refs:     ordered,
			slug:     "a",
			wantPrev: NeighborLink{Slug: "b", Title: "Post B", HasPage: true},
			wantNext: none,
		},
		{
			name:     "single",
			refs:     []Ref{{Slug: "only", Title: "Only"}},
			slug:     "only",
			wantPrev: none,
			wantNext: none,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeNeighbors(tt.refs, tt.slug)
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if got.Previous != tt.wantPrev {
				t.Errorf("previous = %+v, want %+v", got.Previous, tt.wantPrev)
			}
			if got.Next != tt.wantNext {
				t.Errorf("next = %+v, want %+v", got.Next, tt.wantNext)
			}
		})
	}
}

func TestComputeNeighbors_Idempotent(t *testing.T) {
	first, err := ComputeNeighbors(ordered, "b")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := ComputeNeighbors(ordered, "b")
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		if again != first {
			t.Errorf("run %d = %+v, want %+v", i, again, first)
		}
	}
}

func TestComputeNeighbors_NotFound(t *testing.T) {
	for _, refs := range [][]Ref{ordered, nil} {
		_, err := ComputeNeighbors(refs, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	}
}

func TestOrderedRefs(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2021, 3, d, 12, 0, 0, 0, time.UTC) }
	in := []Summary{
		{UID: "draft", Title: "Draft"},
		{UID: "a", Title: "A", PublishedAt: day(1)},
		{UID: "c", Title: "C", PublishedAt: day(3)},
		{UID: "b1", Title: "B1", PublishedAt: day(2)},
		{UID: "b2", Title: "B2", PublishedAt: day(2)},
	}
	got := OrderedRefs(in)
	want := []string{"c", "b1", "b2", "a", "draft"}
	if len(got) != len(want) {
		t.Fatalf("got %d refs, want %d", len(got), len(want))
	}
	for i, slug := range want {
		if got[i].Slug != slug {
			t.Errorf("refs[%d] = %q, want %q", i, got[i].Slug, slug)
		}
	}
	if in[0].UID != "draft" {
		t.Error("input was reordered")
	}
}
