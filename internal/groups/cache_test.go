package groups

import (
	"context"
	"sort"
	"testing"

	"mangasync/internal/mangadex"
)

type fakeLister struct {
	calls [][]string
}

func (f *fakeLister) Groups(_ context.Context, ids []string) ([]mangadex.Group, error) {
	f.calls = append(f.calls, append([]string(nil), ids...))
	groups := make([]mangadex.Group, len(ids))
	for i, id := range ids {
		groups[i] = mangadex.Group{ID: id, Attributes: mangadex.GroupAttributes{Name: "Name " + id}}
	}
	return groups, nil
}

func chapterWithGroups(ids ...string) mangadex.Chapter {
	rels := make([]mangadex.Relationship, len(ids))
	for i, id := range ids {
		rels[i] = mangadex.Relationship{ID: id, Type: "scanlation_group"}
	}
	return mangadex.Chapter{Relationships: rels}
}

func TestResolveDeduplicatesMisses(t *testing.T) {
	cache := NewCache()
	lister := &fakeLister{}

	chapters := []mangadex.Chapter{
		chapterWithGroups("g-1", "g-2"),
		chapterWithGroups("g-2", "g-3"),
	}
	names, err := cache.Resolve(context.Background(), lister, chapters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("got %d names", len(names))
	}
	if len(lister.calls) != 1 {
		t.Fatalf("expected a single batched round trip, got %d", len(lister.calls))
	}
	got := append([]string(nil), lister.calls[0]...)
	sort.Strings(got)
	if got[0] != "g-1" || got[1] != "g-2" || got[2] != "g-3" {
		t.Fatalf("unexpected miss set %v", got)
	}
}

func TestResolveUsesCacheAcrossCalls(t *testing.T) {
	cache := NewCache()
	lister := &fakeLister{}
	ctx := context.Background()

	if _, err := cache.Resolve(ctx, lister, []mangadex.Chapter{chapterWithGroups("g-1")}); err != nil {
		t.Fatal(err)
	}
	names, err := cache.Resolve(ctx, lister, []mangadex.Chapter{chapterWithGroups("g-1")})
	if err != nil {
		t.Fatal(err)
	}
	if names["g-1"] != "Name g-1" {
		t.Fatalf("cache miss: %v", names)
	}
	if len(lister.calls) != 1 {
		t.Fatalf("second call should be served from cache, got %d round trips", len(lister.calls))
	}
}

func TestResolveNoGroups(t *testing.T) {
	cache := NewCache()
	lister := &fakeLister{}
	names, err := cache.Resolve(context.Background(), lister, []mangadex.Chapter{{}})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 || len(lister.calls) != 0 {
		t.Fatalf("expected no lookups, got %v %v", names, lister.calls)
	}
}
