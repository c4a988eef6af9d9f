package mangadex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"mangasync/internal/closing"
	"mangasync/internal/logging"
	"mangasync/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *closing.Token) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	token := closing.NewToken()
	client := NewClient(token, logging.NewNop(),
		WithBaseURL(server.URL),
		WithMetadataDelay(0),
	)
	return client, token
}

func TestMangaChaptersPaginates(t *testing.T) {
	const total = 150
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		count := 100
		if offset == "100" {
			count = 50
		}
		chapters := make([]map[string]any, count)
		for i := range chapters {
			chapters[i] = map[string]any{"id": fmt.Sprintf("ch-%s-%d", offset, i)}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": chapters, "total": total})
	}))

	chapters, err := client.MangaChapters(context.Background(), "m-1", "en")
	if err != nil {
		t.Fatalf("MangaChapters: %v", err)
	}
	if len(chapters) != total {
		t.Fatalf("got %d chapters, want %d", len(chapters), total)
	}
}

func TestMangaChaptersPaginationContradiction(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Claims 300 total but returns a short page at offset 0.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":  []map[string]any{{"id": "ch-1"}},
			"total": 300,
		})
	}))

	_, err := client.MangaChapters(context.Background(), "m-1", "en")
	if !errors.Is(err, services.ErrPagination) {
		t.Fatalf("expected pagination error, got %v", err)
	}
}

func TestGetRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "m-1"}})
	}))

	manga, err := client.Manga(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("Manga: %v", err)
	}
	if manga.ID != "m-1" {
		t.Fatalf("got %q", manga.ID)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Manga(context.Background(), "m-1")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 1+3 attempts, got %d", got)
	}
}

func TestClosedTokenShortCircuits(t *testing.T) {
	var calls atomic.Int32
	client, token := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	token.Close()

	if _, err := client.Manga(context.Background(), "m-1"); !errors.Is(err, services.ErrClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := client.Page(context.Background(), "http://example.invalid/p"); !errors.Is(err, services.ErrClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("no network request should have been issued")
	}
}

func TestGroupsChunksRequests(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		ids := r.URL.Query()["ids[]"]
		if len(ids) > 50 {
			t.Errorf("chunk too large: %d", len(ids))
		}
		groups := make([]map[string]any, len(ids))
		for i, id := range ids {
			groups[i] = map[string]any{"id": id, "attributes": map[string]any{"name": "Group " + id}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": groups})
	}))

	ids := make([]string, 70)
	for i := range ids {
		ids[i] = fmt.Sprintf("g-%02d", i)
	}
	groups, err := client.Groups(context.Background(), ids)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 70 {
		t.Fatalf("got %d groups", len(groups))
	}
	if requests.Load() != 2 {
		t.Fatalf("expected 2 chunked requests, got %d", requests.Load())
	}
}

func TestAtHomePageURL(t *testing.T) {
	at := AtHome{BaseURL: "https://cdn.example", Chapter: AtHomePages{Hash: "abc", Data: []string{"01.png"}}}
	if got := at.PageURL("01.png"); got != "https://cdn.example/data/abc/01.png" {
		t.Fatalf("got %q", got)
	}
}
