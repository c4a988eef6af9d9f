package journal

import (
	"context"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	events := []Event{
		{MangaID: "m-1", ChapterID: "c-1", Action: ActionArchived, Path: "/out/Ch. 1 - key.zip"},
		{MangaID: "m-1", ChapterID: "c-2", Action: ActionFailed, Path: "/out/Ch. 2 - key.zip", Detail: "transient failure"},
		{MangaID: "m-1", Action: ActionRenamed, Path: "/out/NewTitle - key"},
	}
	for _, event := range events {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d events", len(recent))
	}
	// Newest first.
	if recent[0].Action != ActionRenamed || recent[2].Action != ActionArchived {
		t.Fatalf("unexpected order: %v %v", recent[0].Action, recent[2].Action)
	}
	if recent[1].Detail != "transient failure" {
		t.Fatalf("detail lost: %+v", recent[1])
	}
	if recent[0].CreatedAt.IsZero() {
		t.Fatal("timestamp not parsed")
	}
}

func TestRecentLimit(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, Event{MangaID: "m", Action: ActionArchived, Path: "p"}); err != nil {
			t.Fatal(err)
		}
	}
	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("limit not applied: %d", len(recent))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	second, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.Recent(context.Background(), 1); err != nil {
		t.Fatalf("Recent after reopen: %v", err)
	}
}
