package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"mangasync/internal/services"
)

func TestConsoleHandlerIncludesComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(logger, "download").Info("archived chapter", String("path", "x.zip"))

	out := buf.String()
	if !strings.Contains(out, "INFO download: archived chapter") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "path=x.zip") {
		t.Fatalf("missing attr in %q", out)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info record should have been dropped: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContextStampsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithMangaID(context.Background(), "m-1")
	ctx = services.WithChapterID(ctx, "c-2")
	WithContext(ctx, logger).Debug("resolving")

	out := buf.String()
	if !strings.Contains(out, "manga_id=m-1") || !strings.Contains(out, "chapter_id=c-2") {
		t.Fatalf("context attrs missing from %q", out)
	}
}
