package logging

import (
	"context"
	"log/slog"

	"mangasync/internal/services"
)

// WithContext returns a logger annotated with the manga and chapter
// identifiers stamped on the context, when present.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := services.MangaIDFromContext(ctx); ok {
		logger = logger.With(String("manga_id", id))
	}
	if id, ok := services.ChapterIDFromContext(ctx); ok {
		logger = logger.With(String("chapter_id", id))
	}
	return logger
}
