package services

import "context"

type contextKey string

const (
	mangaIDKey   contextKey = "manga_id"
	chapterIDKey contextKey = "chapter_id"
)

// WithMangaID annotates context with the manga identifier being synced.
func WithMangaID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, mangaIDKey, id)
}

// MangaIDFromContext extracts the manga identifier if present.
func MangaIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(mangaIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithChapterID annotates context with the chapter identifier being downloaded.
func WithChapterID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chapterIDKey, id)
}

// ChapterIDFromContext extracts the chapter identifier if present.
func ChapterIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(chapterIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
