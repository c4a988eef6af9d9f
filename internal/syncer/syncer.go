// Package syncer iterates work items, consults the existing-entry resolver,
// and dispatches missing chapters to the download pipeline. One directory
// snapshot is shared per batch and per-item failures are isolated when a
// whole manga is synced.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mangasync/internal/closing"
	"mangasync/internal/config"
	"mangasync/internal/groups"
	"mangasync/internal/journal"
	"mangasync/internal/library"
	"mangasync/internal/logging"
	"mangasync/internal/mangadex"
	"mangasync/internal/naming"
	"mangasync/internal/services"
)

// Catalog is the metadata surface of the upstream API used by the syncer.
type Catalog interface {
	Manga(ctx context.Context, id string) (mangadex.Manga, error)
	Chapter(ctx context.Context, id string) (mangadex.Chapter, error)
	MangaChapters(ctx context.Context, mangaID, language string) ([]mangadex.Chapter, error)
	Groups(ctx context.Context, ids []string) ([]mangadex.Group, error)
}

// Downloader produces one published archive per chapter.
type Downloader interface {
	DownloadChapter(ctx context.Context, chapter mangadex.Chapter, archivePath string) error
}

// Syncer mirrors manga into the output tree.
type Syncer struct {
	cfg       *config.Config
	client    Catalog
	downloads Downloader
	groups    *groups.Cache
	journal   *journal.Store
	names     *naming.Sanitizer
	token     *closing.Token
	logger    *slog.Logger

	blocked map[string]struct{}
	ignored map[string]struct{}
}

// New constructs a syncer. journalStore may be nil to disable history
// recording.
func New(cfg *config.Config, client Catalog, downloads Downloader, groupCache *groups.Cache, journalStore *journal.Store, token *closing.Token, logger *slog.Logger) *Syncer {
	return &Syncer{
		cfg:       cfg,
		client:    client,
		downloads: downloads,
		groups:    groupCache,
		journal:   journalStore,
		names:     naming.NewSanitizer(cfg.AllowQuestionMarks),
		token:     token,
		logger:    logging.NewComponentLogger(logger, "syncer"),
		blocked:   cfg.BlockedGroupSet(),
		ignored:   cfg.IgnoredChapterSet(),
	}
}

// SyncManga mirrors every chapter of one manga, continuing past individual
// chapter failures and reporting them joined at the end.
func (s *Syncer) SyncManga(ctx context.Context, mangaID string) error {
	ctx = services.WithMangaID(ctx, mangaID)
	logger := logging.WithContext(ctx, s.logger)

	manga, err := s.client.Manga(ctx, mangaID)
	if err != nil {
		return err
	}

	dir, err := s.mangaDir(ctx, manga)
	if err != nil {
		return err
	}

	chapters, err := s.client.MangaChapters(ctx, mangaID, s.cfg.Language)
	if err != nil {
		return err
	}
	chapters = s.filterChapters(ctx, chapters)
	logger.Debug("enumerated chapters",
		logging.Int("count", len(chapters)),
		logging.String("title", manga.Attributes.Title.EnglishOrFirst()),
	)

	names, err := s.groups.Resolve(ctx, listerFunc(s.client.Groups), chapters)
	if err != nil {
		return err
	}

	return s.syncChapters(ctx, chapters, dir, names, true)
}

// SyncChapter mirrors a single chapter, aborting on its first failure.
func (s *Syncer) SyncChapter(ctx context.Context, chapterID string) error {
	chapter, err := s.client.Chapter(ctx, chapterID)
	if err != nil {
		return err
	}

	mangaID := chapter.MangaID()
	if mangaID == "" {
		return services.Wrap(services.ErrIdentity, "syncer", "resolve chapter", "chapter has no associated manga", nil)
	}
	ctx = services.WithMangaID(ctx, mangaID)

	manga, err := s.client.Manga(ctx, mangaID)
	if err != nil {
		return err
	}
	dir, err := s.mangaDir(ctx, manga)
	if err != nil {
		return err
	}

	batch := []mangadex.Chapter{chapter}
	names, err := s.groups.Resolve(ctx, listerFunc(s.client.Groups), batch)
	if err != nil {
		return err
	}

	return s.syncChapters(ctx, batch, dir, names, false)
}

// mangaDir resolves, creates, or renames the manga's directory under the
// output root and returns the directory to sync into.
func (s *Syncer) mangaDir(ctx context.Context, manga mangadex.Manga) (string, error) {
	logger := logging.WithContext(ctx, s.logger)

	key, err := naming.StableKey(manga.ID)
	if err != nil {
		return "", err
	}
	title := manga.Attributes.Title.EnglishOrFirst()
	if title == "" {
		return "", services.Wrap(services.ErrIdentity, "syncer", "resolve manga title", "no title present", nil)
	}

	dirPath := filepath.Join(s.cfg.OutputDirectory, s.names.MangaDirName(title, key))
	snap := library.NewSnapshot(s.cfg.OutputDirectory)

	state, candidate, err := library.Resolve(dirPath, snap, key, true)
	if err != nil {
		return "", err
	}
	switch state {
	case library.Missing:
		logger.Debug("creating manga directory", logging.String("path", dirPath))
		if err := os.Mkdir(dirPath, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dirPath, err)
		}
	case library.AlreadyExists:
		logger.Debug("manga directory already exists", logging.String("path", dirPath))
	case library.RenameCandidate:
		if !s.cfg.RenameManga {
			logger.Debug("found existing manga directory, not renaming", logging.String("path", candidate))
			return candidate, nil
		}
		logger.Info("renaming manga directory",
			logging.String("from", candidate),
			logging.String("to", dirPath),
		)
		if err := os.Rename(candidate, dirPath); err != nil {
			return "", fmt.Errorf("rename %s: %w", candidate, err)
		}
		s.record(ctx, journal.Event{MangaID: manga.ID, Action: journal.ActionRenamed, Path: dirPath})
	}
	return dirPath, nil
}

// filterChapters drops externally-hosted chapters and those excluded by
// configuration.
func (s *Syncer) filterChapters(ctx context.Context, chapters []mangadex.Chapter) []mangadex.Chapter {
	logger := logging.WithContext(ctx, s.logger)
	kept := chapters[:0]
	for _, chapter := range chapters {
		if chapter.ExternallyHosted() {
			logger.Debug("filtering out externally hosted chapter", logging.String("chapter_id", chapter.ID))
			continue
		}
		if _, ok := s.ignored[chapter.ID]; ok {
			logger.Debug("filtering out ignored chapter", logging.String("chapter_id", chapter.ID))
			continue
		}
		if s.hasBlockedGroup(chapter) {
			logger.Debug("filtering out chapter with blocked group", logging.String("chapter_id", chapter.ID))
			continue
		}
		kept = append(kept, chapter)
	}
	return kept
}

func (s *Syncer) hasBlockedGroup(chapter mangadex.Chapter) bool {
	for _, id := range chapter.GroupIDs() {
		if _, ok := s.blocked[id]; ok {
			return true
		}
	}
	return false
}

// syncChapters processes one batch against a single directory snapshot,
// dispatching missing chapters one at a time so ordering and failure
// isolation stay observable per item.
func (s *Syncer) syncChapters(ctx context.Context, chapters []mangadex.Chapter, dir string, names map[string]string, continueOnError bool) error {
	snap := library.NewSnapshot(dir)
	var failures []error

	for _, chapter := range chapters {
		if err := s.token.Err(); err != nil {
			return err
		}
		err := s.syncOne(ctx, chapter, dir, names, snap)
		if err == nil {
			continue
		}
		if errors.Is(err, services.ErrClosed) {
			return err
		}
		wrapped := fmt.Errorf("chapter %s: %w", chapter.ID, err)
		if !continueOnError {
			return wrapped
		}
		// MangaDex@Home servers are often very unreliable.
		logging.WithContext(ctx, s.logger).Error("chapter sync failed, proceeding with remaining chapters",
			logging.String("chapter_id", chapter.ID),
			logging.Error(err),
		)
		s.record(ctx, journal.Event{
			MangaID:   chapter.MangaID(),
			ChapterID: chapter.ID,
			Action:    journal.ActionFailed,
			Path:      dir,
			Detail:    err.Error(),
		})
		failures = append(failures, wrapped)
	}
	return errors.Join(failures...)
}

func (s *Syncer) syncOne(ctx context.Context, chapter mangadex.Chapter, dir string, names map[string]string, snap *library.Snapshot) error {
	ctx = services.WithChapterID(ctx, chapter.ID)
	logger := logging.WithContext(ctx, s.logger)

	key, err := naming.StableKey(chapter.ID)
	if err != nil {
		return err
	}

	var groupNames []string
	for _, id := range chapter.GroupIDs() {
		if name, ok := names[id]; ok {
			groupNames = append(groupNames, name)
		}
	}

	filename := s.names.ChapterFilename(
		string(chapter.Attributes.Volume),
		string(chapter.Attributes.Chapter),
		string(chapter.Attributes.Title),
		groupNames,
		key,
	)
	path := filepath.Join(dir, filename)

	state, candidate, err := library.Resolve(path, snap, key, false)
	if err != nil {
		return err
	}
	switch state {
	case library.AlreadyExists:
		logger.Debug("chapter already exists", logging.String("path", path))
	case library.RenameCandidate:
		if !s.cfg.RenameChapters {
			logger.Debug("found existing chapter, not renaming", logging.String("path", candidate))
			return nil
		}
		logger.Info("renaming existing chapter",
			logging.String("from", candidate),
			logging.String("to", path),
		)
		if err := os.Rename(candidate, path); err != nil {
			return fmt.Errorf("rename %s: %w", candidate, err)
		}
		s.record(ctx, journal.Event{
			MangaID:   chapter.MangaID(),
			ChapterID: chapter.ID,
			Action:    journal.ActionRenamed,
			Path:      path,
		})
	case library.Missing:
		logger.Info("syncing chapter", logging.String("path", path))
		if err := s.downloads.DownloadChapter(ctx, chapter, path); err != nil {
			return err
		}
		// An externally hosted chapter with no pages is an intentional skip;
		// only record chapters that actually produced an archive.
		if _, err := os.Stat(path); err == nil {
			s.record(ctx, journal.Event{
				MangaID:   chapter.MangaID(),
				ChapterID: chapter.ID,
				Action:    journal.ActionArchived,
				Path:      path,
			})
		}
	}
	return nil
}

// record writes a journal event best-effort.
func (s *Syncer) record(ctx context.Context, event journal.Event) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, event); err != nil {
		s.logger.Warn("could not record journal event", logging.Error(err))
	}
}

// listerFunc adapts a Groups method to the groups.Lister interface.
type listerFunc func(ctx context.Context, ids []string) ([]mangadex.Group, error)

func (f listerFunc) Groups(ctx context.Context, ids []string) ([]mangadex.Group, error) {
	return f(ctx, ids)
}

// Report lists the local archives of one manga directory partitioned by
// whether they match a chapter currently on the remote feed.
type Report struct {
	MangaDir  string
	Valid     []string
	Unmatched []string
}

// Verify compares the local manga directory against the remote chapter list
// without downloading anything.
func (s *Syncer) Verify(ctx context.Context, mangaID string) (Report, error) {
	ctx = services.WithMangaID(ctx, mangaID)

	manga, err := s.client.Manga(ctx, mangaID)
	if err != nil {
		return Report{}, err
	}
	key, err := naming.StableKey(manga.ID)
	if err != nil {
		return Report{}, err
	}
	title := manga.Attributes.Title.EnglishOrFirst()
	if title == "" {
		return Report{}, services.Wrap(services.ErrIdentity, "syncer", "resolve manga title", "no title present", nil)
	}

	dirPath := filepath.Join(s.cfg.OutputDirectory, s.names.MangaDirName(title, key))
	snap := library.NewSnapshot(s.cfg.OutputDirectory)
	state, candidate, err := library.Resolve(dirPath, snap, key, true)
	if err != nil {
		return Report{}, err
	}
	switch state {
	case library.Missing:
		return Report{}, fmt.Errorf("no local directory for manga %s", mangaID)
	case library.RenameCandidate:
		dirPath = candidate
	}

	chapters, err := s.client.MangaChapters(ctx, mangaID, s.cfg.Language)
	if err != nil {
		return Report{}, err
	}
	keys := make(map[string]struct{}, len(chapters))
	for _, chapter := range chapters {
		chapterKey, err := naming.StableKey(chapter.ID)
		if err != nil {
			return Report{}, err
		}
		keys[chapterKey] = struct{}{}
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return Report{}, fmt.Errorf("scan %s: %w", dirPath, err)
	}

	report := Report{MangaDir: dirPath}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		trimmed := strings.TrimSuffix(name, naming.ArchiveExt)
		idx := strings.LastIndex(trimmed, " - ")
		matched := false
		if idx >= 0 {
			_, matched = keys[trimmed[idx+3:]]
		}
		if matched {
			report.Valid = append(report.Valid, name)
		} else {
			report.Unmatched = append(report.Unmatched, name)
		}
	}
	return report, nil
}
