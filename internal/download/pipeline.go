// Package download turns one chapter into a single published archive: it
// resolves the chapter's page locators, fetches every page concurrently under
// the shared worker pool, reassembles them in sequence order, and hands the
// finished archive to the publisher. No partial archive is ever published.
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mangasync/internal/closing"
	"mangasync/internal/logging"
	"mangasync/internal/mangadex"
	"mangasync/internal/naming"
	"mangasync/internal/publish"
	"mangasync/internal/services"
)

// Locator resolves a chapter's page set and fetches page content.
type Locator interface {
	AtHome(ctx context.Context, chapterID string) (mangadex.AtHome, error)
	Page(ctx context.Context, pageURL string) (*http.Response, error)
}

// Pipeline downloads and archives chapters.
type Pipeline struct {
	client   Locator
	pool     *Pool
	token    *closing.Token
	tempRoot string
	logger   *slog.Logger
}

// NewPipeline constructs a pipeline. tempRoot may be empty to use the system
// default temp directory.
func NewPipeline(client Locator, pool *Pool, token *closing.Token, tempRoot string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client:   client,
		pool:     pool,
		token:    token,
		tempRoot: tempRoot,
		logger:   logging.NewComponentLogger(logger, "download"),
	}
}

// DownloadChapter fetches every page of the chapter and publishes a single
// archive at archivePath. The scratch directory and its contents are
// discarded on every exit path.
func (p *Pipeline) DownloadChapter(ctx context.Context, chapter mangadex.Chapter, archivePath string) error {
	ctx = services.WithChapterID(ctx, chapter.ID)
	logger := logging.WithContext(ctx, p.logger)

	tmpDir, err := os.MkdirTemp(p.tempRoot, "mangasync")
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "create temp dir", "", err)
	}
	defer os.RemoveAll(tmpDir)

	atHome, err := p.client.AtHome(ctx, chapter.ID)
	if err != nil {
		return err
	}

	pages := atHome.Chapter.Data
	if len(pages) == 0 {
		if chapter.ExternallyHosted() {
			logger.Debug("skipping externally hosted chapter with no pages")
			return nil
		}
		return services.Wrap(services.ErrTransient, "download", "resolve pages", "chapter has no pages", nil)
	}

	// Derive every destination before any network work so an unusable locator
	// fails the chapter without burning pool slots.
	urls := make([]string, len(pages))
	dests := make([]string, len(pages))
	for i, name := range pages {
		ext := filepath.Ext(name)
		if ext == "" {
			return services.Wrap(services.ErrIdentity, "download", "derive page filename", "no extension for "+name, nil)
		}
		urls[i] = atHome.PageURL(name)
		dests[i] = filepath.Join(tmpDir, fmt.Sprintf("%03d%s", i+1, ext))
	}

	errs := make([]error, len(pages))
	var wg sync.WaitGroup
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := p.pool.Acquire(ctx); err != nil {
				errs[i] = err
				return
			}
			defer p.pool.Release()
			errs[i] = p.fetchPage(ctx, urls[i], dests[i])
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	// Zero-padded names make lexicographic order equal sequence order, so the
	// archive layout is deterministic regardless of completion order.
	paths := append([]string(nil), dests...)
	sort.Strings(paths)

	tempArchive := filepath.Join(tmpDir, "chapter"+naming.ArchiveExt)
	if err := writeArchive(tempArchive, paths); err != nil {
		return err
	}

	return publish.Publish(logger, tempArchive, archivePath)
}

func writeArchive(dest string, pagePaths []string) error {
	out, err := os.Create(dest)
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "create archive", dest, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range pagePaths {
		header := &zip.FileHeader{Name: filepath.Base(path), Method: zip.Deflate}
		header.SetMode(0o755)
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return services.Wrap(services.ErrTransient, "download", "add archive entry", path, err)
		}
		page, err := os.Open(path)
		if err != nil {
			return services.Wrap(services.ErrTransient, "download", "open page", path, err)
		}
		_, copyErr := io.Copy(entry, page)
		page.Close()
		if copyErr != nil {
			return services.Wrap(services.ErrTransient, "download", "copy page into archive", path, copyErr)
		}
	}
	if err := zw.Close(); err != nil {
		return services.Wrap(services.ErrTransient, "download", "finish archive", dest, err)
	}
	return out.Close()
}
