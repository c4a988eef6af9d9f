package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"mangasync/internal/closing"
	"mangasync/internal/config"
	"mangasync/internal/download"
	"mangasync/internal/groups"
	"mangasync/internal/journal"
	"mangasync/internal/logging"
	"mangasync/internal/mangadex"
	"mangasync/internal/preflight"
	"mangasync/internal/syncer"
)

// lockName is the per-library lock file inside the output directory; it keeps
// two processes from racing renames and publishes against the same tree.
const lockName = ".mangasync.lock"

// runtime bundles the long-lived pieces a syncing command needs: logger,
// shutdown token, library lock, journal, and the syncer wired on top of them.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	token   *closing.Token
	lock    *flock.Flock
	journal *journal.Store
	syncer  *syncer.Syncer
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	if err := preflight.Summarize(preflight.Run(cfg)); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(cfg.OutputDirectory, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire library lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another mangasync instance is already syncing this library")
	}

	token := closing.NewToken()
	closing.Watch(token, logger)

	store, err := journal.Open(cfg.OutputDirectory)
	if err != nil {
		logger.Warn("sync history disabled", logging.Error(err))
		store = nil
	}

	client := mangadex.NewClient(token, logger)
	pool := download.NewPool(cfg.ParallelDownloads)
	pipeline := download.NewPipeline(client, pool, token, cfg.TempDirectory, logger)

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		token:   token,
		lock:    lock,
		journal: store,
		syncer:  syncer.New(cfg, client, pipeline, groups.NewCache(), store, token, logger),
	}, nil
}

func (r *runtime) close() {
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			r.logger.Warn("close journal", logging.Error(err))
		}
	}
	if err := r.lock.Unlock(); err != nil {
		r.logger.Warn("release library lock", logging.Error(err))
	}
}
