// Package closing owns process shutdown state. A Token is an explicitly owned
// flag passed to every fetch entry point; once set, new network operations
// fail fast with services.ErrClosed while in-flight requests finish naturally.
package closing

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"mangasync/internal/logging"
	"mangasync/internal/services"
)

// Token is a process-wide shutdown flag, set at most once.
type Token struct {
	closed atomic.Bool
}

// NewToken returns an open token.
func NewToken() *Token {
	return &Token{}
}

// Close marks the token closed. Returns true on the first call only.
func (t *Token) Close() bool {
	return !t.closed.Swap(true)
}

// Closed reports whether the token has been closed.
func (t *Token) Closed() bool {
	return t.closed.Load()
}

// Err returns services.ErrClosed when the token is closed, nil otherwise.
// Callers check it before issuing network I/O.
func (t *Token) Err() error {
	if t.closed.Load() {
		return services.ErrClosed
	}
	return nil
}

// Fatal logs an unrecoverable fault, closes the token, and writes a crash
// marker file to the system temp directory. The marker is written once,
// best-effort.
func (t *Token) Fatal(logger *slog.Logger, msg string) {
	if logger != nil {
		logger.Error(msg)
	}
	if !t.Close() {
		return
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("mangasync_crash_%d", os.Getpid()))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if logger != nil {
			logger.Error("could not open crash marker", logging.String("path", path), logging.Error(err))
		}
		return
	}
	defer file.Close()
	_, _ = file.WriteString(msg)
}

// Watch installs signal handling for the token: the first termination signal
// closes it, a second one exits immediately with a non-zero status.
func Watch(t *Token, logger *slog.Logger) {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
	go func() {
		for sig := range sigs {
			if !t.Close() {
				os.Exit(1)
			}
			if logger != nil {
				logger.Info("received signal, shutting down", logging.String("signal", sig.String()))
			}
		}
	}()
}
