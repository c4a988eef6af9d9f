// Package library decides whether a unit of work already exists in the output
// tree. Presence is always decided by stable-key suffix match, never by full
// display-name equality, so upstream renames do not trigger duplicate work.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mangasync/internal/naming"
	"mangasync/internal/services"
)

// State classifies the result of an existence check.
type State int

const (
	// Missing means no local entry corresponds to the stable key.
	Missing State = iota
	// AlreadyExists means the expected path is present with the right kind.
	AlreadyExists
	// RenameCandidate means an entry with the same stable key exists under a
	// different display name.
	RenameCandidate
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case AlreadyExists:
		return "already exists"
	case RenameCandidate:
		return "rename candidate"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resolve checks expectedPath directly, then falls back to a stable-key suffix
// scan over the snapshot. candidate is only meaningful for RenameCandidate.
func Resolve(expectedPath string, snap *Snapshot, key string, wantDir bool) (state State, candidate string, err error) {
	info, err := os.Stat(expectedPath)
	switch {
	case err == nil && info.IsDir() == wantDir:
		return AlreadyExists, "", nil
	case err == nil:
		return Missing, "", services.Wrap(
			services.ErrConsistency,
			"library",
			"stat expected path",
			fmt.Sprintf("%s exists but directory=%t was expected", expectedPath, wantDir),
			nil,
		)
	case !errors.Is(err, fs.ErrNotExist):
		return Missing, "", fmt.Errorf("stat %s: %w", expectedPath, err)
	}

	suffix := key
	if !wantDir {
		suffix += naming.ArchiveExt
	}

	entries, err := snap.Entries()
	if err != nil {
		return Missing, "", fmt.Errorf("scan %s: %w", snap.Dir(), err)
	}

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return Missing, "", fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if info.IsDir() == wantDir {
			return RenameCandidate, filepath.Join(snap.Dir(), entry.Name()), nil
		}
	}

	return Missing, "", nil
}
