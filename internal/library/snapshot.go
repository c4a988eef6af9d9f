package library

import (
	"io/fs"
	"os"
	"sync"
)

// Snapshot is a lazily-computed listing of one directory, scanned at most once
// per sync batch and read-only after first materialization. Concurrent use is
// safe because no writer exists once the listing is built.
type Snapshot struct {
	dir     string
	once    sync.Once
	entries []fs.DirEntry
	err     error
	scans   int
}

// NewSnapshot returns a snapshot for dir without scanning it.
func NewSnapshot(dir string) *Snapshot {
	return &Snapshot{dir: dir}
}

// Dir returns the directory this snapshot covers.
func (s *Snapshot) Dir() string {
	return s.dir
}

// Entries materializes the listing on first call and memoizes the result.
func (s *Snapshot) Entries() ([]fs.DirEntry, error) {
	s.once.Do(func() {
		s.scans++
		s.entries, s.err = os.ReadDir(s.dir)
	})
	return s.entries, s.err
}
