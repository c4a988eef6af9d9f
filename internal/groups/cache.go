// Package groups caches scanlation group display names for the process
// lifetime. Lookups are deduplicated before the network round trip: the
// unresolved id set is collected, fetched in one batched call, then merged.
package groups

import (
	"context"
	"sync"

	"mangasync/internal/mangadex"
)

// Lister resolves group records for a set of ids.
type Lister interface {
	Groups(ctx context.Context, ids []string) ([]mangadex.Group, error)
}

// Cache maps group ids to display names. Owned by the orchestrator and passed
// by reference into lookups; safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	names map[string]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{names: make(map[string]string)}
}

// Resolve returns the display names for every group credited on the given
// chapters, fetching only ids the cache has not seen before.
func (c *Cache) Resolve(ctx context.Context, lister Lister, chapters []mangadex.Chapter) (map[string]string, error) {
	out := make(map[string]string)
	seen := make(map[string]struct{})
	var misses []string

	c.mu.Lock()
	for _, chapter := range chapters {
		for _, id := range chapter.GroupIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if name, ok := c.names[id]; ok {
				out[id] = name
			} else {
				misses = append(misses, id)
			}
		}
	}
	c.mu.Unlock()

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := lister.Groups(ctx, misses)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for _, group := range fetched {
		c.names[group.ID] = group.Attributes.Name
		out[group.ID] = group.Attributes.Name
	}
	c.mu.Unlock()

	return out, nil
}
