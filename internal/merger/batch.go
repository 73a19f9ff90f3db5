package merger

import (
	"fmt"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/walker"
)

// ErrRescanRequired is returned by HandleFSEvents when any event in the
// batch classified as ScanReScan; the caller must invoke FullRescan
// instead of relying on the (unmodified) cache.
var ErrRescanRequired = fmt.Errorf("merger: full rescan required")

// HandleFSEvents implements spec §4.12's event processing: a single
// ReScan-classified event in the batch aborts the whole batch (returns
// ErrRescanRequired without mutating c); otherwise every SingleNode and
// Folder path is coalesced and incrementally rescanned, and
// c.LastEventID advances to the batch maximum.
func HandleFSEvents(c *cache.Cache, w *walker.Walker, events []RawEvent) error {
	if len(events) == 0 {
		return nil
	}

	var maxID uint64
	var paths []string
	for _, ev := range events {
		if ev.ID > maxID {
			maxID = ev.ID
		}
		switch Classify(ev, c.WatchRoot) {
		case ScanReScan:
			return ErrRescanRequired
		case ScanNop:
			continue
		default:
			paths = append(paths, ev.Path)
		}
	}

	for _, p := range ScanPaths(paths) {
		if err := ScanPathRecursive(c, w, p); err != nil {
			return err
		}
	}
	if maxID > c.LastEventID {
		c.LastEventID = maxID
	}
	return nil
}

// FullRescan rebuilds c's cache state from scratch, as on cold start:
// the walker runs with metadata disabled (fetched lazily thereafter),
// mirroring BulkBuild. The caller should atomically swap its pointer to
// the returned cache in place of c; this function does not mutate c.
func FullRescan(c *cache.Cache, w *walker.Walker) (*cache.Cache, error) {
	fresh, err := cache.BulkBuild(c.FS, c.WatchRoot, w, walker.Options{Cancel: cancel.Noop()})
	if err != nil {
		return nil, err
	}
	fresh.LastEventID = c.LastEventID
	return fresh, nil
}
