// Package persist implements the on-disk snapshot format: a version
// tag, watch-root path, last-event-id, slab contents, and name index,
// encoded as a SQLite database and written atomically via
// temp-file-plus-rename. Grounded on internal/graph.SQLiteGraph's use
// of modernc.org/sqlite as a pure-Go embedded store, and on
// internal/graph.ExtractActiveDB's temp-file-then-swap discipline
// (adapted here to a rename rather than an in-place arena buffer swap,
// since a snapshot file has no live reader to avoid disturbing).
package persist

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/nameindex"
	"github.com/everyfind/everyfind/internal/slab"
	"github.com/go-git/go-billy/v5"
	_ "modernc.org/sqlite"
)

// FormatVersion is the snapshot schema version written to the meta
// table. Bumped whenever the table layout changes incompatibly.
const FormatVersion = 1

// ErrWatchRootMismatch is returned by Load when the snapshot's
// recorded watch root differs from the one the caller asked to open.
// Per spec §6/§7, the caller falls back to a full walk in this case.
var ErrWatchRootMismatch = fmt.Errorf("persist: snapshot watch root does not match")

const schemaSQL = `
CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
CREATE TABLE nodes (
	idx        INTEGER PRIMARY KEY,
	parent     INTEGER NOT NULL,
	name       TEXT NOT NULL,
	children   TEXT NOT NULL,
	file_type  INTEGER NOT NULL,
	meta_state INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	ctime      INTEGER NOT NULL,
	mtime      INTEGER NOT NULL,
	has_ctime  INTEGER NOT NULL,
	has_mtime  INTEGER NOT NULL
);
CREATE TABLE name_index (
	name TEXT NOT NULL,
	idx  INTEGER NOT NULL
);
`

// Save writes c's contents to path atomically: the database is built at
// a temporary file in path's directory, then renamed into place.
func Save(c *cache.Cache, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("persist: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(tmpPath) // sqlite wants to create the file itself

	if err := writeSnapshot(c, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("persist: rename snapshot into place: %w", err)
	}
	return nil
}

func writeSnapshot(c *cache.Cache, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("persist: open %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("persist: create schema: %w", err)
	}

	meta := map[string]string{
		"version":       strconv.Itoa(FormatVersion),
		"watch_root":    c.WatchRoot,
		"last_event_id": strconv.FormatUint(c.LastEventID, 10),
	}
	for k, v := range meta {
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("persist: write meta %s: %w", k, err)
		}
	}

	nodeStmt, err := db.Prepare(`INSERT INTO nodes
		(idx, parent, name, children, file_type, meta_state, size, ctime, mtime, has_ctime, has_mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("persist: prepare node insert: %w", err)
	}
	defer func() { _ = nodeStmt.Close() }()

	var writeErr error
	c.Slab.All(func(idx slab.Index, n *slab.Node) {
		if writeErr != nil {
			return
		}
		children := make([]string, len(n.Children))
		for i, ch := range n.Children {
			children[i] = strconv.Itoa(int(ch))
		}
		_, writeErr = nodeStmt.Exec(
			int(idx), int(n.Parent), n.Name, strings.Join(children, ","),
			int(n.Meta.FileType), int(n.Meta.State), n.Meta.Size,
			n.Meta.Ctime, n.Meta.Mtime, boolInt(n.Meta.HasCtime), boolInt(n.Meta.HasMtime),
		)
	})
	if writeErr != nil {
		return fmt.Errorf("persist: write node: %w", writeErr)
	}

	nameStmt, err := db.Prepare(`INSERT INTO name_index (name, idx) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("persist: prepare name_index insert: %w", err)
	}
	defer func() { _ = nameStmt.Close() }()
	for _, name := range c.Index.Names() {
		indices, _ := c.Index.Get(name)
		for _, idx := range indices {
			if _, err := nameStmt.Exec(name, int(idx)); err != nil {
				return fmt.Errorf("persist: write name_index row: %w", err)
			}
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Load reads the snapshot at path and reconstructs a cache rooted at
// watchRoot. If the snapshot's recorded watch root differs,
// ErrWatchRootMismatch is returned and the caller should fall back to
// a full walk per spec §6.
func Load(fs billy.Filesystem, path, watchRoot string) (*cache.Cache, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	var storedRoot string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'watch_root'`).Scan(&storedRoot); err != nil {
		return nil, fmt.Errorf("persist: read watch_root: %w", err)
	}
	if storedRoot != watchRoot {
		return nil, ErrWatchRootMismatch
	}

	var lastEventIDRaw string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'last_event_id'`).Scan(&lastEventIDRaw); err != nil {
		return nil, fmt.Errorf("persist: read last_event_id: %w", err)
	}
	lastEventID, err := strconv.ParseUint(lastEventIDRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("persist: parse last_event_id: %w", err)
	}

	rows, err := db.Query(`SELECT idx, parent, name, children, file_type, meta_state, size, ctime, mtime, has_ctime, has_mtime FROM nodes ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("persist: query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type rawNode struct {
		oldIdx   int
		parent   int
		name     string
		children []int
		meta     slab.Metadata
	}
	var raw []rawNode
	for rows.Next() {
		var r rawNode
		var childrenRaw string
		var fileType, metaState, hasCtime, hasMtime int
		if err := rows.Scan(&r.oldIdx, &r.parent, &r.name, &childrenRaw, &fileType, &metaState, &r.meta.Size, &r.meta.Ctime, &r.meta.Mtime, &hasCtime, &hasMtime); err != nil {
			return nil, fmt.Errorf("persist: scan node row: %w", err)
		}
		r.meta.FileType = slab.FileType(fileType)
		r.meta.State = slab.MetaState(metaState)
		r.meta.HasCtime = hasCtime != 0
		r.meta.HasMtime = hasMtime != 0
		if childrenRaw != "" {
			for _, s := range strings.Split(childrenRaw, ",") {
				n, err := strconv.Atoi(s)
				if err != nil {
					return nil, fmt.Errorf("persist: parse child index %q: %w", s, err)
				}
				r.children = append(r.children, n)
			}
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persist: iterate node rows: %w", err)
	}

	c := cache.New(fs, watchRoot)
	c.LastEventID = lastEventID

	oldToNew := make(map[int]slab.Index, len(raw))
	for _, r := range raw {
		off := c.InternName(r.name)
		idx := c.Slab.Insert(&slab.Node{Name: r.name, NameOff: off, Parent: slab.NoParent, Meta: r.meta})
		oldToNew[r.oldIdx] = idx
	}
	for _, r := range raw {
		n := c.Slab.Get(oldToNew[r.oldIdx])
		if r.parent >= 0 {
			n.Parent = oldToNew[r.parent]
		} else {
			n.Parent = slab.NoParent
		}
		n.Children = make([]slab.Index, len(r.children))
		for i, ch := range r.children {
			n.Children[i] = oldToNew[ch]
		}
	}

	c.Index = nameindex.BuildFromSlab(c.Slab)
	return c, nil
}
