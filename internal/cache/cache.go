// Package cache ties the name pool, node slab, and name index together
// into the query cache: cold-start bulk build from a walker tree, and
// node-index -> (path, metadata) expansion for result display.
//
// Grounded on the teacher's internal/ingest.Engine orchestration shape
// (Ingest walks then builds graph state) and internal/graph.MemoryStore's
// GetNode/ListChildren path reconstruction via parent links.
package cache

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/everyfind/everyfind/internal/nameindex"
	"github.com/everyfind/everyfind/internal/namepool"
	"github.com/everyfind/everyfind/internal/slab"
	"github.com/everyfind/everyfind/internal/walker"
	"github.com/go-git/go-billy/v5"
)

const fsModeSymlink = os.ModeSymlink

// Cache is the in-memory query cache: pool + slab + index + watch-root
// bookkeeping. Per spec §5, the slab/index/watch-root are owned solely
// by the background loop thread; the pool is append-only and safe for
// concurrent readers.
type Cache struct {
	Pool        *namepool.Pool
	Slab        *slab.Slab
	Index       *nameindex.Index
	WatchRoot   string
	LastEventID uint64
	FS          billy.Filesystem

	nameOffsets map[string]int
}

// New returns an empty cache rooted at watchRoot.
func New(fs billy.Filesystem, watchRoot string) *Cache {
	return &Cache{
		Pool:        namepool.New(),
		Slab:        slab.New(),
		Index:       nameindex.New(),
		WatchRoot:   watchRoot,
		FS:          fs,
		nameOffsets: make(map[string]int),
	}
}

// internName returns the pool offset for name, pushing it if this is
// the first time it has ever been seen.
func (c *Cache) internName(name string) int {
	if off, ok := c.nameOffsets[name]; ok {
		return off
	}
	off := c.Pool.Push(name)
	c.nameOffsets[name] = off
	return off
}

// InternName is internName exported for the event merger's incremental
// rescan, which splices freshly observed names into the pool outside
// of BulkBuild.
func (c *Cache) InternName(name string) int {
	return c.internName(name)
}

// BulkBuild walks root and rebuilds the cache from scratch: walk ->
// slab (DFS, parent = enclosing directory) -> name index (scan slab) ->
// name pool (push each distinct name, in sorted order). Matches
// spec §4.5.
func BulkBuild(fs billy.Filesystem, root string, w *walker.Walker, opts walker.Options) (*Cache, error) {
	tree := w.Walk(root, opts)
	if tree == nil {
		return nil, fmt.Errorf("cache: walk of %s was cancelled or failed", root)
	}

	c := New(fs, root)

	// 1. Slab via DFS, parent set to the slab index of the enclosing directory.
	var distinctNames = make(map[string]struct{})
	var insert func(n *walker.Node, parent slab.Index) slab.Index
	insert = func(n *walker.Node, parent slab.Index) slab.Index {
		distinctNames[n.Name] = struct{}{}
		node := &slab.Node{
			Name:   n.Name,
			Parent: parent,
			Meta:   metaFromWalker(n.Meta),
		}
		idx := c.Slab.Insert(node)
		if parent != slab.NoParent {
			_ = c.Slab.AddChild(parent, idx)
		}
		for _, child := range n.Children {
			insert(child, idx)
		}
		return idx
	}
	insert(tree, slab.NoParent)

	// 2. Name index: scan the slab.
	c.Index = nameindex.BuildFromSlab(c.Slab)

	// 3. Name pool: push each distinct name in sorted order.
	names := make([]string, 0, len(distinctNames))
	for n := range distinctNames {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c.internName(n)
	}
	// Back-fill NameOff on every node now that offsets are known.
	c.Slab.All(func(_ slab.Index, node *slab.Node) {
		node.NameOff = c.nameOffsets[node.Name]
	})

	return c, nil
}

func metaFromWalker(m *walker.Metadata) slab.Metadata {
	if m == nil {
		return slab.Metadata{State: slab.MetaNone}
	}
	ft := slab.TypeFile
	switch {
	case m.IsSymlink:
		ft = slab.TypeSymlink
	case m.IsDir:
		ft = slab.TypeDir
	}
	md := slab.Metadata{
		State:    slab.MetaSome,
		FileType: ft,
		Size:     m.Size,
		Mtime:    m.Mtime.Unix(),
		HasMtime: !m.Mtime.IsZero(),
	}
	if m.HasCtime {
		md.Ctime = m.Ctime.Unix()
		md.HasCtime = true
	}
	return md
}

// Path reconstructs the absolute path of idx by walking parent links
// to the root and joining with the watch-root prefix.
func (c *Cache) Path(idx slab.Index) string {
	segs := c.Slab.PathSegments(idx)
	if len(segs) == 0 {
		return c.WatchRoot
	}
	return path.Join(append([]string{c.WatchRoot}, segs...)...)
}

// Record is one expanded search result.
type Record struct {
	Index slab.Index
	Path  string
	Meta  slab.Metadata
}

// Expand converts slab indices into (path, metadata) records, in the
// same order as indices. Missing indices yield zero-value records at
// their position (never dropped, so len(out) == len(indices)).
func (c *Cache) Expand(indices []slab.Index, fetchMeta bool) []Record {
	out := make([]Record, len(indices))
	for i, idx := range indices {
		n := c.Slab.Get(idx)
		if n == nil {
			continue
		}
		rec := Record{Index: idx, Path: c.Path(idx), Meta: n.Meta}
		if fetchMeta && n.Meta.State == slab.MetaNone {
			rec.Meta = c.EnsureMetadata(idx)
		}
		out[i] = rec
	}
	return out
}

// EnsureMetadata returns idx's metadata, lazily lstat-ing and caching it
// on the node if it has never been fetched. Safe to call redundantly.
func (c *Cache) EnsureMetadata(idx slab.Index) slab.Metadata {
	n := c.Slab.Get(idx)
	if n == nil {
		return slab.Metadata{State: slab.MetaUnaccessible}
	}
	if n.Meta.State != slab.MetaNone {
		return n.Meta
	}
	n.Meta = c.fetchMetadata(c.Path(idx))
	return n.Meta
}

// FetchMetadataAt lstats an arbitrary absolute path, independent of any
// existing node. Used by the event merger to eagerly populate a freshly
// created ancestor-directory node before it is spliced into the slab.
func (c *Cache) FetchMetadataAt(p string) slab.Metadata {
	return c.fetchMetadata(p)
}

func (c *Cache) fetchMetadata(p string) slab.Metadata {
	info, err := c.FS.Lstat(p)
	if err != nil {
		return slab.Metadata{State: slab.MetaUnaccessible}
	}
	ft := slab.TypeFile
	switch {
	case info.Mode()&fsModeSymlink != 0:
		ft = slab.TypeSymlink
	case info.IsDir():
		ft = slab.TypeDir
	}
	return slab.Metadata{
		State:    slab.MetaSome,
		FileType: ft,
		Size:     uint64(info.Size()),
		Mtime:    info.ModTime().Unix(),
		HasMtime: true,
	}
}

// NodeIndexForPath locates the slab index for an absolute path, or
// false if not present. Used by tests and by the merger to check path
// roundtripping (spec §8's universal invariant).
func (c *Cache) NodeIndexForPath(p string) (slab.Index, bool) {
	rel := strings.TrimPrefix(strings.TrimPrefix(p, c.WatchRoot), "/")
	if rel == "" {
		return c.rootIndex()
	}
	segs := strings.Split(rel, "/")
	cur, ok := c.rootIndex()
	if !ok {
		return 0, false
	}
	for _, seg := range segs {
		found := false
		n := c.Slab.Get(cur)
		for _, childIdx := range n.Children {
			child := c.Slab.Get(childIdx)
			if child != nil && child.Name == seg {
				cur = childIdx
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return cur, true
}

// RootIndex returns the watch root's slab index, or false if the slab
// is empty.
func (c *Cache) RootIndex() (slab.Index, bool) {
	return c.rootIndex()
}

func (c *Cache) rootIndex() (slab.Index, bool) {
	var root slab.Index = -1
	c.Slab.All(func(idx slab.Index, n *slab.Node) {
		if n.Parent == slab.NoParent {
			root = idx
		}
	})
	if root == -1 {
		return 0, false
	}
	return root, true
}
