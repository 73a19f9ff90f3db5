package merger

import (
	"fmt"
	"path"
	"strings"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/slab"
	"github.com/everyfind/everyfind/internal/walker"
)

// relativeSegments splits p into its path segments relative to root, or
// returns ok=false if p is not root or under it.
func relativeSegments(root, p string) ([]string, bool) {
	if p == root {
		return nil, true
	}
	prefix := strings.TrimSuffix(root, "/") + "/"
	if !strings.HasPrefix(p, prefix) {
		return nil, false
	}
	rel := strings.TrimPrefix(p, prefix)
	if rel == "" {
		return nil, true
	}
	return strings.Split(rel, "/"), true
}

// ScanPathRecursive implements the incremental rescan of spec §4.12:
// require p under the watch root, remove its node if p no longer exists,
// ensure every ancestor directory has a node, drop a stale node at p
// (subtree and all), then walk p fresh with metadata enabled and splice
// the result back in. When p is the watch root, the root node is kept
// and only its children are replaced.
func ScanPathRecursive(c *cache.Cache, w *walker.Walker, p string) error {
	segs, ok := relativeSegments(c.WatchRoot, p)
	if !ok {
		return fmt.Errorf("merger: %s is not under watch root %s", p, c.WatchRoot)
	}

	if _, err := c.FS.Lstat(p); err != nil {
		removeByPath(c, p)
		return nil
	}

	parentIdx, err := ensureAncestors(c, segs)
	if err != nil {
		return err
	}

	if len(segs) == 0 {
		// p is the watch root: keep its node, replace its children.
		tree := w.Walk(p, walker.Options{NeedMetadata: true, Cancel: cancel.Noop()})
		if tree == nil {
			return fmt.Errorf("merger: walk of %s failed", p)
		}
		for _, ch := range append([]slab.Index(nil), c.Slab.Get(parentIdx).Children...) {
			removeSubtree(c, ch)
		}
		for _, child := range tree.Children {
			spliceTree(c, child, parentIdx)
		}
		return nil
	}

	if existing, found := childNamed(c, parentIdx, lastSegment(segs, p)); found {
		removeSubtree(c, existing)
	}

	tree := w.Walk(p, walker.Options{NeedMetadata: true, Cancel: cancel.Noop()})
	if tree == nil {
		return fmt.Errorf("merger: walk of %s failed", p)
	}
	spliceTree(c, tree, parentIdx)
	return nil
}

func lastSegment(segs []string, fallback string) string {
	if len(segs) == 0 {
		return path.Base(fallback)
	}
	return segs[len(segs)-1]
}

func childNamed(c *cache.Cache, parentIdx slab.Index, name string) (slab.Index, bool) {
	p := c.Slab.Get(parentIdx)
	if p == nil {
		return 0, false
	}
	for _, ch := range p.Children {
		n := c.Slab.Get(ch)
		if n != nil && n.Name == name {
			return ch, true
		}
	}
	return 0, false
}

// ensureAncestors walks segs (the path's segments relative to the watch
// root, excluding the leaf itself if segs has at least one element)
// from the root down, creating any missing directory node along the
// way with freshly fetched metadata. Returns the slab index of the
// leaf's direct parent.
func ensureAncestors(c *cache.Cache, segs []string) (slab.Index, error) {
	cur, ok := c.RootIndex()
	if !ok {
		return 0, fmt.Errorf("merger: cache has no root node")
	}
	if len(segs) == 0 {
		return cur, nil
	}
	for _, seg := range segs[:len(segs)-1] {
		if child, found := childNamed(c, cur, seg); found {
			cur = child
			continue
		}
		cur = createNode(c, cur, seg)
	}
	return cur, nil
}

// createNode inserts a new node named name under parentIdx, eagerly
// fetching its metadata, and registers it in the slab, its parent's
// children list, and the name index/pool.
func createNode(c *cache.Cache, parentIdx slab.Index, name string) slab.Index {
	p := c.Path(parentIdx)
	childPath := path.Join(p, name)
	meta := c.FetchMetadataAt(childPath)

	node := &slab.Node{Name: name, Parent: parentIdx, NameOff: c.InternName(name), Meta: meta}
	idx := c.Slab.Insert(node)
	_ = c.Slab.AddChild(parentIdx, idx)
	c.Index.Add(name, idx)
	return idx
}

// spliceTree converts a walker.Node subtree (whose root corresponds to
// the leaf itself) into slab nodes under parentIdx.
func spliceTree(c *cache.Cache, tree *walker.Node, parentIdx slab.Index) slab.Index {
	var insert func(n *walker.Node, parent slab.Index) slab.Index
	insert = func(n *walker.Node, parent slab.Index) slab.Index {
		node := &slab.Node{
			Name:    n.Name,
			NameOff: c.InternName(n.Name),
			Parent:  parent,
			Meta:    metaFromWalker(n.Meta),
		}
		idx := c.Slab.Insert(node)
		if parent != slab.NoParent {
			_ = c.Slab.AddChild(parent, idx)
		}
		c.Index.Add(n.Name, idx)
		for _, child := range n.Children {
			insert(child, idx)
		}
		return idx
	}
	return insert(tree, parentIdx)
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

// removeByPath removes the node at p (and its subtree), if any exists.
func removeByPath(c *cache.Cache, p string) {
	idx, ok := c.NodeIndexForPath(p)
	if !ok {
		return
	}
	removeSubtree(c, idx)
}

// removeSubtree unlinks idx from its parent, then DFS-deletes idx and
// every descendant, dropping each from the slab and the name index.
func removeSubtree(c *cache.Cache, idx slab.Index) {
	n := c.Slab.Get(idx)
	if n == nil {
		return
	}
	if n.Parent != slab.NoParent {
		c.Slab.RemoveChild(n.Parent, idx)
	}
	deleteRecursive(c, idx)
}

func deleteRecursive(c *cache.Cache, idx slab.Index) {
	n := c.Slab.Get(idx)
	if n == nil {
		return
	}
	for _, ch := range append([]slab.Index(nil), n.Children...) {
		deleteRecursive(c, ch)
	}
	c.Index.Remove(n.Name, idx)
	c.Slab.Remove(idx)
}
