// Package fuseview mounts a read-only view of the indexed cache tree.
// Directory and file nodes are backed by slab indices rather than
// re-walking the real filesystem on every lookup. The view is a
// snapshot of the cache at mount time: since the background loop
// replaces its cache wholesale on rescan rather than mutating it in
// place, the snapshot stays internally consistent for the life of the
// mount but won't pick up a later rescan without remounting. Grounded
// on the
// teacher's internal/fs.MacheRoot Inode-embedding shape, generalized
// from root.go's single hardcoded child to a full Lookup/Readdir tree
// in the style of the other_examples fuse-content.go QueryDirNode /
// QueryResultDirNode pair (NodeLookuper + NodeReaddirer + NodeOpener).
package fuseview

import (
	"context"
	"fmt"
	"io"
	"syscall"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/slab"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Node is one FUSE inode backed by a slab index. The root node is
// constructed with idx equal to the cache's root index.
type Node struct {
	fs.Inode
	cache *cache.Cache
	idx   slab.Index
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
)

// NewRoot builds the root Inode of a read-only view over c. Mount it
// with fs.Mount(mountpoint, NewRoot(c), opts).
func NewRoot(c *cache.Cache) (fs.InodeEmbedder, error) {
	rootIdx, ok := c.RootIndex()
	if !ok {
		return nil, fmt.Errorf("fuseview: cache has no root node")
	}
	return &Node{cache: c, idx: rootIdx}, nil
}

func (n *Node) node() *slabNode {
	return lookupSlabNode(n.cache, n.idx)
}

// slabNode is the subset of slab.Node state fuseview reads; kept
// separate so tests can build one without a live cache.
type slabNode struct {
	name     string
	isDir    bool
	size     uint64
	mtime    int64
	children []slab.Index
}

func lookupSlabNode(c *cache.Cache, idx slab.Index) *slabNode {
	n := c.Slab.Get(idx)
	if n == nil {
		return nil
	}
	meta := c.EnsureMetadata(idx)
	return &slabNode{
		name:     n.Name,
		isDir:    meta.FileType == slab.TypeDir,
		size:     meta.Size,
		mtime:    meta.Mtime,
		children: n.Children,
	}
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	self := n.node()
	if self == nil || !self.isDir {
		return nil, syscall.ENOTDIR
	}
	for _, childIdx := range self.children {
		child := lookupSlabNode(n.cache, childIdx)
		if child == nil || child.name != name {
			continue
		}
		mode := fuse.S_IFREG | 0444
		if child.isDir {
			mode = fuse.S_IFDIR | 0555
		}
		fillAttr(&out.Attr, child)
		return n.NewInode(ctx, &Node{cache: n.cache, idx: childIdx}, fs.StableAttr{
			Mode: uint32(mode),
			Ino:  uint64(childIdx) + 1,
		}), 0
	}
	return nil, syscall.ENOENT
}

func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	self := n.node()
	if self == nil || !self.isDir {
		return nil, syscall.ENOTDIR
	}
	entries := make([]fuse.DirEntry, 0, len(self.children))
	for _, childIdx := range self.children {
		child := lookupSlabNode(n.cache, childIdx)
		if child == nil {
			continue
		}
		mode := uint32(fuse.S_IFREG)
		if child.isDir {
			mode = fuse.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: child.name, Mode: mode, Ino: uint64(childIdx) + 1})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *Node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	self := n.node()
	if self == nil {
		return syscall.ENOENT
	}
	fillAttr(&out.Attr, self)
	return 0
}

func fillAttr(attr *fuse.Attr, n *slabNode) {
	attr.Size = n.size
	attr.Mtime = uint64(n.mtime)
	if n.isDir {
		attr.Mode = fuse.S_IFDIR | 0555
	} else {
		attr.Mode = fuse.S_IFREG | 0444
	}
}

// Open streams the underlying file's bytes through the cache's
// billy.Filesystem, since the view is read-only and never diverges
// from what the indexed tree already points at on disk.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	self := n.node()
	if self == nil || self.isDir {
		return nil, 0, syscall.EISDIR
	}
	f, err := n.cache.FS.Open(n.cache.Path(n.idx))
	if err != nil {
		return nil, 0, syscall.EIO
	}
	defer func() { _ = f.Close() }()
	data := make([]byte, self.size)
	if _, err := io.ReadFull(f, data); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, 0, syscall.EIO
	}
	return &fileHandle{content: data}, fuse.FOPEN_KEEP_CACHE, 0
}

type fileHandle struct {
	content []byte
}

var _ fs.FileReader = (*fileHandle)(nil)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off >= int64(len(h.content)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(h.content)) {
		end = int64(len(h.content))
	}
	return fuse.ReadResultData(h.content[off:end]), 0
}
