// Package slab implements the indexed arena of file-system nodes: a
// tree of Nodes addressed by stable integer index, with parent
// back-pointers and ordered children lists. Grounded on the teacher's
// internal/graph.MemoryStore nodeIntID/intToNodeID arena pattern,
// generalized into a standalone, node-tree-aware arena.
package slab

import "fmt"

// FileType classifies a node's underlying file-system entity.
type FileType int

const (
	TypeUnknown FileType = iota
	TypeFile
	TypeDir
	TypeSymlink
)

// MetaState is the three-state lifecycle of a node's metadata.
type MetaState int

const (
	MetaNone MetaState = iota
	MetaUnaccessible
	MetaSome
)

// Metadata is the optional, lazily-fetched attribute record for a node.
type Metadata struct {
	State    MetaState
	FileType FileType
	Size     uint64
	Ctime    int64 // unix seconds; 0 if unknown
	Mtime    int64
	HasCtime bool
	HasMtime bool
}

// Index identifies a node's slot in the slab. Stable across inserts;
// may be reused by a later Insert after a Remove.
type Index int

// NoParent marks the sentinel parent of the watch root.
const NoParent Index = -1

// Node is one file-system entity the cache has observed.
type Node struct {
	Name     string
	NameOff  int // offset into the name pool
	Parent   Index
	Children []Index
	Meta     Metadata
}

// Slab is an index-addressable arena. Removals may leave holes which
// are reused by later inserts; iteration (All) skips holes.
type Slab struct {
	nodes    []*Node
	freeList []Index
}

// New returns an empty slab.
func New() *Slab {
	return &Slab{}
}

// Insert stores n and returns its stable index.
func (s *Slab) Insert(n *Node) Index {
	if len(s.freeList) > 0 {
		idx := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.nodes[idx] = n
		return idx
	}
	s.nodes = append(s.nodes, n)
	return Index(len(s.nodes) - 1)
}

// Remove deletes the node at idx and returns it, or nil if idx was
// already empty or out of range.
func (s *Slab) Remove(idx Index) *Node {
	if !s.valid(idx) {
		return nil
	}
	n := s.nodes[idx]
	if n == nil {
		return nil
	}
	s.nodes[idx] = nil
	s.freeList = append(s.freeList, idx)
	return n
}

// Get returns the node at idx, or nil if absent.
func (s *Slab) Get(idx Index) *Node {
	if !s.valid(idx) {
		return nil
	}
	return s.nodes[idx]
}

func (s *Slab) valid(idx Index) bool {
	return idx >= 0 && int(idx) < len(s.nodes)
}

// Len returns the number of live (non-hole) nodes.
func (s *Slab) Len() int {
	n := 0
	for _, v := range s.nodes {
		if v != nil {
			n++
		}
	}
	return n
}

// Cap returns the size of the backing storage, including holes.
func (s *Slab) Cap() int {
	return len(s.nodes)
}

// All calls fn for every live node index, in index order.
func (s *Slab) All(fn func(Index, *Node)) {
	for i, n := range s.nodes {
		if n != nil {
			fn(Index(i), n)
		}
	}
}

// AddChild appends childIdx to parentIdx's children list. Adding a
// duplicate returns an error (as does a missing parent), keeping the
// invariant that children contain no duplicates.
func (s *Slab) AddChild(parentIdx, childIdx Index) error {
	p := s.Get(parentIdx)
	if p == nil {
		return fmt.Errorf("slab: no such parent %d", parentIdx)
	}
	for _, c := range p.Children {
		if c == childIdx {
			return fmt.Errorf("slab: duplicate child %d under parent %d", childIdx, parentIdx)
		}
	}
	p.Children = append(p.Children, childIdx)
	return nil
}

// RemoveChild removes childIdx from parentIdx's children list, if present.
func (s *Slab) RemoveChild(parentIdx, childIdx Index) {
	p := s.Get(parentIdx)
	if p == nil {
		return
	}
	out := p.Children[:0]
	for _, c := range p.Children {
		if c != childIdx {
			out = append(out, c)
		}
	}
	p.Children = out
}

// PathSegments walks parent links from idx up to (but not including)
// the root, returning the names in root-to-leaf order.
func (s *Slab) PathSegments(idx Index) []string {
	var rev []string
	cur := idx
	for {
		n := s.Get(cur)
		if n == nil {
			break
		}
		if n.Parent == NoParent {
			break
		}
		rev = append(rev, n.Name)
		cur = n.Parent
	}
	// reverse
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
