// Package nameindex implements the name -> set-of-slab-indices map.
// Grounded on the teacher's internal/graph.MemoryStore fileToNodes
// roaring-bitmap index: small dense integer node indices are a natural
// fit for roaring.Bitmap, giving O(k) membership/iteration instead of a
// generic Go map[int]struct{} per name.
package nameindex

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/everyfind/everyfind/internal/slab"
)

// Index maps a name string to the set of slab indices carrying it.
type Index struct {
	sets map[string]*roaring.Bitmap
}

// New returns an empty index.
func New() *Index {
	return &Index{sets: make(map[string]*roaring.Bitmap)}
}

// Add registers idx under name.
func (x *Index) Add(name string, idx slab.Index) {
	bm, ok := x.sets[name]
	if !ok {
		bm = roaring.New()
		x.sets[name] = bm
	}
	bm.Add(uint32(idx))
}

// Remove unregisters idx from name. If the set becomes empty the entry
// is dropped entirely.
func (x *Index) Remove(name string, idx slab.Index) {
	bm, ok := x.sets[name]
	if !ok {
		return
	}
	bm.Remove(uint32(idx))
	if bm.IsEmpty() {
		delete(x.sets, name)
	}
}

// Get returns the sorted slab indices carrying name, and whether any exist.
func (x *Index) Get(name string) ([]slab.Index, bool) {
	bm, ok := x.sets[name]
	if !ok || bm.IsEmpty() {
		return nil, false
	}
	out := make([]slab.Index, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, slab.Index(it.Next()))
	}
	return out, true
}

// Len returns the number of distinct names indexed.
func (x *Index) Len() int {
	return len(x.sets)
}

// AllIndices returns every slab index registered under any name, in
// ascending order.
func (x *Index) AllIndices() []slab.Index {
	seen := roaring.New()
	for _, bm := range x.sets {
		seen.Or(bm)
	}
	out := make([]slab.Index, 0, seen.GetCardinality())
	it := seen.Iterator()
	for it.HasNext() {
		out = append(out, slab.Index(it.Next()))
	}
	return out
}

// Names returns every distinct name currently indexed, sorted.
func (x *Index) Names() []string {
	out := make([]string, 0, len(x.sets))
	for n := range x.sets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// BuildFromSlab repopulates the index by scanning every live node in s.
func BuildFromSlab(s *slab.Slab) *Index {
	x := New()
	s.All(func(idx slab.Index, n *slab.Node) {
		x.Add(n.Name, idx)
	})
	return x
}
