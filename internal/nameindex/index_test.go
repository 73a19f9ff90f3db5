package nameindex

import (
	"testing"

	"github.com/everyfind/everyfind/internal/slab"
	"github.com/stretchr/testify/require"
)

func TestAddGetRemove(t *testing.T) {
	x := New()
	x.Add("foo.txt", 1)
	x.Add("foo.txt", 2)
	got, ok := x.Get("foo.txt")
	require.True(t, ok)
	require.ElementsMatch(t, []slab.Index{1, 2}, got)

	x.Remove("foo.txt", 1)
	got, ok = x.Get("foo.txt")
	require.True(t, ok)
	require.Equal(t, []slab.Index{2}, got)

	x.Remove("foo.txt", 2)
	_, ok = x.Get("foo.txt")
	require.False(t, ok)
	require.Equal(t, 0, x.Len())
}

func TestBuildFromSlab(t *testing.T) {
	s := slab.New()
	a := s.Insert(&slab.Node{Name: "a", Parent: slab.NoParent})
	b := s.Insert(&slab.Node{Name: "b", Parent: a})
	x := BuildFromSlab(s)
	require.Equal(t, 2, x.Len())
	got, ok := x.Get("b")
	require.True(t, ok)
	require.Equal(t, []slab.Index{b}, got)
}

func TestAllIndices(t *testing.T) {
	x := New()
	x.Add("a", 0)
	x.Add("b", 1)
	x.Add("c", 5)
	require.Equal(t, []slab.Index{0, 1, 5}, x.AllIndices())
}
