package query

import (
	"sort"
	"testing"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/slab"
	"github.com/everyfind/everyfind/internal/walker"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"
)

func buildNestedFixture(t *testing.T) *cache.Cache {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/root/docs", 0o755))
	require.NoError(t, fs.MkdirAll("/root/docs/nested", 0o755))
	for _, p := range []string{
		"/root/readme.md",
		"/root/app.exe",
		"/root/docs/report.txt",
		"/root/docs/nested/deep.txt",
	} {
		f, err := fs.Create(p)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	needle, err := fs.Create("/root/docs/needle.txt")
	require.NoError(t, err)
	_, err = needle.Write([]byte("the quick brown fox jumps"))
	require.NoError(t, err)
	require.NoError(t, needle.Close())

	w := walker.New(fs)
	c, err := cache.BulkBuild(fs, "/root", w, walker.Options{Cancel: cancel.Noop()})
	require.NoError(t, err)
	return c
}

func allIndices(t *testing.T, c *cache.Cache) []slab.Index {
	t.Helper()
	idxs := c.Index.AllIndices()
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	return idxs
}

func TestFilterParentOnlyDirectChildren(t *testing.T) {
	c := buildNestedFixture(t)
	f := Filter{Kind: KindParent, Argument: &FilterArgument{Raw: "/root/docs", Shape: ShapeBare}}
	out, ok, err := EvaluateFilter(c, allIndices(t, c), f, SearchOptions{}, cancel.Noop())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"/root/docs/needle.txt", "/root/docs/nested", "/root/docs/report.txt"}, paths(t, c, out))
}

func TestFilterInFolderIncludesDescendants(t *testing.T) {
	c := buildNestedFixture(t)
	f := Filter{Kind: KindInFolder, Argument: &FilterArgument{Raw: "/root/docs", Shape: ShapeBare}}
	out, ok, err := EvaluateFilter(c, allIndices(t, c), f, SearchOptions{}, cancel.Noop())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{
		"/root/docs",
		"/root/docs/needle.txt",
		"/root/docs/nested",
		"/root/docs/nested/deep.txt",
		"/root/docs/report.txt",
	}, paths(t, c, out))
}

func TestFilterNoSubfoldersExcludesNestedDirs(t *testing.T) {
	c := buildNestedFixture(t)
	f := Filter{Kind: KindNoSubfolders, Argument: &FilterArgument{Raw: "/root/docs", Shape: ShapeBare}}
	out, ok, err := EvaluateFilter(c, allIndices(t, c), f, SearchOptions{}, cancel.Noop())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"/root/docs", "/root/docs/needle.txt", "/root/docs/report.txt"}, paths(t, c, out))
}

func TestFilterExeMacro(t *testing.T) {
	c := buildNestedFixture(t)
	f := Filter{Kind: KindExe}
	out, ok, err := EvaluateFilter(c, allIndices(t, c), f, SearchOptions{}, cancel.Noop())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"/root/app.exe"}, paths(t, c, out))
}

func TestFilterTypeCategoryDocuments(t *testing.T) {
	c := buildNestedFixture(t)
	f := Filter{Kind: KindType, Argument: &FilterArgument{Raw: "document", Shape: ShapeBare}}
	out, ok, err := EvaluateFilter(c, allIndices(t, c), f, SearchOptions{}, cancel.Noop())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{
		"/root/docs/needle.txt",
		"/root/docs/nested/deep.txt",
		"/root/docs/report.txt",
		"/root/readme.md",
	}, paths(t, c, out))
}

func TestFilterContentMatchesSubstring(t *testing.T) {
	c := buildNestedFixture(t)
	f := Filter{Kind: KindContent, Argument: &FilterArgument{Raw: "quick brown", Shape: ShapeBare}}
	out, ok, err := EvaluateFilter(c, allIndices(t, c), f, SearchOptions{}, cancel.Noop())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"/root/docs/needle.txt"}, paths(t, c, out))
}

func TestFilterUnsupportedKindReturnsError(t *testing.T) {
	c := buildNestedFixture(t)
	f := Filter{Kind: KindDupe}
	_, _, err := EvaluateFilter(c, allIndices(t, c), f, SearchOptions{}, cancel.Noop())
	require.Error(t, err)
}
