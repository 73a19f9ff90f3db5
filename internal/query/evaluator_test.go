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

// buildFixture mirrors internal/cache's own fixture: a watch root with
// file1.txt, dir_a/, and dir_a/file2.txt (spec §8 scenario 1), plus a
// larger big.bin for the size-filter scenario (spec §8 scenario 4).
func buildFixture(t *testing.T) *cache.Cache {
	t.Helper()
	fs := memfs.New()
	f1, err := fs.Create("/root/file1.txt")
	require.NoError(t, err)
	require.NoError(t, f1.Close())
	require.NoError(t, fs.MkdirAll("/root/dir_a", 0o755))
	f2, err := fs.Create("/root/dir_a/file2.txt")
	require.NoError(t, err)
	require.NoError(t, f2.Close())

	big, err := fs.Create("/root/big.bin")
	require.NoError(t, err)
	payload := make([]byte, 2*1024*1024)
	_, err = big.Write(payload)
	require.NoError(t, err)
	require.NoError(t, big.Close())

	w := walker.New(fs)
	c, err := cache.BulkBuild(fs, "/root", w, walker.Options{Cancel: cancel.Noop()})
	require.NoError(t, err)
	return c
}

func paths(t *testing.T, c *cache.Cache, idxs []slab.Index) []string {
	t.Helper()
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = c.Path(idx)
	}
	sort.Strings(out)
	return out
}

func runQuery(t *testing.T, c *cache.Cache, text string) []string {
	t.Helper()
	q, err := Parse(text)
	require.NoError(t, err)
	opt := Optimize(q)
	result, ok, err := Evaluate(opt, c, SearchOptions{}, cancel.Noop())
	require.NoError(t, err)
	require.True(t, ok)
	return paths(t, c, result)
}

func TestEvaluateExactWordMatchesSingleFile(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "file1.txt")
	require.Equal(t, []string{"/root/file1.txt"}, got)
}

func TestEvaluateSubstringMatchesAllFiles(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "file")
	require.Equal(t, []string{"/root/dir_a/file2.txt", "/root/file1.txt"}, got)
}

func TestEvaluateTrailingSlashIsSuffixMatchOnName(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "dir_a/")
	require.Equal(t, []string{"/root/dir_a"}, got)
}

func TestEvaluateTwoSegmentPathMatchesChild(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "dir_a/file2")
	require.Equal(t, []string{"/root/dir_a/file2.txt"}, got)
}

func TestEvaluateSizeGreaterThan(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "size:>1mb")
	require.Equal(t, []string{"/root/big.bin"}, got)
}

func TestEvaluateSizeEmpty(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "size:empty")
	require.Equal(t, []string{"/root/dir_a/file2.txt", "/root/file1.txt"}, got)
}

func TestEvaluateExtFilter(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "ext:txt")
	require.Equal(t, []string{"/root/dir_a/file2.txt", "/root/file1.txt"}, got)
}

func TestEvaluateFolderFilter(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "folder:")
	require.Equal(t, []string{"/root", "/root/dir_a"}, got)
}

func TestEvaluateNotExcludesMatch(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "ext:txt !file1")
	require.Equal(t, []string{"/root/dir_a/file2.txt"}, got)
}

func TestEvaluateOrUnion(t *testing.T) {
	c := buildFixture(t)
	got := runQuery(t, c, "file1 | big")
	require.Equal(t, []string{"/root/big.bin", "/root/file1.txt"}, got)
}

func TestEvaluateAndOrScenario(t *testing.T) {
	c := buildFixture(t)
	// "file1 | file2 ext:txt" -> And[Or[file1, file2], ext:txt]
	got := runQuery(t, c, "file1 | file2 ext:txt")
	require.Equal(t, []string{"/root/dir_a/file2.txt", "/root/file1.txt"}, got)
}

func TestEvaluateSurfacesNonExistentParentTarget(t *testing.T) {
	c := buildFixture(t)
	q, err := Parse("parent:/root/nonexistent")
	require.NoError(t, err)
	opt := Optimize(q)
	_, ok, err := Evaluate(opt, c, SearchOptions{}, cancel.Noop())
	require.True(t, ok)
	require.Error(t, err)
}

func TestEvaluateSurfacesUnknownTypeCategory(t *testing.T) {
	c := buildFixture(t)
	q, err := Parse("type:bogus")
	require.NoError(t, err)
	opt := Optimize(q)
	_, ok, err := Evaluate(opt, c, SearchOptions{}, cancel.Noop())
	require.True(t, ok)
	require.Error(t, err)
}

func TestEvaluateSurfacesInvalidRegex(t *testing.T) {
	c := buildFixture(t)
	q, err := Parse("regex:(")
	require.NoError(t, err)
	opt := Optimize(q)
	_, ok, err := Evaluate(opt, c, SearchOptions{}, cancel.Noop())
	require.True(t, ok)
	require.Error(t, err)
}

func TestEvaluateSurfacesFilterErrorInsideAnd(t *testing.T) {
	c := buildFixture(t)
	q, err := Parse("file1 infolder:/root/nonexistent")
	require.NoError(t, err)
	opt := Optimize(q)
	_, ok, err := Evaluate(opt, c, SearchOptions{}, cancel.Noop())
	require.True(t, ok)
	require.Error(t, err)
}
