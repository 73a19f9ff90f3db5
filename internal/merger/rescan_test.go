package merger

import (
	"testing"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/walker"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"
)

func buildMergerFixture(t *testing.T) (*cache.Cache, *walker.Walker) {
	t.Helper()
	fs := memfs.New()
	f1, err := fs.Create("/root/file1.txt")
	require.NoError(t, err)
	require.NoError(t, f1.Close())
	require.NoError(t, fs.MkdirAll("/root/dir_a", 0o755))
	f2, err := fs.Create("/root/dir_a/file2.txt")
	require.NoError(t, err)
	require.NoError(t, f2.Close())

	w := walker.New(fs)
	c, err := cache.BulkBuild(fs, "/root", w, walker.Options{Cancel: cancel.Noop()})
	require.NoError(t, err)
	return c, w
}

func TestScanPathRecursiveAddsNewFile(t *testing.T) {
	c, w := buildMergerFixture(t)
	f, err := c.FS.Create("/root/dir_a/new.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, ScanPathRecursive(c, w, "/root/dir_a/new.txt"))

	idx, ok := c.NodeIndexForPath("/root/dir_a/new.txt")
	require.True(t, ok)
	require.Equal(t, "/root/dir_a/new.txt", c.Path(idx))
}

func TestScanPathRecursiveRemovesDeletedFile(t *testing.T) {
	c, w := buildMergerFixture(t)
	_, ok := c.NodeIndexForPath("/root/file1.txt")
	require.True(t, ok)

	require.NoError(t, c.FS.Remove("/root/file1.txt"))
	require.NoError(t, ScanPathRecursive(c, w, "/root/file1.txt"))

	_, ok = c.NodeIndexForPath("/root/file1.txt")
	require.False(t, ok)
}

func TestScanPathRecursiveResplicesModifiedSubtree(t *testing.T) {
	c, w := buildMergerFixture(t)
	f, err := c.FS.Create("/root/dir_a/file3.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, ScanPathRecursive(c, w, "/root/dir_a"))

	idx, ok := c.NodeIndexForPath("/root/dir_a/file3.txt")
	require.True(t, ok)
	require.Equal(t, "/root/dir_a/file3.txt", c.Path(idx))
	// the pre-existing sibling survives the resplice
	_, ok = c.NodeIndexForPath("/root/dir_a/file2.txt")
	require.True(t, ok)
}

func TestScanPathRecursiveCreatesMissingAncestors(t *testing.T) {
	c, w := buildMergerFixture(t)
	require.NoError(t, c.FS.MkdirAll("/root/dir_b/nested", 0o755))
	f, err := c.FS.Create("/root/dir_b/nested/leaf.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, ScanPathRecursive(c, w, "/root/dir_b/nested/leaf.txt"))

	idx, ok := c.NodeIndexForPath("/root/dir_b/nested/leaf.txt")
	require.True(t, ok)
	require.Equal(t, "/root/dir_b/nested/leaf.txt", c.Path(idx))
	_, ok = c.NodeIndexForPath("/root/dir_b")
	require.True(t, ok)
}

func TestScanPathRecursiveRejectsPathOutsideRoot(t *testing.T) {
	c, w := buildMergerFixture(t)
	err := ScanPathRecursive(c, w, "/elsewhere/file.txt")
	require.Error(t, err)
}
