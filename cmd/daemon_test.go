package cmd

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withIsolatedTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old := os.Getenv("TMPDIR")
	require.NoError(t, os.Setenv("TMPDIR", dir))
	t.Cleanup(func() { _ = os.Setenv("TMPDIR", old) })
}

func TestSaveAndListWatchMetadataRoundTrips(t *testing.T) {
	withIsolatedTempDir(t)

	meta := &WatchMetadata{
		PID:       os.Getpid(),
		WatchRoot: "/data/project",
		Timestamp: time.Now(),
	}
	require.NoError(t, saveWatchMetadata(meta))

	watches, err := listActiveWatches()
	require.NoError(t, err)
	require.Len(t, watches, 1)
	require.Equal(t, "/data/project", watches[0].WatchRoot)
}

func TestRemoveWatchMetadataIsIdempotent(t *testing.T) {
	withIsolatedTempDir(t)

	require.NoError(t, removeWatchMetadata("/never/saved"))

	meta := &WatchMetadata{PID: os.Getpid(), WatchRoot: "/data/project", Timestamp: time.Now()}
	require.NoError(t, saveWatchMetadata(meta))
	require.NoError(t, removeWatchMetadata("/data/project"))
	require.NoError(t, removeWatchMetadata("/data/project"))

	watches, err := listActiveWatches()
	require.NoError(t, err)
	require.Empty(t, watches)
}

func TestIsProcessRunningReflectsCurrentProcess(t *testing.T) {
	require.True(t, isProcessRunning(os.Getpid()))
}

func TestListActiveWatchesReportsMultipleRoots(t *testing.T) {
	withIsolatedTempDir(t)

	require.NoError(t, saveWatchMetadata(&WatchMetadata{PID: os.Getpid(), WatchRoot: "/a", Timestamp: time.Now()}))
	require.NoError(t, saveWatchMetadata(&WatchMetadata{PID: os.Getpid(), WatchRoot: "/b", Timestamp: time.Now()}))

	watches, err := listActiveWatches()
	require.NoError(t, err)
	require.Len(t, watches, 2)
}
