package merger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleFSEventsAppliesSingleNodeEvents(t *testing.T) {
	c, w := buildMergerFixture(t)
	f, err := c.FS.Create("/root/dir_a/fresh.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = HandleFSEvents(c, w, []RawEvent{
		{Path: "/root/dir_a/fresh.txt", Flag: FlagItemCreated, ID: 7},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(7), c.LastEventID)

	idx, ok := c.NodeIndexForPath("/root/dir_a/fresh.txt")
	require.True(t, ok)
	require.Equal(t, "/root/dir_a/fresh.txt", c.Path(idx))
}

func TestHandleFSEventsReturnsRescanRequiredWithoutMutating(t *testing.T) {
	c, w := buildMergerFixture(t)
	before := c.LastEventID

	err := HandleFSEvents(c, w, []RawEvent{
		{Path: "/root/dir_a", Flag: FlagMustScanSubDirs, ID: 99},
	})
	require.ErrorIs(t, err, ErrRescanRequired)
	require.Equal(t, before, c.LastEventID)
}

func TestHandleFSEventsIgnoresNopEvents(t *testing.T) {
	c, w := buildMergerFixture(t)
	err := HandleFSEvents(c, w, []RawEvent{
		{Path: "/root", Flag: FlagHistoryDone, ID: 3},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(3), c.LastEventID)
}

func TestFullRescanRebuildsFromScratch(t *testing.T) {
	c, w := buildMergerFixture(t)
	f, err := c.FS.Create("/root/dir_a/added.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fresh, err := FullRescan(c, w)
	require.NoError(t, err)
	_, ok := fresh.NodeIndexForPath("/root/dir_a/added.txt")
	require.True(t, ok)
}
