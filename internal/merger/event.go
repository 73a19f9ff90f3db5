// Package merger implements the event merger: classification of raw
// file-system events into scan actions, path coalescing, and the
// incremental-rescan / full-rescan operations that keep a cache.Cache
// in sync with the watch root. Grounded on
// original_source/cardinal-sdk/src/fsevent/event_flag.rs for the
// flag-bitset classification rules and on the teacher's
// internal/graph.MemoryStore.DeleteFileNodes/ShiftOrigins for the
// "mutate the in-memory index in place" idiom.
package merger

// EventFlag is a bitset describing one raw file-system event, modeled
// after the FSEvents/inotify flag union spec §4.12 classifies against.
// Not every bit maps to a real fsnotify op: the watch package sets only
// ItemCreated/ItemRemoved/ItemRenamed/ItemModified plus ItemIsDir or
// ItemIsFile, and reports watcher failures on its Stale channel.
// RootChanged/HistoryDone/IDsWrapped/MustScanSubDirs/UserDropped/
// KernelDropped are classified here for any source that sets them.
type EventFlag uint32

const (
	FlagNone EventFlag = 0

	FlagMustScanSubDirs EventFlag = 1 << iota
	FlagUserDropped
	FlagKernelDropped
	FlagIDsWrapped
	FlagHistoryDone
	FlagRootChanged
	FlagItemCreated
	FlagItemRemoved
	FlagItemRenamed
	FlagItemModified
	FlagItemIsDir
	FlagItemIsFile
	FlagItemIsSymlink
)

func (f EventFlag) has(bit EventFlag) bool { return f&bit != 0 }

// RawEvent is one file-system change, tagged with a monotonically
// increasing id per spec §4.12.
type RawEvent struct {
	Path string
	Flag EventFlag
	ID   uint64
}

// ScanType is the action a single event demands.
type ScanType int

const (
	ScanSingleNode ScanType = iota
	ScanFolder
	ScanReScan
	ScanNop
)

// Classify maps one event's flags to a ScanType per spec §4.12. watchRoot
// is compared against ev.Path to detect a root-changed event.
func Classify(ev RawEvent, watchRoot string) ScanType {
	isDir := ev.Flag.has(FlagItemIsDir)

	switch {
	case ev.Flag == FlagNone:
		if isDir {
			return ScanFolder
		}
		return ScanSingleNode
	case ev.Flag.has(FlagMustScanSubDirs), ev.Flag.has(FlagUserDropped), ev.Flag.has(FlagKernelDropped):
		return ScanReScan
	case ev.Flag.has(FlagIDsWrapped), ev.Flag.has(FlagHistoryDone):
		return ScanNop
	case ev.Flag.has(FlagRootChanged) && ev.Path == watchRoot:
		return ScanReScan
	case ev.Flag.has(FlagItemCreated):
		return ScanSingleNode
	case ev.Flag.has(FlagItemRemoved):
		if isDir {
			return ScanFolder
		}
		return ScanSingleNode
	case ev.Flag.has(FlagItemRenamed), ev.Flag.has(FlagItemModified):
		if isDir {
			return ScanFolder
		}
		return ScanSingleNode
	default:
		if isDir {
			return ScanFolder
		}
		return ScanSingleNode
	}
}
