package merger

import "testing"

func TestClassifyNoneFlagByKind(t *testing.T) {
	if got := Classify(RawEvent{Path: "/root/a", Flag: FlagNone}, "/root"); got != ScanSingleNode {
		t.Fatalf("got %v", got)
	}
	if got := Classify(RawEvent{Path: "/root/a", Flag: FlagNone | FlagItemIsDir}, "/root"); got != ScanFolder {
		t.Fatalf("got %v", got)
	}
}

func TestClassifyDropsAndMustScanAreReScan(t *testing.T) {
	cases := []EventFlag{FlagMustScanSubDirs, FlagUserDropped, FlagKernelDropped}
	for _, f := range cases {
		if got := Classify(RawEvent{Path: "/root/a", Flag: f}, "/root"); got != ScanReScan {
			t.Fatalf("flag %v: got %v", f, got)
		}
	}
}

func TestClassifyWrappedAndHistoryAreNop(t *testing.T) {
	if got := Classify(RawEvent{Path: "/root/a", Flag: FlagIDsWrapped}, "/root"); got != ScanNop {
		t.Fatalf("got %v", got)
	}
	if got := Classify(RawEvent{Path: "/root/a", Flag: FlagHistoryDone}, "/root"); got != ScanNop {
		t.Fatalf("got %v", got)
	}
}

func TestClassifyRootChangedAtWatchRootIsReScan(t *testing.T) {
	if got := Classify(RawEvent{Path: "/root", Flag: FlagRootChanged}, "/root"); got != ScanReScan {
		t.Fatalf("got %v", got)
	}
}

func TestClassifyCreatedIsSingleNodeEvenForDir(t *testing.T) {
	if got := Classify(RawEvent{Path: "/root/a", Flag: FlagItemCreated | FlagItemIsDir}, "/root"); got != ScanSingleNode {
		t.Fatalf("got %v", got)
	}
}

func TestClassifyRemovedDirIsFolder(t *testing.T) {
	if got := Classify(RawEvent{Path: "/root/a", Flag: FlagItemRemoved | FlagItemIsDir}, "/root"); got != ScanFolder {
		t.Fatalf("got %v", got)
	}
}

func TestClassifyRemovedFileIsSingleNode(t *testing.T) {
	if got := Classify(RawEvent{Path: "/root/a", Flag: FlagItemRemoved | FlagItemIsFile}, "/root"); got != ScanSingleNode {
		t.Fatalf("got %v", got)
	}
}
