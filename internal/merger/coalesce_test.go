package merger

import (
	"reflect"
	"testing"
)

func TestScanPathsDropsDuplicates(t *testing.T) {
	got := ScanPaths([]string{"/root/a", "/root/a", "/root/a"})
	want := []string{"/root/a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanPathsSkipsPathUnderSelectedAncestor(t *testing.T) {
	got := ScanPaths([]string{"/root/a", "/root/a/b", "/root/a/b/c"})
	want := []string{"/root/a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanPathsKeepsSiblings(t *testing.T) {
	got := ScanPaths([]string{"/root/a", "/root/b"})
	want := []string{"/root/a", "/root/b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanPathsSelectsShallowerAncestorEvenIfSeenLater(t *testing.T) {
	got := ScanPaths([]string{"/root/a/b/c", "/root/a"})
	want := []string{"/root/a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanPathsDoesNotConfuseNamePrefixForAncestor(t *testing.T) {
	got := ScanPaths([]string{"/root/ab", "/root/a"})
	want := []string{"/root/a", "/root/ab"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
