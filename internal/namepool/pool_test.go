package namepool

import (
	"regexp"
	"sort"
	"testing"

	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/stretchr/testify/require"
)

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func TestPushAndGet(t *testing.T) {
	p := New()
	off := p.Push("hello")
	_, s := p.Get(off)
	require.Equal(t, "hello", s)
}

func TestPrimitiveScans(t *testing.T) {
	p := New()
	p.Push("file1.txt")
	p.Push("dir_a")
	p.Push("file2.txt")
	p.Push("readme.md")

	require.ElementsMatch(t, []string{"file1.txt", "file2.txt"}, p.SearchSubstring("file", cancel.Noop()))
	require.ElementsMatch(t, []string{"file1.txt", "file2.txt"}, p.SearchPrefix("file", cancel.Noop()))
	require.ElementsMatch(t, []string{"file1.txt", "file2.txt"}, p.SearchSuffix(".txt", cancel.Noop()))
	require.ElementsMatch(t, []string{"dir_a"}, p.SearchExact("dir_a", cancel.Noop()))
	require.Nil(t, p.SearchExact("nope", cancel.Noop()))
}

func TestSearchRegex(t *testing.T) {
	p := New()
	p.Push("abc123")
	p.Push("xyz")
	re := regexp.MustCompile(`\d+`)
	got := p.SearchRegex(re, cancel.Noop())
	require.Equal(t, []string{"abc123"}, got)
}

func TestNoDuplicateReportsPerFrame(t *testing.T) {
	p := New()
	p.Push("aaaa")
	got := p.SearchSubstring("a", cancel.Noop())
	require.Equal(t, []string{"aaaa"}, got)
}

func TestParallelMatchesSequentialAcrossChunking(t *testing.T) {
	p := New()
	names := make([]string, 0, 5000)
	for i := 0; i < 5000; i++ {
		n := "name_needle_" + string(rune('a'+i%26))
		p.Push(n)
		names = append(names, n)
	}
	got := p.SearchSubstring("needle", cancel.Noop())
	require.Equal(t, sortedStrings(uniq(names)), sortedStrings(uniq(got)))
}

func uniq(ss []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func TestBoundaryStraddlingMatch(t *testing.T) {
	p := New()
	// A long name whose needle occurrence would straddle a naive chunk
	// boundary if chunking ignored overlap.
	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'x'
	}
	copy(long[1400:], "NEEDLE")
	p.Push(string(long))
	p.Push("short")
	got := p.SearchSubstring("NEEDLE", cancel.Noop())
	require.Len(t, got, 1)
}

func TestCancellation(t *testing.T) {
	p := New()
	for i := 0; i < 100; i++ {
		p.Push("entry")
	}
	tok := cancel.New()
	cancel.New() // retires tok
	got := p.SearchSubstring("entry", tok)
	require.Nil(t, got)
}

func TestEmptyNeedle(t *testing.T) {
	p := New()
	p.Push("x")
	require.Nil(t, p.SearchSubstring("", cancel.Noop()))
}
