package query

import "testing"

func TestMatcherPlainExact(t *testing.T) {
	m := BuildMatcher(Segment{Kind: SegExact, Text: "file1.txt"}, false)
	if !m.Match("file1.txt") || m.Match("file1.txtx") {
		t.Fatal("exact match failed")
	}
}

func TestMatcherPlainPrefix(t *testing.T) {
	m := BuildMatcher(Segment{Kind: SegPrefix, Text: "file"}, false)
	if !m.Match("file1.txt") || m.Match("myfile.txt") {
		t.Fatal("prefix match failed")
	}
}

func TestMatcherGlob(t *testing.T) {
	m := BuildMatcher(Segment{Kind: SegSubstr, Text: "*.txt"}, false)
	if !m.Match("a.txt") || m.Match("a.md") {
		t.Fatal("glob match failed")
	}
}

func TestMatcherCaseInsensitive(t *testing.T) {
	m := BuildMatcher(Segment{Kind: SegExact, Text: "File1.TXT"}, true)
	if !m.Match("file1.txt") {
		t.Fatal("case-insensitive match failed")
	}
}
