package query

import (
	"regexp"
	"strings"
)

// Matcher decides whether a single path segment matches a term, per
// spec §4.9. Exactly one of Plain or Regex is populated.
type Matcher struct {
	Kind  SegmentKind
	Plain string // set when the term has no glob metacharacters and is case-sensitive
	Re    *regexp.Regexp
}

// BuildMatcher compiles one Segment into a Matcher. caseInsensitive
// mirrors the `case:` filter / "Match case" toggle.
func BuildMatcher(seg Segment, caseInsensitive bool) *Matcher {
	if strings.ContainsAny(seg.Text, "*?") {
		pattern := anchorPattern(globToRegex(seg.Text), seg.Kind)
		if caseInsensitive {
			pattern = "(?i)" + pattern
		}
		return &Matcher{Kind: seg.Kind, Re: regexp.MustCompile(pattern)}
	}

	if caseInsensitive {
		pattern := anchorPattern(regexp.QuoteMeta(seg.Text), seg.Kind)
		return &Matcher{Kind: seg.Kind, Re: regexp.MustCompile("(?i)" + pattern)}
	}

	return &Matcher{Kind: seg.Kind, Plain: seg.Text}
}

// Match reports whether name satisfies m.
func (m *Matcher) Match(name string) bool {
	if m.Re != nil {
		return m.Re.MatchString(name)
	}
	switch m.Kind {
	case SegExact:
		return name == m.Plain
	case SegPrefix:
		return strings.HasPrefix(name, m.Plain)
	case SegSuffix:
		return strings.HasSuffix(name, m.Plain)
	default:
		return strings.Contains(name, m.Plain)
	}
}

// globToRegex translates '*' -> ".*", '?' -> ".", and escapes everything
// else literally.
func globToRegex(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// anchorPattern wraps a body pattern with ^/$ anchors according to the
// segment kind: Exact anchors both ends, Prefix anchors the start only,
// Suffix the end only, Substr neither.
func anchorPattern(body string, kind SegmentKind) string {
	switch kind {
	case SegExact:
		return "^(?:" + body + ")$"
	case SegPrefix:
		return "^(?:" + body + ")"
	case SegSuffix:
		return "(?:" + body + ")$"
	default:
		return body
	}
}
