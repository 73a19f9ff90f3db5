package query

import (
	"fmt"
	"regexp"
)

// compileRegex compiles a user-supplied `regex:` pattern, optionally
// folding in case-insensitivity. Invalid patterns surface the
// underlying message to the caller (spec §7).
func compileRegex(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}
