package merger

import (
	"sort"
	"strings"
)

// pathDepth counts '/'-delimited segments of an absolute path; only the
// filesystem root "/" has depth 0.
func pathDepth(p string) int {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

// isAncestorOrSelf reports whether ancestor is p itself or a path
// prefix of p on a segment boundary.
func isAncestorOrSelf(ancestor, p string) bool {
	if ancestor == p {
		return true
	}
	prefix := strings.TrimSuffix(ancestor, "/") + "/"
	return strings.HasPrefix(p, prefix)
}

// ScanPaths implements spec §4.12's scan_paths coalescing: sort by
// depth then lexicographic order, drop exact duplicates, then keep a
// path only if no already-selected path is an ancestor of (or equal
// to) it.
func ScanPaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	sorted := append([]string(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := pathDepth(sorted[i]), pathDepth(sorted[j])
		if di != dj {
			return di < dj
		}
		return sorted[i] < sorted[j]
	})

	var selected []string
	var lastSeen string
	first := true
	for _, p := range sorted {
		if !first && p == lastSeen {
			continue
		}
		first = false
		lastSeen = p

		covered := false
		for _, s := range selected {
			if isAncestorOrSelf(s, p) {
				covered = true
				break
			}
		}
		if !covered {
			selected = append(selected, p)
		}
	}
	return selected
}
