package query

import (
	"sort"
	"strings"
)

// Highlights walks an expression collecting lowercased literal
// fragments usable to highlight matches in the UI (spec §4.14): the
// rightmost '/'-segment of a Word/Phrase, further split on '*'/'?' and
// trimmed; a Filter's argument text similarly (lists iterate values,
// ranges/comparisons contribute nothing); Regex contributes nothing.
// Result is an alphabetically sorted, deduplicated set.
func Highlights(e Expr) []string {
	set := make(map[string]struct{})
	collectHighlights(e, set)
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func collectHighlights(e Expr, set map[string]struct{}) {
	switch v := e.(type) {
	case Word:
		addFragments(v.Text, set)
	case Phrase:
		addFragments(v.Text, set)
	case FilterTerm:
		if v.Filter.Argument == nil {
			return
		}
		switch v.Filter.Argument.Shape {
		case ShapeList:
			for _, item := range v.Filter.Argument.List {
				addFragments(item, set)
			}
		case ShapeRange, ShapeComparison:
			// contribute nothing
		default:
			addFragments(v.Filter.Argument.Raw, set)
		}
	case Not:
		collectHighlights(v.Inner, set)
	case And:
		for _, op := range v.Operands {
			collectHighlights(op, set)
		}
	case Or:
		for _, op := range v.Operands {
			collectHighlights(op, set)
		}
	}
}

func addFragments(text string, set map[string]struct{}) {
	rightmost := text
	if idx := strings.LastIndexByte(text, '/'); idx >= 0 {
		rightmost = text[idx+1:]
	}
	for _, part := range splitGlob(rightmost) {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		set[strings.ToLower(trimmed)] = struct{}{}
	}
}

func splitGlob(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '*' || r == '?' })
}
