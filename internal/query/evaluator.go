package query

import (
	"sort"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/slab"
)

// Evaluate runs an optimized query against c and returns the ordered,
// deduplicated candidate set. ok is false iff tok was cancelled mid-way
// (spec §4.10's `None`); a nil/empty result with ok true and err nil
// means no matches. err is non-nil for an unknown filter category, a
// missing argument, a non-existent parent/infolder/nosubfolders target,
// an unsupported filter, or an invalid regex — callers must surface it
// rather than treat it as zero results.
func Evaluate(q *Query, c *cache.Cache, opts SearchOptions, tok cancel.Token) ([]slab.Index, bool, error) {
	st := &evalState{c: c, opts: opts, tok: tok}
	return st.eval(q.Expr)
}

// EvaluateText runs the Word/Phrase matching rule over the whole
// universe; used by the evaluator for bare Word/Phrase terms and by the
// File/Folder filter's "argument as phrase" refinement.
func EvaluateText(c *cache.Cache, text string, opts SearchOptions, tok cancel.Token) ([]slab.Index, bool) {
	st := &evalState{c: c, opts: opts, tok: tok}
	return st.evalText(text)
}

type evalState struct {
	c    *cache.Cache
	opts SearchOptions
	tok  cancel.Token
}

func (st *evalState) eval(e Expr) ([]slab.Index, bool, error) {
	switch v := e.(type) {
	case Empty:
		res, ok := st.universe()
		return res, ok, nil
	case Word:
		res, ok := st.evalText(v.Text)
		return res, ok, nil
	case Phrase:
		res, ok := st.evalText(v.Text)
		return res, ok, nil
	case Regex:
		return st.evalRegexTerm(v.Pattern)
	case FilterTerm:
		base, ok := st.universe()
		if !ok {
			return nil, false, nil
		}
		result, _, err := EvaluateFilter(st.c, base, v.Filter, st.opts, st.tok)
		if err != nil {
			return nil, true, err
		}
		return result, true, nil
	case Not:
		base, ok := st.universe()
		if !ok {
			return nil, false, nil
		}
		inner, ok2, err := st.eval(v.Inner)
		if err != nil {
			return nil, true, err
		}
		if !ok2 {
			return nil, false, nil
		}
		res, ok3 := st.difference(base, inner)
		return res, ok3, nil
	case And:
		return st.evalAnd(v.Operands)
	case Or:
		return st.evalOr(v.Operands)
	default:
		return nil, true, nil
	}
}

func (st *evalState) universe() ([]slab.Index, bool) {
	if st.tok.IsCancelled() {
		return nil, false
	}
	all := st.c.Index.AllIndices()
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all, true
}

// evalAnd folds left-to-right: filters refine the accumulator, Not
// subtracts, everything else intersects.
func (st *evalState) evalAnd(operands []Expr) ([]slab.Index, bool, error) {
	var acc []slab.Index
	haveAcc := false
	for _, op := range operands {
		if st.tok.IsCancelled() {
			return nil, false, nil
		}
		if ft, isFilter := op.(FilterTerm); isFilter {
			if !haveAcc {
				u, ok := st.universe()
				if !ok {
					return nil, false, nil
				}
				acc, haveAcc = u, true
			}
			result, _, err := EvaluateFilter(st.c, acc, ft.Filter, st.opts, st.tok)
			if err != nil {
				return nil, true, err
			}
			acc = result
			continue
		}
		if not, isNot := op.(Not); isNot {
			if !haveAcc {
				u, ok := st.universe()
				if !ok {
					return nil, false, nil
				}
				acc, haveAcc = u, true
			}
			inner, ok, err := st.eval(not.Inner)
			if err != nil {
				return nil, true, err
			}
			if !ok {
				return nil, false, nil
			}
			d, ok2 := st.difference(acc, inner)
			if !ok2 {
				return nil, false, nil
			}
			acc = d
			continue
		}
		res, ok, err := st.eval(op)
		if err != nil {
			return nil, true, err
		}
		if !ok {
			return nil, false, nil
		}
		if !haveAcc {
			acc, haveAcc = res, true
			continue
		}
		i, ok2 := st.intersect(acc, res)
		if !ok2 {
			return nil, false, nil
		}
		acc = i
	}
	if !haveAcc {
		res, ok := st.universe()
		return res, ok, nil
	}
	return acc, true, nil
}

func (st *evalState) evalOr(operands []Expr) ([]slab.Index, bool, error) {
	var out []slab.Index
	seen := make(map[slab.Index]struct{})
	for _, op := range operands {
		res, ok, err := st.eval(op)
		if err != nil {
			return nil, true, err
		}
		if !ok {
			return nil, false, nil
		}
		for _, idx := range res {
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}
	return out, true, nil
}

func (st *evalState) intersect(lhs, rhs []slab.Index) ([]slab.Index, bool) {
	if len(lhs) == 0 {
		return lhs, true
	}
	rhsSet := make(map[slab.Index]struct{}, len(rhs))
	for _, idx := range rhs {
		rhsSet[idx] = struct{}{}
	}
	out := make([]slab.Index, 0, len(lhs))
	for i, idx := range lhs {
		if cancel.ShouldCheck(i) && st.tok.IsCancelled() {
			return nil, false
		}
		if _, ok := rhsSet[idx]; ok {
			out = append(out, idx)
		}
	}
	return out, true
}

func (st *evalState) difference(lhs, rhs []slab.Index) ([]slab.Index, bool) {
	if len(lhs) == 0 || len(rhs) == 0 {
		return lhs, true
	}
	rhsSet := make(map[slab.Index]struct{}, len(rhs))
	for _, idx := range rhs {
		rhsSet[idx] = struct{}{}
	}
	out := make([]slab.Index, 0, len(lhs))
	for i, idx := range lhs {
		if cancel.ShouldCheck(i) && st.tok.IsCancelled() {
			return nil, false
		}
		if _, ok := rhsSet[idx]; !ok {
			out = append(out, idx)
		}
	}
	return out, true
}

// evalText implements the Word/Phrase evaluation rule of spec §4.10: the
// first segment enumerates names from the pool and expands via the name
// index (multi-node names ordered by path); later segments restrict to
// matching children, ordered by name.
func (st *evalState) evalText(text string) ([]slab.Index, bool) {
	segs, ok := SplitSegments(text)
	if !ok || len(segs) == 0 {
		return nil, true
	}
	matchers := make([]*Matcher, len(segs))
	for i, seg := range segs {
		matchers[i] = BuildMatcher(seg, st.opts.CaseInsensitive)
	}

	names, ok := st.enumerateNames(matchers[0])
	if !ok {
		return nil, false
	}

	var result []slab.Index
	for _, name := range names {
		idxs, found := st.c.Index.Get(name)
		if !found {
			continue
		}
		if len(idxs) > 1 {
			sorted := append([]slab.Index(nil), idxs...)
			sort.Slice(sorted, func(i, j int) bool {
				return st.c.Path(sorted[i]) < st.c.Path(sorted[j])
			})
			result = append(result, sorted...)
		} else {
			result = append(result, idxs...)
		}
	}

	for _, m := range matchers[1:] {
		if st.tok.IsCancelled() {
			return nil, false
		}
		var next []slab.Index
		for _, idx := range result {
			n := st.c.Slab.Get(idx)
			if n == nil {
				continue
			}
			children := append([]slab.Index(nil), n.Children...)
			sort.Slice(children, func(i, j int) bool {
				ci, cj := st.c.Slab.Get(children[i]), st.c.Slab.Get(children[j])
				return ci.Name < cj.Name
			})
			for _, chIdx := range children {
				ch := st.c.Slab.Get(chIdx)
				if ch != nil && m.Match(ch.Name) {
					next = append(next, chIdx)
				}
			}
		}
		result = next
	}
	return result, true
}

func (st *evalState) evalRegexTerm(pattern string) ([]slab.Index, bool, error) {
	re, err := compileRegex(pattern, st.opts.CaseInsensitive)
	if err != nil {
		return nil, true, err
	}
	res, ok := st.enumerateNamesAndExpand(&Matcher{Kind: SegSubstr, Re: re})
	return res, ok, nil
}

func (st *evalState) enumerateNamesAndExpand(m *Matcher) ([]slab.Index, bool) {
	names, ok := st.enumerateNames(m)
	if !ok {
		return nil, false
	}
	var result []slab.Index
	for _, name := range names {
		idxs, found := st.c.Index.Get(name)
		if !found {
			continue
		}
		if len(idxs) > 1 {
			sorted := append([]slab.Index(nil), idxs...)
			sort.Slice(sorted, func(i, j int) bool {
				return st.c.Path(sorted[i]) < st.c.Path(sorted[j])
			})
			result = append(result, sorted...)
		} else {
			result = append(result, idxs...)
		}
	}
	return result, true
}

func (st *evalState) enumerateNames(m *Matcher) ([]string, bool) {
	if m.Re != nil {
		names := st.c.Pool.SearchRegex(m.Re, st.tok)
		if names == nil && st.tok.IsCancelled() {
			return nil, false
		}
		return names, true
	}
	var names []string
	switch m.Kind {
	case SegPrefix:
		names = st.c.Pool.SearchPrefix(m.Plain, st.tok)
	case SegSuffix:
		names = st.c.Pool.SearchSuffix(m.Plain, st.tok)
	case SegExact:
		names = st.c.Pool.SearchExact(m.Plain, st.tok)
	default:
		names = st.c.Pool.SearchSubstring(m.Plain, st.tok)
	}
	if names == nil && st.tok.IsCancelled() {
		return nil, false
	}
	return names, true
}
