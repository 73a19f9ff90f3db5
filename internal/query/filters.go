package query

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/slab"
)

// EvaluateFilter dispatches one typed filter against candidates, per
// spec §4.11. ok is false iff tok was cancelled; err is non-nil for a
// filter-level failure (unsupported category, missing target, bad
// argument) that the caller should surface without mutating state.
func EvaluateFilter(c *cache.Cache, candidates []slab.Index, f Filter, opts SearchOptions, tok cancel.Token) ([]slab.Index, bool, error) {
	switch f.Kind {
	case KindFile:
		return filterByKind(c, candidates, f.Argument, opts, tok, false)
	case KindFolder:
		return filterByKind(c, candidates, f.Argument, opts, tok, true)
	case KindExt:
		return filterExt(c, candidates, f.Argument, tok)
	case KindType:
		return filterTypeCategory(c, candidates, f.Argument, tok)
	case KindAudio:
		return filterTypeMacro(c, candidates, "audio", tok)
	case KindVideo:
		return filterTypeMacro(c, candidates, "video", tok)
	case KindDoc:
		return filterTypeMacro(c, candidates, "doc", tok)
	case KindExe:
		return filterTypeMacro(c, candidates, "exe", tok)
	case KindParent:
		return filterParent(c, candidates, f.Argument, tok)
	case KindInFolder:
		return filterInFolder(c, candidates, f.Argument, tok)
	case KindNoSubfolders:
		return filterNoSubfolders(c, candidates, f.Argument, tok)
	case KindSize:
		return filterSize(c, candidates, f.Argument, tok)
	case KindDateModified:
		return filterDate(c, candidates, f.Argument, true, tok)
	case KindDateCreated:
		return filterDate(c, candidates, f.Argument, false, tok)
	case KindContent:
		return filterContent(c, candidates, f.Argument, opts, tok)
	default:
		return nil, true, fmt.Errorf("filter %v is recognized but not supported", f.Kind)
	}
}

func filterPredicate(c *cache.Cache, candidates []slab.Index, tok cancel.Token, keep func(idx slab.Index, n *slab.Node) bool) ([]slab.Index, bool, error) {
	out := make([]slab.Index, 0, len(candidates))
	for i, idx := range candidates {
		if cancel.ShouldCheck(i) && tok.IsCancelled() {
			return nil, false, nil
		}
		n := c.Slab.Get(idx)
		if n == nil {
			continue
		}
		if keep(idx, n) {
			out = append(out, idx)
		}
	}
	return out, true, nil
}

// filterByKind implements File/Folder, with an optional phrase
// refinement applied first.
func filterByKind(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, opts SearchOptions, tok cancel.Token, wantDir bool) ([]slab.Index, bool, error) {
	if arg != nil && arg.Raw != "" {
		matched, ok := EvaluateText(c, arg.Raw, opts, tok)
		if !ok {
			return nil, false, nil
		}
		matchSet := make(map[slab.Index]struct{}, len(matched))
		for _, idx := range matched {
			matchSet[idx] = struct{}{}
		}
		filtered := make([]slab.Index, 0, len(candidates))
		for _, idx := range candidates {
			if _, ok := matchSet[idx]; ok {
				filtered = append(filtered, idx)
			}
		}
		candidates = filtered
	}
	return filterPredicate(c, candidates, tok, func(_ slab.Index, n *slab.Node) bool {
		isDir := n.Meta.State == slab.MetaSome && n.Meta.FileType == slab.TypeDir
		return isDir == wantDir
	})
}

func filterExt(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, tok cancel.Token) ([]slab.Index, bool, error) {
	exts, err := extensionSet(arg)
	if err != nil {
		return nil, true, err
	}
	return filterPredicate(c, candidates, tok, func(_ slab.Index, n *slab.Node) bool {
		if n.Meta.State == slab.MetaSome && n.Meta.FileType == slab.TypeDir {
			return false
		}
		ext, ok := ExtensionOf(n.Name)
		if !ok {
			return false
		}
		_, ok = exts[ext]
		return ok
	})
}

func extensionSet(arg *FilterArgument) (map[string]struct{}, error) {
	if arg == nil {
		return nil, fmt.Errorf("ext: requires non-empty extensions")
	}
	var raw []string
	switch arg.Shape {
	case ShapeList:
		raw = arg.List
	default:
		raw = []string{arg.Raw}
	}
	set := make(map[string]struct{})
	for _, r := range raw {
		norm, ok := NormalizeExtension(r)
		if ok {
			set[norm] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("ext: requires non-empty extensions")
	}
	return set, nil
}

func filterTypeCategory(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, tok cancel.Token) ([]slab.Index, bool, error) {
	if arg == nil || arg.Raw == "" {
		return nil, true, fmt.Errorf("type: requires a category")
	}
	return applyTypeTarget(c, candidates, arg.Raw, tok)
}

func filterTypeMacro(c *cache.Cache, candidates []slab.Index, macro string, tok cancel.Token) ([]slab.Index, bool, error) {
	return applyTypeTarget(c, candidates, macro, tok)
}

func applyTypeTarget(c *cache.Cache, candidates []slab.Index, category string, tok cancel.Token) ([]slab.Index, bool, error) {
	target, ok := LookupTypeGroup(category)
	if !ok {
		return nil, true, fmt.Errorf("unknown type category: %s", category)
	}
	if target.IsNodeKind {
		return filterPredicate(c, candidates, tok, func(_ slab.Index, n *slab.Node) bool {
			isDir := n.Meta.State == slab.MetaSome && n.Meta.FileType == slab.TypeDir
			return isDir == target.IsDir
		})
	}
	set := make(map[string]struct{}, len(target.Extensions))
	for _, e := range target.Extensions {
		set[e] = struct{}{}
	}
	return filterPredicate(c, candidates, tok, func(_ slab.Index, n *slab.Node) bool {
		if n.Meta.State == slab.MetaSome && n.Meta.FileType == slab.TypeDir {
			return false
		}
		ext, ok := ExtensionOf(n.Name)
		if !ok {
			return false
		}
		_, ok = set[ext]
		return ok
	})
}

func filterParent(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, tok cancel.Token) ([]slab.Index, bool, error) {
	if arg == nil || arg.Raw == "" {
		return nil, true, fmt.Errorf("parent: requires a path")
	}
	folder, ok := c.NodeIndexForPath(arg.Raw)
	if !ok {
		return nil, true, fmt.Errorf("parent: no such folder: %s", arg.Raw)
	}
	n := c.Slab.Get(folder)
	children := make(map[slab.Index]struct{}, len(n.Children))
	for _, ch := range n.Children {
		children[ch] = struct{}{}
	}
	return filterPredicate(c, candidates, tok, func(idx slab.Index, _ *slab.Node) bool {
		_, ok := children[idx]
		return ok
	})
}

func filterInFolder(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, tok cancel.Token) ([]slab.Index, bool, error) {
	if arg == nil || arg.Raw == "" {
		return nil, true, fmt.Errorf("infolder: requires a path")
	}
	folder, ok := c.NodeIndexForPath(arg.Raw)
	if !ok {
		return nil, true, fmt.Errorf("infolder: no such folder: %s", arg.Raw)
	}
	descendants := map[slab.Index]struct{}{folder: {}}
	var stack []slab.Index
	stack = append(stack, folder)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := c.Slab.Get(cur)
		if n == nil {
			continue
		}
		for _, ch := range n.Children {
			if _, seen := descendants[ch]; !seen {
				descendants[ch] = struct{}{}
				stack = append(stack, ch)
			}
		}
	}
	return filterPredicate(c, candidates, tok, func(idx slab.Index, _ *slab.Node) bool {
		_, ok := descendants[idx]
		return ok
	})
}

func filterNoSubfolders(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, tok cancel.Token) ([]slab.Index, bool, error) {
	if arg == nil || arg.Raw == "" {
		return nil, true, fmt.Errorf("nosubfolders: requires a path")
	}
	folder, ok := c.NodeIndexForPath(arg.Raw)
	if !ok {
		return nil, true, fmt.Errorf("nosubfolders: no such folder: %s", arg.Raw)
	}
	n := c.Slab.Get(folder)
	allowed := map[slab.Index]struct{}{folder: {}}
	for _, ch := range n.Children {
		chNode := c.Slab.Get(ch)
		if chNode == nil {
			continue
		}
		if chNode.Meta.State == slab.MetaSome && chNode.Meta.FileType == slab.TypeDir {
			continue
		}
		allowed[ch] = struct{}{}
	}
	return filterPredicate(c, candidates, tok, func(idx slab.Index, _ *slab.Node) bool {
		_, ok := allowed[idx]
		return ok
	})
}

func filterSize(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, tok cancel.Token) ([]slab.Index, bool, error) {
	pred, err := buildSizePredicate(arg)
	if err != nil {
		return nil, true, err
	}
	out := make([]slab.Index, 0, len(candidates))
	for i, idx := range candidates {
		if cancel.ShouldCheck(i/4) && tok.IsCancelled() {
			return nil, false, nil
		}
		meta := c.EnsureMetadata(idx)
		if meta.State != slab.MetaSome || meta.FileType != slab.TypeFile {
			continue
		}
		if pred.matches(meta.Size) {
			out = append(out, idx)
		}
	}
	return out, true, nil
}

func filterDate(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, modified bool, tok cancel.Token) ([]slab.Index, bool, error) {
	pred, err := buildDatePredicate(arg, time.Now())
	if err != nil {
		return nil, true, err
	}
	out := make([]slab.Index, 0, len(candidates))
	for i, idx := range candidates {
		if cancel.ShouldCheck(i/4) && tok.IsCancelled() {
			return nil, false, nil
		}
		meta := c.EnsureMetadata(idx)
		if meta.State != slab.MetaSome {
			continue
		}
		var ts int64
		var has bool
		if modified {
			ts, has = meta.Mtime, meta.HasMtime
		} else {
			ts, has = meta.Ctime, meta.HasCtime
		}
		if !has {
			continue
		}
		if pred.matches(ts) {
			out = append(out, idx)
		}
	}
	return out, true, nil
}

func filterContent(c *cache.Cache, candidates []slab.Index, arg *FilterArgument, opts SearchOptions, tok cancel.Token) ([]slab.Index, bool, error) {
	if arg == nil {
		return nil, true, fmt.Errorf("content: requires a value")
	}
	needle, err := contentNeedle(arg.Raw, opts.CaseInsensitive)
	if err != nil {
		return nil, true, err
	}

	type job struct {
		idx  slab.Index
		path string
	}
	var jobs []job
	for _, idx := range candidates {
		n := c.Slab.Get(idx)
		if n == nil || n.Meta.State == slab.MetaSome && n.Meta.FileType == slab.TypeDir {
			continue
		}
		jobs = append(jobs, job{idx: idx, path: c.Path(idx)})
	}

	results := make([]bool, len(jobs))
	cancelled := false
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			matched, ok := contentMatches(c, j.path, needle, opts.CaseInsensitive, tok)
			if !ok {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				return
			}
			results[i] = matched
		}(i, j)
	}
	wg.Wait()
	if cancelled {
		return nil, false, nil
	}

	out := make([]slab.Index, 0, len(jobs))
	for i, j := range jobs {
		if results[i] {
			out = append(out, j.idx)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i] < out[k] })
	return out, true, nil
}
