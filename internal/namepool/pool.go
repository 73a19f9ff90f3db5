// Package namepool implements the append-only, NUL-framed byte arena
// that backs every raw filename scan (substring/prefix/suffix/exact/regex).
//
// Layout: a single byte slice beginning and ending with 0x00, names
// packed back to back as `\0 n1 \0 n2 \0 ... nk \0`. Push is the only
// mutation; the pool never shrinks and never rewrites existing bytes,
// so an offset returned by Push stays valid for the life of the pool.
package namepool

import (
	"bytes"
	"regexp"
	"runtime"
	"sort"

	"github.com/everyfind/everyfind/internal/cancel"
)

// Pool is safe for concurrent reads (scans) while being appended to:
// readers snapshot pool length up front and never read past it.
type Pool struct {
	buf []byte
}

// New returns an empty pool, already framed with its leading NUL.
func New() *Pool {
	return &Pool{buf: []byte{0}}
}

// Len returns the current size of the backing buffer in bytes.
func (p *Pool) Len() int {
	return len(p.buf)
}

// Push appends name's UTF-8 bytes followed by a NUL terminator and
// returns the offset of the first byte of the name.
func (p *Pool) Push(name string) int {
	start := len(p.buf)
	p.buf = append(p.buf, name...)
	p.buf = append(p.buf, 0)
	return start
}

// snapshot returns the live buffer. Since Push only appends, any slice
// taken here remains valid even if further pushes happen concurrently
// (Go slices referencing the old backing array stay intact; a new
// append may or may not reuse storage, but never mutates bytes already
// written before the snapshot).
func (p *Pool) snapshot() []byte {
	return p.buf
}

// Get returns the end offset (the frame's closing NUL) and the decoded
// name string for any byte position p0 that falls inside a frame.
func (p *Pool) Get(p0 int) (end int, name string) {
	buf := p.buf
	begin := 0
	if idx := bytes.LastIndexByte(buf[:p0], 0); idx >= 0 {
		begin = idx + 1
	}
	end = len(buf)
	if idx := bytes.IndexByte(buf[p0:], 0); idx >= 0 {
		end = p0 + idx
	}
	return end, string(buf[begin:end])
}

func getParallelism() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	if n > 32 {
		n = 32
	}
	return n
}

// dedupeFrames reports frames in pool order, reporting each frame at most
// once regardless of how many times needle occurs within it.
func dedupeFrames(buf []byte, hits []int, frameAt func(hit int) int, get func(int) (int, string)) []string {
	sort.Ints(hits)
	var out []string
	lastEnd := -1
	for _, h := range hits {
		fp := frameAt(h)
		if fp < lastEnd {
			continue
		}
		end, s := get(fp)
		out = append(out, s)
		lastEnd = end
	}
	return out
}

// SearchSubstring returns every distinct name containing needle.
func (p *Pool) SearchSubstring(needle string, tok cancel.Token) []string {
	if len(needle) == 0 {
		return nil
	}
	return p.parallelScan(needle, tok, scanSubstring)
}

// SearchPrefix returns every distinct name beginning with needle.
func (p *Pool) SearchPrefix(needle string, tok cancel.Token) []string {
	if len(needle) == 0 {
		return nil
	}
	return p.parallelScan(needle, tok, scanPrefix)
}

// SearchSuffix returns every distinct name ending with needle.
func (p *Pool) SearchSuffix(needle string, tok cancel.Token) []string {
	if len(needle) == 0 {
		return nil
	}
	return p.parallelScan(needle, tok, scanSuffix)
}

// SearchExact returns the (at most one logical, but names may repeat)
// occurrences of a name exactly equal to needle.
func (p *Pool) SearchExact(needle string, tok cancel.Token) []string {
	if len(needle) == 0 {
		return nil
	}
	return p.parallelScan(needle, tok, scanExact)
}

// SearchRegex iterates every frame linearly and tests it against re.
func (p *Pool) SearchRegex(re *regexp.Regexp, tok cancel.Token) []string {
	buf := p.snapshot()
	var out []string
	pos := 1 // skip leading NUL
	i := 0
	for pos < len(buf) {
		if cancel.ShouldCheck(i) && tok.IsCancelled() {
			return nil
		}
		i++
		end := bytes.IndexByte(buf[pos:], 0)
		if end < 0 {
			break
		}
		end += pos
		name := string(buf[pos:end])
		if re.MatchString(name) {
			out = append(out, name)
		}
		pos = end + 1
	}
	return out
}

// scanFunc selects the primitive relation a worker looks for. Each
// worker operates on its chunk widened by overlap bytes on both sides
// (see parallelScan) so a match straddling the chunk boundary is still
// found by whichever worker owns the chunk holding the hit offset.
type scanFunc func(chunk []byte, needle []byte) []int

func scanSubstring(chunk, needle []byte) []int {
	var hits []int
	pos := 0
	for {
		idx := bytes.Index(chunk[pos:], needle)
		if idx < 0 {
			break
		}
		hits = append(hits, pos+idx)
		pos += idx + 1
	}
	return hits
}

func scanPrefix(chunk, needle []byte) []int {
	// needle occurs immediately after a NUL: "\0" + needle
	pattern := make([]byte, 0, len(needle)+1)
	pattern = append(pattern, 0)
	pattern = append(pattern, needle...)
	var hits []int
	pos := 0
	for {
		idx := bytes.Index(chunk[pos:], pattern)
		if idx < 0 {
			break
		}
		// hit position is the start of the name (i.e. right after the NUL)
		hits = append(hits, pos+idx+1)
		pos += idx + 1
	}
	return hits
}

func scanSuffix(chunk, needle []byte) []int {
	pattern := make([]byte, 0, len(needle)+1)
	pattern = append(pattern, needle...)
	pattern = append(pattern, 0)
	var hits []int
	pos := 0
	for {
		idx := bytes.Index(chunk[pos:], pattern)
		if idx < 0 {
			break
		}
		hits = append(hits, pos+idx)
		pos += idx + 1
	}
	return hits
}

func scanExact(chunk, needle []byte) []int {
	pattern := make([]byte, 0, len(needle)+2)
	pattern = append(pattern, 0)
	pattern = append(pattern, needle...)
	pattern = append(pattern, 0)
	var hits []int
	pos := 0
	for {
		idx := bytes.Index(chunk[pos:], pattern)
		if idx < 0 {
			break
		}
		hits = append(hits, pos+idx+1)
		pos += idx + 1
	}
	return hits
}

// parallelScan splits the pool into chunks of max(1024, len/parallelism)
// bytes, each worker reading one byte before its chunk and
// len(needle)+1 bytes past chunk_end so boundary-straddling matches
// (including their framing NULs) are discoverable, then keeps only hits
// in [chunk_start, chunk_end) to guarantee exactly-once reporting.
func (p *Pool) parallelScan(needle string, tok cancel.Token, fn scanFunc) []string {
	buf := p.snapshot()
	n := len(buf)
	if n == 0 {
		return nil
	}
	needleBytes := []byte(needle)
	parallelism := getParallelism()
	chunkSize := n / parallelism
	if chunkSize < 1024 {
		chunkSize = 1024
	}
	if chunkSize > n {
		chunkSize = n
	}

	type workerResult struct {
		hits []int
		err  bool
	}

	var starts []int
	for s := 0; s < n; s += chunkSize {
		starts = append(starts, s)
	}

	results := make([]workerResult, len(starts))
	done := make(chan int, len(starts))
	for wi, s := range starts {
		go func(wi, start int) {
			chunkEnd := start + chunkSize
			if chunkEnd > n {
				chunkEnd = n
			}
			// Prefix/exact patterns carry a NUL before the needle and
			// suffix/exact patterns a NUL after it, so read one byte
			// before the chunk and len(needle)+1 bytes past it.
			readStart := start
			if readStart > 0 {
				readStart--
			}
			readEnd := chunkEnd + len(needleBytes) + 1
			if readEnd > n {
				readEnd = n
			}
			if tok.IsCancelled() {
				results[wi] = workerResult{err: true}
				done <- wi
				return
			}
			raw := fn(buf[readStart:readEnd], needleBytes)
			var hits []int
			for _, h := range raw {
				abs := readStart + h
				if abs >= start && abs < chunkEnd {
					hits = append(hits, abs)
				}
			}
			results[wi] = workerResult{hits: hits}
			done <- wi
		}(wi, s)
	}
	for range starts {
		<-done
	}

	var allHits []int
	for _, r := range results {
		if r.err {
			return nil
		}
		allHits = append(allHits, r.hits...)
	}
	if tok.IsCancelled() {
		return nil
	}

	frameAt := func(hit int) int { return hit }
	return dedupeFrames(buf, allHits, frameAt, p.Get)
}
