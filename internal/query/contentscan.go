package query

import (
	"bytes"
	"fmt"
	"io"

	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/cache"
)

// contentBufferBytes is the chunk size used for content scans; a carry
// of needle length minus one is layered on top to catch matches that
// straddle a chunk boundary.
const contentBufferBytes = 64 * 1024

// contentMatches reports whether path's bytes contain needle. needle
// must already be lowercased by the caller when caseInsensitive is set.
// Returns (matched, ok) where ok is false on cancellation.
func contentMatches(c *cache.Cache, path string, needle []byte, caseInsensitive bool, tok cancel.Token) (bool, bool) {
	if tok.IsCancelled() {
		return false, false
	}
	f, err := c.FS.Open(path)
	if err != nil {
		return false, true
	}
	defer f.Close()

	overlap := len(needle) - 1
	if overlap < 0 {
		overlap = 0
	}
	buf := make([]byte, contentBufferBytes+overlap)
	carryLen := 0
	iterations := 0
	for {
		iterations++
		if cancel.ShouldCheck(iterations) && tok.IsCancelled() {
			return false, false
		}
		n, err := f.Read(buf[carryLen:])
		if n == 0 {
			if err != nil {
				break
			}
			continue
		}
		chunkLen := carryLen + n
		chunk := buf[:chunkLen]
		if caseInsensitive {
			lowerASCII(chunk[carryLen:])
		}
		if bytes.Contains(chunk, needle) {
			return true, true
		}
		keep := overlap
		if keep > chunkLen {
			keep = chunkLen
		}
		if keep > 0 {
			copy(buf[:keep], chunk[chunkLen-keep:])
		}
		carryLen = keep
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, true
		}
	}
	return false, true
}

func lowerASCII(b []byte) {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
}

// contentNeedle prepares the Content filter's search needle per spec
// §4.11: verbatim, or lowercased once when case-insensitive.
func contentNeedle(raw string, caseInsensitive bool) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("content: requires a value")
	}
	if caseInsensitive {
		lowered := make([]byte, len(raw))
		copy(lowered, raw)
		lowerASCII(lowered)
		return lowered, nil
	}
	return []byte(raw), nil
}
