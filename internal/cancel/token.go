// Package cancel implements versioned cancellation: a process-global
// monotonic counter where minting a new token retires every older one.
package cancel

import "sync/atomic"

// latest holds the version of the most recently minted token. Any token
// whose version is older than latest is considered cancelled.
var latest uint64

// Token is a cheap, copyable cancellation handle. The zero value is not
// a valid Token; use New or Noop.
type Token struct {
	version uint64
	noop    bool
}

// New mints a fresh token and retires every token minted before it.
func New() Token {
	v := atomic.AddUint64(&latest, 1)
	return Token{version: v}
}

// Noop returns a token that never cancels. Useful for callers (tests,
// one-shot CLI invocations) that have no generation to race against.
func Noop() Token {
	return Token{noop: true}
}

// IsCancelled reports whether a newer token has since been minted.
func (t Token) IsCancelled() bool {
	if t.noop {
		return false
	}
	return atomic.LoadUint64(&latest) > t.version
}

// CANCEL_CHECK_INTERVAL-equivalent: the canonical polling interval used
// by every long-running scan/merge loop in this module.
const CheckInterval = 4096

// ShouldCheck reports whether the i'th iteration of a polling loop
// (0-indexed) should consult the token.
func ShouldCheck(i int) bool {
	return i%CheckInterval == 0
}
