// Package logging provides the component-prefixed stdlib loggers used
// across the daemon. The teacher's own code (cmd/mount.go,
// internal/graph, internal/ingest) never reaches for a structured
// logging library anywhere in the pack; every diagnostic is a bare
// log.Printf("component: message", ...) call. This package keeps that
// idiom but gives each component its own *log.Logger with a fixed
// prefix, so call sites stop hand-writing the "component: " prefix on
// every line.
package logging

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu        sync.Mutex
	discarded bool
	loggers   []*log.Logger
)

// New returns a logger prefixed with component, formatted the way the
// teacher's log.Printf call sites already are: "component: message".
// Component loggers are typically package-level vars, created well
// before a -quiet flag is parsed, so New registers each one and
// Discard reaches back into every logger it already handed out.
func New(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	out := io.Writer(os.Stderr)
	if discarded {
		out = io.Discard
	}
	l := log.New(out, component+": ", log.LstdFlags)
	loggers = append(loggers, l)
	return l
}

// Discard silences every logger New has returned so far, and any it
// returns afterward. Mirrors cmd/mount.go's -quiet handling, which
// redirects output to /dev/null rather than gating each call site
// individually.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	discarded = true
	for _, l := range loggers {
		l.SetOutput(io.Discard)
	}
}
