// Package loop implements the background loop thread: the single owner
// of the cache, multiplexing search, expand, rescan, and shutdown
// requests against the watcher's event stream. Grounded on spec.md §5's
// channel-multiplexer description and on the teacher's cmd/mount.go
// hot-swap watcher goroutine plus internal/graph.HotSwapGraph's
// mutex-guarded current-pointer swap -- adapted here to a single
// goroutine that owns the cache outright, so no lock is needed at all:
// every request arrives over a channel and is serviced one at a time.
package loop

import (
	"github.com/everyfind/everyfind/internal/cache"
	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/everyfind/everyfind/internal/logging"
	"github.com/everyfind/everyfind/internal/merger"
	"github.com/everyfind/everyfind/internal/query"
	"github.com/everyfind/everyfind/internal/slab"
	"github.com/everyfind/everyfind/internal/walker"
	"github.com/everyfind/everyfind/internal/watch"
)

var logger = logging.New("loop")

// SearchRequest asks the loop to evaluate a query string against the
// current cache.
type SearchRequest struct {
	Text    string
	Options query.SearchOptions
	Token   cancel.Token
	Reply   chan SearchOutcome
}

// SearchOutcome is the reply to a SearchRequest. Cancelled is true when
// the token was cancelled (spec §6's `nodes: None`); Nodes is then nil,
// as it is when Err is set or when nothing matched.
type SearchOutcome struct {
	Nodes      []slab.Index
	Cancelled  bool
	Highlights []string
	Err        error
}

// ExpandRequest asks the loop to resolve indices into display records.
type ExpandRequest struct {
	Indices   []slab.Index
	FetchMeta bool
	Reply     chan []cache.Record
}

// RescanRequest schedules a full rescan; Reply is optional (nil is a
// fire-and-forget request).
type RescanRequest struct {
	Reply chan error
}

// ShutdownRequest asks the loop to stop and hand the cache to the
// caller for snapshotting (spec §5's one-shot "finish" channel).
type ShutdownRequest struct {
	Reply chan *cache.Cache
}

// SnapshotRequest asks for the loop's current cache, without stopping
// it. Safe because fullRescan always replaces l.cache wholesale rather
// than mutating it in place: once handed out, a snapshot is never
// written to again, even though the loop may later swap in a fresher
// one. Used to give fuseview a stable tree to read.
type SnapshotRequest struct {
	Reply chan *cache.Cache
}

// Loop owns the cache and the watcher for as long as it runs. Every
// field it touches directly is only ever touched from the Run
// goroutine; all outside access happens through the request channels.
type Loop struct {
	cache  *cache.Cache
	walker *walker.Walker
	source *watch.Source

	Search   chan SearchRequest
	Expand   chan ExpandRequest
	Rescan   chan RescanRequest
	Shutdown chan ShutdownRequest
	Snapshot chan SnapshotRequest
}

// New constructs a Loop over an already-built cache. source may be nil
// if no OS watcher is attached (e.g. a one-shot index build).
func New(c *cache.Cache, w *walker.Walker, source *watch.Source) *Loop {
	return &Loop{
		cache:    c,
		walker:   w,
		source:   source,
		Search:   make(chan SearchRequest),
		Expand:   make(chan ExpandRequest),
		Rescan:   make(chan RescanRequest, 1),
		Shutdown: make(chan ShutdownRequest),
		Snapshot: make(chan SnapshotRequest),
	}
}

// Run services requests until a ShutdownRequest arrives. It is meant to
// be the body of the background loop's goroutine; call it with go
// l.Run().
func (l *Loop) Run() {
	var batches <-chan []merger.RawEvent
	var stale <-chan struct{}
	if l.source != nil {
		batches = l.source.Batches()
		stale = l.source.Stale()
	}

	for {
		select {
		case req := <-l.Search:
			l.handleSearch(req)

		case req := <-l.Expand:
			req.Reply <- l.cache.Expand(req.Indices, req.FetchMeta)

		case req := <-l.Rescan:
			err := l.fullRescan()
			if req.Reply != nil {
				req.Reply <- err
			}

		case req := <-l.Shutdown:
			req.Reply <- l.cache
			return

		case req := <-l.Snapshot:
			req.Reply <- l.cache

		case evts := <-batches:
			if err := merger.HandleFSEvents(l.cache, l.walker, evts); err != nil {
				logger.Printf("%v; falling back to full rescan", err)
				if rerr := l.fullRescan(); rerr != nil {
					logger.Printf("full rescan after merge failure failed: %v", rerr)
				}
			}

		case <-stale:
			logger.Printf("watcher reported stale, running full rescan")
			if err := l.fullRescan(); err != nil {
				logger.Printf("full rescan after stale watcher failed: %v", err)
			}
		}
	}
}

func (l *Loop) handleSearch(req SearchRequest) {
	q, err := query.Parse(req.Text)
	if err != nil {
		req.Reply <- SearchOutcome{Err: err}
		return
	}
	q = query.Optimize(q)
	nodes, ok, err := query.Evaluate(q, l.cache, req.Options, req.Token)
	if err != nil {
		req.Reply <- SearchOutcome{Err: err}
		return
	}
	if !ok {
		req.Reply <- SearchOutcome{Cancelled: true}
		return
	}
	req.Reply <- SearchOutcome{Nodes: nodes, Highlights: query.Highlights(q.Expr)}
}

// fullRescan rebuilds the cache from scratch and swaps it in. Because
// the loop is the cache's sole owner and the swap happens synchronously
// within this goroutine, no lock or atomic pointer is needed: no other
// goroutine ever observes a partially-built cache.
func (l *Loop) fullRescan() error {
	fresh, err := merger.FullRescan(l.cache, l.walker)
	if err != nil {
		return err
	}
	l.cache = fresh
	return nil
}
