// Package watch implements the OS-level raw event source: an
// fsnotify-backed recursive directory watcher that translates
// create/write/remove/rename notifications into merger.RawEvent
// batches. Grounded on Yakitrak-obsidian-cli's pkg/cache.Service
// watchLoop (Watcher interface wrapping *fsnotify.Watcher for
// testability, addWatch-on-create for new directories, stale-on-
// channel-close handling).
package watch

import (
	"os"
	"sync"
	"time"

	"github.com/everyfind/everyfind/internal/logging"
	"github.com/everyfind/everyfind/internal/merger"
	"github.com/fsnotify/fsnotify"
)

var logger = logging.New("watch")

// Watcher is the subset of *fsnotify.Watcher this package depends on,
// so tests can substitute a fake.
type Watcher interface {
	Events() <-chan fsnotify.Event
	Errors() <-chan error
	Add(path string) error
	Close() error
}

type fsNotifyWatcher struct{ *fsnotify.Watcher }

func (f *fsNotifyWatcher) Events() <-chan fsnotify.Event { return f.Watcher.Events }
func (f *fsNotifyWatcher) Errors() <-chan error          { return f.Watcher.Errors }

// NewOSWatcher wraps a real fsnotify.Watcher.
func NewOSWatcher() (Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsNotifyWatcher{Watcher: w}, nil
}

// Source watches a directory tree and emits coalesced RawEvent batches
// on Batches(). A batch is flushed after quiet period has elapsed with
// no further events, bounding both latency and event-storm overhead.
type Source struct {
	watcher     Watcher
	root        string
	quiet       time.Duration
	batches     chan []merger.RawEvent
	stale       chan struct{}
	done        chan struct{}
	nextEventID uint64

	mu      sync.Mutex
	watched map[string]struct{}
}

// Options configures a Source.
type Options struct {
	// QuietPeriod is how long to wait after the last observed event
	// before flushing the accumulated batch. Zero selects a default.
	QuietPeriod time.Duration
}

// NewSource starts watching root (recursively) using w, returning a
// Source whose Batches channel receives coalesced event groups.
func NewSource(w Watcher, root string, opts Options) (*Source, error) {
	quiet := opts.QuietPeriod
	if quiet <= 0 {
		quiet = 200 * time.Millisecond
	}
	s := &Source{
		watcher: w,
		root:    root,
		quiet:   quiet,
		batches: make(chan []merger.RawEvent, 16),
		stale:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		watched: make(map[string]struct{}),
	}
	if err := s.addTreeWatches(root); err != nil {
		return nil, err
	}
	go s.loop()
	return s, nil
}

// Batches receives coalesced RawEvent groups as they are flushed.
func (s *Source) Batches() <-chan []merger.RawEvent { return s.batches }

// Stale receives a signal whenever the watcher itself fails and the
// caller should fall back to a full rescan (spec §4.12's root-changed
// handling has no local analogue here; watcher death is the nearest
// OS-level equivalent).
func (s *Source) Stale() <-chan struct{} { return s.stale }

// Close stops the watch loop and the underlying watcher.
func (s *Source) Close() error {
	close(s.done)
	return s.watcher.Close()
}

func (s *Source) addTreeWatches(root string) error {
	if err := s.addWatch(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = s.addTreeWatches(root + "/" + e.Name())
		}
	}
	return nil
}

func (s *Source) addWatch(path string) error {
	s.mu.Lock()
	if _, ok := s.watched[path]; ok {
		s.mu.Unlock()
		return nil
	}
	s.watched[path] = struct{}{}
	s.mu.Unlock()
	return s.watcher.Add(path)
}

func (s *Source) dropWatch(path string) {
	s.mu.Lock()
	delete(s.watched, path)
	s.mu.Unlock()
}

// loop translates fsnotify events into RawEvents, coalescing everything
// observed within a quiet period into one batch.
func (s *Source) loop() {
	var pending []merger.RawEvent
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = nil
		select {
		case s.batches <- batch:
		case <-s.done:
		}
	}

	for {
		select {
		case <-s.done:
			return
		case evt, ok := <-s.watcher.Events():
			if !ok {
				flush()
				s.signalStale()
				return
			}
			pending = append(pending, s.toRawEvent(evt))
			if evt.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					_ = s.addWatch(evt.Name)
					_ = s.addTreeWatches(evt.Name)
				}
			}
			if evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				s.dropWatch(evt.Name)
			}
			if timer == nil {
				timer = time.NewTimer(s.quiet)
			} else {
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(s.quiet)
			}
			timerC = timer.C
		case <-timerC:
			timer = nil // fired and drained; the next event starts a new timer
			flush()
		case err, ok := <-s.watcher.Errors():
			if !ok {
				flush()
				s.signalStale()
				return
			}
			logger.Printf("fsnotify error: %v", err)
			s.signalStale()
		}
	}
}

func (s *Source) signalStale() {
	select {
	case s.stale <- struct{}{}:
	default:
	}
}

func (s *Source) toRawEvent(evt fsnotify.Event) merger.RawEvent {
	s.nextEventID++
	var flag merger.EventFlag
	switch {
	case evt.Op&fsnotify.Create == fsnotify.Create:
		flag |= merger.FlagItemCreated
	case evt.Op&fsnotify.Remove == fsnotify.Remove:
		flag |= merger.FlagItemRemoved
	case evt.Op&fsnotify.Rename == fsnotify.Rename:
		flag |= merger.FlagItemRenamed
	case evt.Op&fsnotify.Write == fsnotify.Write, evt.Op&fsnotify.Chmod == fsnotify.Chmod:
		flag |= merger.FlagItemModified
	default:
		flag = merger.FlagNone
	}
	if info, err := os.Lstat(evt.Name); err == nil && info.IsDir() {
		flag |= merger.FlagItemIsDir
	} else if flag != merger.FlagNone {
		flag |= merger.FlagItemIsFile
	}
	return merger.RawEvent{Path: evt.Name, Flag: flag, ID: s.nextEventID}
}
