// Package walker implements the parallel directory traversal that
// produces the tree of (name, optional metadata) records consumed by
// cold-start bulk build and by the event merger's incremental rescan.
//
// Grounded on the teacher's internal/ingest.Engine.Ingest directory
// walk (hidden/build-dir skip rules) and on other_examples's
// opencoff-go-fio walk.go worker-pool/WaitGroup concurrency shape. The
// filesystem is abstracted behind billy.Filesystem (the teacher's own
// dependency) so tests run against an in-memory billy/memfs tree.
package walker

import (
	"io/fs"
	"os"
	"path"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/everyfind/everyfind/internal/cancel"
	"github.com/go-git/go-billy/v5"
)

// Node is one entry of the tree the walker produces: a name plus
// optional metadata and children. Distinct from slab.Node — this is an
// intermediate, detached tree handed to the caller for splicing into
// the slab/index/pool.
type Node struct {
	Name     string
	Meta     *Metadata
	Children []*Node
}

// Metadata mirrors slab.Metadata's "Some" payload for a freshly
// observed file-system entity.
type Metadata struct {
	IsDir    bool
	IsSymlink bool
	Size     uint64
	Mtime    time.Time
	Ctime    time.Time
	HasCtime bool
}

// Options configures a single walk.
type Options struct {
	// IgnoreDirectory, if non-empty, names exactly one subtree (absolute
	// path under FS) that is elided from traversal entirely.
	IgnoreDirectory string
	// NeedMetadata requests metadata for regular files too (directories
	// always carry metadata when available, per spec).
	NeedMetadata bool
	Cancel       cancel.Token
	Concurrency  int
}

// Counters are published so callers can poll walk progress.
type Counters struct {
	Dirs  int64
	Files int64
}

// Walker drives a parallel traversal of a billy.Filesystem.
type Walker struct {
	fs       billy.Filesystem
	Counters Counters
}

// New returns a Walker over fs.
func New(filesystem billy.Filesystem) *Walker {
	return &Walker{fs: filesystem}
}

// dirJob is one directory queued for processing.
type dirJob struct {
	path string
	node *Node
}

// Walk traverses root and returns its tree, or nil if cancelled.
func (w *Walker) Walk(root string, opts Options) *Node {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
		if concurrency < 1 {
			concurrency = 1
		}
	}

	rootInfo, err := w.fs.Lstat(root)
	if err != nil {
		return nil
	}
	rootNode := &Node{Name: path.Base(root), Meta: metaFromInfo(rootInfo)}

	jobs := make(chan dirJob, 1024)
	var wg sync.WaitGroup
	var pending int64 // outstanding directory jobs, including the root

	cancelled := int32(0)

	worker := func() {
		for job := range jobs {
			if atomic.LoadInt32(&cancelled) != 0 {
				wg.Done()
				atomic.AddInt64(&pending, -1)
				continue
			}
			w.processDir(job, opts, jobs, &wg, &pending, &cancelled)
		}
	}

	for i := 0; i < concurrency; i++ {
		go worker()
	}

	atomic.AddInt64(&pending, 1)
	wg.Add(1)
	jobs <- dirJob{path: root, node: rootNode}

	// Wait until there is no more outstanding work, then stop workers.
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	<-waitDone
	close(jobs)

	if atomic.LoadInt32(&cancelled) != 0 {
		return nil
	}
	return rootNode
}

func (w *Walker) processDir(job dirJob, opts Options, jobs chan dirJob, wg *sync.WaitGroup, pending *int64, cancelled *int32) {
	defer wg.Done()
	defer atomic.AddInt64(pending, -1)

	if opts.Cancel.IsCancelled() {
		atomic.StoreInt32(cancelled, 1)
		return
	}
	if opts.IgnoreDirectory != "" && job.path == opts.IgnoreDirectory {
		return
	}

	atomic.AddInt64(&w.Counters.Dirs, 1)

	entries, err := w.readDirRetrying(job.path)
	if err != nil {
		// permission-denied or unreadable directory: emit the node with
		// no metadata refresh and no children, per spec.
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		childPath := path.Join(job.path, name)

		if entry.Mode()&os.ModeSymlink != 0 {
			// Do not follow symlinks; still record the node itself.
			child := &Node{Name: name, Meta: metaFromInfo(entry)}
			job.node.Children = append(job.node.Children, child)
			continue
		}

		if entry.IsDir() {
			child := &Node{Name: name, Meta: metaFromInfo(entry)}
			job.node.Children = append(job.node.Children, child)
			atomic.AddInt64(pending, 1)
			wg.Add(1)
			select {
			case jobs <- dirJob{path: childPath, node: child}:
			default:
				// Channel full: process inline to avoid deadlock under
				// very wide trees without growing the buffer unbounded.
				w.processDir(dirJob{path: childPath, node: child}, opts, jobs, wg, pending, cancelled)
			}
			continue
		}

		atomic.AddInt64(&w.Counters.Files, 1)
		var meta *Metadata
		if opts.NeedMetadata {
			meta = metaFromInfo(entry)
		}
		job.node.Children = append(job.node.Children, &Node{Name: name, Meta: meta})
	}
}

// readDirRetrying retries on Interrupted, skips on NotFound (by
// returning an empty listing), matching spec's walker error policy.
func (w *Walker) readDirRetrying(p string) ([]fs.FileInfo, error) {
	for {
		entries, err := w.fs.ReadDir(p)
		if err == nil {
			return entries, nil
		}
		if os.IsNotExist(err) {
			return nil, nil
		}
		if isInterrupted(err) {
			continue
		}
		return nil, err
	}
}

func isInterrupted(err error) bool {
	// billy backends surface *fs.PathError wrapping syscall.EINTR on
	// real filesystems; treat any non-terminal transient the same way
	// the teacher's ingest engine retries os-level EINTR.
	type interrupter interface{ Temporary() bool }
	if te, ok := err.(interrupter); ok {
		return te.Temporary()
	}
	return false
}

func metaFromInfo(info fs.FileInfo) *Metadata {
	return &Metadata{
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
		Size:      uint64(info.Size()),
		Mtime:     info.ModTime(),
	}
}
