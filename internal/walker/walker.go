// Package walker traverses a directory tree with a pool of goroutines and
// reports every regular file to a visitor.
//
// Directories are traversed but never reported. Hidden entries, entries
// matched by .gitignore or .ignore files, excluded globs and symlinks are
// skipped unless the options say otherwise.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ignoreCacheSize bounds the number of parsed ignore sets kept in memory.
const ignoreCacheSize = 1000

// Action tells the walker what to do after a visit.
type Action int

const (
	// Continue keeps walking.
	Continue Action = iota
	// Quit stops reading new directories and returns ErrWalkAborted.
	Quit
)

// VisitFunc is called for every regular file with err == nil, and for every
// entry that could not be read with the error. It must be safe to call from
// multiple goroutines.
type VisitFunc func(path string, err error) Action

// ErrWalkAborted is returned by Walk when a visitor returned Quit.
var ErrWalkAborted = errors.New("walk aborted")

// Options configures a Walker.
type Options struct {
	// Root is the directory to walk.
	Root string
	// Threads is the number of traversal goroutines.
	Threads int
	// Hidden includes names starting with a dot.
	Hidden bool
	// NoIgnore disables .gitignore and .ignore handling.
	NoIgnore bool
	// FollowSymlinks reports symlinked files and descends into symlinked directories.
	FollowSymlinks bool
	// Exclude holds doublestar globs matched against slash-separated paths
	// relative to Root.
	Exclude []string
}

// Walker walks one tree. It can be reused for several walks.
type Walker struct {
	opts    Options
	root    string
	ignores *lru.Cache[string, *ignoreSet]
	logger  *slog.Logger
}

// New validates opts and returns a Walker.
func New(opts Options) (*Walker, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("root is required")
	}
	if opts.Threads <= 0 {
		return nil, fmt.Errorf("threads must be positive, got %d", opts.Threads)
	}
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	cache, err := lru.New[string, *ignoreSet](ignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ignore cache: %w", err)
	}
	return &Walker{
		opts:    opts,
		root:    root,
		ignores: cache,
		logger:  slog.Default(),
	}, nil
}

// Root returns the absolute root of the walk.
func (w *Walker) Root() string {
	return w.root
}

// task is one directory waiting to be listed. entries is set only for the
// root, which is listed before the workers start.
type task struct {
	dir     string
	entries []os.DirEntry
}

// walk holds the state of a single Walk call.
type walk struct {
	*Walker
	visit   VisitFunc
	queue   *dirQueue
	quit    atomic.Bool
	visited sync.Map // real paths of symlinked directories already entered
}

// Walk traverses the tree and calls visit for each regular file. Failing to
// read the root is returned immediately. Other read failures go to visit.
// Walk returns ErrWalkAborted if visit returned Quit, or ctx.Err() if ctx
// was cancelled.
func (w *Walker) Walk(ctx context.Context, visit VisitFunc) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("failed to read root %s: %w", w.root, err)
	}
	if !info.IsDir() {
		if visit(w.root, nil) == Quit {
			return ErrWalkAborted
		}
		return nil
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("failed to read root %s: %w", w.root, err)
	}

	st := &walk{Walker: w, visit: visit, queue: newDirQueue()}
	stop := context.AfterFunc(ctx, st.queue.stop)
	defer stop()

	st.queue.push(task{dir: w.root, entries: entries})

	var wg sync.WaitGroup
	for i := 0; i < w.opts.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				t, ok := st.queue.pop()
				if !ok {
					return
				}
				st.process(ctx, t)
				st.queue.done()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if st.quit.Load() {
		return ErrWalkAborted
	}
	return nil
}

// process lists one directory and dispatches its entries.
func (st *walk) process(ctx context.Context, t task) {
	entries := t.entries
	if entries == nil {
		var err error
		entries, err = os.ReadDir(t.dir)
		if err != nil {
			st.report(t.dir, err)
			return
		}
	}

	for _, e := range entries {
		if st.quit.Load() || ctx.Err() != nil {
			return
		}

		name := e.Name()
		if !st.opts.Hidden && strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(t.dir, name)

		typ := e.Type()
		if typ&fs.ModeSymlink != 0 {
			if !st.opts.FollowSymlinks {
				continue
			}
			target, err := os.Stat(path)
			if err != nil {
				st.report(path, err)
				continue
			}
			typ = target.Mode().Type()
		}

		isDir := typ.IsDir()
		if st.skip(path, isDir) {
			continue
		}

		if isDir {
			if e.Type()&fs.ModeSymlink != 0 && !st.firstVisit(path) {
				continue
			}
			st.queue.push(task{dir: path})
			continue
		}
		if !typ.IsRegular() {
			continue
		}
		if st.visit(path, nil) == Quit {
			st.abort()
			return
		}
	}
}

// report hands an entry error to the visitor.
func (st *walk) report(path string, err error) {
	if st.visit(path, err) == Quit {
		st.abort()
	}
}

func (st *walk) abort() {
	st.quit.Store(true)
	st.queue.stop()
}

// firstVisit records the real path of a symlinked directory so that link
// cycles are entered once.
func (st *walk) firstVisit(path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	_, seen := st.visited.LoadOrStore(resolved, struct{}{})
	return !seen
}

// skip applies exclude globs and ignore files to one entry.
func (st *walk) skip(path string, isDir bool) bool {
	rel, err := filepath.Rel(st.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, p := range st.opts.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		// "dir/**" also excludes dir itself.
		if isDir {
			if ok, _ := doublestar.Match(p, rel+"/"); ok {
				return true
			}
		}
	}

	if st.opts.NoIgnore {
		return false
	}
	return st.ignored(rel, isDir)
}

// ignored evaluates the ignore sets of every ancestor directory, from the
// root down, so deeper files override shallower ones.
func (st *walk) ignored(rel string, isDir bool) bool {
	ignored := false
	dir := st.root
	parts := strings.Split(rel, "/")
	for i := 0; i < len(parts); i++ {
		if i > 0 {
			dir = filepath.Join(dir, parts[i-1])
		}
		set := st.ignoreSet(dir)
		if set == nil {
			continue
		}
		if ig, ok := set.match(strings.Join(parts[i:], "/"), isDir); ok {
			ignored = ig
		}
	}
	return ignored
}

// ignoreSet returns the cached ignore rules for dir, loading them on a miss.
func (st *walk) ignoreSet(dir string) *ignoreSet {
	if set, ok := st.ignores.Get(dir); ok {
		return set
	}
	set, err := loadIgnoreSet(dir)
	if err != nil {
		st.logger.Debug("ignore_file_unreadable", slog.String("dir", dir), slog.String("error", err.Error()))
	}
	st.ignores.Add(dir, set)
	return set
}

// dirQueue is the shared work list. pending counts queued plus in-flight
// directories; the walk is over when it reaches zero.
type dirQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []task
	pending int
	stopped bool
}

func newDirQueue() *dirQueue {
	q := &dirQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *dirQueue) push(t task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.items = append(q.items, t)
	q.pending++
	q.cond.Signal()
}

// pop blocks until a directory is available. It returns false once the walk
// is finished or stopped.
func (q *dirQueue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && q.pending > 0 && !q.stopped {
		q.cond.Wait()
	}
	if q.stopped || len(q.items) == 0 {
		return task{}, false
	}
	last := len(q.items) - 1
	t := q.items[last]
	q.items[last] = task{}
	q.items = q.items[:last]
	return t, true
}

func (q *dirQueue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending == 0 {
		q.cond.Broadcast()
	}
}

func (q *dirQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.cond.Broadcast()
}
