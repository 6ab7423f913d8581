// Package watch re-runs work when measurement input files change. It
// watches a directory tree with fsnotify, keeps only files a study can load,
// and coalesces bursts of writes into a single change notification.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/harrison/capstudy/internal/ingest"
)

// Op represents the type of file operation
type Op int

const (
	// Created indicates a new input file appeared
	Created Op = iota
	// Written indicates an input file was written to
	Written
	// Removed indicates an input file was removed or renamed away
	Removed
)

// String returns a human-readable representation of the operation
func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Written:
		return "written"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a change to one watched input file
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// DefaultDebounceDelay is the default delay for coalescing rapid writes
const DefaultDebounceDelay = 250 * time.Millisecond

// Watcher watches a directory tree for measurement input changes
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	rootDir string
	pattern string
	ignore  map[string]bool

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	closed        bool
}

// Option configures a Watcher
type Option func(*Watcher)

// WithPattern limits events to paths (relative to the root, slash separated)
// matching a doublestar glob such as "line-*/**/*.csv".
func WithPattern(pattern string) Option {
	return func(w *Watcher) { w.pattern = pattern }
}

// WithDebounce sets the delay used to coalesce rapid writes.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// WithIgnore drops events for the given files, typically study exports
// written inside the watched tree.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore[abs] = true
			}
		}
	}
}

// New creates a Watcher for rootDir and all its subdirectories.
func New(rootDir string, opts ...Option) (*Watcher, error) {
	if strings.HasPrefix(rootDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		rootDir = filepath.Join(home, rootDir[1:])
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", rootDir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:       fsw,
		events:        make(chan Event, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		rootDir:       rootDir,
		ignore:        map[string]bool{},
		debounceDelay: DefaultDebounceDelay,
		debounceMap:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addRecursive(rootDir); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.processEvents()
	return w, nil
}

// addRecursive adds the directory and all its subdirectories to the watcher
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// error channel full
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.sendError(err)
			}
			return
		}
	}

	if !w.matches(path) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = Created
	case event.Has(fsnotify.Write):
		op = Written
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = Removed
	default:
		// chmod
		return
	}

	if op == Removed {
		w.sendEvent(path, op)
		return
	}
	// editors and spreadsheet tools write in several steps
	w.debounce(path, op)
}

// matches reports whether path is a loadable input file this watcher cares
// about.
func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	// hidden, editor swap and Office lock files
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") || strings.HasSuffix(base, "~") {
		return false
	}
	if ingest.DetectFormat(path) == ingest.FormatUnknown {
		return false
	}
	if abs, err := filepath.Abs(path); err == nil && w.ignore[abs] {
		return false
	}
	if w.pattern == "" {
		return true
	}
	rel, err := filepath.Rel(w.rootDir, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// debounce coalesces rapid writes for the same file
func (w *Watcher) debounce(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()

		w.sendEvent(path, op)
	})
}

func (w *Watcher) sendEvent(path string, op Op) {
	event := Event{Path: path, Op: op, Timestamp: time.Now()}
	select {
	case w.events <- event:
	case <-w.done:
	default:
		// events channel full
	}
}

// Events returns the channel for receiving file events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// RootDir returns the absolute root directory being watched
func (w *Watcher) RootDir() string {
	return w.rootDir
}

// Pattern returns the configured path pattern
func (w *Watcher) Pattern() string {
	return w.pattern
}

// Close stops the watcher and releases resources
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, timer := range w.debounceMap {
		timer.Stop()
	}
	w.debounceMap = nil
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}

// Handler is called with the sorted set of input files that changed since
// the previous call.
type Handler func(ctx context.Context, changed []string)

// ErrorHandler receives watcher errors while Run is active.
type ErrorHandler func(err error)

// Run delivers batched changes to fn until ctx ends or the watcher is
// closed. Changes arriving within one debounce delay of each other are
// delivered together, and fn is never called concurrently with itself.
func (w *Watcher) Run(ctx context.Context, fn Handler, onError ErrorHandler) error {
	pending := map[string]bool{}
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case err := <-w.errors:
			if onError != nil {
				onError(err)
			}
		case ev := <-w.events:
			pending[ev.Path] = true
			timer.Reset(w.debounceDelay)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			fn(ctx, changed)
		}
	}
}
