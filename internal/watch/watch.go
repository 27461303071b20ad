// Package watch re-runs a callback when files under a source tree change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// DefaultSkipDirs are never watched.
var DefaultSkipDirs = []string{".git", "node_modules", ".next", "out", "dist"}

// Options configures a Watcher.
type Options struct {
	Root     string
	Debounce time.Duration
	SkipDirs []string
	Logger   *zap.Logger
}

// Watcher coalesces bursts of file events into single callback runs.
type Watcher struct {
	root     string
	debounce time.Duration
	skip     map[string]bool
	logger   *zap.Logger
}

// New creates a Watcher for opts.Root.
func New(opts Options) *Watcher {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	skipDirs := opts.SkipDirs
	if skipDirs == nil {
		skipDirs = DefaultSkipDirs
	}
	skip := make(map[string]bool, len(skipDirs))
	for _, dir := range skipDirs {
		skip[dir] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{root: opts.Root, debounce: debounce, skip: skip, logger: logger}
}

// Run calls onChange once immediately and again after every quiet period that
// follows a change. Callbacks never overlap. Run returns nil when ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &Error{Message: "failed to create watcher", Cause: err}
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.root); err != nil {
		return &Error{Message: "failed to watch " + w.root, Cause: err}
	}

	onChange(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.watchIfDir(watcher, ev.Name)
			}
			w.logger.Debug("source changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skip[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (w *Watcher) watchIfDir(watcher *fsnotify.Watcher, path string) {
	if err := w.addRecursive(watcher, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("failed to watch new directory", zap.String("path", path), zap.Error(err))
	}
}

// relevant drops chmod-only events and anything inside a skipped directory.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.skip[part] {
			return false
		}
	}
	return true
}
