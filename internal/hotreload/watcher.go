// Package hotreload applies HotUpdate whenever a watched file changes.
package hotreload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/vex/internal/engine"
)

const defaultDebounce = 100 * time.Millisecond

// Loader reads the file at path and returns the fragment to apply.
type Loader func(path string) (engine.Fragment, error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits after the last event for a
// file before reloading it. Default: 100ms.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger. Default: the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnReload registers a callback run after every reload attempt with its
// outcome.
func WithOnReload(fn func(path string, err error)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watcher watches files and hot-updates a store from them.
type Watcher struct {
	fw       *fsnotify.Watcher
	store    *engine.Store
	load     Loader
	files    map[string]bool
	debounce time.Duration
	logger   *slog.Logger
	onReload func(path string, err error)
}

// NewWatcher watches files for store. fsnotify does not track a file
// replaced by rename, so each file's directory is watched and events are
// filtered by name.
func NewWatcher(store *engine.Store, load Loader, files []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fw:       fw,
		store:    store,
		load:     load,
		files:    make(map[string]bool, len(files)),
		debounce: defaultDebounce,
		logger:   store.Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Start processes file events until ctx is done. Reload failures are
// logged and the watcher keeps running. Start closes the watcher on return.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fw.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("watched file changed", "path", path, "op", event.Op.String())
			pending[path] = true
			timer.Reset(w.debounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				w.Reload(p)
			}
		}
	}
}

// Reload loads path and applies it to the store immediately.
func (w *Watcher) Reload(path string) error {
	err := w.reload(path)
	if err != nil {
		w.logger.Error("hot reload failed", "path", path, "error", err)
	} else {
		w.logger.Info("hot reload applied", "path", path)
	}
	if w.onReload != nil {
		w.onReload(path, err)
	}
	return err
}

func (w *Watcher) reload(path string) error {
	frag, err := w.load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := w.store.HotUpdate(frag); err != nil {
		return fmt.Errorf("apply %s: %w", path, err)
	}
	return nil
}

// Close stops the watcher without waiting for Start to return.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
