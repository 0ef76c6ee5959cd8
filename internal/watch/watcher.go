// Package watch drives the hot-reload cycle for manifest-hosted stories. A
// Watcher monitors a directory of YAML story manifests; when a file settles
// after an edit it first runs the dispose callbacks the previous load
// registered, then replays the manifest through the facade. Deterministic
// story ids make the cycle a clean replace rather than an accumulation of
// stale entries.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"casebook/internal/manifest"
	"casebook/internal/registry"
	"casebook/internal/reload"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches rapid editor saves before reloading a manifest.
const DefaultDebounce = 250 * time.Millisecond

// Stats tracks watcher activity for tests and debugging.
type Stats struct {
	Loads         int
	Reloads       int
	Removals      int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher keeps a registry in sync with a directory of story manifests.
type Watcher struct {
	mu  sync.RWMutex
	fsw *fsnotify.Watcher

	reg    *registry.Registry
	loader *manifest.Loader
	dir    string

	debounceMap map[string]time.Time
	debounceDur time.Duration

	// modules holds one dispose set per manifest path; disposing it
	// unregisters everything that file's previous load registered.
	modules map[string]*reload.DisposeSet

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	stats Stats

	log *zap.Logger
}

// New creates a watcher over dir. A nil logger disables logging; a zero
// debounce uses DefaultDebounce.
func New(dir string, reg *registry.Registry, loader *manifest.Loader, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fsw:         fsw,
		reg:         reg,
		loader:      loader,
		dir:         dir,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		modules:     make(map[string]*reload.DisposeSet),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		log:         log,
	}, nil
}

// Start performs an initial load of every manifest in the directory, then
// begins watching for changes. Non-blocking; the event loop runs in its own
// goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.loadAll(); err != nil {
		w.log.Warn("initial manifest load incomplete", zap.Error(err))
	}

	if err := w.fsw.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("watching story manifests", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fsw.Close(); err != nil {
		w.log.Error("closing fsnotify watcher", zap.Error(err))
	}
}

// Running reports whether the event loop is active.
func (w *Watcher) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a copy of the watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// run is the watcher's event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("fsnotify error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced()
		}
	}
}

// handleEvent records settle times for edits and disposes removed files
// immediately.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isManifest(event.Name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.mu.Lock()
		w.debounceMap[event.Name] = time.Now()
		w.stats.LastEventPath = event.Name
		w.stats.LastEventTime = time.Now()
		w.mu.Unlock()

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.mu.Lock()
		delete(w.debounceMap, event.Name)
		w.stats.LastEventPath = event.Name
		w.stats.LastEventTime = time.Now()
		w.mu.Unlock()
		w.disposePath(event.Name)
	}
}

// processDebounced reloads manifests whose edits have settled past the
// debounce window.
func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.reloadPath(path)
	}
}

// loadAll registers every manifest currently in the directory.
func (w *Watcher) loadAll() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !isManifest(e.Name()) {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if err := w.register(path); err != nil {
			w.log.Error("loading manifest", zap.String("path", path), zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		w.mu.Lock()
		w.stats.Loads++
		w.mu.Unlock()
	}
	return firstErr
}

// reloadPath runs one edit-reload cycle for a manifest: dispose everything
// the previous load registered, then replay the file. Disposal completes
// before any new registration call executes. A broken edit leaves the file's
// stories unregistered; the error is logged and the next good save recovers.
func (w *Watcher) reloadPath(path string) {
	w.disposePath(path)

	if err := w.register(path); err != nil {
		w.log.Error("reloading manifest", zap.String("path", path), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()
	w.log.Info("manifest reloaded",
		zap.String("path", path),
		zap.Int64("revision", w.reg.Store().Revision()))
}

// register loads one manifest file and replays it under a fresh module
// context whose dispose set is kept for the next cycle.
func (w *Watcher) register(path string) error {
	set := reload.NewDisposeSet()
	mod := reload.NewModuleContext(path, set)
	if err := w.loader.LoadAndRegister(w.reg, path, mod); err != nil {
		// Roll back whatever the partial replay registered.
		set.Dispose()
		return err
	}
	w.mu.Lock()
	w.modules[path] = set
	w.mu.Unlock()
	return nil
}

// disposePath runs the dispose callbacks for one manifest path, if any.
func (w *Watcher) disposePath(path string) {
	w.mu.Lock()
	set := w.modules[path]
	delete(w.modules, path)
	w.mu.Unlock()

	if set == nil {
		return
	}
	set.Dispose()
	w.mu.Lock()
	w.stats.Removals++
	w.mu.Unlock()
	w.log.Debug("manifest disposed", zap.String("path", path))
}

func isManifest(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
