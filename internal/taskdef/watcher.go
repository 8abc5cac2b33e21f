package taskdef

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a definition directory when its files change.
type Watcher struct {
	dir      string
	registry *Registry
	watcher  *fsnotify.Watcher
	done     chan struct{}
	onReload func(err error)
}

// NewWatcher starts watching a task-definition directory. The registry
// is swapped atomically on every successful reload; a failed reload
// keeps the previous definitions and reports through onReload.
func NewWatcher(dir string, registry *Registry, onReload func(err error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	if onReload == nil {
		onReload = func(error) {}
	}
	w := &Watcher{
		dir:      dir,
		registry: registry,
		watcher:  fw,
		done:     make(chan struct{}),
		onReload: onReload,
	}
	go w.loop()
	return w, nil
}

// loop debounces bursts of filesystem events into single reloads.
func (w *Watcher) loop() {
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = time.After(200 * time.Millisecond)
			}
		case <-pending:
			pending = nil
			w.reload()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// reload loads the directory into a fresh registry and swaps it in.
func (w *Watcher) reload() {
	fresh, err := LoadDir(w.dir)
	if err != nil {
		w.onReload(err)
		return
	}
	w.registry.Replace(fresh)
	w.onReload(nil)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
