package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces bursts of events for one file.
const debounceDelay = 100 * time.Millisecond

// Watcher invalidates templates as their files change.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	notify  func(name string)

	mu     sync.Mutex
	timers map[string]*time.Timer

	done chan struct{}
}

// Watch starts watching the templates directory. Changed templates are
// invalidated as soon as the event arrives; notify, when not nil, is called
// once a burst of changes to a template settles. Watching stops when ctx is
// done or Close is called.
func (l *Loader) Watch(ctx context.Context, notify func(name string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		loader:  l,
		watcher: fw,
		notify:  notify,
		timers:  make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}
	if err := w.watchDir(l.dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch templates dir: %w", err)
	}

	go w.loop(ctx)
	return w, nil
}

// Close stops the watcher and waits for its loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return err
}

// watchDir recursively adds a directory to the watcher.
func (w *Watcher) watchDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	logger := w.loader.logger

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchDir(event.Name); err != nil {
				w.loader.logger.Warn("failed to watch directory", slog.String("dir", event.Name), slog.String("error", err.Error()))
			}
			return
		}
	}

	if filepath.Ext(event.Name) != ".sql" {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(w.loader.dir, event.Name)
	if err != nil {
		return
	}
	name := NameFromPath(rel)
	w.loader.Invalidate(name)
	w.loader.logger.Debug("template changed", slog.String("name", name), slog.String("op", event.Op.String()))

	if w.notify == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, name)
		w.mu.Unlock()
		w.notify(name)
	})
}
