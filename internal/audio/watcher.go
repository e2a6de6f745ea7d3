package audio

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher invalidates cached sounds when their files change on disk.
// Directories are watched rather than files so editors that replace a
// file atomically are still seen.
type fileWatcher struct {
	watcher    *fsnotify.Watcher
	invalidate func(path string)
	logger     *slog.Logger
	done       chan struct{}

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
}

func newFileWatcher(invalidate func(string), logger *slog.Logger) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create sound watcher: %w", err)
	}
	fw := &fileWatcher{
		watcher:    w,
		invalidate: invalidate,
		logger:     logger,
		done:       make(chan struct{}),
		files:      make(map[string]bool),
		dirs:       make(map[string]bool),
	}
	go fw.loop()
	return fw, nil
}

// Watch starts tracking path. Unknown directories are added lazily.
func (w *fileWatcher) Watch(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.files[path] = true
	if w.dirs[dir] {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("cannot watch sound directory", "dir", dir, "error", err)
		return
	}
	w.dirs[dir] = true
}

func (w *fileWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			path := filepath.Clean(ev.Name)
			w.mu.Lock()
			tracked := w.files[path]
			w.mu.Unlock()
			if tracked {
				w.logger.Debug("sound file changed", "path", path)
				w.invalidate(path)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine.
func (w *fileWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
