package loader

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/statcompass/statcompass/pkg/model"
)

// Watcher reloads a tree data file whenever it changes on disk and delivers
// the parsed result to a callback. Editors often replace files via
// rename-then-create, so the parent directory is watched rather than the
// file itself.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc

	// debounce rapid file changes
	lastEvent time.Time
	debounce  time.Duration

	onReload func(model.TreeData)
}

// NewWatcher creates a watcher for the given data file. onReload is invoked
// from the watch goroutine with each successfully parsed tree.
func NewWatcher(path string, onReload func(model.TreeData)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		path:     path,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: 200 * time.Millisecond,
		onReload: onReload,
	}, nil
}

// Start begins watching the data file's directory.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	go w.watchLoop()
	return nil
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() {
	w.cancel()
	w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// Only reload on write/create events (not chmod, etc)
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			now := time.Now()
			if now.Sub(w.lastEvent) < w.debounce {
				continue
			}
			w.lastEvent = now

			data, err := LoadFile(w.path)
			if err != nil {
				// Keep serving the previous tree; the file is likely
				// mid-save.
				log.Printf("warning: reload %s: %v", w.path, err)
				continue
			}
			w.onReload(data)

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
