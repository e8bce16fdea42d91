package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is how long the watcher waits after the last filesystem
// event before reloading, so an editor's save dance (temp file, rename,
// chmod) costs one reload.
const debounceDelay = 100 * time.Millisecond

// Watcher reloads the config file when something rewrites it and delivers
// each successful reload on Updates. Broken intermediate states are logged
// and skipped; the previous config stays in force.
type Watcher struct {
	path    string
	fw      *fsnotify.Watcher
	updates chan Config
}

// NewWatcher watches the directory holding path. Watching the directory
// instead of the file keeps rename-style saves visible.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fw.Close()
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		path:    filepath.Clean(path),
		fw:      fw,
		updates: make(chan Config, 1),
	}, nil
}

// Updates delivers one config per successful reload.
func (w *Watcher) Updates() <-chan Config {
	return w.updates
}

// Start blocks, reloading on relevant events until ctx is done or Close is
// called. The updates channel is closed on return.
func (w *Watcher) Start(ctx context.Context) error {
	defer close(w.updates)

	timer := time.NewTimer(debounceDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return w.fw.Close()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounceDelay)
			pending = true
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CONFIG] watch error: %v", err)
		case <-timer.C:
			pending = false
			w.reload(ctx)
		}
	}
}

// Close releases the filesystem watcher. Start returns after Close.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) != 0
}

func (w *Watcher) reload(ctx context.Context) {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("[CONFIG] reload failed: %v", err)
		return
	}
	select {
	case w.updates <- cfg:
	case <-ctx.Done():
	}
}
