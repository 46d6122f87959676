package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editors write a file in several steps; wait for them to settle.
const reloadDelay = 200 * time.Millisecond

// watchConfig asks for a reload whenever path changes. The directory is
// watched, not the file, so rename-on-save editors are seen too.
func watchConfig(ctx context.Context, path string, reload chan<- struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("Config watcher unavailable: %s", err.Error())
		return
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Printf("Config watcher unavailable for %s: %s", path, err.Error())
		return
	}

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logDebug("config: %s", event)
				settle = time.After(reloadDelay)
			}
		case <-settle:
			settle = nil
			select {
			case reload <- struct{}{}:
			default: // one pending request is enough
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %s", err.Error())
		}
	}
}
