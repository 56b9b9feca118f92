package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/drewfead/maestro/internal/logging"
)

// watchDebounce coalesces the bursts of write events editors produce when
// saving a file.
const watchDebounce = 200 * time.Millisecond

// WatchAgents watches the agent catalog file and delivers a freshly loaded
// Catalog on the returned channel whenever the file changes. The watch
// covers the parent directory because most editors replace the file by
// rename. A reload that fails validation is dropped and the previous
// catalog stays in effect. The watcher stops when ctx is cancelled.
func WatchAgents(ctx context.Context, path string) (<-chan *Catalog, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan *Catalog, 1)
	go func() {
		defer watcher.Close()
		defer close(out)

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
					timerC = timer.C
				} else {
					timer.Reset(watchDebounce)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("agent catalog watch error", "error", err)

			case <-timerC:
				timer = nil
				timerC = nil
				catalog, err := LoadCatalog(path)
				if err != nil {
					logging.Warn("agent catalog reload failed", "path", path, "error", err)
					continue
				}
				// Replace any undelivered catalog with the newest one.
				select {
				case out <- catalog:
				default:
					select {
					case <-out:
					default:
					}
					out <- catalog
				}
			}
		}
	}()

	return out, nil
}
