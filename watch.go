package server

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	combatlog "stonefall/server/logging/combat"
)

// WatchProfiles reloads the hub's profile catalog whenever one of the backing
// files changes on disk. Editors tend to emit bursts of write events for a
// single save, so reloads are debounced. Blocks until ctx is cancelled.
func (h *Hub) WatchProfiles(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]struct{})
	for _, path := range paths {
		dir := filepath.Dir(path)
		if _, ok := watched[dir]; ok {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			log.Printf("cannot watch %s: %v", dir, err)
			continue
		}
		watched[dir] = struct{}{}
	}
	if len(watched) == 0 {
		<-ctx.Done()
		return nil
	}

	targets := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		targets[filepath.Clean(path)] = struct{}{}
	}

	const debounce = 250 * time.Millisecond
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if _, ok := targets[filepath.Clean(event.Name)]; !ok {
				continue
			}
			pending = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("profile watch error: %v", err)
		case <-pending:
			pending = nil
			if err := h.profiles.Reload(); err != nil {
				log.Printf("profile reload failed, keeping previous table: %v", err)
				continue
			}
			combatlog.ProfilesReloaded(ctx, h.pub, h.tick.Load(), h.profiles.Len(), "fsnotify")
		}
	}
}
