package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/muurk/devscan/internal/logging"
)

// reloadDelay coalesces the burst of events an editor or SaveTo produces.
const reloadDelay = 200 * time.Millisecond

const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename

// Watch calls onChange with a freshly loaded registry each time the file at
// path is written or replaced, until ctx is done. The parent directory is
// watched so that atomic renames are seen. A file that fails to load is
// logged and skipped; the previous registry stays in effect.
func Watch(ctx context.Context, path string, onChange func(*Registry)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		var (
			mu    sync.Mutex
			timer *time.Timer
		)
		reload := func() {
			registry, err := LoadFile(path)
			if err != nil {
				logging.Warn("Ignoring invalid config file", zap.String("path", path), zap.Error(err))
				return
			}
			logging.Info("Config reloaded", zap.String("path", path))
			onChange(registry)
		}
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isConfigEvent(event, path) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, reload)
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("Config watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func isConfigEvent(event fsnotify.Event, path string) bool {
	if event.Op&watchedOps == 0 {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(path)
}
