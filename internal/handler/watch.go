package handler

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadSettle is how long template files must be quiet before a reload.
// Editors often write a file in several steps.
const reloadSettle = 200 * time.Millisecond

// Watch reloads the templates whenever a file under the templates directory
// changes. It returns immediately for embedded templates and otherwise
// blocks until ctx is cancelled. A failed reload keeps the previous
// templates.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template watcher: %w", err)
	}
	defer watcher.Close()

	// fsnotify is not recursive, so every subdirectory is added.
	err = filepath.WalkDir(r.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("template watcher: %w", err)
	}
	r.logger.Info("watching templates", "dir", r.dir)

	ticker := time.NewTicker(reloadSettle / 2)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".html") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("template watcher error", "error", err)

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < reloadSettle {
				continue
			}
			pending = time.Time{}
			if err := r.Reload(); err != nil {
				r.logger.Error("template reload failed", "error", err)
				continue
			}
			r.logger.Debug("templates reloaded")
		}
	}
}
