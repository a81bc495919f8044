package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a file must be quiet before onChange fires.
// Editors often write a file in several steps.
var watchDebounce = 200 * time.Millisecond

func (l *loader) Watch(ctx context.Context, ref string, onChange func()) error {
	if BackendTypeOf(ref) != BackendTypeFile {
		return fmt.Errorf("watch %s: only local files can be watched: %w", ref, ErrInvalidReference)
	}
	path, err := localPath(ref)
	if err != nil {
		return fmt.Errorf("watch %s: %w", ref, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", ref, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", ref, err)
	}
	// Watch the directory so atomic replace-by-rename is still seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", ref, err)
	}

	go runWatch(ctx, watcher, abs, onChange)
	return nil
}

func runWatch(ctx context.Context, watcher *fsnotify.Watcher, target string, onChange func()) {
	defer watcher.Close()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("file watch error", "path", target, "error", err)
		case <-timer.C:
			slog.Debug("watched file changed", "path", target)
			onChange()
		}
	}
}
