package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notedex/internal/discovery"
)

// Watch ingests every file matching patterns, then watches the pattern
// roots and re-ingests matching files as they are created or written,
// until ctx is cancelled. Bursts of writes are coalesced for the debounce
// interval. New directories under a root are added to the watch list.
func (in *Ingester) Watch(ctx context.Context, patterns []string) error {
	resolved := make([]string, 0, len(patterns))
	for _, p := range patterns {
		r, err := discovery.Resolve(p)
		if err != nil {
			return fmt.Errorf("ingest: watch: %w", err)
		}
		if r != "" {
			resolved = append(resolved, r)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ingest: watch: %w", err)
	}
	defer w.Close()

	for _, root := range discovery.Roots(resolved) {
		if err := addDirsRecursive(w, root); err != nil {
			in.logger.Warn("watcher: root not watched", slog.String("root", root), slog.String("error", err.Error()))
			continue
		}
		in.logger.Info("watcher: started", slog.String("root", root))
	}

	files, err := discovery.Glob(resolved, in.filter)
	if err != nil {
		return fmt.Errorf("ingest: watch: %w", err)
	}
	if _, err := in.Run(ctx, files); err != nil {
		return nil
	}

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func(path string) {
		pending[path] = struct{}{}
		if flushTimer == nil {
			flushTimer = time.NewTimer(in.debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(in.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			in.logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			sort.Strings(paths)
			if _, err := in.Run(ctx, paths); err != nil {
				return nil
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						in.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
						continue
					}
					in.logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() && in.wants(resolved, p) {
							schedule(p)
						}
						return nil
					})
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !in.wants(resolved, ev.Name) {
				continue
			}
			in.logger.Debug("watcher: changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule(ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (in *Ingester) wants(patterns []string, path string) bool {
	return discovery.Match(patterns, path) && in.filter.Allows(path)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
