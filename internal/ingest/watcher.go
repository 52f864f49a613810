package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots      []string      // directories to watch (recursive)
	SkipHidden bool
	Debounce   time.Duration // coalesce rapid create/write bursts
}

// Watch emits paths of accepted files created or written under the roots
// until ctx is done. Both channels are closed on exit.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}
	for _, root := range cfg.Roots {
		if err := addTree(w, root, cfg.SkipHidden); err != nil {
			logger.Error("ingest.watch.add_failed", "root", root, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	paths := make(chan string, 64)
	errs := make(chan error, 1)
	go func() {
		defer close(paths)
		defer close(errs)
		defer w.Close()

		pending := map[string]struct{}{}
		var flush <-chan time.Time
		emit := func() bool {
			for p := range pending {
				select {
				case paths <- p:
				case <-ctx.Done():
					return false
				}
				delete(pending, p)
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					// new directories join the watch; files fall through
					if err := addTree(w, e.Name, cfg.SkipHidden); err != nil {
						logger.Debug("ingest.watch.add_skipped", "path", e.Name, "error", err)
					}
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
					continue
				}
				if !AllowedExt(filepath.Ext(e.Name)) || (cfg.SkipHidden && IsHidden(e.Name)) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					flush = time.After(cfg.Debounce)
				} else if !emit() {
					return
				}
			case <-flush:
				flush = nil
				if !emit() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	logger.Info("ingest.watch.started", "roots", cfg.Roots, "debounce", cfg.Debounce)
	return paths, errs, nil
}

// addTree watches root and every directory below it. A non-directory root is ignored.
func addTree(w *fsnotify.Watcher, root string, skipHidden bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
