package livereload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/walker"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// RebuildFunc rebuilds the site.
type RebuildFunc func(ctx context.Context) error

// Watcher runs a rebuild whenever a file under the source directory
// changes, then broadcasts a reload.
type Watcher struct {
	Root     string
	Debounce time.Duration
	Rebuild  RebuildFunc
	Hub      *Hub // may be nil
	Logger   *zap.Logger
}

// Run watches until ctx is cancelled. Directories created while running are
// picked up as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	dirs, err := walker.Dirs(w.Root)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}
	logger.Info("watching for changes", zap.String("root", w.Root), zap.Int("dirs", len(dirs)))

	// fire is nil while nothing is pending.
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := fsw.Add(ev.Name); err != nil {
						logger.Warn("watching new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
				}
			}
			logger.Debug("source changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			fire = time.After(debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			start := time.Now()
			if err := w.Rebuild(ctx); err != nil {
				logger.Error("rebuild failed", zap.Error(err))
				continue
			}
			logger.Info("rebuilt", zap.Duration("took", time.Since(start)))
			if w.Hub != nil {
				w.Hub.Broadcast()
			}
		}
	}
}
