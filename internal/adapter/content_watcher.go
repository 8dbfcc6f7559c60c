package adapter

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Invalidator drops whatever was derived from the content tree.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ContentWatcher invalidates a cache when exercise files change on disk.
// Bursts of events are coalesced into one invalidation per debounce window.
type ContentWatcher struct {
	root     string
	target   Invalidator
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// NewContentWatcher watches root and every directory below it.
func NewContentWatcher(root string, target Invalidator, debounce time.Duration, logger *zap.Logger) (*ContentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &ContentWatcher{root: root, target: target, debounce: debounce, watcher: watcher, logger: logger}
	if err := w.addTree(root); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

func (w *ContentWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

// Run processes events until ctx is done, then releases the watcher.
func (w *ContentWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		fire = timer.C
	}

	w.logger.Info("Watching content tree", zap.String("root", w.root))
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.logger.Debug("Content changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
				schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Content watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if err := w.target.Invalidate(ctx); err != nil {
				w.logger.Warn("Failed to invalidate catalog after content change", zap.Error(err))
			} else {
				w.logger.Info("Catalog invalidated after content change")
			}
		}
	}
}

// relevant reports whether event can change the catalog. New directories are
// watched as they appear.
func (w *ContentWatcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return true
		}
	}
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
