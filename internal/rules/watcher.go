package rules

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceDefault coalesces editor write bursts into one reload.
const debounceDefault = 200 * time.Millisecond

// Watcher hot-reloads a rule catalog when its backing file changes.
type Watcher struct {
	path     string
	onReload func(*Catalog)
	debounce time.Duration
	log      zerolog.Logger
}

// NewWatcher creates a watcher for the catalog file. onReload is invoked
// with each successfully parsed catalog; parse failures keep the previous
// catalog in place.
func NewWatcher(path string, onReload func(*Catalog), log zerolog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		onReload: onReload,
		debounce: debounceDefault,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, reloading on write/create events.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files by rename, which drops
	// a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var mu sync.Mutex
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("rule watcher error")
		}
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("rule catalog reload failed, keeping previous")
		return
	}
	w.log.Info().Str("path", w.path).Int("version", c.Version).Msg("rule catalog reloaded")
	w.onReload(c)
}
