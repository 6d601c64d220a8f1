package index

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// metadataWatcher watches one index_metadata.json file for writes from
// another process (a concurrent `cjdocs index --rebuild`, or a peer
// process sharing the same data dir) and flags the holding LocalIndex's
// cached IndexInfo stale so the next Query call reopens the stores instead
// of serving against a generation that may have just been replaced.
// Grounded on the teacher's internal/watcher (HybridWatcher's fsnotify.Watcher
// usage), narrowed from recursive directory watching to a single file.
type metadataWatcher struct {
	fsw     *fsnotify.Watcher
	onStale func()
	done    chan struct{}
}

// startMetadataWatcher watches path and calls onStale whenever it is
// written, renamed onto, or removed. Returns nil (not an error) if the
// underlying fsnotify watcher can't be created — external-rebuild
// invalidation is a freshness optimization, not a correctness requirement,
// since Query's own store handles would simply keep serving the
// generation they opened.
func startMetadataWatcher(path string, onStale func()) *metadataWatcher {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("metadata_watcher_unavailable", slog.String("error", err.Error()))
		return nil
	}
	if err := fsw.Add(path); err != nil {
		slog.Warn("metadata_watcher_add_failed", slog.String("path", path), slog.String("error", err.Error()))
		_ = fsw.Close()
		return nil
	}

	w := &metadataWatcher{fsw: fsw, onStale: onStale, done: make(chan struct{})}
	go w.run()
	return w
}

func (w *metadataWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.onStale()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *metadataWatcher) Stop() error {
	if w == nil {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	return err
}
