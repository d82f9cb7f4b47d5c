// Package watch reports changes to the note collection made by other
// processes sharing the same data directory.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mindflow/internal/checksum"
	"github.com/starford/mindflow/internal/storage"
)

// DefaultDebounce collapses the burst of events one atomic write produces.
const DefaultDebounce = 200 * time.Millisecond

// EventCallback receives "reloaded" with an empty id after an external change.
type EventCallback func(kind, id string)

// Self reports the checksum of the last blob this process wrote, so the
// watcher can skip its own writes.
type Self interface {
	LastSaved() string
}

// Watch observes the notes file of fsys until ctx is cancelled. When the file
// changes and its checksum matches neither the previously seen content nor
// self's last write, cb is called with "reloaded".
func Watch(ctx context.Context, fsys *storage.FS, self Self, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	target, err := fsys.Path(storage.NotesKey)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// The directory is watched rather than the file: atomic writes replace
	// the file, which would drop a file-level watch.
	if err := w.Add(fsys.Root()); err != nil {
		return err
	}

	last := sum(fsys)
	logger.Info("watcher: started", slog.String("file", target))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			current := sum(fsys)
			if current == last {
				continue
			}
			last = current
			if self != nil && current == self.LastSaved() {
				logger.Debug("watcher: own write skipped")
				continue
			}
			logger.Info("watcher: notes changed externally")
			if cb != nil {
				cb("reloaded", "")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// sum fingerprints the stored blob; a missing blob is "".
func sum(fsys *storage.FS) string {
	data, err := fsys.Get(storage.NotesKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			return "error:" + err.Error()
		}
		return ""
	}
	return checksum.Sum(data)
}
