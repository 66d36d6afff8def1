// Package watch wraps fsnotify for the standalone `ctxd watch` helper,
// which turns raw file-system events into notify_file_change requests. The
// daemon does not use this package itself; its auto-init check runs when
// such a request arrives.
package watch

import (
	"github.com/fsnotify/fsnotify"

	"github.com/ctxmemd/ctxd/internal/storage"
)

// Event is a simplified file-change notification.
type Event struct {
	Path       string
	ChangeType storage.ChangeType
}

// Watcher watches a single directory and emits simplified Events. Changes
// inside its subdirectories are not reported.
type Watcher struct {
	fs *fsnotify.Watcher
}

// New starts watching root.
func New(root string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(root); err != nil {
		fs.Close()
		return nil, err
	}
	return &Watcher{fs: fs}, nil
}

// Events returns a channel of simplified events, closed when the watcher
// is closed.
func (w *Watcher) Events() <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-w.fs.Events:
				if !ok {
					return
				}
				ct, ok := classify(ev.Op)
				if !ok {
					continue
				}
				out <- Event{Path: ev.Name, ChangeType: ct}
			case _, ok := <-w.fs.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fs.Close() }

func classify(op fsnotify.Op) (storage.ChangeType, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return storage.ChangeCreated, true
	case op&fsnotify.Write != 0:
		return storage.ChangeModified, true
	case op&fsnotify.Remove != 0, op&fsnotify.Rename != 0:
		return storage.ChangeDeleted, true
	default:
		return "", false
	}
}
