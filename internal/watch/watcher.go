// Package watch reports changes to a single input file using fsnotify.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must stay quiet before a change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // written, created, or replaced by rename
	ChangeRemoved                    // deleted or renamed away
)

// String returns the lower-case name of the change.
func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "modified"
}

// Change is a debounced change of the watched file.
type Change struct {
	Kind ChangeKind
	File string
	At   time.Time
}

// Watcher monitors one file. It watches the parent directory so that editors
// replacing the file through a rename are still seen.
type Watcher struct {
	File     string
	Debounce time.Duration
	Changes  <-chan Change // Read-only external channel

	changes chan Change
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	// A single slot is enough: one queued rerun covers any number of changes.
	ch := make(chan Change, 1)
	return &Watcher{
		File:     abs,
		Debounce: DefaultDebounce,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

// Start begins watching the file's directory. If it fails, the underlying
// watcher is already released; Stop may still be called and only closes
// Changes.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.File)); err != nil {
		w.watcher.Close()
		close(w.done)
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(w.File), err)
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	var last time.Time
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.File {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				last = time.Now()
			}

		case now := <-ticker.C:
			if !last.IsZero() && now.Sub(last) >= debounce {
				w.emit(now)
				last = time.Time{}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

// emit reports the file's current state. A pending unread change is replaced
// so the consumer always sees the latest one.
func (w *Watcher) emit(now time.Time) {
	c := Change{Kind: ChangeModified, File: w.File, At: now}
	if _, err := os.Stat(w.File); err != nil {
		c.Kind = ChangeRemoved
	}
	for {
		select {
		case w.changes <- c:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}
