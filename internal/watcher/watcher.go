// Package watcher monitors page folders on disk and broadcasts changes via
// callbacks.
package watcher

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/CageChen/markpress/internal/content"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	}
	return "unknown"
}

// Event is a change to a page file.
type Event struct {
	Type EventType
	// File is the path on disk, Page the library path.
	File string
	Page string
}

// Callback is a function called when file changes occur
type Callback func(Event)

// Watcher monitors the disk sources of a library.
type Watcher struct {
	watcher   *fsnotify.Watcher
	lib       *content.Library
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a new file system watcher
func New(lib *content.Library) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: w,
		lib:     lib,
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for file change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start watches every directory of the disk sources. Embedded pages never
// change and are skipped.
func (w *Watcher) Start() error {
	for _, src := range w.lib.Sources() {
		if src.Dir == "" {
			continue
		}
		err := fs.WalkDir(src.FS, ".", func(rel string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if rel != "." && w.lib.IsExcluded(src, rel) {
				return fs.SkipDir
			}
			dir, _ := src.DiskPath(rel)
			if err := w.watcher.Add(dir); err != nil {
				log.Printf("Warning: cannot watch %s: %v", dir, err)
			}
			return nil
		})
		if err != nil {
			log.Printf("Warning: failed to walk folder %s: %v", src.Dir, err)
		}
	}

	go w.eventLoop()
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	page, ok := w.lib.PathFor(event.Name)
	if !ok {
		return
	}
	src, rel, err := w.lib.Resolve(page)
	if err != nil || w.lib.IsExcluded(src, rel) {
		return
	}

	dir := isDir(event.Name)
	if !dir && !w.lib.IsMarkdownFile(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
		// If a new directory is created, watch it
		if dir {
			_ = w.watcher.Add(event.Name)
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	w.emit(Event{Type: eventType, File: filepath.Clean(event.Name), Page: page})
}

func (w *Watcher) emit(e Event) {
	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
