// Package watch provides a per-directory watcher: it emits one event per
// newly-appeared, stable, non-dotfile file. Health and error reporting are
// exposed so an orchestrator can supervise many of these at once.
package watch

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dwrtz/namefixd/internal/fssafe"
	"github.com/dwrtz/namefixd/internal/pathutil"
)

// Event is emitted for a newly-appeared, stable file. The stat fields are
// captured once, at emission time, so every downstream consumer sees the
// same birthtime/size a reprocessing pass later might not still find on
// disk.
type Event struct {
	Dir  string
	Path string

	// BirthtimeMs is taken from the file's modification time at emission,
	// the same value as MtimeMs; the file's creation time is not read.
	BirthtimeMs int64
	MtimeMs     int64
	Size        int64
}

// ErrorHandler receives asynchronous watcher errors.
type ErrorHandler func(dir string, err error)

// Watcher watches a single directory (non-recursively) and emits a stable
// Event for every new, non-dotfile file that appears in it.
type Watcher struct {
	dir    string
	fsw    *fsnotify.Watcher
	logger *log.Logger

	mu        sync.Mutex
	inFlight  map[string]struct{}
	alive     bool
	onErrorMu sync.Mutex
	onError   []ErrorHandler

	done chan struct{}
}

// New creates a Watcher for dir without starting it.
func New(dir string, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}
	return &Watcher{dir: dir, logger: logger, inFlight: make(map[string]struct{})}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// OnError subscribes handler to asynchronous watcher errors and returns an
// unsubscribe function.
func (w *Watcher) OnError(handler ErrorHandler) func() {
	w.onErrorMu.Lock()
	defer w.onErrorMu.Unlock()
	w.onError = append(w.onError, handler)
	idx := len(w.onError) - 1
	return func() {
		w.onErrorMu.Lock()
		defer w.onErrorMu.Unlock()
		if idx >= 0 && idx < len(w.onError) {
			w.onError[idx] = nil
		}
	}
}

func (w *Watcher) emitError(err error) {
	w.onErrorMu.Lock()
	handlers := make([]ErrorHandler, len(w.onError))
	copy(handlers, w.onError)
	w.onErrorMu.Unlock()

	for _, h := range handlers {
		if h != nil {
			h(w.dir, err)
		}
	}
}

// Start begins watching and calls onAdd for every stable, non-dotfile file
// that appears (existing files at start time are not reported; only new
// arrivals are). Start returns once the underlying OS watch is registered;
// event processing continues on a background goroutine until Stop.
func (w *Watcher) Start(onAdd func(Event)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher for %s: %w", w.dir, err)
	}

	if err := pathutil.EnsureDir(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("ensure watch directory %s: %w", w.dir, err)
	}

	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("add watch for %s: %w", w.dir, err)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.alive = true
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(onAdd)

	return nil
}

func (w *Watcher) loop(onAdd func(Event)) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.markDead()
				return
			}
			w.handleFsEvent(event, onAdd)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.markDead()
				return
			}
			w.logger.Printf("watch error on %s: %v", w.dir, err)
			w.emitError(err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event, onAdd func(Event)) {
	if event.Op&fsnotify.Create == 0 {
		return
	}

	basename := filepath.Base(event.Name)
	if strings.HasPrefix(basename, ".") {
		return
	}

	w.mu.Lock()
	if _, busy := w.inFlight[event.Name]; busy {
		w.mu.Unlock()
		return
	}
	w.inFlight[event.Name] = struct{}{}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.inFlight, event.Name)
		w.mu.Unlock()
	}()

	info, err := os.Stat(event.Name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		w.logger.Printf("stat %s: %v", event.Name, err)
		return
	}
	if info.IsDir() {
		return
	}

	stable, err := fssafe.IsStable(event.Name)
	if err != nil {
		w.logger.Printf("stability check %s: %v", event.Name, err)
		return
	}
	if !stable {
		return
	}

	// Re-stat after the stability wait: info above is from before the
	// poll, and the event's consumers should see the size/mtime that was
	// true the moment the file was judged stable, not the moment it
	// first appeared.
	final, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	onAdd(Event{
		Dir:         w.dir,
		Path:        event.Name,
		BirthtimeMs: final.ModTime().UnixMilli(),
		MtimeMs:     final.ModTime().UnixMilli(),
		Size:        final.Size(),
	})
}

func (w *Watcher) markDead() {
	w.mu.Lock()
	w.alive = false
	w.mu.Unlock()
}

// IsHealthy reports whether the watcher is active and its directory is
// still reachable.
func (w *Watcher) IsHealthy() bool {
	w.mu.Lock()
	alive := w.alive
	w.mu.Unlock()
	if !alive {
		return false
	}
	info, err := os.Stat(w.dir)
	return err == nil && info.IsDir()
}

// Stop tears down the underlying OS watch. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.alive && w.fsw == nil {
		w.mu.Unlock()
		return nil
	}
	fsw := w.fsw
	done := w.done
	w.alive = false
	w.fsw = nil
	w.mu.Unlock()

	if done != nil {
		close(done)
	}
	if fsw != nil {
		return fsw.Close()
	}
	return nil
}
