package confloader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor produces when
// saving a file.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to configuration files.
//
// Parent directories are watched so that editors which save by renaming a
// temporary file over the original are still noticed. Events for other
// files in those directories are ignored.
type Watcher struct {
	fsw      *fsnotify.Watcher
	log      *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	files    map[string]struct{}
	handlers []func(path string)
	pending  map[string]*time.Timer

	closeOnce sync.Once
	closed    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(log *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithDebounce sets how long a file must stay quiet before handlers run.
// Zero runs handlers on every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher. Call Run or Start to deliver events.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		log:      slog.Default(),
		debounce: DefaultDebounce,
		files:    make(map[string]struct{}),
		pending:  make(map[string]*time.Timer),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add starts watching path. The file may be missing, but its directory
// must exist.
func (w *Watcher) Add(path string) error {
	path = filepath.Clean(path)
	if err := w.fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w.mu.Lock()
	w.files[path] = struct{}{}
	w.mu.Unlock()

	w.log.Debug("watching config file", "path", path)
	return nil
}

// OnChange registers fn to run, on the watcher's goroutine, with the path
// of each changed file.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Run delivers events until ctx is cancelled or Close is called.
// Cancelling ctx closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fired := make(chan string)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.schedule(filepath.Clean(ev.Name), fired)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watcher error", "error", err)
		case path := <-fired:
			w.notify(path)
		case <-ctx.Done():
			_ = w.Close()
			return ctx.Err()
		case <-w.closed:
			return nil
		}
	}
}

// Start runs Run in a new goroutine.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("config watcher stopped", "error", err)
		}
	}()
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)

		w.mu.Lock()
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()

		err = w.fsw.Close()
	})
	return err
}

// schedule arranges for path's handlers to run once it has been quiet
// for the debounce interval. The timer hands the path back to Run so
// handlers never run concurrently.
func (w *Watcher) schedule(path string, fired chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[path]; !ok {
		return
	}
	if w.debounce <= 0 {
		go w.deliver(path, fired)
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.deliver(path, fired)
	})
}

func (w *Watcher) deliver(path string, fired chan<- string) {
	select {
	case fired <- path:
	case <-w.closed:
	}
}

func (w *Watcher) notify(path string) {
	w.mu.Lock()
	handlers := append([]func(string){}, w.handlers...)
	w.mu.Unlock()

	w.log.Debug("config file changed", "path", path)
	for _, fn := range handlers {
		fn(path)
	}
}
