package mdplug

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher error messages
const (
	ErrMsgWatcherClosed  = "watcher is closed"
	ErrMsgWatcherRunning = "watcher is already running"
)

// Watcher reloads a Manager from a definitions directory whenever a
// definition file changes. Bursts of changes are collapsed into one reload
// after the debounce interval.
type Watcher struct {
	manager  *Manager
	dir      string
	debounce time.Duration
	logger   *zap.Logger
	onReload func([]*LoadReport, error)
	lazy     bool

	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	running bool
	closed  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatchDebounce sets the quiet period before a reload.
// Default: 500ms
func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher logger.
// Default: the manager logger
func WithWatchLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithReloadHook registers a callback invoked after every reload attempt.
func WithReloadHook(fn func([]*LoadReport, error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithoutInitialReload makes Run wait for the first change instead of
// loading the directory on start. Use it when the manager was already
// loaded from dir.
func WithoutInitialReload() WatcherOption {
	return func(w *Watcher) {
		w.lazy = true
	}
}

// NewWatcher creates a watcher for dir. Nothing is loaded until Run.
func NewWatcher(m *Manager, dir string, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, &DefinitionError{Path: dir, Message: ErrMsgReadFailed, Cause: err}
	}

	w := &Watcher{
		manager:  m,
		dir:      dir,
		debounce: DefaultWatchDebounce,
		logger:   m.logger,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Reload loads the directory into the manager immediately.
func (w *Watcher) Reload() ([]*LoadReport, error) {
	reports, err := w.manager.LoadDir(w.dir)
	if err != nil {
		w.logger.Warn(LogMsgWatcherReloadFail, zap.String(LogFieldDir, w.dir), zap.Error(err))
	} else {
		w.logger.Info(LogMsgWatcherReload,
			zap.String(LogFieldDir, w.dir),
			zap.Int(LogFieldPlugins, len(reports)))
	}
	if w.onReload != nil {
		w.onReload(reports, err)
	}
	return reports, err
}

// Run performs an initial reload, unless WithoutInitialReload is set, and
// then watches the directory until ctx is
// done or the watcher is closed. A failing reload keeps the previous plugins.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.New(ErrMsgWatcherClosed)
	}
	if w.running {
		w.mu.Unlock()
		return errors.New(ErrMsgWatcherRunning)
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if !w.lazy {
		_, _ = w.Reload()
	}
	w.logger.Info(LogMsgWatcherStarted, zap.String(LogFieldDir, w.dir))
	defer w.logger.Info(LogMsgWatcherStopped, zap.String(LogFieldDir, w.dir))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			w.logger.Debug(LogMsgWatcherEvent,
				zap.String(LogFieldPath, event.Name),
				zap.String(LogFieldOp, event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			_, _ = w.Reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(LogMsgWatcherError, zap.String(LogFieldDir, w.dir), zap.Error(err))
		}
	}
}

// Close stops watching. A running Run returns.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}

func relevantEvent(event fsnotify.Event) bool {
	if _, ok := FormatFromPath(event.Name); !ok {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
