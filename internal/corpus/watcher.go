package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/lexdebate/internal/search"
)

// Rebuilder publishes a retriever built over a new document set.
// *search.Holder satisfies it.
type Rebuilder interface {
	Rebuild(ctx context.Context, docs []search.Document) (*search.Retriever, error)
}

// ReloadFunc is told about every reload attempt. c is nil when err is set.
type ReloadFunc func(c *Corpus, err error)

// Watcher reloads the corpus file when it changes and rebuilds the
// retriever. Bursts of writes inside the debounce window cause a single
// reload. A failed load or build leaves the published retriever in place.
type Watcher struct {
	path   string
	target Rebuilder

	debounce     time.Duration
	pollInterval time.Duration
	onReload     ReloadFunc
	logger       *slog.Logger
	forcePolling bool

	reloads  atomic.Uint64
	failures atomic.Uint64
	mode     atomic.Value // "fsnotify" or "polling"
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload (default: 500ms).
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithPollInterval sets the stat interval used when fsnotify is
// unavailable (default: 2s).
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithPolling skips fsnotify. Useful on network mounts.
func WithPolling() WatcherOption {
	return func(w *Watcher) {
		w.forcePolling = true
	}
}

// WithReloadFunc registers a callback for reload attempts.
func WithReloadFunc(fn ReloadFunc) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithWatcherLogger sets the logger (default: slog.Default()).
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher watches the corpus at path and rebuilds target on change.
func NewWatcher(path string, target Rebuilder, opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("corpus watcher needs a file path")
	}
	if target == nil {
		return nil, fmt.Errorf("corpus watcher needs a rebuild target")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus path: %w", err)
	}

	w := &Watcher{
		path:         filepath.Clean(abs),
		target:       target,
		debounce:     500 * time.Millisecond,
		pollInterval: 2 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. It falls back to polling when an
// fsnotify watcher cannot be created.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.forcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// Watch the directory: editors often replace the file by rename.
			if err = fsw.Add(filepath.Dir(w.path)); err == nil {
				w.mode.Store("fsnotify")
				defer func() { _ = fsw.Close() }()
				return w.runEvents(ctx, fsw)
			}
			_ = fsw.Close()
		}
		w.logger.Warn("corpus_watch_fallback",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
	}
	return w.runPolling(ctx)
}

func (w *Watcher) runEvents(ctx context.Context, fsw *fsnotify.Watcher) error {
	w.logger.Info("corpus_watch_started",
		slog.String("path", w.path),
		slog.String("mode", "fsnotify"),
		slog.Duration("debounce", w.debounce))

	d := newDebounce(w.debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				d.touch()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("corpus_watch_error", slog.String("error", err.Error()))
		case <-d.fired():
			w.reload(ctx)
		}
	}
}

func (w *Watcher) runPolling(ctx context.Context) error {
	w.logger.Info("corpus_watch_started",
		slog.String("path", w.path),
		slog.String("mode", "polling"),
		slog.Duration("interval", w.pollInterval))

	last := w.stat()
	w.mode.Store("polling")
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	d := newDebounce(w.debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if cur := w.stat(); cur != last {
				last = cur
				d.touch()
			}
		case <-d.fired():
			w.reload(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

type fileState struct {
	modTime time.Time
	size    int64
	exists  bool
}

func (w *Watcher) stat() fileState {
	info, err := os.Stat(w.path)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size(), exists: true}
}

// reload loads the file and rebuilds the target. Errors are logged and
// counted; the previous retriever keeps serving.
func (w *Watcher) reload(ctx context.Context) {
	start := time.Now()
	c, err := Load(w.path)
	if err == nil {
		_, err = w.target.Rebuild(ctx, c.DocumentsOrPlaceholder())
	}

	if err != nil {
		w.failures.Add(1)
		w.logger.Warn("corpus_reload_failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		if w.onReload != nil {
			w.onReload(nil, err)
		}
		return
	}

	w.reloads.Add(1)
	w.logger.Info("corpus_reloaded",
		slog.String("path", w.path),
		slog.Int("documents", c.Len()),
		slog.Int("skipped", c.Skipped),
		slog.Duration("elapsed", time.Since(start)))
	if w.onReload != nil {
		w.onReload(c, nil)
	}
}

// Reloads counts successful reloads.
func (w *Watcher) Reloads() uint64 {
	return w.reloads.Load()
}

// Failures counts failed reloads.
func (w *Watcher) Failures() uint64 {
	return w.failures.Load()
}

// Mode reports "fsnotify" or "polling" once Run has started, else "".
func (w *Watcher) Mode() string {
	if m, ok := w.mode.Load().(string); ok {
		return m
	}
	return ""
}

// debounce restarts a timer on every touch and fires once it runs out.
type debounce struct {
	window time.Duration
	timer  *time.Timer
}

func newDebounce(window time.Duration) *debounce {
	return &debounce{window: window}
}

func (d *debounce) touch() {
	if d.timer == nil {
		d.timer = time.NewTimer(d.window)
		return
	}
	d.timer.Reset(d.window)
}

// fired is nil, and so never ready, until the first touch.
func (d *debounce) fired() <-chan time.Time {
	if d.timer == nil {
		return nil
	}
	return d.timer.C
}

func (d *debounce) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}
