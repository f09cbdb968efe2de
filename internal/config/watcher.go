package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces editor write bursts into one reload.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads the project configuration when .ragcity.yaml changes.
// Reloaded configs go through the full Load pipeline, so user config and
// environment overrides still apply; invalid edits are reported on Errors
// and the previous config stays in effect.
type Watcher struct {
	dir      string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	configs  chan *Config
	errs     chan error

	mu      sync.Mutex
	timer   *time.Timer
	stopCh  chan struct{}
	stopped bool
}

// WatchConfig watches dir for project config changes. The watcher runs
// until Close is called or ctx is cancelled.
func WatchConfig(ctx context.Context, dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace config files on
	// save, which ends a file-level watch.
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:      dir,
		debounce: debounce,
		fsw:      fsw,
		configs:  make(chan *Config, 1),
		errs:     make(chan error, 4),
		stopCh:   make(chan struct{}),
	}

	go w.run(ctx)
	return w, nil
}

// Configs delivers validated configs after each change.
func (w *Watcher) Configs() <-chan *Config {
	return w.configs
}

// Errors delivers non-fatal watch and reload errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Close()
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isProjectConfig(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.emitError(err)
		}
	}
}

func isProjectConfig(path string) bool {
	base := filepath.Base(path)
	return base == ".ragcity.yaml" || base == ".ragcity.yml"
}

// scheduleReload resets the debounce timer so a burst of writes produces a
// single reload after the window.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.dir)
	if err != nil {
		slog.Warn("config_reload_failed", slog.String("error", err.Error()))
		w.emitError(err)
		return
	}

	slog.Info("config_reloaded", slog.String("dir", w.dir))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	// Keep only the newest config when the consumer lags.
	select {
	case w.configs <- cfg:
	default:
		select {
		case <-w.configs:
		default:
		}
		w.configs <- cfg
	}
}

func (w *Watcher) emitError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	select {
	case w.errs <- err:
	default:
	}
}
