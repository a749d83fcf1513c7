package routes

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/vitalvas/vserver/mux"
)

// DefaultDebounce is how long Watch waits after the last change event
// before reloading.
const DefaultDebounce = 200 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watcher)

type watcher struct {
	logger   zerolog.Logger
	debounce time.Duration
	onReload func(*Definition, error)
	source   func(*Definition) Source
}

// WithWatchLogger sets the logger for reload events.
func WithWatchLogger(logger zerolog.Logger) WatchOption {
	return func(w *watcher) {
		w.logger = logger
	}
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *watcher) {
		w.debounce = d
	}
}

// WithReloadHook registers fn to run after every reload attempt with the
// loaded definition or the error that prevented it.
func WithReloadHook(fn func(*Definition, error)) WatchOption {
	return func(w *watcher) {
		w.onReload = fn
	}
}

// WithSource sets how a loaded definition becomes the Source the router is
// booted with, for example to register extra routes next to it. By default
// the definition itself is the source.
func WithSource(fn func(*Definition) Source) WatchOption {
	return func(w *watcher) {
		w.source = fn
	}
}

// Watch reboots r with the definition file at path whenever the file is
// written or replaced, until ctx is done. A file that fails to load keeps
// the previous routes. The directory of the file is watched, so editors that
// save through a rename are noticed.
func Watch(ctx context.Context, path string, r *mux.Router, opts ...WatchOption) error {
	w := &watcher{
		logger:   zerolog.Nop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("routes: watch %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("routes: watch %s: %w", path, err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("routes: watch %s: %w", path, err)
	}

	w.logger.Info().Str("file", abs).Msg("watching route definitions")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watcher error")

		case <-timer.C:
			w.reload(abs, r)
		}
	}
}

func (w *watcher) reload(path string, r *mux.Router) {
	def, err := Load(path)
	if err == nil {
		var src Source = def
		if w.source != nil {
			src = w.source(def)
		}
		err = Boot(r, src)
	}

	if err != nil {
		w.logger.Error().Err(err).Str("file", path).Msg("failed to reload routes, keeping previous routes")
	} else {
		w.logger.Info().Str("file", path).Int("routes", r.Len()).Msg("routes reloaded")
	}

	if w.onReload != nil {
		w.onReload(def, err)
	}
}
