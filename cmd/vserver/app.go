package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vitalvas/vserver/config"
	"github.com/vitalvas/vserver/logging"
	"github.com/vitalvas/vserver/mux"
	"github.com/vitalvas/vserver/muxhandlers"
	"github.com/vitalvas/vserver/openapi"
	"github.com/vitalvas/vserver/routes"
	"github.com/vitalvas/vserver/store"
)

// app is the virtual server assembled from the configuration.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer

	store  *store.Store
	router *mux.Router

	mu sync.Mutex
	// def is the last successfully loaded route definition.
	def *routes.Definition
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newApp builds the store and router and applies the configured middleware.
// Routes are not loaded until boot.
func newApp(cfg *config.Config, logger zerolog.Logger, closer io.Closer) (*app, error) {
	backend, err := newBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}

	s := store.New(backend,
		store.WithKey(cfg.Storage.Key),
		store.WithLogger(logging.WithComponent(logger, "store")),
	)

	r := mux.NewRouter(
		mux.WithStore(s),
		mux.WithLogger(logging.WithComponent(logger, "router")),
	)

	mws, err := middleware(cfg.Server, logger)
	if err != nil {
		return nil, err
	}
	r.Use(mws...)

	if closer == nil {
		closer = nopCloser{}
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		closer: closer,
		store:  s,
		router: r,
	}, nil
}

func newBackend(cfg config.StorageConfig) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		b := store.NewMemoryBackend()
		b.Quota = cfg.Quota
		return b, nil
	case config.BackendFile:
		b, err := store.NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, err
		}
		b.Quota = cfg.Quota
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// middleware returns the configured middleware, outermost first.
func middleware(cfg config.ServerConfig, logger zerolog.Logger) ([]mux.MiddlewareFunc, error) {
	var mws []mux.MiddlewareFunc

	switch cfg.RequestID {
	case config.RequestIDV4:
		mws = append(mws, muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{}))
	case config.RequestIDV7:
		mws = append(mws, muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{
			GenerateFunc: muxhandlers.GenerateUUIDv7,
		}))
	}

	if cfg.AccessLog {
		mws = append(mws, muxhandlers.LoggingMiddleware(muxhandlers.LoggingConfig{
			Logger: logging.WithComponent(logger, "access"),
		}))
	}

	if len(cfg.Headers) > 0 || cfg.CacheControl != "" {
		mws = append(mws, muxhandlers.DefaultHeadersMiddleware(muxhandlers.HeadersConfig{
			Headers:      cfg.Headers,
			CacheControl: cfg.CacheControl,
		}))
	}

	if cfg.Timeout > 0 {
		mw, err := muxhandlers.TimeoutMiddleware(muxhandlers.TimeoutConfig{Duration: cfg.Timeout})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}

	if cfg.Delay > 0 || cfg.Jitter > 0 {
		mw, err := muxhandlers.DelayMiddleware(muxhandlers.DelayConfig{
			Duration: cfg.Delay,
			Jitter:   cfg.Jitter,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}

	return mws, nil
}

// boot loads the route definition file and reboots the router with it.
// A missing file boots with no definition routes.
func (a *app) boot() error {
	def, err := routes.Load(a.cfg.Routes.File)
	switch {
	case errors.Is(err, os.ErrNotExist):
		a.logger.Warn().Str("file", a.cfg.Routes.File).Msg("route definition file not found")
		def = &routes.Definition{}
	case err != nil:
		return err
	}

	if err := routes.Boot(a.router, a.source(def)); err != nil {
		return err
	}

	a.setDefinition(def)
	a.logger.Debug().Int("routes", a.router.Len()).Msg("routes booted")
	return nil
}

// source registers the definition routes followed by the OpenAPI document
// routes when enabled.
func (a *app) source(def *routes.Definition) routes.Source {
	return routes.SourceFunc(func(r *mux.Router) error {
		if err := def.Register(r); err != nil {
			return err
		}
		if a.cfg.OpenAPI.Path == "" {
			return nil
		}
		return openapi.Handle(r, a.cfg.OpenAPI.Path, a.info(), &openapi.HandleConfig{
			Options: def.OpenAPIOptions(),
		})
	})
}

// watch reboots the router whenever the definition file changes until ctx
// is done.
func (a *app) watch(ctx context.Context) error {
	return routes.Watch(ctx, a.cfg.Routes.File, a.router,
		routes.WithWatchLogger(logging.WithComponent(a.logger, "watch")),
		routes.WithSource(a.source),
		routes.WithReloadHook(func(def *routes.Definition, err error) {
			if err == nil {
				a.setDefinition(def)
			}
		}),
	)
}

func (a *app) setDefinition(def *routes.Definition) {
	a.mu.Lock()
	a.def = def
	a.mu.Unlock()
}

func (a *app) definition() *routes.Definition {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.def
}

func (a *app) info() openapi.Info {
	return openapi.Info{
		Title:   a.cfg.OpenAPI.Title,
		Version: a.cfg.OpenAPI.Version,
	}
}

// document describes the currently registered routes.
func (a *app) document() *openapi.Document {
	var opts []openapi.Option
	if def := a.definition(); def != nil {
		opts = def.OpenAPIOptions()
	}
	return openapi.Build(a.router, a.info(), opts...)
}

func (a *app) Close() error {
	return a.closer.Close()
}
