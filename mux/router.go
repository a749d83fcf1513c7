package mux

import (
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vitalvas/vserver/store"
)

// Router is the virtual HTTP server: a route table per method, a dispatcher
// and the shared data store handlers operate on.
//
//	r := mux.NewRouter(mux.WithStore(db))
//	r.Get("/users/:id", getUser)
//	res, err := r.Dispatch(ctx, "GET", "/users/42", nil)
//
// Registration is expected to finish before requests are dispatched. Reset
// and re-register to replace the route set; the store is never touched by
// route table operations.
type Router struct {
	mu     sync.RWMutex
	routes map[string][]*Route
	order  []*Route

	middlewares []MiddlewareFunc

	// handlerCache caches the middleware-wrapped handler per route.
	handlerCache sync.Map // map[*Route]HandlerFunc

	store  *store.Store
	logger zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithStore sets the shared data store. Without it the router uses an
// in-memory store.
func WithStore(s *store.Store) Option {
	return func(r *Router) {
		r.store = s
	}
}

// WithLogger sets the logger used for dispatch and persistence events.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter returns a new router instance.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		routes: make(map[string][]*Route),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = store.New(nil, store.WithLogger(r.logger))
	}
	return r
}

// Store returns the shared data store.
func (r *Router) Store() *store.Store {
	return r.store
}

// ClearData reinitializes the store to an empty object and persists it.
// Routes are left untouched.
func (r *Router) ClearData() error {
	return r.store.Clear()
}

// Register appends a route for method and path template. The method is
// normalized to uppercase. Registering the same method and path twice is
// allowed; the earlier route wins at match time.
func (r *Router) Register(method, path string, handler HandlerFunc) (*Route, error) {
	m := normalizeMethod(method)
	if m == "" {
		return nil, &RouteRegistrationError{Method: method, Path: path, Err: ErrEmptyMethod}
	}
	if handler == nil {
		return nil, &RouteRegistrationError{Method: m, Path: path, Err: ErrNilHandler}
	}

	pattern, err := newRoutePattern(path)
	if err != nil {
		return nil, &RouteRegistrationError{Method: m, Path: path, Err: err}
	}

	route := &Route{
		method:  m,
		path:    path,
		pattern: pattern,
		handler: handler,
	}

	r.mu.Lock()
	r.routes[m] = append(r.routes[m], route)
	r.order = append(r.order, route)
	r.mu.Unlock()

	r.logger.Debug().Str("method", m).Str("path", path).Msg("route registered")
	return route, nil
}

// MustRegister is like Register but panics if the route cannot be registered.
func (r *Router) MustRegister(method, path string, handler HandlerFunc) *Route {
	route, err := r.Register(method, path, handler)
	if err != nil {
		panic(err)
	}
	return route
}

// Get registers a GET route. It panics on an invalid template.
func (r *Router) Get(path string, handler HandlerFunc) *Route {
	return r.MustRegister(http.MethodGet, path, handler)
}

// Post registers a POST route. It panics on an invalid template.
func (r *Router) Post(path string, handler HandlerFunc) *Route {
	return r.MustRegister(http.MethodPost, path, handler)
}

// Put registers a PUT route. It panics on an invalid template.
func (r *Router) Put(path string, handler HandlerFunc) *Route {
	return r.MustRegister(http.MethodPut, path, handler)
}

// Patch registers a PATCH route. It panics on an invalid template.
func (r *Router) Patch(path string, handler HandlerFunc) *Route {
	return r.MustRegister(http.MethodPatch, path, handler)
}

// Delete registers a DELETE route. It panics on an invalid template.
func (r *Router) Delete(path string, handler HandlerFunc) *Route {
	return r.MustRegister(http.MethodDelete, path, handler)
}

// Reset removes every registered route. The store is left untouched.
func (r *Router) Reset() {
	r.mu.Lock()
	r.routes = make(map[string][]*Route)
	r.order = nil
	r.mu.Unlock()

	r.handlerCache.Clear()
	r.logger.Debug().Msg("routes reset")
}

// Len returns the number of registered routes.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]*Route, len(r.order))
	copy(routes, r.order)
	return routes
}

// Match returns the first route registered for method whose template matches
// path, together with the extracted path parameters.
func (r *Router) Match(method, path string) (*Route, map[string]string, error) {
	r.mu.RLock()
	candidates := r.routes[normalizeMethod(method)]
	r.mu.RUnlock()

	for _, route := range candidates {
		if params, ok := route.pattern.match(path); ok {
			return route, params, nil
		}
	}
	return nil, nil, ErrNotFound
}

// WalkFunc is called for each route visited by Walk.
type WalkFunc func(route *Route) error

// Walk calls walkFn for each route in registration order, stopping at the
// first error.
func (r *Router) Walk(walkFn WalkFunc) error {
	for _, route := range r.Routes() {
		if err := walkFn(route); err != nil {
			return err
		}
	}
	return nil
}

func normalizeMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}
