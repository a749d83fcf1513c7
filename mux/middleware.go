package mux

// MiddlewareFunc wraps a HandlerFunc with additional behavior such as
// logging, request IDs or simulated latency.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Middleware allows MiddlewareFunc to be used where a middleware interface
// is expected.
func (mw MiddlewareFunc) Middleware(next HandlerFunc) HandlerFunc {
	return mw(next)
}

// Use appends middleware to the chain. Middleware applies to matched routes
// only; 404 outcomes never reach it. The first middleware added is the
// outermost.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.middlewares = append(r.middlewares, mwf...)
	r.handlerCache.Clear()
}

// applyMiddleware wraps the handler with all registered middleware.
func (r *Router) applyMiddleware(handler HandlerFunc) HandlerFunc {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i].Middleware(handler)
	}
	return handler
}

// handlerFor returns the middleware-wrapped handler of route, caching it so
// the chain is built once per route.
func (r *Router) handlerFor(route *Route) HandlerFunc {
	if cached, ok := r.handlerCache.Load(route); ok {
		return cached.(HandlerFunc)
	}

	r.mu.RLock()
	wrapped := r.applyMiddleware(route.handler)
	r.mu.RUnlock()

	actual, _ := r.handlerCache.LoadOrStore(route, wrapped)
	return actual.(HandlerFunc)
}
