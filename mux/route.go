package mux

// HandlerFunc handles one dispatched request.
//
// A handler completes the exchange by calling one of the terminal methods of
// res, either before returning or later from another goroutine. A returned
// error or a panic completes the exchange as a failure instead.
type HandlerFunc func(req *Request, res *Response) error

// Route is a registered method, path template and handler. Routes are
// immutable once registered.
type Route struct {
	method  string
	path    string
	pattern *routePattern
	handler HandlerFunc
}

// Method returns the canonical uppercase method of the route.
func (r *Route) Method() string {
	return r.method
}

// Template returns the path template exactly as it was registered. Matching
// uses a normalized form with a leading slash, where "" is "/".
func (r *Route) Template() string {
	return r.path
}

// ParamNames returns the parameter names of the template in order.
func (r *Route) ParamNames() []string {
	names := make([]string, len(r.pattern.varsN))
	copy(names, r.pattern.varsN)
	return names
}

// Handler returns the handler registered for the route, without middleware.
func (r *Route) Handler() HandlerFunc {
	return r.handler
}

// Match reports whether path matches the route template and returns the
// extracted path parameters.
func (r *Route) Match(path string) (map[string]string, bool) {
	return r.pattern.match(path)
}
