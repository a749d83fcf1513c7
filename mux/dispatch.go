package mux

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Dispatch performs one simulated request/response exchange.
//
// The URL may carry a query string. The body may be nil, a JSON string or
// byte slice, or an already structured value; malformed JSON becomes an
// empty map. When no route matches, the result is a 404 with
// {"error": "Cannot <METHOD> <path>"} and neither a handler nor the store is
// touched.
//
// Otherwise the matched handler runs and Dispatch waits until the response
// completes. Handler failures are reported through the Result, never as an
// error. The store is saved exactly once per completed response and save
// failures are logged only.
//
// A handler that never completes its response blocks Dispatch until ctx is
// done, in which case ctx.Err() is returned and a later completion is still
// persisted.
func (r *Router) Dispatch(ctx context.Context, method, url string, body any) (*Result, error) {
	m := normalizeMethod(method)
	if m == "" {
		return nil, ErrEmptyMethod
	}

	path, query := splitURL(url)

	route, params, err := r.Match(m, path)
	if err != nil {
		r.logger.Debug().Str("method", m).Str("path", path).Msg("no route matched")
		return notFoundResult(m, path), nil
	}

	parsed, ok := parseBody(body)
	if !ok {
		r.logger.Debug().Str("method", m).Str("path", path).Msg("request body is not valid JSON, using empty object")
	}
	if params == nil {
		params = make(map[string]string)
	}

	req := &Request{
		Method:  m,
		Path:    path,
		URL:     url,
		Query:   parseQuery(query),
		Params:  params,
		Headers: make(map[string]string),
		Body:    parsed,
		ctx:     ctx,
		route:   route,
		store:   r.store,
	}
	res := newResponse(m, path, r.logger, func(*Result) { r.persist() })

	start := time.Now()
	go r.execute(r.handlerFor(route), req, res)

	select {
	case <-res.Done():
		result := res.Result()
		r.logger.Debug().
			Str("method", m).
			Str("path", path).
			Str("route", route.Template()).
			Int("status", result.Status).
			Dur("duration", time.Since(start)).
			Msg("request dispatched")
		return result, nil
	case <-ctx.Done():
		r.logger.Warn().Str("method", m).Str("path", path).Err(ctx.Err()).Msg("dispatch abandoned before response completed")
		return nil, ctx.Err()
	}
}

// execute runs the handler, converting a returned error or a panic into a
// failed response.
func (r *Router) execute(handler HandlerFunc, req *Request, res *Response) {
	defer func() {
		if v := recover(); v != nil {
			res.Fail(panicError(v))
		}
	}()

	if err := handler(req, res); err != nil {
		res.Fail(err)
	}
}

// persist saves the store. Failures do not affect the already determined
// result.
func (r *Router) persist() {
	if err := r.store.Save(); err != nil {
		r.logger.Error().Err(err).Str("key", r.store.Key()).Msg("failed to persist data")
	}
}

func notFoundResult(method, path string) *Result {
	return &Result{
		Status:  http.StatusNotFound,
		OK:      false,
		Data:    map[string]any{"error": fmt.Sprintf("Cannot %s %s", method, path)},
		Headers: make(map[string]string),
	}
}
