package mux

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/vitalvas/vserver/store"
)

// Request is the simulated request handed to a handler. A fresh Request is
// built for every dispatch.
type Request struct {
	// ID identifies the request. Empty unless set by middleware such as
	// muxhandlers.RequestIDMiddleware.
	ID string

	// Method is the canonical uppercase method.
	Method string

	// Path is the URL without its query string.
	Path string

	// URL is the raw URL passed to Dispatch.
	URL string

	// Query holds the decoded query parameters. For repeated keys the last
	// value wins.
	Query map[string]string

	// Params holds the path parameters extracted from the route template.
	Params map[string]string

	// Headers is always empty; request headers are not simulated.
	Headers map[string]string

	// Body is the parsed JSON body. Missing or malformed bodies are an
	// empty map.
	Body any

	ctx   context.Context
	route *Route
	store *store.Store
}

// Context returns the request context. It is never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with its context changed to ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("mux: nil context")
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Route returns the matched route.
func (r *Request) Route() *Route {
	return r.route
}

// Store returns the shared data store.
func (r *Request) Store() *store.Store {
	return r.store
}

// Param returns a path parameter, or an empty string when absent.
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// QueryParam returns a query parameter, or an empty string when absent.
func (r *Request) QueryParam(name string) string {
	return r.Query[name]
}

// Bind decodes the body into v through a JSON round trip.
func (r *Request) Bind(v any) error {
	raw, err := json.Marshal(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// splitURL splits a raw URL into its path and query parts on the first '?'.
// A fragment is discarded. An empty path is the root path.
func splitURL(raw string) (string, string) {
	raw, _, _ = strings.Cut(raw, "#")
	path, query, _ := strings.Cut(raw, "?")
	if path == "" {
		path = "/"
	}
	return path, query
}

// parseQuery decodes URL-encoded key/value pairs. Pairs that fail to decode
// are skipped and repeated keys keep their last value.
func parseQuery(query string) map[string]string {
	params := make(map[string]string)
	if query == "" {
		return params
	}

	values, _ := url.ParseQuery(query)
	for k, vals := range values {
		if len(vals) > 0 {
			params[k] = vals[len(vals)-1]
		}
	}
	return params
}

// parseBody normalizes a dispatch body. Strings and byte slices are decoded
// as JSON, structured values pass through unchanged. The boolean is false
// when a textual body was not valid JSON; the body is then an empty map.
func parseBody(body any) (any, bool) {
	switch b := body.(type) {
	case nil:
		return map[string]any{}, true
	case string:
		return parseJSONBody([]byte(b))
	case []byte:
		return parseJSONBody(b)
	case json.RawMessage:
		return parseJSONBody(b)
	default:
		return b, true
	}
}

func parseJSONBody(raw []byte) (any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, true
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return map[string]any{}, false
	}
	if v == nil {
		return map[string]any{}, true
	}
	return v, true
}
