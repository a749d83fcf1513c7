package muxhandlers

import (
	"github.com/vitalvas/vserver/mux"
)

// HeadersConfig configures the DefaultHeaders middleware behaviour.
type HeadersConfig struct {
	// Headers are set on every response before the handler runs. Handlers
	// may override them.
	Headers map[string]string

	// CacheControl sets the Cache-Control header when not empty.
	CacheControl string
}

// DefaultHeadersMiddleware returns a middleware that pre-sets response
// headers, for example the CORS headers generated frontend code expects to
// see from a real API.
func DefaultHeadersMiddleware(cfg HeadersConfig) mux.MiddlewareFunc {
	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.CacheControl != "" {
		headers["Cache-Control"] = cfg.CacheControl
	}

	return func(next mux.HandlerFunc) mux.HandlerFunc {
		return func(req *mux.Request, res *mux.Response) error {
			for k, v := range headers {
				res.Set(k, v)
			}

			return next(req, res)
		}
	}
}
