package muxhandlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/vitalvas/vserver/mux"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in the context by
// RequestIDMiddleware. Returns an empty string if no ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}

// RequestIDConfig configures the Request ID middleware behaviour.
type RequestIDConfig struct {
	// HeaderName overrides the response header carrying the request ID.
	// Defaults to "X-Request-ID" when empty.
	HeaderName string

	// GenerateFunc is an optional callback that returns a new unique ID.
	// Defaults to GenerateUUIDv4.
	GenerateFunc func(req *mux.Request) string

	// KeepExisting, when true, reuses an ID already set on the request by
	// an outer middleware instead of generating a new one.
	KeepExisting bool
}

// RequestIDMiddleware returns a middleware that assigns a request ID. The ID
// is set on the request, stored in its context and echoed as a response
// header.
func RequestIDMiddleware(cfg RequestIDConfig) mux.MiddlewareFunc {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "X-Request-ID"
	}

	generate := cfg.GenerateFunc
	if generate == nil {
		generate = GenerateUUIDv4
	}

	keepExisting := cfg.KeepExisting

	return func(next mux.HandlerFunc) mux.HandlerFunc {
		return func(req *mux.Request, res *mux.Response) error {
			id := ""
			if keepExisting {
				id = req.ID
			}

			if id == "" {
				id = generate(req)
			}

			if id != "" {
				req = req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id))
				req.ID = id
				res.Set(headerName, id)
			}

			return next(req, res)
		}
	}
}

// GenerateUUIDv4 returns a new UUID v4 string.
//
// See RFC 9562, section 5.4.
func GenerateUUIDv4(_ *mux.Request) string {
	return uuid.New().String()
}

// GenerateUUIDv7 returns a new UUID v7 string. UUIDs are time-ordered:
// IDs generated later sort lexicographically after earlier ones.
//
// See RFC 9562, section 5.7.
func GenerateUUIDv7(_ *mux.Request) string {
	return uuid.Must(uuid.NewV7()).String()
}
