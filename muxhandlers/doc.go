// Package muxhandlers provides middleware for the virtual mux router.
//
// # Request ID Middleware
//
// RequestIDMiddleware assigns every request an ID, stores it in the request
// context and echoes it in the X-Request-ID response header. UUID v4 is the
// default; GenerateUUIDv7 produces time-ordered IDs.
//
//	r.Use(muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{
//	    GenerateFunc: muxhandlers.GenerateUUIDv7,
//	}))
//
// # Logging Middleware
//
// LoggingMiddleware writes one zerolog event per completed response.
//
//	r.Use(muxhandlers.LoggingMiddleware(muxhandlers.LoggingConfig{Logger: logger}))
//
// # Delay Middleware
//
// DelayMiddleware simulates network latency so that loading states in
// generated frontend code can be exercised.
//
//	mw, err := muxhandlers.DelayMiddleware(muxhandlers.DelayConfig{
//	    Duration: 200 * time.Millisecond,
//	    Jitter:   100 * time.Millisecond,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
//
// # Timeout Middleware
//
// By default a handler that never completes its response blocks Dispatch.
// TimeoutMiddleware bounds that wait and completes the response with
// 504 Gateway Timeout instead.
//
//	mw, err := muxhandlers.TimeoutMiddleware(muxhandlers.TimeoutConfig{
//	    Duration: 5 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
//
// # Default Headers Middleware
//
// DefaultHeadersMiddleware pre-sets response headers such as CORS or
// Cache-Control values on every response.
//
//	r.Use(muxhandlers.DefaultHeadersMiddleware(muxhandlers.HeadersConfig{
//	    Headers:      map[string]string{"Access-Control-Allow-Origin": "*"},
//	    CacheControl: "no-store",
//	}))
package muxhandlers
