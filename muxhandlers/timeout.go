package muxhandlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vitalvas/vserver/mux"
)

// ErrInvalidTimeout is returned when TimeoutConfig.Duration is not greater
// than zero.
var ErrInvalidTimeout = errors.New("timeout: duration must be greater than zero")

// ErrRequestTimeout is the error reported in the body of a timed out response.
var ErrRequestTimeout = errors.New("request timed out")

// TimeoutConfig configures the Timeout middleware behaviour.
type TimeoutConfig struct {
	// Duration is the maximum time allowed for the response to complete.
	// Must be greater than zero.
	Duration time.Duration

	// Status is the status of a timed out response.
	// Defaults to 504 Gateway Timeout.
	Status int
}

// TimeoutMiddleware returns a middleware that bounds how long a response may
// stay pending. When the handler has not completed the response within the
// configured duration, the response completes with Status and
// {"error": "request timed out"}; the handler's own later completion is
// ignored. The request context is cancelled at the same moment.
//
// Without this middleware a handler that never completes its response blocks
// Dispatch indefinitely.
//
// It returns ErrInvalidTimeout if Duration is not greater than zero.
func TimeoutMiddleware(cfg TimeoutConfig) (mux.MiddlewareFunc, error) {
	if cfg.Duration <= 0 {
		return nil, ErrInvalidTimeout
	}

	duration := cfg.Duration
	status := cfg.Status
	if status == 0 {
		status = http.StatusGatewayTimeout
	}

	return func(next mux.HandlerFunc) mux.HandlerFunc {
		return func(req *mux.Request, res *mux.Response) error {
			ctx, cancel := context.WithTimeout(req.Context(), duration)

			stop := context.AfterFunc(ctx, func() {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					res.Abort(status, ErrRequestTimeout)
				}
			})
			res.OnComplete(func(*mux.Result) {
				stop()
				cancel()
			})

			return next(req.WithContext(ctx), res)
		}
	}, nil
}
