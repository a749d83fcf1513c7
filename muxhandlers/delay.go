package muxhandlers

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/vitalvas/vserver/mux"
)

// ErrInvalidDelay is returned when DelayConfig has a negative duration or
// jitter.
var ErrInvalidDelay = errors.New("delay: duration and jitter must not be negative")

// DelayConfig configures the Delay middleware behaviour.
type DelayConfig struct {
	// Duration is the fixed latency added before the handler runs.
	Duration time.Duration

	// Jitter adds a random extra latency in [0, Jitter).
	Jitter time.Duration
}

// DelayMiddleware returns a middleware that simulates network latency by
// sleeping before the handler runs. A cancelled request context ends the
// wait early and fails the request with the context error.
func DelayMiddleware(cfg DelayConfig) (mux.MiddlewareFunc, error) {
	if cfg.Duration < 0 || cfg.Jitter < 0 {
		return nil, ErrInvalidDelay
	}

	duration := cfg.Duration
	jitter := cfg.Jitter

	return func(next mux.HandlerFunc) mux.HandlerFunc {
		return func(req *mux.Request, res *mux.Response) error {
			d := duration
			if jitter > 0 {
				d += rand.N(jitter)
			}

			if d > 0 {
				timer := time.NewTimer(d)
				defer timer.Stop()

				select {
				case <-timer.C:
				case <-req.Context().Done():
					return req.Context().Err()
				}
			}

			return next(req, res)
		}
	}, nil
}
