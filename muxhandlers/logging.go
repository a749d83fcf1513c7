package muxhandlers

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/vitalvas/vserver/mux"
)

// LoggingConfig configures the access logging middleware.
type LoggingConfig struct {
	// Logger receives one event per completed response.
	Logger zerolog.Logger

	// Level is the level of successful responses. Responses with a status
	// of 500 or above are logged at error level, 400 and above at warn.
	// Defaults to info.
	Level zerolog.Level
}

// LoggingMiddleware returns a middleware that logs every completed response
// with its method, path, matched route, status and duration.
func LoggingMiddleware(cfg LoggingConfig) mux.MiddlewareFunc {
	logger := cfg.Logger
	level := cfg.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return func(next mux.HandlerFunc) mux.HandlerFunc {
		return func(req *mux.Request, res *mux.Response) error {
			start := time.Now()

			res.OnComplete(func(result *mux.Result) {
				lvl := level
				switch {
				case result.Status >= 500:
					lvl = zerolog.ErrorLevel
				case result.Status >= 400:
					lvl = zerolog.WarnLevel
				}

				event := logger.WithLevel(lvl).
					Str("method", req.Method).
					Str("path", req.Path).
					Int("status", result.Status).
					Dur("duration", time.Since(start))
				if route := req.Route(); route != nil {
					event = event.Str("route", route.Template())
				}
				if id := RequestIDFromContext(req.Context()); id != "" {
					event = event.Str("request_id", id)
				}
				event.Msg("request completed")
			})

			return next(req, res)
		}
	}
}
