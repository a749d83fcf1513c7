package mux

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Match when no route matches. Dispatch reports
// it as a 404 Result rather than an error.
var ErrNotFound = errors.New("no matching route was found")

// ErrEmptyMethod is returned for a blank HTTP method.
var ErrEmptyMethod = errors.New("mux: empty method")

// ErrNilHandler is returned when registering a route without a handler.
var ErrNilHandler = errors.New("mux: nil handler")

// RouteRegistrationError reports a route that could not be registered.
// The route table is left unchanged.
type RouteRegistrationError struct {
	Method string
	Path   string
	Err    error
}

func (e *RouteRegistrationError) Error() string {
	return fmt.Sprintf("mux: cannot register %s %q: %v", e.Method, e.Path, e.Err)
}

func (e *RouteRegistrationError) Unwrap() error {
	return e.Err
}

// HandlerError describes a handler that returned an error, panicked or
// called Response.Fail. It is logged; callers of Dispatch only see the
// resulting 5xx Result.
type HandlerError struct {
	Method string
	Path   string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("mux: handler for %s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// panicError converts a recovered panic value into an error whose message is
// the panic value itself.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
