// Package mux implements an in-process virtual HTTP server: an Express-like
// request router whose requests and responses never leave memory.
//
// It lets generated frontend code call "API endpoints" that exist only as
// Go handlers, backed by a shared data store that survives reloads.
//
// # Routes
//
// Routes are registered per method with a path template. Segments starting
// with a colon are named parameters:
//
//	r := mux.NewRouter()
//	r.Get("/users/:id/orders/:orderId", handler)
//
// Matching is case-insensitive, anchored at both ends and tolerates a single
// trailing slash. A parameter matches one or more characters other than '/'.
// Routes are tried in registration order and the first match wins. There is
// no de-duplication: registering the same method and path twice shadows the
// later route. Replace a route set by calling Reset and registering again.
//
// Register returns a *RouteRegistrationError for malformed templates such as
// an unnamed parameter or a repeated parameter name.
//
// # Dispatch
//
// Dispatch runs one exchange and waits for the result:
//
//	res, err := r.Dispatch(ctx, "POST", "/users?notify=1", `{"name":"Ann"}`)
//	// res.Status, res.OK, res.Data, res.Headers
//
// Query parameters are decoded with the last value winning for repeated keys.
// String bodies are parsed as JSON; malformed bodies degrade to an empty map.
// Request headers are not simulated and always empty. An unmatched request
// yields a 404 Result with {"error": "Cannot GET /path"}.
//
// # Handlers
//
// A handler receives the request and a chainable response builder:
//
//	func getUser(req *mux.Request, res *mux.Response) error {
//		user, ok := findUser(req.Store(), req.Param("id"))
//		if !ok {
//			res.Status(http.StatusNotFound).JSON(map[string]any{"error": "not found"})
//			return nil
//		}
//		res.JSON(user)
//		return nil
//	}
//
// The first terminal call (JSON, Send, SendStatus, End, Fail, Abort) completes
// the exchange; later ones are ignored. A handler may return before
// completing and finish from another goroutine. A returned error or a panic
// becomes a 500 Result with {"error": message}, or keeps an error status the
// handler set explicitly before failing.
//
// A handler that never completes its response blocks Dispatch until the
// context passed to Dispatch is done. No timeout is applied by default; see
// muxhandlers.TimeoutMiddleware.
//
// # Store
//
// Every completed exchange, successful or not, saves the shared store exactly
// once. Save failures are logged and do not change the result. Route table
// operations never touch the store; ClearData resets it explicitly.
//
// Handlers may run concurrently. Individual store operations are safe, but a
// read followed by a separate write can race with another handler; use
// store.Store.Update for read-modify-write sequences.
package mux
