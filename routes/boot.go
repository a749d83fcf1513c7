package routes

import (
	"fmt"

	"github.com/vitalvas/vserver/mux"
	"github.com/vitalvas/vserver/openapi"
)

// Source registers a set of handlers on a router. A route definition file,
// generated Go code or a test fixture can all act as a source.
type Source interface {
	Register(r *mux.Router) error
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(r *mux.Router) error

// Register calls f(r).
func (f SourceFunc) Register(r *mux.Router) error {
	return f(r)
}

// Boot replaces the routes of r with the routes of src. The data store is
// kept. The source is first registered on a scratch router, so a source that
// fails to register leaves the current routes in place.
func Boot(r *mux.Router, src Source) error {
	if err := src.Register(mux.NewRouter()); err != nil {
		return fmt.Errorf("routes: boot: %w", err)
	}

	r.Reset()
	if err := src.Register(r); err != nil {
		return fmt.Errorf("routes: boot: %w", err)
	}
	return nil
}

// OpenAPIOptions describes the defined routes for openapi.Build: summaries,
// tags and, for respond routes, the configured status and an example body.
// Collection routes are tagged with their collection by default.
func (d *Definition) OpenAPIOptions() []openapi.Option {
	opts := make([]openapi.Option, 0, len(d.Routes))

	for i := range d.Routes {
		rt := d.Routes[i]

		opts = append(opts, openapi.WithOperation(rt.Method, rt.Path, func(op *openapi.Operation) {
			op.Summary = rt.Summary
			if op.Summary == "" {
				op.Summary = defaultSummary(rt)
			}

			op.Tags = rt.Tags
			if len(op.Tags) == 0 && rt.Collection != "" {
				op.Tags = []string{rt.Collection}
			}

			if rt.Action == ActionRespond && rt.Body != nil {
				status := rt.Status
				if status == 0 {
					status = defaultStatus
				}
				op.Responses[fmt.Sprintf("%d", status)] = &openapi.Response{
					Description: "Configured response",
					Content: map[string]*openapi.MediaType{
						"application/json": {Schema: openapi.InferSchema(rt.Body)},
					},
				}
			}
		}))
	}

	return opts
}

func defaultSummary(rt Route) string {
	switch rt.Action {
	case ActionList:
		return "List " + rt.Collection
	case ActionGet:
		return "Get one of " + rt.Collection
	case ActionCreate:
		return "Create in " + rt.Collection
	case ActionUpdate:
		return "Update one of " + rt.Collection
	case ActionDelete:
		return "Delete one of " + rt.Collection
	case ActionEcho:
		return "Echo the request"
	default:
		return ""
	}
}
