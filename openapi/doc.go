// Package openapi generates OpenAPI v3.1.0 documents describing the routes
// registered on a virtual mux router.
//
// See: https://spec.openapis.org/oas/v3.1.0
//
// # Building a Document
//
// Build walks the router in registration order. Every :name segment becomes
// a {name} path parameter declared as a required string and every operation
// gets a default JSON response. POST, PUT and PATCH operations declare an
// optional JSON request body.
//
//	doc := openapi.Build(r, openapi.Info{Title: "Mock API", Version: "1.0.0"})
//	data, err := doc.JSON()
//
// Operation IDs are derived from the method and path, for example
// get_users_id for GET /users/:id.
//
// # Describing Operations
//
// WithOperation adjusts the generated operation of a single route:
//
//	doc := openapi.Build(r, info,
//	    openapi.WithOperation("GET", "/users/:id", func(op *openapi.Operation) {
//	        op.Summary = "Get a user"
//	        op.Tags = []string{"users"}
//	    }),
//	)
//
// Tags used by operations are collected into the document tag list.
//
// # Serving the Document
//
// Handle registers virtual routes that serve the document of the router
// itself, rebuilt on every request:
//
//	openapi.Handle(r, "/docs", info, nil)
//
// This registers:
//
//	/docs/openapi.json - document as JSON
//	/docs/openapi.yaml - document as YAML
package openapi
