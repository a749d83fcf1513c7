// Package routes turns YAML route definition files into virtual router
// handlers and keeps the router in sync with the file.
//
// A definition lists routes with an action. Collection actions (list, get,
// create, update, delete) operate on lists of JSON objects in the data
// store, keyed by their "id" field. The respond action returns a fixed
// status, headers and body; echo returns the parsed request.
//
//	routes:
//	  - {method: GET, path: /users, action: list, collection: users}
//	  - {method: GET, path: /users/:id, action: get, collection: users}
//	  - {method: POST, path: /users, action: create, collection: users}
//	  - method: GET
//	    path: /health
//	    action: respond
//	    body: {ok: true}
//
// Boot replaces the routes of a router with those of a Source, keeping the
// data store. Watch reboots the router whenever the file changes.
package routes
