package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vitalvas/vserver/mux"
)

var (
	// ErrItemNotFound is reported when no item of a collection has the
	// requested id.
	ErrItemNotFound = errors.New("not found")

	// ErrBodyNotObject is reported when a create or update body is not a
	// JSON object.
	ErrBodyNotObject = errors.New("request body must be a JSON object")
)

// idField is the item field matched against the id path parameter.
const idField = "id"

func listHandler(collection string) mux.HandlerFunc {
	return func(req *mux.Request, res *mux.Response) error {
		items := make([]any, 0)

		req.Store().Update(func(data map[string]any) {
			list, _ := data[collection].([]any)
			for _, item := range list {
				if matchesQuery(item, req.Query) {
					items = append(items, cloneJSON(item))
				}
			}
		})

		res.JSON(items)
		return nil
	}
}

func getHandler(collection, param string) mux.HandlerFunc {
	return func(req *mux.Request, res *mux.Response) error {
		var (
			found any
			ok    bool
		)

		req.Store().Update(func(data map[string]any) {
			list, _ := data[collection].([]any)
			if i := indexByID(list, req.Param(param)); i >= 0 {
				found, ok = cloneJSON(list[i]), true
			}
		})

		if !ok {
			res.Abort(http.StatusNotFound, ErrItemNotFound)
			return nil
		}

		res.JSON(found)
		return nil
	}
}

func createHandler(collection string) mux.HandlerFunc {
	return func(req *mux.Request, res *mux.Response) error {
		body, ok := req.Body.(map[string]any)
		if !ok {
			res.Abort(http.StatusBadRequest, ErrBodyNotObject)
			return nil
		}

		item, _ := cloneJSON(body).(map[string]any)
		if id, ok := item[idField]; !ok || id == nil || id == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate id: %w", err)
			}
			item[idField] = id.String()
		}

		req.Store().Update(func(data map[string]any) {
			list, _ := data[collection].([]any)
			data[collection] = append(list, item)
		})

		res.Status(http.StatusCreated).JSON(item)
		return nil
	}
}

func updateHandler(collection, param string) mux.HandlerFunc {
	return func(req *mux.Request, res *mux.Response) error {
		body, ok := req.Body.(map[string]any)
		if !ok {
			res.Abort(http.StatusBadRequest, ErrBodyNotObject)
			return nil
		}
		patch, _ := cloneJSON(body).(map[string]any)
		replace := req.Method == http.MethodPut

		var (
			updated any
			found   bool
		)

		req.Store().Update(func(data map[string]any) {
			list, _ := data[collection].([]any)
			i := indexByID(list, req.Param(param))
			if i < 0 {
				return
			}
			found = true

			current, _ := list[i].(map[string]any)
			next := patch
			if !replace && current != nil {
				next = make(map[string]any, len(current)+len(patch))
				for k, v := range current {
					next[k] = v
				}
				for k, v := range patch {
					next[k] = v
				}
			}
			if current != nil {
				next[idField] = current[idField]
			}

			list[i] = next
			updated = cloneJSON(next)
		})

		if !found {
			res.Abort(http.StatusNotFound, ErrItemNotFound)
			return nil
		}

		res.JSON(updated)
		return nil
	}
}

func deleteHandler(collection, param string) mux.HandlerFunc {
	return func(req *mux.Request, res *mux.Response) error {
		var found bool

		req.Store().Update(func(data map[string]any) {
			list, _ := data[collection].([]any)
			i := indexByID(list, req.Param(param))
			if i < 0 {
				return
			}
			found = true

			rest := make([]any, 0, len(list)-1)
			rest = append(rest, list[:i]...)
			data[collection] = append(rest, list[i+1:]...)
		})

		if !found {
			res.Abort(http.StatusNotFound, ErrItemNotFound)
			return nil
		}

		res.Status(http.StatusNoContent).End()
		return nil
	}
}

func respondHandler(status int, headers map[string]string, body any) mux.HandlerFunc {
	if status == 0 {
		status = defaultStatus
	}

	return func(_ *mux.Request, res *mux.Response) error {
		res.Status(status)
		for k, v := range headers {
			res.Set(k, v)
		}

		switch b := body.(type) {
		case nil:
			res.End()
		case string:
			res.Send(b)
		default:
			res.JSON(b)
		}
		return nil
	}
}

func echoHandler(req *mux.Request, res *mux.Response) error {
	res.JSON(map[string]any{
		"method": req.Method,
		"path":   req.Path,
		"query":  req.Query,
		"params": req.Params,
		"body":   req.Body,
	})
	return nil
}

// indexByID returns the position of the item whose id matches, or -1.
// Ids are compared in their textual form so numeric ids match path
// parameters.
func indexByID(list []any, id string) int {
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := obj[idField]; ok && v != nil && fmt.Sprint(v) == id {
			return i
		}
	}
	return -1
}

// matchesQuery reports whether every query parameter equals the textual
// form of the item field of the same name.
func matchesQuery(item any, query map[string]string) bool {
	if len(query) == 0 {
		return true
	}

	obj, ok := item.(map[string]any)
	if !ok {
		return false
	}

	for k, want := range query {
		v, ok := obj[k]
		if !ok || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

// cloneJSON deep copies a JSON value.
func cloneJSON(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
