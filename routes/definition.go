package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/vitalvas/vserver/mux"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned for route definitions that cannot be
// registered.
var ErrInvalidDefinition = errors.New("routes: invalid definition")

// Action selects the behaviour of a defined route.
type Action string

const (
	// ActionList returns the items of a collection, optionally filtered by
	// query parameters.
	ActionList Action = "list"
	// ActionGet returns one item of a collection by id.
	ActionGet Action = "get"
	// ActionCreate appends the request body to a collection.
	ActionCreate Action = "create"
	// ActionUpdate replaces (PUT) or merges (other methods) an item.
	ActionUpdate Action = "update"
	// ActionDelete removes an item from a collection.
	ActionDelete Action = "delete"
	// ActionRespond returns a fixed status, headers and body.
	ActionRespond Action = "respond"
	// ActionEcho returns the parsed request.
	ActionEcho Action = "echo"
)

func (a Action) collection() bool {
	switch a {
	case ActionList, ActionGet, ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func (a Action) byID() bool {
	switch a {
	case ActionGet, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func (a Action) valid() bool {
	return a.collection() || a == ActionRespond || a == ActionEcho
}

// Route is one route of a definition file.
type Route struct {
	Method     string `yaml:"method"`
	Path       string `yaml:"path"`
	Action     Action `yaml:"action"`
	Collection string `yaml:"collection,omitempty"`

	// Param names the path parameter holding the item id. Defaults to "id".
	Param string `yaml:"param,omitempty"`

	Status  int               `yaml:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    any               `yaml:"body,omitempty"`

	Summary string   `yaml:"summary,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
}

func (rt *Route) idParam() string {
	if rt.Param == "" {
		return "id"
	}
	return rt.Param
}

// Definition is a set of routes and initial data loaded from YAML.
//
//	routes:
//	  - method: GET
//	    path: /users/:id
//	    action: get
//	    collection: users
//	seed:
//	  users:
//	    - {id: "1", name: Alice}
type Definition struct {
	Routes []Route `yaml:"routes"`

	// Seed holds initial values stored under names that are absent from
	// the data store when the definition is registered.
	Seed map[string]any `yaml:"seed,omitempty"`
}

// Load reads and parses a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("routes: read %s: %w", path, err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a YAML definition. Unknown fields are
// rejected.
func Parse(data []byte) (*Definition, error) {
	def := &Definition{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	if err := def.normalize(); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// normalize converts YAML values to their JSON forms so that handlers see
// the same types as data loaded from the store.
func (d *Definition) normalize() error {
	for i := range d.Routes {
		rt := &d.Routes[i]
		rt.Method = strings.ToUpper(strings.TrimSpace(rt.Method))
		rt.Action = Action(strings.ToLower(strings.TrimSpace(string(rt.Action))))

		body, err := jsonValue(rt.Body)
		if err != nil {
			return fmt.Errorf("%w: route %d body: %w", ErrInvalidDefinition, i, err)
		}
		rt.Body = body
	}

	for name, v := range d.Seed {
		seed, err := jsonValue(v)
		if err != nil {
			return fmt.Errorf("%w: seed %q: %w", ErrInvalidDefinition, name, err)
		}
		d.Seed[name] = seed
	}
	return nil
}

// Validate checks every route for a method, a path and a usable action.
func (d *Definition) Validate() error {
	var errs []error

	for i, rt := range d.Routes {
		where := fmt.Sprintf("route %d (%s %s)", i, rt.Method, rt.Path)

		if rt.Method == "" {
			errs = append(errs, fmt.Errorf("%s: missing method", where))
		}
		if rt.Path == "" {
			errs = append(errs, fmt.Errorf("%s: missing path", where))
		}

		switch {
		case rt.Action == "":
			errs = append(errs, fmt.Errorf("%s: missing action", where))
		case !rt.Action.valid():
			errs = append(errs, fmt.Errorf("%s: unknown action %q", where, rt.Action))
		case rt.Action.collection() && rt.Collection == "":
			errs = append(errs, fmt.Errorf("%s: action %q requires a collection", where, rt.Action))
		case rt.Action.byID() && !strings.Contains(rt.Path, ":"+rt.idParam()):
			errs = append(errs, fmt.Errorf("%s: action %q requires the :%s path parameter", where, rt.Action, rt.idParam()))
		}

		if rt.Status != 0 && (rt.Status < 100 || rt.Status > 999) {
			errs = append(errs, fmt.Errorf("%s: invalid status %d", where, rt.Status))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, errors.Join(errs...))
	}
	return nil
}

// Register seeds absent store entries and registers every route on r. It
// stops at the first route the router rejects.
func (d *Definition) Register(r *mux.Router) error {
	if len(d.Seed) > 0 {
		r.Store().Update(func(data map[string]any) {
			for name, v := range d.Seed {
				if _, ok := data[name]; !ok {
					data[name] = cloneJSON(v)
				}
			}
		})
	}

	for i := range d.Routes {
		rt := d.Routes[i]
		if _, err := r.Register(rt.Method, rt.Path, handlerFor(rt)); err != nil {
			return err
		}
	}
	return nil
}

func handlerFor(rt Route) mux.HandlerFunc {
	switch rt.Action {
	case ActionList:
		return listHandler(rt.Collection)
	case ActionGet:
		return getHandler(rt.Collection, rt.idParam())
	case ActionCreate:
		return createHandler(rt.Collection)
	case ActionUpdate:
		return updateHandler(rt.Collection, rt.idParam())
	case ActionDelete:
		return deleteHandler(rt.Collection, rt.idParam())
	case ActionRespond:
		return respondHandler(rt.Status, rt.Headers, rt.Body)
	default:
		return echoHandler
	}
}

// defaultStatus is the status of a respond route without one.
const defaultStatus = http.StatusOK

// jsonValue converts a decoded YAML value to its JSON form.
func jsonValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
