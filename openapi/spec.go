package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/vitalvas/vserver/mux"
)

// jsonContentType is the media type of every generated request and response
// body.
const jsonContentType = "application/json"

// Option customizes a generated Document.
type Option func(*builder)

type builder struct {
	servers    []Server
	operations map[string][]func(*Operation)
}

// WithServers sets the servers of the document.
func WithServers(servers ...Server) Option {
	return func(b *builder) {
		b.servers = append(b.servers, servers...)
	}
}

// WithOperation registers fn to adjust the generated operation of the route
// registered for method and template, for example ("GET", "/users/:id").
// Several functions for the same route run in order.
func WithOperation(method, template string, fn func(op *Operation)) Option {
	return func(b *builder) {
		path, _ := parsePath(template)
		key := operationKey(method, path)
		b.operations[key] = append(b.operations[key], fn)
	}
}

// Build walks the router and assembles an OpenAPI Document describing every
// registered route. Path parameters are declared as required strings. When
// the same method and path are registered twice, the first route wins, as it
// does at dispatch time.
func Build(r *mux.Router, info Info, opts ...Option) *Document {
	b := &builder{operations: make(map[string][]func(*Operation))}
	for _, opt := range opts {
		opt(b)
	}

	doc := &Document{
		OpenAPI: Version,
		Info:    info,
		Servers: b.servers,
		Paths:   make(map[string]*PathItem),
	}

	seen := make(map[string]bool)

	_ = r.Walk(func(route *mux.Route) error {
		openAPIPath, pathParams := parsePath(route.Template())

		key := operationKey(route.Method(), openAPIPath)
		if seen[key] {
			return nil
		}
		seen[key] = true

		pathItem, ok := doc.Paths[openAPIPath]
		if !ok {
			pathItem = &PathItem{}
			doc.Paths[openAPIPath] = pathItem
		}

		op := newOperation(route.Method(), openAPIPath, pathParams)
		for _, fn := range b.operations[key] {
			fn(op)
		}

		assignOperation(pathItem, route.Method(), op)
		return nil
	})

	doc.Tags = collectTags(doc.Paths)

	return doc
}

// newOperation builds the default operation of a route: a JSON response and,
// for methods that carry one, an optional JSON request body.
func newOperation(method, path string, params []*Parameter) *Operation {
	op := &Operation{
		OperationID: operationID(method, path),
		Parameters:  params,
		Responses: map[string]*Response{
			"default": {
				Description: "JSON response",
				Content: map[string]*MediaType{
					jsonContentType: {Schema: &Schema{}},
				},
			},
		},
	}

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		op.RequestBody = &RequestBody{
			Content: map[string]*MediaType{
				jsonContentType: {Schema: &Schema{Type: TypeString("object")}},
			},
		}
	}

	return op
}

// collectTags gathers the tags used by operations, sorted by name.
func collectTags(paths map[string]*PathItem) []Tag {
	seen := make(map[string]bool)
	var tags []Tag

	for _, pathItem := range paths {
		for _, op := range pathItem.operations() {
			for _, name := range op.Tags {
				if seen[name] {
					continue
				}
				seen[name] = true
				tags = append(tags, Tag{Name: name})
			}
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return tags
}

// operations returns the non-nil operations of the path item.
func (p *PathItem) operations() []*Operation {
	var ops []*Operation
	for _, op := range []*Operation{
		p.Get, p.Post, p.Put, p.Delete, p.Patch, p.Head, p.Options, p.Trace,
	} {
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

// assignOperation assigns an operation to the correct HTTP method field
// on the path item. Methods without a field are dropped.
func assignOperation(pathItem *PathItem, method string, op *Operation) {
	switch method {
	case http.MethodGet:
		pathItem.Get = op
	case http.MethodPost:
		pathItem.Post = op
	case http.MethodPut:
		pathItem.Put = op
	case http.MethodDelete:
		pathItem.Delete = op
	case http.MethodPatch:
		pathItem.Patch = op
	case http.MethodHead:
		pathItem.Head = op
	case http.MethodOptions:
		pathItem.Options = op
	case http.MethodTrace:
		pathItem.Trace = op
	}
}

// parsePath converts a route template to OpenAPI format, rewriting :name
// segments to {name} and generating their parameter objects.
func parsePath(tpl string) (string, []*Parameter) {
	if !strings.HasPrefix(tpl, "/") {
		tpl = "/" + tpl
	}
	if tpl != "/" {
		tpl = strings.TrimSuffix(tpl, "/")
	}

	var params []*Parameter

	segments := strings.Split(tpl, "/")
	for i, seg := range segments {
		name, ok := strings.CutPrefix(seg, ":")
		if !ok {
			continue
		}

		params = append(params, &Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: TypeString("string")},
		})
		segments[i] = "{" + name + "}"
	}

	return strings.Join(segments, "/"), params
}

// operationID derives an identifier such as get_users_id from the method and
// OpenAPI path.
func operationID(method, path string) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(method))

	for _, seg := range strings.Split(path, "/") {
		seg = strings.Trim(seg, "{}")
		if seg == "" {
			continue
		}
		sb.WriteByte('_')
		for _, c := range seg {
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
				sb.WriteRune(c)
			case c >= 'A' && c <= 'Z':
				sb.WriteRune(c + ('a' - 'A'))
			default:
				sb.WriteByte('_')
			}
		}
	}

	return sb.String()
}

func operationKey(method, path string) string {
	return strings.ToUpper(strings.TrimSpace(method)) + " " + strings.ToLower(path)
}
