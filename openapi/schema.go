package openapi

import (
	"encoding/json"
	"sort"
)

// InferSchema describes a decoded JSON value such as a configured response
// body. Objects list their properties, arrays take the schema of their first
// element and the value itself is kept as the example.
func InferSchema(v any) *Schema {
	s := inferSchema(v)
	if s != nil && v != nil {
		s.Example = v
	}
	return s
}

func inferSchema(v any) *Schema {
	switch val := v.(type) {
	case nil:
		return &Schema{Type: TypeString("null")}
	case bool:
		return &Schema{Type: TypeString("boolean")}
	case string:
		return &Schema{Type: TypeString("string")}
	case float64:
		if val == float64(int64(val)) {
			return &Schema{Type: TypeString("integer")}
		}
		return &Schema{Type: TypeString("number")}
	case int, int32, int64:
		return &Schema{Type: TypeString("integer")}
	case float32:
		return &Schema{Type: TypeString("number")}
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return &Schema{Type: TypeString("integer")}
		}
		return &Schema{Type: TypeString("number")}
	case []any:
		s := &Schema{Type: TypeString("array")}
		if len(val) > 0 {
			s.Items = inferSchema(val[0])
		}
		return s
	case map[string]any:
		s := &Schema{
			Type:       TypeString("object"),
			Properties: make(map[string]*Schema, len(val)),
		}
		for k, item := range val {
			s.Properties[k] = inferSchema(item)
			s.Required = append(s.Required, k)
		}
		sort.Strings(s.Required)
		return s
	default:
		// Structured Go values are described through their JSON form.
		raw, err := json.Marshal(val)
		if err != nil {
			return &Schema{}
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return &Schema{}
		}
		return inferSchema(decoded)
	}
}
