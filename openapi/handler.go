package openapi

import (
	"encoding/json"
	"fmt"
	"path"

	"github.com/vitalvas/vserver/mux"
	"gopkg.in/yaml.v3"
)

// JSON renders the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML renders the document as block-style YAML. Field names and order
// follow the JSON rendering.
//
// See: https://spec.openapis.org/oas/v3.1.0#format
func (d *Document) YAML() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	// JSON is valid YAML, so decoding into a node keeps the key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("openapi: decode document: %w", err)
	}
	resetStyle(&node)

	return yaml.Marshal(&node)
}

// resetStyle clears the flow and quoting styles inherited from JSON.
// Strings that would otherwise read as another type stay quoted.
func resetStyle(node *yaml.Node) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		node.Style = 0
		var v any
		if err := yaml.Unmarshal([]byte(node.Value), &v); err != nil {
			node.Style = yaml.DoubleQuotedStyle
		} else if _, ok := v.(string); !ok {
			node.Style = yaml.DoubleQuotedStyle
		}
	} else {
		node.Style = 0
	}

	for _, child := range node.Content {
		resetStyle(child)
	}
}

// HandleConfig configures the routes registered by Handle.
type HandleConfig struct {
	// JSONFilename is the filename for the JSON document endpoint
	// (default: "openapi.json"). Set to "-" to disable.
	JSONFilename string

	// YAMLFilename is the filename for the YAML document endpoint
	// (default: "openapi.yaml"). Set to "-" to disable.
	YAMLFilename string

	// Options customize the generated document.
	Options []Option
}

func (cfg HandleConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return "openapi.json"
	}
	return cfg.JSONFilename
}

func (cfg HandleConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return "openapi.yaml"
	}
	return cfg.YAMLFilename
}

// Handle registers virtual GET routes under basePath that serve the
// document of r itself. The document is rebuilt on every request so it
// follows route reboots.
//
//	openapi.Handle(r, "/docs", openapi.Info{Title: "Mock API", Version: "1.0.0"}, nil)
//	res, _ := r.Dispatch(ctx, "GET", "/docs/openapi.json", nil)
func Handle(r *mux.Router, basePath string, info Info, cfg *HandleConfig) error {
	if cfg == nil {
		cfg = &HandleConfig{}
	}

	if name := cfg.jsonFilename(); name != "-" {
		if _, err := r.Register("GET", path.Join("/", basePath, name), func(_ *mux.Request, res *mux.Response) error {
			res.JSON(Build(r, info, cfg.Options...))
			return nil
		}); err != nil {
			return err
		}
	}

	if name := cfg.yamlFilename(); name != "-" {
		if _, err := r.Register("GET", path.Join("/", basePath, name), func(_ *mux.Request, res *mux.Response) error {
			data, err := Build(r, info, cfg.Options...).YAML()
			if err != nil {
				return err
			}
			res.Set("Content-Type", "application/x-yaml").Send(string(data))
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}
