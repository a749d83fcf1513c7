package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferSchema(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"null", nil, "null"},
		{"bool", true, "boolean"},
		{"string", "x", "string"},
		{"integer float", float64(3), "integer"},
		{"number", 1.5, "number"},
		{"int", 7, "integer"},
		{"json number", json.Number("2.5"), "number"},
		{"array", []any{"a"}, "array"},
		{"object", map[string]any{"a": 1}, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := InferSchema(tt.value)
			require.NotNil(t, s)
			assert.Equal(t, []string{tt.expected}, s.Type.Values())
		})
	}

	t.Run("object properties", func(t *testing.T) {
		s := InferSchema(map[string]any{
			"id":   float64(1),
			"tags": []any{"a", "b"},
			"meta": map[string]any{"ok": true},
		})

		assert.Equal(t, []string{"id", "meta", "tags"}, s.Required)
		assert.Equal(t, []string{"integer"}, s.Properties["id"].Type.Values())
		assert.Equal(t, []string{"string"}, s.Properties["tags"].Items.Type.Values())
		assert.Equal(t, []string{"boolean"}, s.Properties["meta"].Properties["ok"].Type.Values())
		assert.Nil(t, s.Properties["id"].Example)
		assert.NotNil(t, s.Example)
	})

	t.Run("struct value", func(t *testing.T) {
		type user struct {
			Name string `json:"name"`
		}

		s := InferSchema(user{Name: "a"})
		assert.Equal(t, []string{"object"}, s.Type.Values())
		assert.Contains(t, s.Properties, "name")
	})

	t.Run("empty array has no items", func(t *testing.T) {
		s := InferSchema([]any{})
		assert.Nil(t, s.Items)
	})
}

func TestSchemaTypeJSON(t *testing.T) {
	data, err := json.Marshal(&Schema{Type: TypeString("string")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"string"}`, string(data))

	data, err = json.Marshal(&Schema{Type: TypeArray("string", "null")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":["string","null"]}`, string(data))

	data, err = json.Marshal(&Schema{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	var s Schema
	require.NoError(t, json.Unmarshal([]byte(`{"type":["integer","null"]}`), &s))
	assert.Equal(t, []string{"integer", "null"}, s.Type.Values())
}
