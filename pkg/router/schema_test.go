package router

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SimpleType struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type NestedType struct {
	ID         string     `json:"id"`
	Properties SimpleType `json:"properties"`
}

type Parent struct {
	Name     string  `json:"name"`
	Children []Child `json:"children,omitempty"`
}

type Child struct {
	Name   string  `json:"name"`
	Parent *Parent `json:"parent,omitempty"`
}

type ArrayType struct {
	Tags  []string     `json:"tags"`
	Items []SimpleType `json:"items"`
}

type MapType struct {
	Properties map[string]string `json:"properties"`
}

type TaggedType struct {
	State     string          `json:"state" doc:"Current state" example:"open" enum:"open,closed"`
	Note      *string         `json:"note"`
	Hidden    string          `json:"-"`
	Optional  int             `json:"optional,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Raw       json.RawMessage `json:"raw"`
	internal  string
}

func TestParseJsonTag(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		tag          string
		wantName     string
		wantRequired bool
	}{
		"empty tag uses field name": {tag: "", wantName: "Field", wantRequired: true},
		"named":                     {tag: "title", wantName: "title", wantRequired: true},
		"omitempty":                 {tag: "title,omitempty", wantName: "title", wantRequired: false},
		"only options":              {tag: ",omitempty", wantName: "Field", wantRequired: false},
		"other options":             {tag: "count,string", wantName: "count", wantRequired: true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			gotName, gotRequired := parseJsonTag(tc.tag, "Field")
			assert.Equal(t, tc.wantName, gotName)
			assert.Equal(t, tc.wantRequired, gotRequired)
		})
	}
}

func TestBasicTypeSchema(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		kind reflect.Kind
		want map[string]any
	}{
		"bool":   {kind: reflect.Bool, want: map[string]any{"type": "boolean"}},
		"int64":  {kind: reflect.Int64, want: map[string]any{"type": "integer"}},
		"uint8":  {kind: reflect.Uint8, want: map[string]any{"type": "integer"}},
		"float":  {kind: reflect.Float64, want: map[string]any{"type": "number"}},
		"string": {kind: reflect.String, want: map[string]any{"type": "string"}},
		"struct": {kind: reflect.Struct, want: nil},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.want, basicTypeSchema(tc.kind)); diff != "" {
				t.Errorf("schema mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemaRef(t *testing.T) {
	t.Parallel()

	t.Run("named struct is referenced", func(t *testing.T) {
		t.Parallel()

		registry := newSchemaRegistry()
		got := registry.schemaRef(&SimpleType{})

		if diff := cmp.Diff(map[string]any{"$ref": "#/components/schemas/SimpleType"}, got); diff != "" {
			t.Errorf("schema ref mismatch (-want +got):\n%s", diff)
		}

		want := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"age":  map[string]any{"type": "integer"},
			},
			"required": []string{"name", "age"},
		}
		if diff := cmp.Diff(want, registry.getSchemas()["SimpleType"]); diff != "" {
			t.Errorf("registered schema mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nested struct is registered", func(t *testing.T) {
		t.Parallel()

		registry := newSchemaRegistry()
		registry.schemaRef(NestedType{})

		schemas := registry.getSchemas()
		require.Contains(t, schemas, "NestedType")
		require.Contains(t, schemas, "SimpleType")

		props := schemas["NestedType"].(map[string]any)["properties"].(map[string]any)
		assert.Equal(t, map[string]any{"$ref": "#/components/schemas/SimpleType"}, props["properties"])
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, newSchemaRegistry().schemaRef(nil))
	})

	t.Run("slice of structs", func(t *testing.T) {
		t.Parallel()

		registry := newSchemaRegistry()
		got := registry.schemaRef([]SimpleType{})

		want := map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": "#/components/schemas/SimpleType"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("schema mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCircularReference(t *testing.T) {
	t.Parallel()

	registry := newSchemaRegistry()
	registry.schemaRef(Parent{})

	schemas := registry.getSchemas()
	require.Contains(t, schemas, "Parent")
	require.Contains(t, schemas, "Child")

	parentProps := schemas["Parent"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{
		"type":  "array",
		"items": map[string]any{"$ref": "#/components/schemas/Child"},
	}, parentProps["children"])

	childProps := schemas["Child"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/components/schemas/Parent"}, childProps["parent"])
}

func TestStructSchema(t *testing.T) {
	t.Parallel()

	t.Run("arrays", func(t *testing.T) {
		t.Parallel()

		got := newSchemaRegistry().structSchema(reflect.TypeOf(ArrayType{}))
		props := got["properties"].(map[string]any)

		assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["tags"])
		assert.Equal(t, map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": "#/components/schemas/SimpleType"},
		}, props["items"])
	})

	t.Run("maps", func(t *testing.T) {
		t.Parallel()

		got := newSchemaRegistry().structSchema(reflect.TypeOf(MapType{}))
		props := got["properties"].(map[string]any)

		assert.Equal(t, map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		}, props["properties"])
	})

	t.Run("tags and special types", func(t *testing.T) {
		t.Parallel()

		got := newSchemaRegistry().structSchema(reflect.TypeOf(TaggedType{}))

		want := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"state": map[string]any{
					"type":        "string",
					"description": "Current state",
					"example":     "open",
					"enum":        []string{"open", "closed"},
				},
				"note":       map[string]any{"type": "string"},
				"optional":   map[string]any{"type": "integer"},
				"created_at": map[string]any{"type": "string", "format": "date-time"},
				"raw":        map[string]any{"type": "object"},
			},
			"required": []string{"state", "created_at", "raw"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("schema mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestComponentRef(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]any{"$ref": "#/components/responses/StoreFailure"}, componentRef("responses", "StoreFailure"))
}
