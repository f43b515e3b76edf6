package jsonschema_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab4/taskapi/modules/jsonschema"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": { "type": "string" },
		"age": { "type": "integer", "minimum": 0 },
		"nick": { "type": ["string", "null"] }
	},
	"required": ["name", "age"]
}`

func TestJSONSchemaService_CompileSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "person.json")
	require.NoError(t, os.WriteFile(path, []byte(personSchema), 0600))

	service := jsonschema.NewJSONSchemaService()
	schema, err := service.CompileSchema(path)
	require.NoError(t, err)

	assert.NoError(t, service.ValidateBytes(schema, []byte(`{"name":"John","age":30}`)))
	assert.ErrorIs(t, service.ValidateBytes(schema, []byte(`{"name":"John"}`)), jsonschema.ErrSchemaValidation)

	_, err = service.CompileSchema(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, jsonschema.ErrSchemaCompile)
}

func TestJSONSchemaService_CompileSchemaString(t *testing.T) {
	service := jsonschema.NewJSONSchemaService()
	schema, err := service.CompileSchemaString("mem://person.json", personSchema)
	require.NoError(t, err)

	t.Run("valid documents", func(t *testing.T) {
		assert.NoError(t, service.ValidateBytes(schema, []byte(`{"name":"a","age":1,"nick":null}`)))
		assert.NoError(t, service.ValidateReader(schema, strings.NewReader(`{"name":"a","age":2}`)))
		assert.NoError(t, service.ValidateInterface(schema, map[string]any{"name": "a", "age": 3}))
	})

	t.Run("malformed json", func(t *testing.T) {
		err := service.ValidateBytes(schema, []byte(`{"name":`))
		require.ErrorIs(t, err, jsonschema.ErrInvalidJSON)

		violations := jsonschema.Violations(err)
		require.Len(t, violations, 1)
		assert.Equal(t, "json_invalid", violations[0].Kind)
		assert.Empty(t, violations[0].Location)
	})

	t.Run("duplicate resource", func(t *testing.T) {
		_, err := service.CompileSchemaString("mem://person.json", personSchema)
		assert.ErrorIs(t, err, jsonschema.ErrSchemaCompile)
	})

	t.Run("invalid schema document", func(t *testing.T) {
		_, err := service.CompileSchemaString("mem://broken.json", `{"type":`)
		assert.ErrorIs(t, err, jsonschema.ErrSchemaCompile)
	})
}

func TestViolations(t *testing.T) {
	service := jsonschema.NewJSONSchemaService()
	schema, err := service.CompileSchemaString("mem://violations.json", personSchema)
	require.NoError(t, err)

	t.Run("missing required", func(t *testing.T) {
		violations := jsonschema.Violations(service.ValidateBytes(schema, []byte(`{"age":1}`)))
		require.Len(t, violations, 1)
		assert.Equal(t, "required", violations[0].Kind)
		assert.Equal(t, []string{"name"}, violations[0].Missing)
		assert.Contains(t, violations[0].Message, "name")
	})

	t.Run("wrong type", func(t *testing.T) {
		violations := jsonschema.Violations(service.ValidateBytes(schema, []byte(`{"name":"a","age":"old"}`)))
		require.Len(t, violations, 1)
		assert.Equal(t, "type", violations[0].Kind)
		assert.Equal(t, []string{"age"}, violations[0].Location)
		assert.Contains(t, violations[0].Message, "want integer")
	})

	t.Run("several failures", func(t *testing.T) {
		violations := jsonschema.Violations(service.ValidateBytes(schema, []byte(`{"age":-1,"nick":5}`)))
		kinds := make([]string, 0, len(violations))
		for _, v := range violations {
			kinds = append(kinds, v.Kind)
		}
		assert.ElementsMatch(t, []string{"required", "minimum", "type"}, kinds)
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, jsonschema.Violations(nil))
	})
}
