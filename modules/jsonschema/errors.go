package jsonschema

import "errors"

var (
	// ErrSchemaCompile is returned when a schema document cannot be compiled.
	ErrSchemaCompile = errors.New("failed to compile schema")
	// ErrSchemaValidation wraps every validation failure.
	ErrSchemaValidation = errors.New("schema validation failed")
	// ErrInvalidJSON is returned when the instance is not well-formed JSON.
	ErrInvalidJSON = errors.New("invalid JSON document")
)
