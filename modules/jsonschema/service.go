package jsonschema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Schema represents a compiled JSON schema
type Schema interface {
	// Validate validates the given value against the JSON schema
	Validate(value any) error
}

// JSONSchemaService defines the operations that can be performed with JSON schemas
type JSONSchemaService interface {
	// CompileSchema compiles a JSON schema from a file path or URL
	CompileSchema(source string) (Schema, error)

	// CompileSchemaString compiles an in-memory schema document registered under name
	CompileSchemaString(name, doc string) (Schema, error)

	// ValidateBytes validates raw JSON data against a compiled schema
	ValidateBytes(schema Schema, data []byte) error

	// ValidateReader validates JSON from an io.Reader against a compiled schema
	ValidateReader(schema Schema, reader io.Reader) error

	// ValidateInterface validates a Go value against a compiled schema
	ValidateInterface(schema Schema, data any) error
}

// Violation is a single leaf validation failure.
type Violation struct {
	// Location is the JSON pointer of the offending value, split into tokens.
	Location []string
	// Message is a human readable description.
	Message string
	// Kind is the failing keyword, e.g. "type" or "required", or "json_invalid".
	Kind string
	// Missing lists absent properties for "required" failures.
	Missing []string
}

// schemaServiceImpl is the concrete implementation of JSONSchemaService.
// The underlying compiler is not safe for concurrent use.
type schemaServiceImpl struct {
	mu       sync.Mutex
	compiler *jsonschema.Compiler
}

// schemaWrapper wraps the jsonschema.Schema to implement our Schema interface
type schemaWrapper struct {
	schema *jsonschema.Schema
}

func (s *schemaWrapper) Validate(value any) error {
	if err := s.schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaValidation, err)
	}
	return nil
}

// NewJSONSchemaService creates a new JSON schema service
func NewJSONSchemaService() JSONSchemaService {
	return &schemaServiceImpl{
		compiler: jsonschema.NewCompiler(),
	}
}

func (s *schemaServiceImpl) CompileSchema(source string) (Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schema, err := s.compiler.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompile, source, err)
	}
	return &schemaWrapper{schema: schema}, nil
}

func (s *schemaServiceImpl) CompileSchemaString(name, doc string) (Schema, error) {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompile, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.compiler.AddResource(name, parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompile, name, err)
	}
	schema, err := s.compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompile, name, err)
	}
	return &schemaWrapper{schema: schema}, nil
}

func (s *schemaServiceImpl) ValidateBytes(schema Schema, data []byte) error {
	return s.ValidateReader(schema, bytes.NewReader(data))
}

func (s *schemaServiceImpl) ValidateReader(schema Schema, reader io.Reader) error {
	v, err := jsonschema.UnmarshalJSON(reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return schema.Validate(v)
}

func (s *schemaServiceImpl) ValidateInterface(schema Schema, data any) error {
	return schema.Validate(data)
}

// Violations flattens a validation error into its leaf failures.
// Errors that did not come from a schema are reported as a single
// "json_invalid" violation at the document root.
func Violations(err error) []Violation {
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Violation{{Message: err.Error(), Kind: "json_invalid"}}
	}

	p := message.NewPrinter(language.English)
	var out []Violation
	collectViolations(verr, p, &out)
	return out
}

func collectViolations(verr *jsonschema.ValidationError, p *message.Printer, out *[]Violation) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collectViolations(cause, p, out)
		}
		return
	}

	v := Violation{
		Location: append([]string(nil), verr.InstanceLocation...),
		Message:  verr.ErrorKind.LocalizedString(p),
	}
	if path := verr.ErrorKind.KeywordPath(); len(path) > 0 {
		v.Kind = path[len(path)-1]
	}
	if required, ok := verr.ErrorKind.(*kind.Required); ok {
		v.Missing = append([]string(nil), required.Missing...)
	}
	*out = append(*out, v)
}
