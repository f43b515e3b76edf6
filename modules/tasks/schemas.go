package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lab4/taskapi/modules/jsonschema"
)

const (
	createSchemaURL = "mem://taskapi/task-create.json"
	patchSchemaURL  = "mem://taskapi/task-patch.json"
)

// createSchema requires task_id and task_title. Unknown properties are ignored.
const createSchema = `{
  "type": "object",
  "required": ["task_id", "task_title"],
  "properties": {
    "task_id": {"type": "integer"},
    "task_title": {"type": "string"},
    "task_desc": {"type": ["string", "null"]},
    "is_finished": {"type": "boolean"}
  }
}`

// patchSchema requires nothing; null means "leave unchanged".
const patchSchema = `{
  "type": "object",
  "properties": {
    "task_id": {"type": ["integer", "null"]},
    "task_title": {"type": ["string", "null"]},
    "task_desc": {"type": ["string", "null"]},
    "is_finished": {"type": ["boolean", "null"]}
  }
}`

// ValidationDetail is one entry of a 422 response body.
type ValidationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// payloadSchemas holds the compiled request schemas.
type payloadSchemas struct {
	service jsonschema.JSONSchemaService
	create  jsonschema.Schema
	patch   jsonschema.Schema
}

func compilePayloadSchemas(service jsonschema.JSONSchemaService) (*payloadSchemas, error) {
	create, err := service.CompileSchemaString(createSchemaURL, createSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile create schema: %w", err)
	}
	patch, err := service.CompileSchemaString(patchSchemaURL, patchSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile patch schema: %w", err)
	}
	return &payloadSchemas{service: service, create: create, patch: patch}, nil
}

// check validates body against schema and converts failures to details.
// It returns nil when the body is valid.
func (p *payloadSchemas) check(schema jsonschema.Schema, body []byte) []ValidationDetail {
	err := p.service.ValidateBytes(schema, body)
	if err == nil {
		return nil
	}
	return detailsFromViolations(jsonschema.Violations(err))
}

var fieldTypes = map[string]struct{ typ, msg string }{
	"task_id":     {"int_type", "Input should be a valid integer"},
	"task_title":  {"string_type", "Input should be a valid string"},
	"task_desc":   {"string_type", "Input should be a valid string"},
	"is_finished": {"bool_type", "Input should be a valid boolean"},
}

func detailsFromViolations(violations []jsonschema.Violation) []ValidationDetail {
	details := make([]ValidationDetail, 0, len(violations))
	for _, v := range violations {
		loc := append([]string{"body"}, v.Location...)
		switch v.Kind {
		case "json_invalid":
			details = append(details, ValidationDetail{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"})
		case "required":
			for _, missing := range v.Missing {
				details = append(details, ValidationDetail{
					Loc:  append(append([]string(nil), loc...), missing),
					Msg:  "Field required",
					Type: "missing",
				})
			}
		case "type":
			d := ValidationDetail{Loc: loc, Msg: v.Message, Type: "type_error"}
			if len(v.Location) == 0 {
				d.Msg = "Input should be a valid dictionary or object to extract fields from"
				d.Type = "model_attributes_type"
			} else if ft, ok := fieldTypes[v.Location[len(v.Location)-1]]; ok {
				d.Msg, d.Type = ft.msg, ft.typ
			}
			details = append(details, d)
		default:
			details = append(details, ValidationDetail{Loc: loc, Msg: v.Message, Type: v.Kind})
		}
	}
	return details
}

// pathIDDetail is reported when the task_id path segment is not an integer.
// decodeDetails reports a body that passed the schema but does not fit the Go
// types, such as 2.0 or an out of range integer for task_id.
func decodeDetails(err error) []ValidationDetail {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		d := ValidationDetail{Loc: []string{"body", field}, Msg: "Input should be a valid " + typeErr.Type.Kind().String(), Type: "type_error"}
		if ft, ok := fieldTypes[field]; ok {
			d.Msg, d.Type = ft.msg, ft.typ
		}
		return []ValidationDetail{d}
	}
	return []ValidationDetail{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}}
}

func pathIDDetail() []ValidationDetail {
	return []ValidationDetail{{
		Loc:  []string{"path", "task_id"},
		Msg:  "Input should be a valid integer, unable to parse string as an integer",
		Type: "int_parsing",
	}}
}
