// Package jsonschema provides a JSON Schema compile and validate service
// backed by santhosh-tekuri/jsonschema.
package jsonschema

import (
	"github.com/lab4/taskapi"
)

// Name is the module name and ServiceName the name of the service it provides.
const (
	Name        = "jsonschema"
	ServiceName = "jsonschema.service"
)

type Module struct {
	schemaService JSONSchemaService
}

func NewModule() *Module {
	return &Module{
		schemaService: NewJSONSchemaService(),
	}
}

func (m *Module) Name() string {
	return Name
}

func (m *Module) Init(app taskapi.Application) error {
	app.Logger().Debug("JSON schema service ready", "module", Name)
	return nil
}

func (m *Module) ProvidesServices() []taskapi.ServiceProvider {
	return []taskapi.ServiceProvider{
		{
			Name:        ServiceName,
			Description: "JSON Schema compilation and validation",
			Instance:    m.schemaService,
		},
	}
}
