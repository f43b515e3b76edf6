package taskapi

import (
	"fmt"
	"reflect"
)

// ServiceRegistry allows registration and retrieval of services
type ServiceRegistry map[string]any

// ServiceProvider describes a service a module offers to other modules.
type ServiceProvider struct {
	Name        string
	Description string
	Instance    any
}

// ServiceAware is implemented by modules that publish services.
// Services are registered right after the providing module's Init returns,
// so modules that depend on it can look them up in their own Init.
type ServiceAware interface {
	ProvidesServices() []ServiceProvider
}

// assignService stores service into the value target points to. The target
// must be a non-nil pointer whose element type the service is assignable to,
// or an interface the service implements.
func assignService(name string, service, target any) error {
	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Ptr || tv.IsNil() {
		return ErrTargetNotPointer
	}

	elem := tv.Elem()
	sv := reflect.ValueOf(service)
	if !sv.IsValid() {
		return fmt.Errorf("%w: %s is nil", ErrServiceIncompatible, name)
	}

	switch {
	case sv.Type().AssignableTo(elem.Type()):
		elem.Set(sv)
	case elem.Kind() == reflect.Interface && sv.Type().Implements(elem.Type()):
		elem.Set(sv)
	default:
		return fmt.Errorf("%w: %s is %s, target is %s", ErrServiceIncompatible, name, sv.Type(), elem.Type())
	}
	return nil
}
