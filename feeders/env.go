// Package feeders provides configuration feeders for reading data from
// environment variables, .env files, and YAML or TOML files.
package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

// EnvFeeder populates struct fields tagged with `env:"NAME"` from the process
// environment. Nested structs are walked recursively. When Prefix is set,
// variable names are looked up as PREFIX_NAME.
type EnvFeeder struct {
	Prefix string
}

// NewEnvFeeder creates a new EnvFeeder that reads from environment variables
func NewEnvFeeder() EnvFeeder {
	return EnvFeeder{}
}

// NewPrefixedEnvFeeder creates an EnvFeeder that prepends prefix and an
// underscore to every variable name.
func NewPrefixedEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix}
}

// Feed reads environment variables and populates the provided structure
func (f EnvFeeder) Feed(structure any) error {
	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return wrapStructureError(structure)
	}
	return f.processStructFields(rv.Elem())
}

func (f EnvFeeder) processStructFields(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)

		if err := f.processField(field, &fieldType); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldType.Name, err)
		}
	}
	return nil
}

func (f EnvFeeder) processField(field reflect.Value, fieldType *reflect.StructField) error {
	switch field.Kind() {
	case reflect.Struct:
		return f.processStructFields(field)
	case reflect.Ptr:
		if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
			return f.processStructFields(field.Elem())
		}
	}

	envTag, exists := fieldType.Tag.Lookup("env")
	if !exists || envTag == "" || envTag == "-" {
		return nil
	}

	name := strings.ToUpper(envTag)
	if f.Prefix != "" {
		name = strings.ToUpper(f.Prefix) + "_" + name
	}

	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return nil
	}
	return setFieldValue(field, name, value)
}

// setFieldValue converts and sets a field value
func setFieldValue(field reflect.Value, name, strValue string) error {
	if !field.CanSet() {
		return ErrFieldCannotBeSet
	}

	switch {
	case field.Type() == reflect.TypeOf(time.Duration(0)):
		d, err := time.ParseDuration(strValue)
		if err != nil {
			return wrapEnvConversionError(name, field.Type().String(), err)
		}
		field.SetInt(int64(d))
		return nil
	case field.Kind() == reflect.Slice:
		parts := strings.Split(strValue, ",")
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, part := range parts {
			converted, err := cast.FromType(strings.TrimSpace(part), field.Type().Elem())
			if err != nil {
				return wrapEnvConversionError(name, field.Type().String(), err)
			}
			slice = reflect.Append(slice, reflect.ValueOf(converted).Convert(field.Type().Elem()))
		}
		field.Set(slice)
		return nil
	}

	converted, err := cast.FromType(strValue, field.Type())
	if err != nil {
		return wrapEnvConversionError(name, field.Type().String(), err)
	}
	field.Set(reflect.ValueOf(converted).Convert(field.Type()))
	return nil
}
