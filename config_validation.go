package taskapi

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

const (
	// Struct tag keys
	tagDefault  = "default"
	tagRequired = "required"
	tagDynamic  = "dynamic" // Fields that may change on reload without a restart
)

// ConfigValidator is an interface for configuration validation.
// Configuration structs can implement this interface to provide
// custom validation logic beyond the standard required field checking.
//
// Example implementation:
//
//	type MyConfig struct {
//	    Host string `yaml:"host" required:"true"`
//	    Port int    `yaml:"port" default:"8080"`
//	}
//
//	func (c *MyConfig) Validate() error {
//	    if c.Port < 1024 || c.Port > 65535 {
//	        return fmt.Errorf("%w: port must be between 1024 and 65535", taskapi.ErrConfigValidationFailed)
//	    }
//	    return nil
//	}
type ConfigValidator interface {
	// Validate is called after defaults are applied and required fields checked.
	Validate() error
}

// ProcessConfigDefaults applies default values to a config struct based on struct tags.
// It looks for `default:"value"` tags on struct fields and sets the field value if currently zero/empty.
//
// Scalars are converted with golobby/cast, durations with time.ParseDuration,
// and slices or maps are decoded from a JSON literal:
//
//	type Config struct {
//	    Host     string        `default:"localhost"`
//	    Port     int           `default:"8080"`
//	    Timeout  time.Duration `default:"15s"`
//	    Prefixes []string      `default:"[\"/apiv1\",\"/apiv2\"]"`
//	}
func ProcessConfigDefaults(cfg any) error {
	if cfg == nil {
		return ErrConfigNil
	}

	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrConfigNotPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrConfigNotStruct
	}

	return processStructDefaults(v)
}

// processStructDefaults recursively processes struct fields for default values
func processStructDefaults(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := processStructDefaults(field); err != nil {
				return err
			}
			continue
		}

		// Nil struct pointers are left alone
		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if !field.IsNil() {
				if err := processStructDefaults(field.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		defaultVal, hasDefault := fieldType.Tag.Lookup(tagDefault)
		if !hasDefault || !isZeroValue(field) {
			continue
		}

		if err := setDefaultValue(field, defaultVal); err != nil {
			return fmt.Errorf("failed to set default value for %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

// ValidateConfigRequired checks all struct fields with `required:"true"` tag
// and verifies they are not zero/empty values
func ValidateConfigRequired(cfg any) error {
	if cfg == nil {
		return ErrConfigNil
	}

	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrConfigNotPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrConfigNotStruct
	}

	var missing []string
	validateRequiredFields(v, "", &missing)

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigRequiredFieldMissing, strings.Join(missing, ", "))
	}

	return nil
}

func validateRequiredFields(v reflect.Value, prefix string, missing *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name

		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			validateRequiredFields(field, fieldName, missing)
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if !field.IsNil() {
				validateRequiredFields(field.Elem(), fieldName, missing)
			} else if isFieldRequired(&fieldType) {
				*missing = append(*missing, fieldName)
			}
			continue
		}

		if isFieldRequired(&fieldType) && isZeroValue(field) {
			*missing = append(*missing, fieldName)
		}
	}
}

func isFieldRequired(field *reflect.StructField) bool {
	required, exists := field.Tag.Lookup(tagRequired)
	return exists && required == "true"
}

// isZeroValue determines if a field contains its zero value
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Invalid:
		return true
	case reflect.Chan, reflect.Func, reflect.Struct, reflect.UnsafePointer:
		return false
	default:
		return v.IsZero()
	}
}

// basicTypes maps scalar kinds to the predeclared type cast can parse into.
// Named types such as `type Mode string` are converted from these.
var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeOf(false),
	reflect.String:  reflect.TypeOf(""),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
}

// setDefaultValue sets a default value from a string to the proper field type
func setDefaultValue(field reflect.Value, defaultVal string) error {
	if field.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(defaultVal)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.Slice, reflect.Map:
		target := reflect.New(field.Type())
		if err := json.Unmarshal([]byte(defaultVal), target.Interface()); err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.Set(target.Elem())
		return nil
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		converted, err := cast.FromType(defaultVal, basicTypes[field.Kind()])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDefaultValueParseError, err)
		}
		field.Set(reflect.ValueOf(converted).Convert(field.Type()))
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTypeForDefault, field.Kind())
	}
}

// ValidateConfig validates a configuration using the following steps:
// 1. Processes default values
// 2. Validates required fields
// 3. If the config implements ConfigValidator, calls its Validate method
func ValidateConfig(cfg any) error {
	if cfg == nil {
		return ErrConfigNil
	}

	if err := ProcessConfigDefaults(cfg); err != nil {
		return err
	}
	return validateFedConfig(cfg)
}

// validateFedConfig checks required fields and calls Validate without
// applying defaults, so explicit zero values from feeders are kept.
func validateFedConfig(cfg any) error {
	if err := ValidateConfigRequired(cfg); err != nil {
		return err
	}

	if validator, ok := cfg.(ConfigValidator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
		}
	}

	return nil
}

// ChangedFields compares two configs of the same type and returns the dotted
// names of fields whose values differ, split by whether they carry the
// `dynamic:"true"` tag.
func ChangedFields(oldCfg, newCfg any) (dynamic, static []string) {
	ov := reflect.Indirect(reflect.ValueOf(oldCfg))
	nv := reflect.Indirect(reflect.ValueOf(newCfg))
	if !ov.IsValid() || !nv.IsValid() || ov.Type() != nv.Type() || ov.Kind() != reflect.Struct {
		return nil, nil
	}
	diffStruct(ov, nv, "", &dynamic, &static)
	return dynamic, static
}

func diffStruct(ov, nv reflect.Value, prefix string, dynamic, static *[]string) {
	t := ov.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		of, nf := ov.Field(i), nv.Field(i)
		if of.Kind() == reflect.Struct {
			diffStruct(of, nf, name, dynamic, static)
			continue
		}
		if reflect.DeepEqual(of.Interface(), nf.Interface()) {
			continue
		}
		if sf.Tag.Get(tagDynamic) == "true" {
			*dynamic = append(*dynamic, name)
		} else {
			*static = append(*static, name)
		}
	}
}

// GenerateSampleConfig renders the main config plus every section with its
// defaults applied. The format parameter can be "yaml" or "toml".
func GenerateSampleConfig(main any, sections map[string]any, format string) ([]byte, error) {
	if main == nil {
		return nil, ErrConfigNil
	}

	doc, err := sampleMap(main)
	if err != nil {
		return nil, err
	}
	for name, section := range sections {
		m, err := sampleMap(section)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		doc[name] = m
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		return data, nil
	case "toml":
		data, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to TOML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormatType, format)
	}
}

// sampleMap applies defaults to a fresh copy of cfg and flattens it into a
// map keyed by yaml tag names.
func sampleMap(cfg any) (map[string]any, error) {
	sample, err := cloneConfigTarget(cfg)
	if err != nil {
		return nil, err
	}
	if err := ProcessConfigDefaults(sample); err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample: %w", err)
	}
	out := make(map[string]any)
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sample: %w", err)
	}
	return out, nil
}

// SaveSampleConfig generates and saves a sample configuration file
func SaveSampleConfig(main any, sections map[string]any, format, filePath string) error {
	data, err := GenerateSampleConfig(main, sections, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file to %s: %w", filePath, err)
	}
	return nil
}
