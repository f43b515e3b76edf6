package taskapi

import (
	"errors"
)

// Application errors
var (
	// Configuration errors
	ErrConfigSectionNotFound = errors.New("config section not found")
	ErrConfigProviderNil     = errors.New("failed to load app config: config provider is nil")
	ErrConfigSectionError    = errors.New("failed to load app config: error triggered by section")

	// Config validation errors
	ErrConfigNil                  = errors.New("config is nil")
	ErrConfigNotPointer           = errors.New("config must be a pointer")
	ErrConfigNotStruct            = errors.New("config must be a struct")
	ErrConfigRequiredFieldMissing = errors.New("required field is missing")
	ErrConfigValidationFailed     = errors.New("config validation failed")
	ErrUnsupportedTypeForDefault  = errors.New("unsupported type for default value")
	ErrDefaultValueParseError     = errors.New("failed to parse default value")
	ErrUnsupportedFormatType      = errors.New("unsupported format type")
	ErrConfigFeederError          = errors.New("config feeder error")

	// Service registry errors
	ErrServiceAlreadyRegistered = errors.New("service already registered")
	ErrServiceNotFound          = errors.New("service not found")
	ErrTargetNotPointer         = errors.New("target must be a non-nil pointer")
	ErrServiceIncompatible      = errors.New("service cannot be assigned to target")

	// Dependency resolution errors
	ErrCircularDependency      = errors.New("circular dependency detected")
	ErrModuleDependencyMissing = errors.New("module depends on non-existent module")
	ErrModuleAlreadyRegistered = errors.New("module already registered")

	// Lifecycle errors
	ErrApplicationNotInitialized = errors.New("application not initialized")
	ErrNoSubjectForEventEmission = errors.New("no subject available for event emission")
)
