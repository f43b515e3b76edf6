package feeders

import (
	"errors"
	"fmt"
)

// Static error definitions for feeders

// Structure errors
var (
	ErrInvalidStructure = errors.New("expected pointer to struct")
	ErrFieldCannotBeSet = errors.New("field cannot be set")
)

// DotEnv feeder errors
var (
	ErrDotEnvInvalidLineFormat = errors.New("invalid .env line format")
)

// Env feeder errors
var (
	ErrEnvConversion = errors.New("cannot convert environment value")
)

func wrapStructureError(got any) error {
	return fmt.Errorf("%w, got %T", ErrInvalidStructure, got)
}

func wrapEnvConversionError(name, fieldType string, err error) error {
	return fmt.Errorf("%w %s to %s: %w", ErrEnvConversion, name, fieldType, err)
}
