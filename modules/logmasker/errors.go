package logmasker

import "errors"

var (
	ErrInvalidStrategy = errors.New("invalid mask strategy")
	ErrInvalidRule     = errors.New("invalid masking rule")
)
