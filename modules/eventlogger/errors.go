package eventlogger

import (
	"errors"
)

// Error definitions for the eventlogger module
var (
	// Configuration errors
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidFormat      = errors.New("invalid log format")
	ErrInvalidOutputType  = errors.New("invalid output target type")
	ErrMissingFilePath    = errors.New("missing file path for file output target")
	ErrInvalidBufferSize  = errors.New("invalid buffer size")
	ErrInvalidEventFilter = errors.New("invalid event type filter")

	// Runtime errors
	ErrEventBufferFull = errors.New("event buffer is full")
	ErrFileNotOpen     = errors.New("file not open")
)
