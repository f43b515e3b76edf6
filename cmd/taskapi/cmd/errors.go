package cmd

import "errors"

var (
	ErrInvalidLogLevel         = errors.New("invalid log level")
	ErrInvalidLogFormat        = errors.New("invalid log format")
	ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
)
