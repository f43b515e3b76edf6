package configwatcher

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configwatcher config")
	ErrReloadUnsupported = errors.New("application does not support config reload")
)
