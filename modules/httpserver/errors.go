package httpserver

import (
	"errors"
)

var (
	// ErrServerNotStarted is returned by Stop when Start never succeeded.
	ErrServerNotStarted = errors.New("server not started")

	// ErrNoHandler is returned by Start when no router service was found.
	ErrNoHandler = errors.New("no HTTP handler available")

	// ErrInvalidPort is returned for ports outside 0-65535.
	ErrInvalidPort = errors.New("invalid port number")

	// ErrTLSFilesMissing is returned when TLS is enabled without a cert and key.
	ErrTLSFilesMissing = errors.New("TLS is enabled but cert_file or key_file is empty")
)
