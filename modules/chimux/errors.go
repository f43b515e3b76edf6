package chimux

import "errors"

var (
	// ErrInvalidBasePath is returned when the base path does not start with "/".
	ErrInvalidBasePath = errors.New("base path must start with /")
	// ErrInvalidTimeout is returned for a negative request timeout.
	ErrInvalidTimeout = errors.New("timeout must not be negative")
	// ErrNoSubjectForEventEmission is returned when events are emitted before
	// the module has been attached to the application subject.
	ErrNoSubjectForEventEmission = errors.New("no subject available for event emission")
)
