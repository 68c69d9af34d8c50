package dashboard

import "errors"

var (
	// ErrNotFound is returned when a connector id has no fixture.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTimeRange is returned for an unsupported trend window.
	ErrInvalidTimeRange = errors.New("invalid time range")
)
