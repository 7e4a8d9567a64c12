package dateparse

import "errors"

var (
	// ErrEmpty is returned for nil, empty or whitespace-only input.
	ErrEmpty = errors.New("empty date value")

	// ErrUnknownFormat is returned when the input matches none of the recognized encodings.
	ErrUnknownFormat = errors.New("unrecognized date format")
)
