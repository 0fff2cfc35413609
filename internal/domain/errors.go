package domain

import "errors"

var (
	// ErrUnsupportedFormat signals a missing catalog file or an unrecognized extension.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
	// ErrMalformedSource signals malformed content inside a recognized format.
	ErrMalformedSource = errors.New("malformed catalog source")
	// ErrUnknownAlgorithm signals a sort key with no registered algorithm and no fallback.
	ErrUnknownAlgorithm = errors.New("unknown sort algorithm")
	// ErrUnknownFilter signals a filter criterion with no registered predicate.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrEmptyQuery signals a lookup with an empty query string.
	ErrEmptyQuery = errors.New("empty query")
)
