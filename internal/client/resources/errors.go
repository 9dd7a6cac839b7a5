package resources

import "errors"

var (
	// ErrMissingIdentifier is returned by update and delete operations called
	// without an id. No request is sent.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrStale is returned when a response arrived after a newer fetch was
	// started or the collection was invalidated. The cache is left untouched.
	ErrStale = errors.New("stale response discarded")
)
