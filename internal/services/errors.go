package services

import "errors"

var (
	// ErrNotFound marks lookups for entities that do not exist or are not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument marks requests that are well-formed but violate a
	// business rule.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrForbidden marks authenticated requests the caller may not perform,
	// including payment callbacks with a bad signature.
	ErrForbidden = errors.New("forbidden")
)
