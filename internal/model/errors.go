package model

import "errors"

var (
	// ErrInvalidInput reports an empty or malformed input at any boundary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound reports a reference to a chat or session that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProviderFailure reports that the completion provider errored,
	// timed out or returned an unusable response.
	ErrProviderFailure = errors.New("completion provider failure")

	// ErrConfiguration reports a startup configuration problem.
	ErrConfiguration = errors.New("configuration error")
)
