package repositories

import "errors"

var (
	// ErrNotFound indicates no record exists for the key, e.g. a video that
	// has never been mirrored.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write collided with an existing unique value,
	// e.g. a reused refresh token.
	ErrConflict = errors.New("record conflict")
)
