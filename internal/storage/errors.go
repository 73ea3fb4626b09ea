package storage

import "errors"

// Sentinel errors returned by storage implementations. Callers match with
// errors.Is.
var (
	// ErrPositionNotFound indicates the requested position id does not exist.
	ErrPositionNotFound = errors.New("position not found")
	// ErrDuplicatePosition indicates a save collided with an existing id.
	ErrDuplicatePosition = errors.New("position already exists")
)
