package database

import "errors"

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrCorruptData is returned in strict mode when the root blob cannot be decoded.
	ErrCorruptData = errors.New("stored database is corrupt")
)
