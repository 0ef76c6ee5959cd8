package store

import "errors"

// Metadata store errors.
var (
	// ErrNilRecord is returned when AddStory receives a nil record.
	ErrNilRecord = errors.New("story record cannot be nil")

	// ErrEmptyID is returned when a record carries no id.
	ErrEmptyID = errors.New("story id cannot be empty")

	// ErrDuplicateStory is returned when a story id is already registered.
	// Duplicate ids are rejected rather than overwritten so that a stale
	// manifest or a copy-pasted story name fails loudly.
	ErrDuplicateStory = errors.New("story already registered")

	// ErrStoryNotFound is returned when removing an id that is not registered.
	ErrStoryNotFound = errors.New("story not found")

	// ErrUnsafeRemoval is returned when removal is attempted without the
	// unsafe flag. Records are immutable through the public API; only the
	// hot-reload bridge removes them, and it always sets AllowUnsafe.
	ErrUnsafeRemoval = errors.New("story removal requires AllowUnsafe")
)
