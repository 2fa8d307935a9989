package cache

import (
	"errors"
)

// Sentinel errors for caching operations.
var (
	// ErrNotFound is returned when a requested cache slot does not exist.
	ErrNotFound = errors.New("cache slot not found")

	// ErrLocked is returned when the cache root is held by another process.
	ErrLocked = errors.New("cache is locked by another process")

	// ErrNoSlot is returned when a slot path is requested without any parts.
	ErrNoSlot = errors.New("cache slot name is empty")
)
