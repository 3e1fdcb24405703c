package storage

import (
	"errors"
)

var (
	// ErrCollision is returned when an item already exists.
	ErrCollision = errors.New("item already exists")

	// ErrInvalidContinuationToken is returned when the continuation token
	// is invalid.
	ErrInvalidContinuationToken = errors.New("invalid continuation token")

	// ErrNotFound is returned when the object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCancelled is returned when the request has been cancelled.
	ErrCancelled = errors.New("request has been cancelled")
)
