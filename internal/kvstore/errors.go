package kvstore

import "errors"

var (
	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("kvstore: key cannot be empty")

	// ErrReadFailed wraps backend read failures.
	ErrReadFailed = errors.New("kvstore: read failed")

	// ErrWriteFailed wraps backend write failures.
	ErrWriteFailed = errors.New("kvstore: write failed")
)
