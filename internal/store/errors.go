package store

import "errors"

var (
	// ErrNotFound means the referenced record does not exist or, for queue
	// operations, is already completed.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyQueued means the customer already has an active queue entry.
	// It is a no-op signal, not a failure: re-recognizing a queued customer
	// simply keeps the existing entry.
	ErrAlreadyQueued = errors.New("customer already queued")
)
