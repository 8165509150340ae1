package repository

import "errors"

var (
	// ErrStaleStatus means the row no longer has the status the caller
	// validated against; another writer got there first.
	ErrStaleStatus     = errors.New("status changed concurrently")
	ErrDuplicateRating = errors.New("rating already recorded")
)
