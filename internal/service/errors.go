package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	// ErrConflict means the record moved on between the check and the write.
	ErrConflict = errors.New("conflict")
	// ErrActionRejected wraps the *guard.Error explaining the refusal.
	ErrActionRejected = errors.New("action rejected")
)
