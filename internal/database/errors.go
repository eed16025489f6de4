package database

import "errors"

var (
	// ErrUserNotFound indicates the requested user id has no feature record.
	ErrUserNotFound = errors.New("user not found")
	// ErrStorageUnavailable indicates the backing store could not serve the
	// query. Surfaced to the caller, never retried here.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
