// Package sentinel holds infrastructure facts returned by stores.
//
// Stores return these (optionally wrapped); services translate them into
// domain errors. Validation failures never use sentinels.
package sentinel

import "errors"

var (
	// ErrNotFound: the row or key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness constraint was violated (duplicate email).
	ErrConflict = errors.New("conflict")
	// ErrExpired: a session outlived its TTL.
	ErrExpired = errors.New("expired")
	// ErrUnavailable: the backing store could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
