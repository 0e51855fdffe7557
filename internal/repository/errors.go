package repository

import "errors"

var (
	// ErrNotFound is returned when no document matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrIdentityTaken is returned when an identity reservation loses the
	// race to a concurrent create for the same (device, local id, kind).
	ErrIdentityTaken = errors.New("identity already reserved")
)
