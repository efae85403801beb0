// Package repository holds the MySQL-backed durable principal store.  The
// sentinel values below let the service layer tell "no such principal" and
// "duplicate email" apart from transport failures.
package repository

import "errors"

// ErrNotFound is returned when no principal matches the lookup.
var ErrNotFound = errors.New("principal not found")

// ErrEmailExists is returned by Create on a unique-key violation.
var ErrEmailExists = errors.New("email already exists")
