// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
//
// Ownership mismatches are reported as ErrNotFound on purpose: a caller
// probing another collector's ids learns nothing about whether they exist.
package repository

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a row does not exist or belongs to someone
// else.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a local account already uses the email.
var ErrEmailExists = errors.New("email already exists")

func utcNow() time.Time { return time.Now().UTC() }
