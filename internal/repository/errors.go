// Package repository contains data access logic separated from HTTP
// handlers.  This file defines sentinel errors shared across repositories so
// handlers can map failures onto HTTP statuses without inspecting driver
// errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  Handlers
// translate this into HTTP 404 (or 401 for credentials and tokens, where
// the reason must stay hidden).
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when creating or renaming a user would
// violate the unique username constraint.  Handlers translate this into
// HTTP 400.
var ErrUsernameTaken = errors.New("username already exists")

// ErrTokenRotated is returned when a refresh-token rotation loses the race:
// the presented token was already revoked by a concurrent rotation or an
// explicit revoke.  Handlers treat this as an authentication failure.
var ErrTokenRotated = errors.New("refresh token already rotated")
