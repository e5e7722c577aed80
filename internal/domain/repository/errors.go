package repository

import "errors"

// ErrNotFound is returned by lookups that require a row to exist:
// account by email, pending verification code by purpose, and so on.
var ErrNotFound = errors.New("not found")
