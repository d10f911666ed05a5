package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ConflictError signals that an insert collided with an existing scheduled
// appointment for the same (conversation, customer email, date, time) tuple.
// ExistingID carries the authoritative row so callers can reconcile a retried
// or double-submitted booking onto it instead of failing the user.
type ConflictError struct {
	ExistingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate scheduled appointment exists (id: %s)", e.ExistingID)
}

// IsConflict reports whether err is (or wraps) a ConflictError, returning the
// conflicting record's identifier when it is.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
