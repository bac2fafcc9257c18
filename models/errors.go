package models

import (
	"errors"
	"fmt"
)

// ErrRecalcInProgress is returned when a live submission or a second
// recalculation targets a match-type scope that an active recalculation
// holds. Callers should retry after a short delay.
var ErrRecalcInProgress = errors.New("rating recalculation in progress for this match type")

// InvalidMatchError marks a match that can never be rated: a tied score
// or a malformed team composition. It is not retryable.
type InvalidMatchError struct {
	Reason string
}

func (e *InvalidMatchError) Error() string {
	return fmt.Sprintf("invalid match: %s", e.Reason)
}

// NotFoundError is returned in strict mode when a referenced player has
// no profile. In lenient mode missing entities get default ratings
// instead.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// TransientStorageError wraps a storage failure worth retrying (timeout,
// deadlock, dropped connection).
type TransientStorageError struct {
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("transient storage error: %v", e.Err)
}

func (e *TransientStorageError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should be retried with backoff rather
// than recorded as a permanent per-match failure.
func IsTransient(err error) bool {
	var te *TransientStorageError
	return errors.As(err, &te)
}
