// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"errors"
	"fmt"

	"github.com/pdiddy/paper-catalog/pkg/types"
)

// ErrInvalidKey marks validation-class failures: an item whose keys the
// store cannot accept. Such failures are never retried.
var ErrInvalidKey = errors.New("invalid item key")

// transientError marks a failure that may succeed when retried
// (throttling, timeouts, busy database).
type transientError struct {
	err error
}

func (e *transientError) Error() string { return "transient: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or any error it wraps, was marked
// retryable by Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// StoreError reports a failed write. Written counts the items that were
// durably written before the failure; Tally splits that count by kind.
type StoreError struct {
	Written int
	Tally   types.Tally
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store write failed after %d items: %v", e.Written, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
