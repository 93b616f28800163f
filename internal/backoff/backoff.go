// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backoff provides the exponential backoff used when a store call
// fails with a transient error.
package backoff

import (
	"context"
	"math"
	"time"
)

// BaseDelay controls the first backoff interval. Tests override this to
// avoid real sleeps.
var BaseDelay = 100 * time.Millisecond

// MaxDelay caps a single backoff interval.
var MaxDelay = 10 * time.Second

// DefaultMaxRetries is used when a caller passes a non-positive retry count.
const DefaultMaxRetries = 5

// Delay returns the wait before retry number attempt (zero-based). The
// delay starts at BaseDelay and doubles each attempt, capped at MaxDelay:
// 100 ms, 200 ms, 400 ms, 800 ms, 1.6 s.
func Delay(attempt int) time.Duration {
	if attempt > 30 {
		return MaxDelay
	}
	d := time.Duration(math.Pow(2, float64(attempt))) * BaseDelay
	if d > MaxDelay || d <= 0 {
		return MaxDelay
	}
	return d
}

// Wait sleeps for Delay(attempt). If the context is cancelled during the
// wait it returns ctx.Err().
func Wait(ctx context.Context, attempt int) error {
	t := time.NewTimer(Delay(attempt))
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, or
// maxRetries retries are exhausted. fn reports whether its error may be
// retried. When maxRetries is 0 the default (5) is used; a negative value
// disables retries. After exhausting retries the last error is returned.
func Retry(ctx context.Context, maxRetries int, fn func(attempt int) (retry bool, err error)) error {
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		retry, err := fn(attempt)
		if err == nil || !retry {
			return err
		}
		if attempt >= maxRetries {
			return err
		}
		if werr := Wait(ctx, attempt); werr != nil {
			return werr
		}
	}
}
