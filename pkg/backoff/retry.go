/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package backoff

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// CountRetry runs f up to count times with a fixed interval between
// attempts. Wrapping an error with Permanent aborts the remaining
// attempts and returns the cause.
func CountRetry(f backoff.Operation, count int, interval time.Duration) error {
	if count < 1 {
		count = 1
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(count-1))
	return backoff.Retry(f, b)
}

// Permanent marks err as not retryable. CountRetry stops at once and
// returns the original err.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
