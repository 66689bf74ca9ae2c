/*
 * Copyright © AMD. 2025-2026. All rights reserved.
 */

package backoff

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func TestCountRetry(t *testing.T) {
	flaky := errors.New("flaky")

	t.Run("succeeds before attempts run out", func(t *testing.T) {
		attempts := 0
		err := CountRetry(func() error {
			attempts++
			if attempts < 3 {
				return flaky
			}
			return nil
		}, 3, time.Millisecond)
		assert.NilError(t, err)
		assert.Equal(t, attempts, 3)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		attempts := 0
		err := CountRetry(func() error {
			attempts++
			return flaky
		}, 3, time.Millisecond)
		assert.ErrorContains(t, err, "flaky")
		assert.Equal(t, attempts, 3)
	})

	t.Run("permanent aborts immediately", func(t *testing.T) {
		attempts := 0
		err := CountRetry(func() error {
			attempts++
			return Permanent(flaky)
		}, 3, time.Millisecond)
		assert.ErrorContains(t, err, "flaky")
		assert.Equal(t, attempts, 1)
	})
}
