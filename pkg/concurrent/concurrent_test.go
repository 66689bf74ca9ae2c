/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package concurrent

import (
	"sync"
	"sync/atomic"
	"testing"

	"gotest.tools/assert"
)

func TestForEachVisitsAllIndexes(t *testing.T) {
	tests := []struct {
		name  string
		count int
		width int
	}{
		{"zero", 0, 5},
		{"single worker", 10, 1},
		{"width over count", 3, 10},
		{"bounded", 50, 5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var mu sync.Mutex
			seen := make(map[int]int)
			ForEach(test.count, test.width, func(i int) {
				mu.Lock()
				seen[i]++
				mu.Unlock()
			})
			assert.Equal(t, len(seen), test.count)
			for i, n := range seen {
				assert.Equal(t, n, 1, "index %d ran %d times", i, n)
			}
		})
	}
}

func TestForEachBoundsWidth(t *testing.T) {
	const width = 3
	var inFlight, peak int32
	ForEach(30, width, func(int) {
		now := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
	})
	if p := atomic.LoadInt32(&peak); p > width {
		t.Errorf("observed %d concurrent tasks, want at most %d", p, width)
	}
}

func TestForEachSurvivesPanic(t *testing.T) {
	var done int32
	ForEach(10, 2, func(i int) {
		if i == 4 {
			panic("boom")
		}
		atomic.AddInt32(&done, 1)
	})
	assert.Equal(t, atomic.LoadInt32(&done), int32(9))
}

func TestForEachNilFunc(t *testing.T) {
	ForEach(10, 2, nil) // must not block or panic
}
