/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package concurrent

import (
	"sync"

	"k8s.io/klog/v2"
)

// ForEach runs fn for every index in [0, count) on at most width
// concurrent workers. A panic inside fn is recovered and logged so one
// task cannot take down its worker or the remaining tasks.
func ForEach(count, width int, fn func(index int)) {
	if count <= 0 || fn == nil {
		return
	}
	if width <= 0 {
		width = 1
	}
	if width > count {
		width = count
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(width)
	for w := 0; w < width; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				run(fn, i)
			}
		}()
	}
	for i := 0; i < count; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}

func run(fn func(index int), i int) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("worker panicked on task %d: %v", i, r)
		}
	}()
	fn(i)
}
