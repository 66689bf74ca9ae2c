/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package channel

// Tomb pairs a stop signal with a done acknowledgement so an owner can
// shut down a background goroutine and wait for it to exit.
type Tomb struct {
	stop chan struct{}
	done chan struct{}
}

// NewTomb creates a new tomb.
func NewTomb() *Tomb {
	return &Tomb{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Stop signals the owned goroutine and blocks until it calls Done.
func (t *Tomb) Stop() {
	close(t.stop)
	<-t.done
}

// Stopping is selected on by the owned goroutine.
func (t *Tomb) Stopping() <-chan struct{} {
	return t.stop
}

// Done is deferred by the owned goroutine to acknowledge its exit.
func (t *Tomb) Done() {
	close(t.done)
}

// Stopped reports whether Stop has been requested. It never blocks.
func (t *Tomb) Stopped() bool {
	if t == nil || t.stop == nil {
		return true
	}
	select {
	case <-t.stop:
		return true
	default:
	}
	return false
}
