// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

import "context"

// Fence is a device-to-host synchronization primitive (C6). It
// reaches a monotonically increasing value as GPU work completes;
// CPUWait blocks until that value is reached.
type Fence interface {
	Destroyer

	// Value returns the fence's current value without blocking.
	Value() (uint64, error)

	// Signal sets the fence to value from the host.
	Signal(value uint64) error

	// CPUWait blocks the calling thread until the fence reaches
	// value, or until ctx is done. There is no implicit timeout:
	// pass context.Background() for an unbounded wait; ctx.Done is
	// the one caller-controlled escape hatch.
	CPUWait(ctx context.Context, value uint64) error
}

// Semaphore is a queue-to-queue synchronization primitive (C6). It
// carries no CPU-observable value; ordering is declared on a command
// list via AddQueueWait/AddQueueSignal before submission.
type Semaphore interface {
	Destroyer
}
