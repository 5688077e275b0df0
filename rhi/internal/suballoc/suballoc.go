// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Package suballoc sub-allocates placed-resource byte ranges out of
// a single native heap allocation (C7). It is the shared logic
// behind rhi/dx's ID3D12Heap wrapper and rhi/vk's VkDeviceMemory
// wrapper: both back a placed Buffer/Texture with an aligned chunk
// cut from one large native allocation instead of a dedicated one.
package suballoc

import "github.com/argent-engine/rhi/internal/rangealloc"

// Heap sub-allocates aligned byte ranges from a fixed-size backing
// allocation. Every offset it returns is a multiple of Alignment,
// padding the requested size up as needed; this keeps placed
// resources honoring the alignment requirement the backend's
// resource-placement query reported for them, without each caller
// having to round sizes itself.
type Heap struct {
	size      int64
	alignment int64
	free      *rangealloc.Allocator[int64]
	live      int // count of outstanding allocations, for IsEmpty fast-path
}

// New creates a Heap of the given size, sub-allocating in units of
// alignment. alignment must be a power of two; size need not be a
// multiple of it; the tail shorter than alignment is simply never
// offered.
func New(size, alignment int64) *Heap {
	return &Heap{
		size:      size,
		alignment: alignment,
		free:      rangealloc.New[int64](size / alignment),
	}
}

// Size returns the heap's total byte size.
func (h *Heap) Size() int64 { return h.size }

// Alignment returns the heap's sub-allocation granularity.
func (h *Heap) Alignment() int64 { return h.alignment }

// TryAllocate reserves a byte range of at least size bytes, rounded
// up to a multiple of Alignment, and returns its byte offset within
// the backing allocation. It reports ok=false if no free range is
// large enough.
func (h *Heap) TryAllocate(size int64) (offset int64, ok bool) {
	if size <= 0 {
		return 0, false
	}
	units := (size + h.alignment - 1) / h.alignment
	u, ok := h.free.Allocate(units)
	if !ok {
		return 0, false
	}
	h.live++
	return u * h.alignment, true
}

// Free releases a byte range previously returned by TryAllocate.
// offset and size must exactly match the values used at allocation;
// a value that does not correspond to a live allocation is passed to
// the underlying allocator unchecked, with no log and no panic.
func (h *Heap) Free(offset, size int64) {
	if size <= 0 {
		return
	}
	units := (size + h.alignment - 1) / h.alignment
	h.free.Free(offset/h.alignment, units)
	h.live--
}

// IsEmpty reports whether every sub-allocation has been freed.
func (h *Heap) IsEmpty() bool { return h.live == 0 }
