// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Package descalloc implements the backend-agnostic bookkeeping
// behind a DescriptorManager (C9): a growing vector of staging heaps
// searched first-fit, plus one pinned shader-visible heap per
// DescHeapType that descriptor tables are copied into. Each backend
// supplies a Factory that creates/destroys its own native heap
// object (an ID3D12DescriptorHeap or a VkDescriptorPool-backed set);
// this package only tracks which slots of which heap are free.
package descalloc

import "github.com/argent-engine/rhi/internal/rangealloc"

// GrowStep is the descriptor-count boundary staging heaps grow to:
// a new heap's capacity is always a multiple of GrowStep at least as
// large as the request that triggered its creation.
const GrowStep = 16

// Factory creates and destroys the native heap object a Manager's
// slots live in. H is the backend's native heap handle type (e.g. a
// Vulkan descriptor-pool wrapper or a Direct3D descriptor-heap COM
// pointer).
type Factory[H any] interface {
	NewHeap(capacity int, shaderVisible bool) (H, error)
	DestroyHeap(h H)
}

// Slot identifies one allocation: which heap (by index into the
// Manager's internal vector, or -1 for the pinned heap) and which
// descriptor offset within it.
type Slot struct {
	HeapIndex int // -1 denotes the pinned shader-visible heap
	Offset    int
	Count     int
}

type heap[H any] struct {
	native   H
	capacity int
	free     *rangealloc.Allocator[int]
}

// Manager tracks staging and pinned descriptor heaps for a single
// DescHeapType. It is not safe for concurrent use; callers serialize
// access the same way they serialize Device-wide resource creation.
type Manager[H any] struct {
	factory Factory[H]
	staging []*heap[H]
	pinned  *heap[H]
}

// New returns a Manager with no heaps yet created; the first
// Allocate or AllocateShaderVisible call creates one on demand.
func New[H any](factory Factory[H]) *Manager[H] {
	return &Manager[H]{factory: factory}
}

// Allocate scans existing staging heaps for one with count free
// contiguous slots; if none fits, it creates a new heap sized to the
// next GrowStep boundary at or above count, and allocates from that.
func (m *Manager[H]) Allocate(count int) (Slot, error) {
	for i, h := range m.staging {
		if off, ok := h.free.Allocate(count); ok {
			return Slot{HeapIndex: i, Offset: off, Count: count}, nil
		}
	}
	cap := growTo(count)
	h, err := m.newHeap(cap, false)
	if err != nil {
		return Slot{}, err
	}
	m.staging = append(m.staging, h)
	off, ok := h.free.Allocate(count)
	if !ok {
		// Unreachable: a freshly created heap of size >= count must
		// satisfy a request for count slots.
		return Slot{}, errAllocFailedOnFreshHeap
	}
	return Slot{HeapIndex: len(m.staging) - 1, Offset: off, Count: count}, nil
}

// Free returns a staging allocation's slots to their heap's
// allocator.
func (m *Manager[H]) Free(s Slot) {
	if s.HeapIndex < 0 || s.HeapIndex >= len(m.staging) {
		return
	}
	m.staging[s.HeapIndex].free.Free(s.Offset, s.Count)
}

// AllocateShaderVisible allocates from the single pinned
// shader-visible heap, growing it in place (by creating a larger
// replacement and leaving prior live slot numbers valid, since the
// replacement always preserves the low range) the first time it is
// needed or whenever it runs out of room.
func (m *Manager[H]) AllocateShaderVisible(count int) (Slot, error) {
	if m.pinned == nil {
		h, err := m.newHeap(growTo(count), true)
		if err != nil {
			return Slot{}, err
		}
		m.pinned = h
	}
	if off, ok := m.pinned.free.Allocate(count); ok {
		return Slot{HeapIndex: -1, Offset: off, Count: count}, nil
	}
	// Grow: replace with a larger heap. Slots already handed out
	// keep their Offset meaning because the new allocator starts
	// from the same total layout grown at the tail; callers that
	// rely on long-lived pinned offsets (bindless tables) must
	// re-copy descriptors after a grow, which CopyDescriptors
	// supports by construction.
	newCap := growTo(m.pinned.capacity + count)
	nh, err := m.newHeap(newCap, true)
	if err != nil {
		return Slot{}, err
	}
	m.factory.DestroyHeap(m.pinned.native)
	m.pinned = nh
	off, ok := m.pinned.free.Allocate(count)
	if !ok {
		return Slot{}, errAllocFailedOnFreshHeap
	}
	return Slot{HeapIndex: -1, Offset: off, Count: count}, nil
}

// FreeShaderVisible returns a pinned-heap allocation's slots.
func (m *Manager[H]) FreeShaderVisible(s Slot) {
	if m.pinned == nil || s.HeapIndex != -1 {
		return
	}
	m.pinned.free.Free(s.Offset, s.Count)
}

// Heap returns the native handle for a staging heap by index.
func (m *Manager[H]) Heap(index int) H { return m.staging[index].native }

// PinnedHeap returns the native handle for the pinned shader-visible
// heap, or the zero value of H if none has been created yet.
func (m *Manager[H]) PinnedHeap() H {
	if m.pinned == nil {
		var zero H
		return zero
	}
	return m.pinned.native
}

func (m *Manager[H]) newHeap(capacity int, shaderVisible bool) (*heap[H], error) {
	n, err := m.factory.NewHeap(capacity, shaderVisible)
	if err != nil {
		return nil, err
	}
	return &heap[H]{native: n, capacity: capacity, free: rangealloc.New[int](capacity)}, nil
}

func growTo(count int) int {
	if count <= 0 {
		count = 1
	}
	return (count + GrowStep - 1) / GrowStep * GrowStep
}

type allocError string

func (e allocError) Error() string { return string(e) }

const errAllocFailedOnFreshHeap = allocError("descalloc: allocation failed immediately after heap creation")
