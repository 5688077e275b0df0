// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Package rangealloc implements a coalescing free-list allocator over
// a linear integer range [0, total). It underlies both GPU-heap
// sub-allocation (placed resources) and descriptor-slot allocation
// (shader-visible and staging descriptor heaps), the way the
// teacher's internal/bitm package underlies its own resource
// management allocators.
package rangealloc

import "golang.org/x/exp/constraints"

// rng is a closed inclusive range [First, Last].
type rng[T constraints.Integer] struct {
	first, last T
}

func (r rng[T]) size() T { return r.last - r.first + 1 }

// Allocator holds a strictly increasing, disjoint, non-adjacent
// sequence of non-empty closed inclusive free ranges over [0, total);
// the sequence is empty once every unit is allocated. It is not safe
// for concurrent use.
//
// Free merges a freed range with both its predecessor and successor
// whenever they become contiguous, so the free list never carries
// adjacent entries that a smarter allocator could have joined.
type Allocator[T constraints.Integer] struct {
	total  T
	free   []rng[T]
}

// New returns an Allocator over [0, total).
func New[T constraints.Integer](total T) *Allocator[T] {
	a := &Allocator[T]{}
	a.SetTotal(total)
	return a
}

// SetTotal resets the allocator to a single free range [0, total-1].
// It discards any outstanding allocation bookkeeping; callers must
// not mix this with in-flight allocations from a prior total.
func (a *Allocator[T]) SetTotal(total T) {
	a.total = total
	if total <= 0 {
		a.free = a.free[:0]
		return
	}
	a.free = append(a.free[:0], rng[T]{0, total - 1})
}

// Reset restores the single range spanning the whole allocator.
func (a *Allocator[T]) Reset() { a.SetTotal(a.total) }

// Total returns the size the allocator was constructed or reset with.
func (a *Allocator[T]) Total() T { return a.total }

// Allocate performs a first-fit scan for a free range of size >= n
// and returns its starting offset. It fails (ok=false) if n is zero
// or no range is large enough.
func (a *Allocator[T]) Allocate(n T) (offset T, ok bool) {
	if n <= 0 {
		return 0, false
	}
	for i := range a.free {
		if a.free[i].size() < n {
			continue
		}
		offset = a.free[i].first
		switch {
		case a.free[i].size() == n:
			// Exact match: drop the range entirely rather than leave
			// a zero-size entry.
			a.free = append(a.free[:i], a.free[i+1:]...)
		default:
			a.free[i].first += n
		}
		return offset, true
	}
	return 0, false
}

// Free inserts [offset, offset+n-1] back into the free list, merging
// with either neighbor that becomes contiguous with it. Double-free
// or freeing a range outside what was ever allocated is a caller
// contract violation; it will corrupt the free list rather than
// panic, so callers must not rely on Free to catch misuse.
func (a *Allocator[T]) Free(offset, n T) {
	if n <= 0 {
		return
	}
	last := offset + n - 1

	// Locate insertion point: first range with first >= offset.
	i := 0
	for i < len(a.free) && a.free[i].first < offset {
		i++
	}

	mergePrev := i > 0 && a.free[i-1].last+1 == offset
	mergeNext := i < len(a.free) && last+1 == a.free[i].first

	switch {
	case mergePrev && mergeNext:
		a.free[i-1].last = a.free[i].last
		a.free = append(a.free[:i], a.free[i+1:]...)
	case mergePrev:
		a.free[i-1].last = last
	case mergeNext:
		a.free[i].first = offset
	default:
		a.free = append(a.free, rng[T]{})
		copy(a.free[i+1:], a.free[i:])
		a.free[i] = rng[T]{offset, last}
	}
}

// IsEmpty reports whether the whole allocator is free: exactly one
// range spanning [0, total-1].
func (a *Allocator[T]) IsEmpty() bool {
	return len(a.free) == 1 && a.free[0].first == 0 && a.free[0].last == a.total-1
}

// NumFreeRanges reports the number of disjoint free ranges currently
// tracked; exposed for tests asserting the non-adjacency invariant.
func (a *Allocator[T]) NumFreeRanges() int { return len(a.free) }

// checkInvariants verifies the free list is sorted, disjoint and
// non-adjacent. It is used only by tests.
func (a *Allocator[T]) checkInvariants() bool {
	for i := 1; i < len(a.free); i++ {
		if a.free[i-1].last >= a.free[i].first {
			return false // overlap or misorder
		}
		if a.free[i-1].last+1 == a.free[i].first {
			return false // adjacent, should have merged
		}
	}
	for _, r := range a.free {
		if r.first > r.last {
			return false
		}
	}
	return true
}
