// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rangealloc

import "testing"

func TestNewIsEmpty(t *testing.T) {
	a := New[int64](1024)
	if !a.IsEmpty() {
		t.Fatalf("New.IsEmpty:\nhave false\nwant true")
	}
	if n := a.NumFreeRanges(); n != 1 {
		t.Fatalf("New.NumFreeRanges:\nhave %d\nwant 1", n)
	}
}

func TestAllocateShrinksFront(t *testing.T) {
	a := New[int64](100)
	off, ok := a.Allocate(10)
	if !ok || off != 0 {
		t.Fatalf("Allocate:\nhave (%d, %v)\nwant (0, true)", off, ok)
	}
	off, ok = a.Allocate(10)
	if !ok || off != 10 {
		t.Fatalf("Allocate:\nhave (%d, %v)\nwant (10, true)", off, ok)
	}
	if a.IsEmpty() {
		t.Fatalf("IsEmpty after partial allocation:\nhave true\nwant false")
	}
}

func TestAllocateExactConsumesRange(t *testing.T) {
	a := New[int64](20)
	a.Allocate(10) // [0,9] taken, [10,19] free
	off, ok := a.Allocate(10)
	if !ok || off != 10 {
		t.Fatalf("Allocate exact:\nhave (%d, %v)\nwant (10, true)", off, ok)
	}
	if n := a.NumFreeRanges(); n != 0 {
		t.Fatalf("NumFreeRanges after full consumption:\nhave %d\nwant 0", n)
	}
	if _, ok := a.Allocate(1); ok {
		t.Fatalf("Allocate on exhausted allocator:\nhave ok=true\nwant ok=false")
	}
}

func TestAllocateFailsWhenTooLarge(t *testing.T) {
	a := New[int64](16)
	if _, ok := a.Allocate(17); ok {
		t.Fatalf("Allocate beyond total:\nhave ok=true\nwant ok=false")
	}
	if _, ok := a.Allocate(0); ok {
		t.Fatalf("Allocate(0):\nhave ok=true\nwant ok=false")
	}
}

// TestFreeIsEmptyAfterEqualFree allocates the whole range in pieces
// and frees them back; the allocator must report empty once every
// byte has been returned, regardless of free order.
func TestFreeIsEmptyAfterEqualFree(t *testing.T) {
	a := New[int64](64)
	o1, _ := a.Allocate(16)
	o2, _ := a.Allocate(16)
	o3, _ := a.Allocate(32)

	a.Free(o2, 16)
	if a.IsEmpty() {
		t.Fatalf("IsEmpty after partial free:\nhave true\nwant false")
	}
	a.Free(o1, 16)
	a.Free(o3, 32)
	if !a.IsEmpty() {
		t.Fatalf("IsEmpty after returning every allocation:\nhave false\nwant true")
	}
}

// TestFreeCoalescesBothNeighbors frees three adjacent ranges out of
// order and checks the free list collapses to a single range, the
// way a reader would expect bidirectional coalescing to behave.
func TestFreeCoalescesBothNeighbors(t *testing.T) {
	a := New[int64](30)
	a.Allocate(10) // [0,9]
	a.Allocate(10) // [10,19]
	a.Allocate(10) // [20,29]

	a.Free(10, 10) // middle: no neighbor yet, stands alone
	if n := a.NumFreeRanges(); n != 1 {
		t.Fatalf("NumFreeRanges after freeing middle:\nhave %d\nwant 1", n)
	}
	a.Free(0, 10) // left neighbor: merges forward
	if n := a.NumFreeRanges(); n != 1 {
		t.Fatalf("NumFreeRanges after freeing left:\nhave %d\nwant 1", n)
	}
	a.Free(20, 10) // right neighbor: merges both sides into one
	if !a.IsEmpty() {
		t.Fatalf("IsEmpty after freeing all three:\nhave false\nwant true")
	}
	if n := a.NumFreeRanges(); n != 1 {
		t.Fatalf("NumFreeRanges after full coalesce:\nhave %d\nwant 1", n)
	}
}

// TestNoReallocationWithinLiveRange ensures offsets handed out for
// disjoint allocations never overlap while both remain live.
func TestNoReallocationWithinLiveRange(t *testing.T) {
	a := New[int64](64)
	seen := map[int64]bool{}
	for i := 0; i < 4; i++ {
		off, ok := a.Allocate(16)
		if !ok {
			t.Fatalf("Allocate %d:\nhave ok=false\nwant ok=true", i)
		}
		for o := off; o < off+16; o++ {
			if seen[o] {
				t.Fatalf("offset %d double-allocated while live", o)
			}
			seen[o] = true
		}
	}
	if _, ok := a.Allocate(1); ok {
		t.Fatalf("Allocate beyond capacity:\nhave ok=true\nwant ok=false")
	}
}

// TestFreeListStaysSortedDisjointNonAdjacent exercises an
// interleaved allocate/free sequence and checks the invariant on the
// internal free list after every step, the property the allocator's
// insertion scan and coalescing both depend on.
func TestFreeListStaysSortedDisjointNonAdjacent(t *testing.T) {
	a := New[int64](256)
	var live [][2]int64 // offset, size

	alloc := func(n int64) {
		off, ok := a.Allocate(n)
		if ok {
			live = append(live, [2]int64{off, n})
		}
		if !a.checkInvariants() {
			t.Fatalf("free list invariant violated after Allocate(%d)", n)
		}
	}
	free := func(i int) {
		r := live[i]
		a.Free(r[0], r[1])
		live = append(live[:i], live[i+1:]...)
		if !a.checkInvariants() {
			t.Fatalf("free list invariant violated after Free(%d, %d)", r[0], r[1])
		}
	}

	alloc(8)
	alloc(16)
	alloc(4)
	alloc(32)
	free(1)
	alloc(16)
	free(0)
	free(2)
	alloc(64)
	free(0)
	free(0)
	free(0)

	if !a.IsEmpty() {
		t.Fatalf("IsEmpty after draining all live allocations:\nhave false\nwant true")
	}
}

func TestResetRestoresFullRange(t *testing.T) {
	a := New[uint32](50)
	a.Allocate(20)
	a.Reset()
	if !a.IsEmpty() {
		t.Fatalf("IsEmpty after Reset:\nhave false\nwant true")
	}
	if got := a.Total(); got != 50 {
		t.Fatalf("Total after Reset:\nhave %d\nwant 50", got)
	}
}

func TestSetTotalZero(t *testing.T) {
	a := New[int](0)
	if _, ok := a.Allocate(1); ok {
		t.Fatalf("Allocate on zero-total allocator:\nhave ok=true\nwant ok=false")
	}
}
