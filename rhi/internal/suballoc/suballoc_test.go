// Copyright 2024 The Argent Engine Authors. All rights reserved.

package suballoc

import "testing"

func TestAllocateRoundsToAlignment(t *testing.T) {
	h := New(1<<20, 256)
	off, ok := h.TryAllocate(1)
	if !ok || off != 0 {
		t.Fatalf("TryAllocate(1):\nhave (%d, %v)\nwant (0, true)", off, ok)
	}
	off, ok = h.TryAllocate(200)
	if !ok || off != 256 {
		t.Fatalf("TryAllocate(200):\nhave (%d, %v)\nwant (256, true)", off, ok)
	}
	off, ok = h.TryAllocate(256)
	if !ok || off != 512 {
		t.Fatalf("TryAllocate(256):\nhave (%d, %v)\nwant (512, true)", off, ok)
	}
}

func TestIsEmptyAfterFree(t *testing.T) {
	h := New(4096, 256)
	o1, _ := h.TryAllocate(100)
	o2, _ := h.TryAllocate(1000)
	if h.IsEmpty() {
		t.Fatalf("IsEmpty with live allocations:\nhave true\nwant false")
	}
	h.Free(o1, 100)
	h.Free(o2, 1000)
	if !h.IsEmpty() {
		t.Fatalf("IsEmpty after freeing everything:\nhave false\nwant true")
	}
}

func TestTryAllocateFailsWhenExhausted(t *testing.T) {
	h := New(1024, 256)
	if _, ok := h.TryAllocate(1025); ok {
		t.Fatalf("TryAllocate beyond heap size:\nhave ok=true\nwant ok=false")
	}
	h.TryAllocate(1024)
	if _, ok := h.TryAllocate(1); ok {
		t.Fatalf("TryAllocate on exhausted heap:\nhave ok=true\nwant ok=false")
	}
}
