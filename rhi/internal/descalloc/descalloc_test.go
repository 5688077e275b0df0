// Copyright 2024 The Argent Engine Authors. All rights reserved.

package descalloc

import "testing"

// fakeHeap is a native heap handle stand-in recording its creation
// order and capacity, enough to assert growth decisions without a
// real backend.
type fakeHeap struct {
	id       int
	capacity int
	visible  bool
}

type fakeFactory struct {
	next      int
	created   []fakeHeap
	destroyed []fakeHeap
}

func (f *fakeFactory) NewHeap(capacity int, shaderVisible bool) (*fakeHeap, error) {
	h := &fakeHeap{id: f.next, capacity: capacity, visible: shaderVisible}
	f.next++
	f.created = append(f.created, *h)
	return h, nil
}

func (f *fakeFactory) DestroyHeap(h *fakeHeap) {
	f.destroyed = append(f.destroyed, *h)
}

func TestAllocateCreatesHeapRoundedToGrowStep(t *testing.T) {
	f := &fakeFactory{}
	m := New[*fakeHeap](f)

	s, err := m.Allocate(5)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if s.HeapIndex != 0 || s.Offset != 0 {
		t.Fatalf("Allocate slot:\nhave %+v\nwant {HeapIndex:0 Offset:0}", s)
	}
	if len(f.created) != 1 || f.created[0].capacity != GrowStep {
		t.Fatalf("created heap capacity:\nhave %+v\nwant capacity=%d", f.created, GrowStep)
	}
}

func TestAllocateReusesExistingHeapBeforeGrowing(t *testing.T) {
	f := &fakeFactory{}
	m := New[*fakeHeap](f)

	m.Allocate(10)
	s2, err := m.Allocate(4)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if s2.HeapIndex != 0 {
		t.Fatalf("second allocation heap index:\nhave %d\nwant 0", s2.HeapIndex)
	}
	if len(f.created) != 1 {
		t.Fatalf("heaps created:\nhave %d\nwant 1", len(f.created))
	}

	// This one no longer fits in the 16-slot first heap (10+4+4=18).
	s3, err := m.Allocate(4)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if s3.HeapIndex != 1 {
		t.Fatalf("third allocation heap index:\nhave %d\nwant 1", s3.HeapIndex)
	}
	if len(f.created) != 2 {
		t.Fatalf("heaps created:\nhave %d\nwant 2", len(f.created))
	}
}

func TestFreeReturnsSlotsForReuse(t *testing.T) {
	f := &fakeFactory{}
	m := New[*fakeHeap](f)

	s1, _ := m.Allocate(16)
	m.Free(s1)
	s2, err := m.Allocate(16)
	if err != nil {
		t.Fatalf("Allocate after Free: %v", err)
	}
	if s2.HeapIndex != 0 || s2.Offset != 0 {
		t.Fatalf("reused slot:\nhave %+v\nwant {HeapIndex:0 Offset:0}", s2)
	}
	if len(f.created) != 1 {
		t.Fatalf("heaps created:\nhave %d\nwant 1 (freed slot should be reused)", len(f.created))
	}
}

func TestAllocateShaderVisibleCreatesPinnedHeapOnce(t *testing.T) {
	f := &fakeFactory{}
	m := New[*fakeHeap](f)

	s1, err := m.AllocateShaderVisible(4)
	if err != nil {
		t.Fatalf("AllocateShaderVisible: %v", err)
	}
	if s1.HeapIndex != -1 {
		t.Fatalf("pinned allocation heap index:\nhave %d\nwant -1", s1.HeapIndex)
	}
	if !f.created[0].visible {
		t.Fatalf("pinned heap visible flag:\nhave false\nwant true")
	}
	s2, err := m.AllocateShaderVisible(4)
	if err != nil {
		t.Fatalf("AllocateShaderVisible: %v", err)
	}
	if len(f.created) != 1 {
		t.Fatalf("heaps created for two small pinned allocations:\nhave %d\nwant 1", len(f.created))
	}
	if s1.Offset == s2.Offset {
		t.Fatalf("pinned allocations overlap: both got offset %d", s1.Offset)
	}
}

func TestAllocateShaderVisibleGrowsAndDestroysOld(t *testing.T) {
	f := &fakeFactory{}
	m := New[*fakeHeap](f)

	m.AllocateShaderVisible(16) // fills the first 16-slot pinned heap
	_, err := m.AllocateShaderVisible(1)
	if err != nil {
		t.Fatalf("AllocateShaderVisible triggering grow: %v", err)
	}
	if len(f.created) != 2 {
		t.Fatalf("heaps created after grow:\nhave %d\nwant 2", len(f.created))
	}
	if len(f.destroyed) != 1 {
		t.Fatalf("heaps destroyed after grow:\nhave %d\nwant 1", len(f.destroyed))
	}
	if f.destroyed[0].id != f.created[0].id {
		t.Fatalf("destroyed heap id:\nhave %d\nwant %d", f.destroyed[0].id, f.created[0].id)
	}
}

func TestFreeShaderVisibleReturnsSlot(t *testing.T) {
	f := &fakeFactory{}
	m := New[*fakeHeap](f)

	s, _ := m.AllocateShaderVisible(16)
	m.FreeShaderVisible(s)
	s2, err := m.AllocateShaderVisible(16)
	if err != nil {
		t.Fatalf("AllocateShaderVisible after free: %v", err)
	}
	if len(f.created) != 1 {
		t.Fatalf("heaps created (slot should have been reused):\nhave %d\nwant 1", len(f.created))
	}
	if s2.Offset != s.Offset {
		t.Fatalf("reused pinned offset:\nhave %d\nwant %d", s2.Offset, s.Offset)
	}
}
