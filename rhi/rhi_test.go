// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi_test

import (
	"context"
	"testing"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/rhitest"
)

func TestDriverRegistry(t *testing.T) {
	found := false
	for _, d := range rhi.Drivers() {
		if d.Name() == "rhitest" {
			found = true
		}
	}
	if !found {
		t.Fatal("rhitest driver did not self-register")
	}
}

// TestConstantBufferRounding checks spec.md §8 invariant 5: a
// ConstantBuffer's allocation size is always rounded up to a multiple
// of 256 bytes, independent of the requested size.
func TestConstantBufferRounding(t *testing.T) {
	dev := rhitest.NewDevice()
	cases := []struct{ size, want int64 }{
		{1, 256},
		{256, 256},
		{257, 512},
		{4096, 4096},
	}
	for _, c := range cases {
		buf, err := dev.NewBuffer(rhi.BufferDesc{Size: c.size, Usage: rhi.UsageConstantBuffer})
		if err != nil {
			t.Fatalf("NewBuffer(%d): %v", c.size, err)
		}
		ab, ok := buf.(interface{ AllocSize() int64 })
		if !ok {
			t.Fatal("rhitest.Buffer does not expose AllocSize")
		}
		if got := ab.AllocSize(); got != c.want {
			t.Errorf("NewBuffer(%d).AllocSize() = %d, want %d", c.size, got, c.want)
		}
		buf.Destroy()
	}
}

// TestBufferMapRefcount checks spec.md §8 invariant 7: repeated Map
// calls with an identical range increment a reference count and
// return the same slice; Unmap must be called an equal number of
// times.
func TestBufferMapRefcount(t *testing.T) {
	dev := rhitest.NewDevice()
	buf, err := dev.NewBuffer(rhi.BufferDesc{Size: 64, CPUAccess: rhi.HeapUpload})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	p1, err := buf.Map(0, 64)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := buf.Map(0, 64)
	if err != nil {
		t.Fatal(err)
	}
	if &p1[0] != &p2[0] {
		t.Fatal("second Map with identical range returned a different slice")
	}
	p1[0] = 0xAB
	if p2[0] != 0xAB {
		t.Fatal("Map slices do not alias the same backing store")
	}
	buf.Unmap()
	buf.Unmap()
}

func TestBufferMapRangeMismatchPanics(t *testing.T) {
	dev := rhitest.NewDevice()
	buf, err := dev.NewBuffer(rhi.BufferDesc{Size: 64, CPUAccess: rhi.HeapUpload})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	if _, err := buf.Map(0, 32); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("Map with a differing range while already mapped did not panic")
		}
	}()
	buf.Map(0, 16)
}

// TestTextureSubresourceStateFallback checks spec.md §4.5/§8 invariant
// 6: an untracked sub-resource range inherits the All-sentinel's
// state, and that state is recorded for both keys going forward.
func TestTextureSubresourceStateFallback(t *testing.T) {
	dev := rhitest.NewDevice()
	tex, err := dev.NewTexture(rhi.TextureDesc{
		Dimension: rhi.TexDim2D,
		Format:    rhi.FormatRGBA8Unorm,
		Width:     64, Height: 64,
		ArraySize: 4, MipLevels: 4,
		Usage: rhi.TexUsageShaderResource,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()

	all := rhi.AllSubresources
	mip0 := rhi.TextureRange{FirstMip: 0, NumMips: 1, FirstLayer: 0, NumLayers: 1}

	shaderRead := rhi.State{Access: rhi.AccessShaderRead, Layout: rhi.LayoutShaderRead}
	tex.ChangeState(shaderRead, all)

	if got := tex.CurrentState(mip0); got != shaderRead {
		t.Fatalf("CurrentState(mip0) = %+v, want fallback to All state %+v", got, shaderRead)
	}

	renderTarget := rhi.State{Access: rhi.AccessColorWrite, Layout: rhi.LayoutColorTarget}
	tex.ChangeState(renderTarget, mip0)

	if got := tex.CurrentState(mip0); got != renderTarget {
		t.Fatalf("CurrentState(mip0) after targeted change = %+v, want %+v", got, renderTarget)
	}
	if got := tex.CurrentState(all); got != shaderRead {
		t.Fatalf("CurrentState(all) = %+v, want unaffected %+v", got, shaderRead)
	}

	other := rhi.TextureRange{FirstMip: 1, NumMips: 1, FirstLayer: 0, NumLayers: 1}
	if got := tex.CurrentState(other); got != shaderRead {
		t.Fatalf("CurrentState(untouched range) = %+v, want fallback %+v", got, shaderRead)
	}
}

// TestCmdListLifecycle checks the Initial -> Recording -> Closed state
// machine and that mutating calls outside Recording are no-ops rather
// than panics.
func TestCmdListLifecycle(t *testing.T) {
	dev := rhitest.NewDevice()
	cl, err := dev.NewCmdList(rhi.QueueDirect)
	if err != nil {
		t.Fatal(err)
	}
	if cl.State() != rhi.CmdInitial {
		t.Fatalf("new CmdList state = %d, want CmdInitial", cl.State())
	}

	// Mutating before Begin must be a harmless no-op.
	buf, _ := dev.NewBuffer(rhi.BufferDesc{Size: 64})
	defer buf.Destroy()
	cl.ResourceBarrier(buf, rhi.State{Access: rhi.AccessCopyWrite, Layout: rhi.LayoutCopyDst})

	if err := cl.Begin(); err != nil {
		t.Fatal(err)
	}
	if cl.State() != rhi.CmdRecording {
		t.Fatalf("state after Begin = %d, want CmdRecording", cl.State())
	}

	if err := cl.End(); err != nil {
		t.Fatal(err)
	}
	if cl.State() != rhi.CmdClosed {
		t.Fatalf("state after End = %d, want CmdClosed", cl.State())
	}

	fence, err := dev.NewFence(rhi.FenceInitialValue)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Destroy()
	if err := dev.Commit(rhi.QueueDirect, []rhi.CmdList{cl}, fence); err != nil {
		t.Fatal(err)
	}
	v, err := fence.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != rhi.FenceInitialValue+1 {
		t.Fatalf("fence value after Commit = %d, want %d", v, rhi.FenceInitialValue+1)
	}
	if err := fence.CPUWait(context.Background(), v); err != nil {
		t.Fatalf("CPUWait on a reached value: %v", err)
	}
}

// TestCmdListBarrierBatchingOptimistic checks that ResourceBarrier
// updates the tracked state immediately even before FlushBarriers
// runs, and that FlushBarriers exposes exactly the batch that was
// pending.
func TestCmdListBarrierBatchingOptimistic(t *testing.T) {
	dev := rhitest.NewDevice()
	buf, err := dev.NewBuffer(rhi.BufferDesc{Size: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Destroy()

	cl, err := dev.NewCmdList(rhi.QueueDirect)
	if err != nil {
		t.Fatal(err)
	}
	rcl, ok := cl.(*rhitest.CmdList)
	if !ok {
		t.Fatal("dev.NewCmdList did not return *rhitest.CmdList")
	}
	if err := cl.Begin(); err != nil {
		t.Fatal(err)
	}

	copyDst := rhi.State{Access: rhi.AccessCopyWrite, Layout: rhi.LayoutCopyDst}
	cl.ResourceBarrier(buf, copyDst)
	if got := buf.CurrentState(); got != copyDst {
		t.Fatalf("state after ResourceBarrier, before flush = %+v, want %+v (optimistic update)", got, copyDst)
	}
	if rcl.FlushCount != 0 {
		t.Fatalf("FlushCount = %d before any flush point, want 0", rcl.FlushCount)
	}

	if err := cl.End(); err != nil {
		t.Fatal(err)
	}
	if rcl.FlushCount != 1 {
		t.Fatalf("FlushCount after End = %d, want 1 (End implicitly flushes)", rcl.FlushCount)
	}
	if len(rcl.LastFlush) != 1 || rcl.LastFlush[0].After != copyDst {
		t.Fatalf("LastFlush = %+v, want one record ending in %+v", rcl.LastFlush, copyDst)
	}
}

// TestDescriptorReuseAfterFree checks that a freed descriptor slot is
// handed back out by a subsequent allocation of the same size, the
// same first-fit reuse contract rhi/internal/descalloc provides to
// both real backends.
func TestDescriptorReuseAfterFree(t *testing.T) {
	dev := rhitest.NewDevice()
	dm := dev.Descriptors()

	h1, err := dm.Allocate(rhi.DescHeapCBVSRVUAV, 4)
	if err != nil {
		t.Fatal(err)
	}
	dm.Free(h1, 4)

	h2, err := dm.Allocate(rhi.DescHeapCBVSRVUAV, 4)
	if err != nil {
		t.Fatal(err)
	}
	if h2.Heap != h1.Heap || h2.Slot != h1.Slot {
		t.Fatalf("allocation after Free did not reuse the freed slot: h1=%+v h2=%+v", h1, h2)
	}
}

// TestSwapChainPresentCycles checks that Present advances
// CurrentIndex modulo BufferCount.
func TestSwapChainPresentCycles(t *testing.T) {
	dev := rhitest.NewDevice()
	sc, err := dev.NewSwapChain(rhi.SwapChainDesc{
		Width: 640, Height: 480, BufferCount: 3, Format: rhi.FormatRGBA8Unorm,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Destroy()

	if sc.BufferCount() != 3 {
		t.Fatalf("BufferCount() = %d, want 3", sc.BufferCount())
	}
	seen := map[int]bool{sc.CurrentIndex(): true}
	for i := 0; i < 3; i++ {
		if err := sc.Present(); err != nil {
			t.Fatal(err)
		}
		seen[sc.CurrentIndex()] = true
	}
	if sc.CurrentIndex() != 0 {
		t.Fatalf("CurrentIndex after 3 presents = %d, want 0 (wrapped)", sc.CurrentIndex())
	}
	if len(seen) != 3 {
		t.Fatalf("Present cycled through %d distinct indices, want 3", len(seen))
	}
}

// TestShaderTableLayout checks spec.md's SBT stride/ordering rule:
// stride = max(identifierSize, 64), records laid out RayGen, Miss,
// HitGroup, Callable.
func TestShaderTableLayout(t *testing.T) {
	dev := rhitest.NewDevice()
	table, err := dev.NewShaderTable(&rhi.ShaderTableDesc{
		RayGenIdentifier:    make([]byte, 32),
		MissIdentifiers:     [][]byte{make([]byte, 32), make([]byte, 32)},
		HitGroupIdentifiers: [][]byte{make([]byte, 32)},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer table.Buffer.Destroy()

	const wantStride = 64 // max(32, 64)
	if table.RayGen.Stride != wantStride {
		t.Fatalf("RayGen.Stride = %d, want %d", table.RayGen.Stride, wantStride)
	}
	if table.RayGen.StartAddress != 0 {
		t.Fatalf("RayGen.StartAddress = %d, want 0", table.RayGen.StartAddress)
	}
	if table.Miss.StartAddress != wantStride {
		t.Fatalf("Miss.StartAddress = %d, want %d", table.Miss.StartAddress, wantStride)
	}
	if table.HitGroup.StartAddress != wantStride*3 {
		t.Fatalf("HitGroup.StartAddress = %d, want %d (after RayGen + 2 Miss records)", table.HitGroup.StartAddress, wantStride*3)
	}
}

func TestShaderRecordStride(t *testing.T) {
	cases := []struct{ id, want int }{
		{0, 64},
		{32, 64},
		{64, 64},
		{65, 128},
	}
	for _, c := range cases {
		if got := rhi.ShaderRecordStride(c.id); got != c.want {
			t.Errorf("ShaderRecordStride(%d) = %d, want %d", c.id, got, c.want)
		}
	}
}
