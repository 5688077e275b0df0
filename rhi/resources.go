// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// Heap is a fixed-size typed memory allocation (C7) backing placed
// (virtual) Buffers/Textures. A heap's Type determines the CPU
// visibility and initial-state semantics of any resource placed in
// it: Upload implies host-visible+coherent and an initial layout of
// GenericRead; Readback implies host-visible+cached and CopyDst;
// DeviceLocal implies device-local and Common.
type Heap interface {
	Destroyer

	Type() HeapType
	Usage() HeapUsage
	Size() int64
	Alignment() int64

	// TryAllocate rounds size up to a whole number of Alignment-sized
	// chunks and sub-allocates from the heap's range allocator. It
	// returns ok=false if no sufficient free range exists.
	TryAllocate(size int64) (offset int64, ok bool)

	// Free releases a range previously returned by TryAllocate.
	// offset must be the exact value returned by TryAllocate; size
	// must match the original request. Free does not check its
	// arguments and does not log: a misaligned, mismatched or
	// repeated call reaches the range allocator unchecked and
	// corrupts its free list.
	Free(offset, size int64)

	// IsEmpty reports whether the entire heap is free.
	IsEmpty() bool
}

// BufferDesc describes a Buffer to be created via Device.NewBuffer.
type BufferDesc struct {
	Size                int64
	Stride              int64 // element stride; 0 if not structured
	Format              Format
	Usage               Usage
	StructureByteStride  int64 // >0 selects a structured SRV/UAV, else raw
	// Virtual selects a placed (virtual) resource: BindMemory must
	// be called exactly once before use. When false, the Device
	// allocates a committed resource implicitly at creation time.
	Virtual bool
	// CPUAccess selects host-visible memory semantics for a
	// committed resource, or the heap-type compatibility check for
	// a virtual one bound later.
	CPUAccess HeapType
	Name      string
}

// TextureDesc describes a Texture to be created via
// Device.NewTexture.
type TextureDesc struct {
	Dimension   TextureDim
	Format      Format
	Width       int
	Height      int
	Depth       int // 3D depth, ignored otherwise
	ArraySize   int // 2DArray layers, or 6*N for Cube arrays
	MipLevels   int
	SampleCount int
	Usage       TextureUsage
	ClearValue  ClearValue
	Virtual     bool
	Name        string
}

// Buffer is an owning GPU buffer resource (C8). It may be a
// committed-managed resource (memory allocated implicitly),
// placed-managed/virtual resource (bound to a caller-provided Heap
// via BindMemory), or unmanaged (wraps an externally provided native
// handle — used for swap-chain back buffers, where Texture plays
// this role instead).
type Buffer interface {
	Destroyer

	Desc() BufferDesc

	// BindMemory sub-allocates size bytes from heap and binds this
	// virtual buffer to that range. It must be called exactly once,
	// only for buffers created with BufferDesc.Virtual set, and
	// fails if heap's Usage is not HeapUsageBuffer or if heap's Type
	// is incompatible with Desc().CPUAccess.
	BindMemory(heap Heap) error

	// Map returns a pointer-backed byte slice over
	// [offset, offset+size). The first call maps the whole native
	// memory range; subsequent calls with an identical range return
	// the same slice and increment a reference count; Unmap
	// decrements it and unmaps at zero. Concurrent maps with
	// differing ranges are a caller contract violation.
	Map(offset, size int64) ([]byte, error)
	Unmap()

	WriteData(src []byte, offset int64) error
	ReadData(dst []byte, offset int64) error

	// CurrentState returns the buffer's single tracked state.
	// Buffers, unlike Textures, have no sub-resource ranges: state
	// is tracked for the whole resource.
	CurrentState() State
	ChangeState(s State)

	// CreateCBV/SRV/UAV allocate (or return a cached) descriptor for
	// the given byte range. CBV ranges are rounded up to 256 bytes.
	CreateCBV(r BufferRange) (DescriptorHandle, error)
	CreateSRV(r BufferRange) (DescriptorHandle, error)
	CreateUAV(r BufferRange) (DescriptorHandle, error)
	TryGetCBV(r BufferRange) (DescriptorHandle, bool)
	TryGetSRV(r BufferRange) (DescriptorHandle, bool)
	TryGetUAV(r BufferRange) (DescriptorHandle, bool)
}

// Texture is an owning GPU image resource (C8). See Buffer for the
// committed/placed/unmanaged creation-mode split, which it mirrors.
//
// Initial layout is always Common/Undefined: a real transition to
// the caller's intended layout happens on first use, via a command
// list barrier.
type Texture interface {
	Destroyer

	Desc() TextureDesc

	BindMemory(heap Heap) error

	// CurrentState returns the tracked (access, layout) pair for the
	// given sub-resource range. If sub is untracked, the All
	// sentinel's state is cloned into it and returned; if neither is
	// tracked, the resource's initial state is recorded and
	// returned.
	CurrentState(sub TextureRange) State
	ChangeState(s State, sub TextureRange)

	CreateRTV(sub TextureRange) (DescriptorHandle, error)
	CreateDSV(sub TextureRange) (DescriptorHandle, error)
	CreateSRV(sub TextureRange) (DescriptorHandle, error)
	CreateUAV(sub TextureRange) (DescriptorHandle, error)
	TryGetRTV(sub TextureRange) (DescriptorHandle, bool)
	TryGetDSV(sub TextureRange) (DescriptorHandle, bool)
	TryGetSRV(sub TextureRange) (DescriptorHandle, bool)
	TryGetUAV(sub TextureRange) (DescriptorHandle, bool)
}

// DescriptorHandle identifies one allocated descriptor: the heap it
// lives in plus its slot index. It is returned to callers so that
// CPU-visible handle values stay stable across further allocations.
type DescriptorHandle struct {
	Heap DescHeap
	Slot int
}
