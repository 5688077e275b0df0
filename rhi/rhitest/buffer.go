// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhitest

import (
	"errors"

	"github.com/argent-engine/rhi"
)

var errMapRangeMismatch = errors.New("rhitest: Map called with a range differing from the outstanding map")
var errUnmapWithoutMap = errors.New("rhitest: Unmap called without a matching Map")

// Buffer implements rhi.Buffer over a plain []byte, reproducing the
// committed/placed/unmanaged creation split and the reference-counted
// Map/Unmap semantics of spec.md §4.4.
type Buffer struct {
	dev  *device
	desc rhi.BufferDesc

	allocSize int64
	data      []byte

	bound   bool
	heap    *Heap
	heapOff int64

	state rhi.State

	mapCount       int
	mapOff, mapSz  int64

	cbv map[rhi.BufferRange]rhi.DescriptorHandle
	srv map[rhi.BufferRange]rhi.DescriptorHandle
	uav map[rhi.BufferRange]rhi.DescriptorHandle
}

func (d *device) NewBuffer(desc rhi.BufferDesc) (rhi.Buffer, error) {
	b := &Buffer{
		dev:  d,
		desc: desc,
		cbv:  map[rhi.BufferRange]rhi.DescriptorHandle{},
		srv:  map[rhi.BufferRange]rhi.DescriptorHandle{},
		uav:  map[rhi.BufferRange]rhi.DescriptorHandle{},
	}
	b.allocSize = desc.Size
	if desc.Usage&rhi.UsageConstantBuffer != 0 {
		b.allocSize = align256(b.allocSize)
	}
	if !desc.Virtual {
		b.data = make([]byte, b.allocSize)
		b.state = initialStateForHeapType(desc.CPUAccess)
	}
	return b, nil
}

// AllocSize returns the byte count actually reserved for this buffer,
// rounded up to 256 bytes for ConstantBuffer usage (spec.md §8
// invariant 5) — as distinct from Desc().Size, the caller's original
// request.
func (b *Buffer) AllocSize() int64 { return b.allocSize }

func (b *Buffer) Destroy() {
	for _, h := range b.cbv {
		b.dev.descMgr.Free(h, 1)
	}
	for _, h := range b.srv {
		b.dev.descMgr.Free(h, 1)
	}
	for _, h := range b.uav {
		b.dev.descMgr.Free(h, 1)
	}
	if b.bound && b.heap != nil {
		b.heap.Free(b.heapOff, b.allocSize)
	}
}

func (b *Buffer) Desc() rhi.BufferDesc { return b.desc }

func (b *Buffer) BindMemory(heap rhi.Heap) error {
	if !b.desc.Virtual {
		return rhi.NewError("BindMemory", rhi.InvalidState, errNotVirtual)
	}
	if b.bound {
		return rhi.NewError("BindMemory", rhi.InvalidState, errAlreadyBound)
	}
	if heap.Usage() != rhi.HeapUsageBuffer {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, errWrongHeapUsage)
	}
	if b.desc.CPUAccess != rhi.HeapDeviceLocal && heap.Type() != b.desc.CPUAccess {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, errHeapTypeMismatch)
	}
	off, ok := heap.TryAllocate(b.allocSize)
	if !ok {
		return rhi.NewError("BindMemory", rhi.OutOfMemory, errHeapFull)
	}
	h, ok := heap.(*Heap)
	if !ok {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, errWrongHeapUsage)
	}
	b.heap = h
	b.heapOff = off
	b.data = make([]byte, b.allocSize)
	b.bound = true
	b.state = initialStateForHeapType(b.desc.CPUAccess)
	return nil
}

func (b *Buffer) Map(offset, size int64) ([]byte, error) {
	if b.mapCount > 0 {
		if offset != b.mapOff || size != b.mapSz {
			panic(errMapRangeMismatch)
		}
		b.mapCount++
		return b.data[offset : offset+size], nil
	}
	b.mapOff, b.mapSz = offset, size
	b.mapCount = 1
	return b.data[offset : offset+size], nil
}

func (b *Buffer) Unmap() {
	if b.mapCount == 0 {
		panic(errUnmapWithoutMap)
	}
	b.mapCount--
}

func (b *Buffer) WriteData(src []byte, offset int64) error {
	dst, err := b.Map(offset, int64(len(src)))
	if err != nil {
		return err
	}
	copy(dst, src)
	b.Unmap()
	return nil
}

func (b *Buffer) ReadData(dst []byte, offset int64) error {
	src, err := b.Map(offset, int64(len(dst)))
	if err != nil {
		return err
	}
	copy(dst, src)
	b.Unmap()
	return nil
}

func (b *Buffer) CurrentState() rhi.State  { return b.state }
func (b *Buffer) ChangeState(s rhi.State)  { b.state = s }

func (b *Buffer) CreateCBV(r rhi.BufferRange) (rhi.DescriptorHandle, error) {
	r.Size = align256(r.Size)
	if h, ok := b.cbv[r]; ok {
		return h, nil
	}
	h, err := b.dev.descMgr.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	b.cbv[r] = h
	return h, nil
}

func (b *Buffer) TryGetCBV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) {
	r.Size = align256(r.Size)
	h, ok := b.cbv[r]
	return h, ok
}

func (b *Buffer) CreateSRV(r rhi.BufferRange) (rhi.DescriptorHandle, error) {
	if h, ok := b.srv[r]; ok {
		return h, nil
	}
	h, err := b.dev.descMgr.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	b.srv[r] = h
	return h, nil
}

func (b *Buffer) TryGetSRV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) {
	h, ok := b.srv[r]
	return h, ok
}

func (b *Buffer) CreateUAV(r rhi.BufferRange) (rhi.DescriptorHandle, error) {
	if h, ok := b.uav[r]; ok {
		return h, nil
	}
	h, err := b.dev.descMgr.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	b.uav[r] = h
	return h, nil
}

func (b *Buffer) TryGetUAV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) {
	h, ok := b.uav[r]
	return h, ok
}
