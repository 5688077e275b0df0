// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import (
	"unsafe"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/internal/suballoc"
)

// nativeHeapHandle wraps ID3D12Heap.
type nativeHeapHandle struct{ unknown }

// Heap implements rhi.Heap over an ID3D12Heap sub-allocated via
// suballoc.Heap, the same placed-resource scheme rhi/vk uses over
// VkDeviceMemory.
type Heap struct {
	dv    *Device
	h     *nativeHeapHandle
	typ   rhi.HeapType
	usage rhi.HeapUsage
	sub   *suballoc.Heap
}

// NewHeap implements rhi.Device.
func (dv *Device) NewHeap(typ rhi.HeapType, usage rhi.HeapUsage, size, alignment int64) (rhi.Heap, error) {
	h, err := dv.dev.CreateHeap(size, alignment)
	if err != nil {
		return nil, err
	}
	return &Heap{dv: dv, h: h, typ: typ, usage: usage, sub: suballoc.New(size, alignment)}, nil
}

func (h *Heap) Destroy()                             { h.h.Release() }
func (h *Heap) Type() rhi.HeapType                    { return h.typ }
func (h *Heap) Usage() rhi.HeapUsage                  { return h.usage }
func (h *Heap) Size() int64                           { return h.sub.Size() }
func (h *Heap) Alignment() int64                      { return h.sub.Alignment() }
func (h *Heap) TryAllocate(size int64) (int64, bool)  { return h.sub.TryAllocate(size) }
func (h *Heap) Free(offset, size int64)               { h.sub.Free(offset, size) }
func (h *Heap) IsEmpty() bool                         { return h.sub.IsEmpty() }

// resourceDesc mirrors D3D12_RESOURCE_DESC.
type resourceDesc struct {
	Dimension        int32
	Alignment        uint64
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           uint32
	SampleCount      uint32
	SampleQuality    uint32
	Layout           int32
	Flags            uint32
}

func bufferResourceDesc(desc rhi.BufferDesc) resourceDesc {
	return resourceDesc{
		Dimension:        int32(resDimBuffer),
		Width:            uint64(desc.Size),
		Height:           1,
		DepthOrArraySize: 1,
		MipLevels:        1,
		SampleCount:      1,
		Flags:            uint32(convBufferResFlags(desc.Usage)),
	}
}

// resource wraps ID3D12Resource.
type resource struct{ unknown }

const (
	slotResourceMap                  uintptr = 8
	slotResourceUnmap                uintptr = 9
	slotResourceGetGPUVirtualAddress uintptr = 11
)

func (r *resource) Map(subresource uint32) (unsafe.Pointer, error) {
	var out unsafe.Pointer
	hr := hrcall(r.this(), slotResourceMap, uintptr(subresource), 0, uintptr(unsafe.Pointer(&out)))
	if hr.Failed() {
		return nil, dxError("Map", hr)
	}
	return out, nil
}

func (r *resource) Unmap(subresource uint32) {
	vcall(r.this(), slotResourceUnmap, uintptr(subresource), 0)
}

func (r *resource) GPUVirtualAddress() uint64 {
	v, _ := vcall(r.this(), slotResourceGetGPUVirtualAddress)
	return uint64(v)
}

// Buffer implements rhi.Buffer.
type Buffer struct {
	dv      *Device
	desc    rhi.BufferDesc
	res     *resource
	heap    *Heap
	mapped  []byte
	mapRefs int

	state rhi.State
	cbv   map[rhi.BufferRange]rhi.DescriptorHandle
	srv   map[rhi.BufferRange]rhi.DescriptorHandle
	uav   map[rhi.BufferRange]rhi.DescriptorHandle
}

// NewBuffer implements rhi.Device. Virtual buffers are created
// unmanaged (Width zero placeholder is never valid in D3D12, so a
// virtual buffer instead defers CreateCommittedResource until
// BindMemory/CreatePlacedResource supplies a heap) while non-virtual
// buffers are committed resources in the default/upload/readback heap
// matching desc.CPUAccess, same split as rhi/vk's BufferDesc.Virtual.
func (dv *Device) NewBuffer(desc rhi.BufferDesc) (rhi.Buffer, error) {
	b := &Buffer{
		dv:    dv,
		desc:  desc,
		state: rhi.State{Access: rhi.AccessNone, Layout: rhi.LayoutCommon},
		cbv:   map[rhi.BufferRange]rhi.DescriptorHandle{},
		srv:   map[rhi.BufferRange]rhi.DescriptorHandle{},
		uav:   map[rhi.BufferRange]rhi.DescriptorHandle{},
	}
	if desc.Virtual {
		return b, nil
	}
	rd := bufferResourceDesc(desc)
	res, err := dv.dev.CreateCommittedResource(convHeapType(desc.CPUAccess), &rd, convState(b.state))
	if err != nil {
		return nil, err
	}
	b.res = res
	return b, nil
}

func (b *Buffer) Destroy() {
	if b.mapped != nil {
		b.res.Unmap(0)
	}
	if b.res != nil {
		b.res.Release()
	}
}

func (b *Buffer) Desc() rhi.BufferDesc { return b.desc }

// BindMemory implements rhi.Buffer: creates the placed resource
// against a sub-allocated range of h, the D3D12 equivalent of
// rhi/vk's vkBindBufferMemory over a suballoc.Heap offset.
func (b *Buffer) BindMemory(heap rhi.Heap) error {
	h, ok := heap.(*Heap)
	if !ok || h.usage != rhi.HeapUsageBuffer {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, nil)
	}
	off, ok := h.TryAllocate(b.desc.Size)
	if !ok {
		return rhi.NewError("BindMemory", rhi.OutOfMemory, nil)
	}
	rd := bufferResourceDesc(b.desc)
	res, err := b.dv.dev.CreatePlacedResource(h.h, off, &rd, convState(b.state))
	if err != nil {
		h.Free(off, b.desc.Size)
		return err
	}
	b.res = res
	b.heap = h
	return nil
}

// Map implements rhi.Buffer: one native ID3D12Resource::Map call,
// reference counted across nested callers exactly like rhi/vk's
// vkMapMemory wrapper.
func (b *Buffer) Map(offset, size int64) ([]byte, error) {
	if b.mapped != nil {
		b.mapRefs++
		return b.mapped[offset : offset+size], nil
	}
	ptr, err := b.res.Map(0)
	if err != nil {
		return nil, err
	}
	b.mapped = unsafe.Slice((*byte)(ptr), b.desc.Size)
	b.mapRefs = 1
	return b.mapped[offset : offset+size], nil
}

func (b *Buffer) Unmap() {
	if b.mapped == nil {
		return
	}
	b.mapRefs--
	if b.mapRefs <= 0 {
		b.res.Unmap(0)
		b.mapped = nil
		b.mapRefs = 0
	}
}

func (b *Buffer) WriteData(src []byte, offset int64) error {
	dst, err := b.Map(offset, int64(len(src)))
	if err != nil {
		return err
	}
	defer b.Unmap()
	copy(dst, src)
	return nil
}

func (b *Buffer) ReadData(dst []byte, offset int64) error {
	src, err := b.Map(offset, int64(len(dst)))
	if err != nil {
		return err
	}
	defer b.Unmap()
	copy(dst, src)
	return nil
}

func (b *Buffer) CurrentState() rhi.State { return b.state }
func (b *Buffer) ChangeState(s rhi.State) { b.state = s }

// cbAlign rounds a constant-buffer-view range up to D3D12's required
// 256-byte CBV alignment.
func cbAlign(r rhi.BufferRange) rhi.BufferRange {
	const align = 256
	size := (r.Size + align - 1) &^ (align - 1)
	return rhi.BufferRange{Offset: r.Offset, Size: size}
}

func (b *Buffer) CreateCBV(r rhi.BufferRange) (rhi.DescriptorHandle, error) {
	r = cbAlign(r)
	if h, ok := b.cbv[r]; ok {
		return h, nil
	}
	h, err := b.dv.descs.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	cpu := b.dv.descs.cpuHandle(h)
	desc := struct {
		BufferLocation uint64
		SizeInBytes    uint32
	}{BufferLocation: b.res.GPUVirtualAddress() + uint64(r.Offset), SizeInBytes: uint32(r.Size)}
	b.dv.dev.CreateConstantBufferView(unsafe.Pointer(&desc), cpu)
	b.cbv[r] = h
	return h, nil
}

func (b *Buffer) CreateSRV(r rhi.BufferRange) (rhi.DescriptorHandle, error) {
	if h, ok := b.srv[r]; ok {
		return h, nil
	}
	h, err := b.dv.descs.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	cpu := b.dv.descs.cpuHandle(h)
	b.dv.dev.CreateShaderResourceView(b.res, unsafe.Pointer(&bufferSRVDesc(r)), cpu)
	b.srv[r] = h
	return h, nil
}

func (b *Buffer) CreateUAV(r rhi.BufferRange) (rhi.DescriptorHandle, error) {
	if h, ok := b.uav[r]; ok {
		return h, nil
	}
	h, err := b.dv.descs.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	cpu := b.dv.descs.cpuHandle(h)
	b.dv.dev.CreateUnorderedAccessView(b.res, unsafe.Pointer(&bufferUAVDesc(r)), cpu)
	b.uav[r] = h
	return h, nil
}

func (b *Buffer) TryGetCBV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) { h, ok := b.cbv[cbAlign(r)]; return h, ok }
func (b *Buffer) TryGetSRV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) { h, ok := b.srv[r]; return h, ok }
func (b *Buffer) TryGetUAV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) { h, ok := b.uav[r]; return h, ok }

type bufferViewDesc struct {
	Format         uint32
	ViewDimension  int32
	FirstElement   uint64
	NumElements    uint32
	StructureByteStride uint32
	Flags          uint32
}

func bufferSRVDesc(r rhi.BufferRange) bufferViewDesc {
	return bufferViewDesc{ViewDimension: 11 /* D3D12_SRV_DIMENSION_BUFFER */, FirstElement: uint64(r.Offset), NumElements: uint32(r.Size)}
}

func bufferUAVDesc(r rhi.BufferRange) bufferViewDesc {
	return bufferViewDesc{ViewDimension: 1 /* D3D12_UAV_DIMENSION_BUFFER */, FirstElement: uint64(r.Offset), NumElements: uint32(r.Size)}
}
