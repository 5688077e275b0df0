// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/internal/suballoc"
)

// Heap implements rhi.Heap: a single VkDeviceMemory allocation
// sub-allocated via suballoc.Heap.
type Heap struct {
	dv    *Device
	mem   vk.DeviceMemory
	typ   rhi.HeapType
	usage rhi.HeapUsage
	sub   *suballoc.Heap
}

// NewHeap implements rhi.Device.
func (dv *Device) NewHeap(typ rhi.HeapType, usage rhi.HeapUsage, size, alignment int64) (rhi.Heap, error) {
	idx, ok := dv.memoryTypeIndex(typ)
	if !ok {
		return nil, rhi.NewError("NewHeap", rhi.Unsupported, nil)
	}
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: idx,
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(dv.dev, &info, nil, &mem); res != vk.Success {
		return nil, vkError("vkAllocateMemory", res)
	}
	return &Heap{
		dv:    dv,
		mem:   mem,
		typ:   typ,
		usage: usage,
		sub:   suballoc.New(size, alignment),
	}, nil
}

func (dv *Device) memoryTypeIndex(typ rhi.HeapType) (uint32, bool) {
	var want vk.MemoryPropertyFlagBits
	switch typ {
	case rhi.HeapDeviceLocal:
		want = vk.MemoryPropertyDeviceLocalBit
	case rhi.HeapUpload:
		want = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	case rhi.HeapReadback:
		want = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCachedBit
	}
	props := dv.memProps
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		mt := props.MemoryTypes[i]
		if vk.MemoryPropertyFlagBits(mt.PropertyFlags)&want == want {
			return i, true
		}
	}
	return 0, false
}

func (h *Heap) Destroy()               { vk.FreeMemory(h.dv.dev, h.mem, nil) }
func (h *Heap) Type() rhi.HeapType     { return h.typ }
func (h *Heap) Usage() rhi.HeapUsage   { return h.usage }
func (h *Heap) Size() int64            { return h.sub.Size() }
func (h *Heap) Alignment() int64       { return h.sub.Alignment() }
func (h *Heap) TryAllocate(size int64) (int64, bool) { return h.sub.TryAllocate(size) }
func (h *Heap) Free(offset, size int64)              { h.sub.Free(offset, size) }
func (h *Heap) IsEmpty() bool                        { return h.sub.IsEmpty() }

// Buffer implements rhi.Buffer.
type Buffer struct {
	dv      *Device
	desc    rhi.BufferDesc
	buf     vk.Buffer
	mem     vk.DeviceMemory // only set for committed (non-virtual) buffers
	heap    *Heap           // only set for virtual buffers after BindMemory
	mapped  []byte
	mapRefs int

	state rhi.State
	cbv   map[rhi.BufferRange]rhi.DescriptorHandle
	srv   map[rhi.BufferRange]rhi.DescriptorHandle
	uav   map[rhi.BufferRange]rhi.DescriptorHandle
}

// NewBuffer implements rhi.Device.
func (dv *Device) NewBuffer(desc rhi.BufferDesc) (rhi.Buffer, error) {
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       vk.BufferUsageFlags(convBufferUsage(desc.Usage)),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if res := vk.CreateBuffer(dv.dev, &info, nil, &buf); res != vk.Success {
		return nil, vkError("vkCreateBuffer", res)
	}

	b := &Buffer{
		dv:   dv,
		desc: desc,
		buf:  buf,
		state: rhi.State{Access: rhi.AccessNone, Layout: rhi.LayoutCommon},
		cbv:  map[rhi.BufferRange]rhi.DescriptorHandle{},
		srv:  map[rhi.BufferRange]rhi.DescriptorHandle{},
		uav:  map[rhi.BufferRange]rhi.DescriptorHandle{},
	}

	if desc.Virtual {
		return b, nil
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dv.dev, buf, &req)
	req.Deref()
	idx, ok := dv.memoryTypeIndex(desc.CPUAccess)
	if !ok {
		vk.DestroyBuffer(dv.dev, buf, nil)
		return nil, rhi.NewError("NewBuffer", rhi.Unsupported, nil)
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: idx,
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(dv.dev, &allocInfo, nil, &mem); res != vk.Success {
		vk.DestroyBuffer(dv.dev, buf, nil)
		return nil, vkError("vkAllocateMemory", res)
	}
	if res := vk.BindBufferMemory(dv.dev, buf, mem, 0); res != vk.Success {
		vk.FreeMemory(dv.dev, mem, nil)
		vk.DestroyBuffer(dv.dev, buf, nil)
		return nil, vkError("vkBindBufferMemory", res)
	}
	b.mem = mem
	return b, nil
}

func convBufferUsage(u rhi.Usage) vk.BufferUsageFlagBits {
	f := vk.BufferUsageFlagBits(vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit)
	if u&rhi.UsageVertexBuffer != 0 {
		f |= vk.BufferUsageVertexBufferBit
	}
	if u&rhi.UsageIndexBuffer != 0 {
		f |= vk.BufferUsageIndexBufferBit
	}
	if u&rhi.UsageConstantBuffer != 0 {
		f |= vk.BufferUsageUniformBufferBit
	}
	if u&rhi.UsageUnorderedAccess != 0 {
		f |= vk.BufferUsageStorageBufferBit
	}
	if u&rhi.UsageShaderResource != 0 {
		f |= vk.BufferUsageStorageBufferBit
	}
	if u&rhi.UsageIndirectCommands != 0 {
		f |= vk.BufferUsageIndirectBufferBit
	}
	return f
}

func (b *Buffer) Destroy() {
	if b.mapped != nil {
		vk.UnmapMemory(b.dv.dev, b.mem)
	}
	vk.DestroyBuffer(b.dv.dev, b.buf, nil)
	if b.mem != nil {
		vk.FreeMemory(b.dv.dev, b.mem, nil)
	}
}

func (b *Buffer) Desc() rhi.BufferDesc { return b.desc }

// BindMemory implements rhi.Buffer.
func (b *Buffer) BindMemory(heap rhi.Heap) error {
	h, ok := heap.(*Heap)
	if !ok || h.usage != rhi.HeapUsageBuffer {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, nil)
	}
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.dv.dev, b.buf, &req)
	req.Deref()
	off, ok := h.TryAllocate(int64(req.Size))
	if !ok {
		return rhi.NewError("BindMemory", rhi.OutOfMemory, nil)
	}
	if res := vk.BindBufferMemory(b.dv.dev, b.buf, h.mem, vk.DeviceSize(off)); res != vk.Success {
		h.Free(off, int64(req.Size))
		return vkError("vkBindBufferMemory", res)
	}
	b.heap = h
	return nil
}

// Map implements rhi.Buffer: one native mapping, reference counted
// across repeated calls over the same range.
func (b *Buffer) Map(offset, size int64) ([]byte, error) {
	if b.mapped != nil {
		b.mapRefs++
		return b.mapped, nil
	}
	var ptr unsafe.Pointer
	if res := vk.MapMemory(b.dv.dev, b.mem, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &ptr); res != vk.Success {
		return nil, vkError("vkMapMemory", res)
	}
	b.mapped = unsafe.Slice((*byte)(ptr), size)
	b.mapRefs = 1
	return b.mapped, nil
}

func (b *Buffer) Unmap() {
	if b.mapped == nil {
		return
	}
	b.mapRefs--
	if b.mapRefs <= 0 {
		vk.UnmapMemory(b.dv.dev, b.mem)
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

func (b *Buffer) CurrentState() rhi.State    { return b.state }
func (b *Buffer) ChangeState(s rhi.State)    { b.state = s }

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
	b.uav[r] = h
	return h, nil
}

func (b *Buffer) TryGetCBV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) { h, ok := b.cbv[cbAlign(r)]; return h, ok }
func (b *Buffer) TryGetSRV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) { h, ok := b.srv[r]; return h, ok }
func (b *Buffer) TryGetUAV(r rhi.BufferRange) (rhi.DescriptorHandle, bool) { h, ok := b.uav[r]; return h, ok }
