// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import (
	"errors"
	"unsafe"

	"github.com/argent-engine/rhi"
)

var (
	errMissingUsage         = errors.New("rhi/dx: view creation requires a usage flag the texture was not created with")
	errUnsupportedDimension = errors.New("rhi/dx: this view type is not valid for the texture's dimension")
)

// Texture implements rhi.Texture. Sub-resource state tracking mirrors
// rhi/vk's Texture exactly (an AllSubresources entry as fallback,
// cloned into a specific range on first query); descriptor caches
// hold rhi.DescriptorHandle values, whose native CPU descriptor
// handle the descriptor manager computes arithmetically from the heap
// base rather than resolving through a side table, since a D3D12 CPU
// descriptor handle is a literal pointer-sized value.
type Texture struct {
	dv   *Device
	desc rhi.TextureDesc
	res  *resource
	heap *Heap

	states map[rhi.TextureRange]rhi.State

	rtv map[rhi.TextureRange]rhi.DescriptorHandle
	dsv map[rhi.TextureRange]rhi.DescriptorHandle
	srv map[rhi.TextureRange]rhi.DescriptorHandle
	uav map[rhi.TextureRange]rhi.DescriptorHandle
}

func textureResourceDesc(desc rhi.TextureDesc) resourceDesc {
	depthOrArray := uint16(1)
	if desc.Dimension == rhi.TexDim3D {
		depthOrArray = uint16(maxInt(desc.Depth, 1))
	} else {
		depthOrArray = uint16(maxInt(desc.ArraySize, 1))
	}
	return resourceDesc{
		Dimension:        int32(convResourceDimension(desc.Dimension)),
		Width:            uint64(desc.Width),
		Height:           uint32(maxInt(desc.Height, 1)),
		DepthOrArraySize: depthOrArray,
		MipLevels:        uint16(maxInt(desc.MipLevels, 1)),
		Format:           uint32(convFormat(desc.Format)),
		SampleCount:      uint32(maxInt(desc.SampleCount, 1)),
		Flags:            uint32(convTextureResFlags(desc.Usage)),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// NewTexture implements rhi.Device.
func (dv *Device) NewTexture(desc rhi.TextureDesc) (rhi.Texture, error) {
	t := &Texture{
		dv:     dv,
		desc:   desc,
		states: map[rhi.TextureRange]rhi.State{},
		rtv:    map[rhi.TextureRange]rhi.DescriptorHandle{},
		dsv:    map[rhi.TextureRange]rhi.DescriptorHandle{},
		srv:    map[rhi.TextureRange]rhi.DescriptorHandle{},
		uav:    map[rhi.TextureRange]rhi.DescriptorHandle{},
	}
	t.states[rhi.AllSubresources] = rhi.State{Access: rhi.AccessNone, Layout: rhi.LayoutUndefined}

	if desc.Virtual {
		return t, nil
	}

	rd := textureResourceDesc(desc)
	res, err := dv.dev.CreateCommittedResource(heapTypeDefault, &rd, stateCommon)
	if err != nil {
		return nil, err
	}
	t.res = res
	return t, nil
}

func (t *Texture) Destroy() {
	if t.res != nil {
		t.res.Release()
	}
}

func (t *Texture) Desc() rhi.TextureDesc { return t.desc }

func (t *Texture) BindMemory(heap rhi.Heap) error {
	h, ok := heap.(*Heap)
	if !ok || h.usage != rhi.HeapUsageTexture {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, nil)
	}
	rd := textureResourceDesc(t.desc)
	info := t.dv.dev.GetResourceAllocationInfo(&rd)
	off, ok := h.TryAllocate(info.sizeInBytes)
	if !ok {
		return rhi.NewError("BindMemory", rhi.OutOfMemory, nil)
	}
	res, err := t.dv.dev.CreatePlacedResource(h.h, off, &rd, stateCommon)
	if err != nil {
		h.Free(off, info.sizeInBytes)
		return err
	}
	t.res = res
	t.heap = h
	return nil
}

// CurrentState implements rhi.Texture: matches rhi/vk's
// fallback-and-clone semantics exactly.
func (t *Texture) CurrentState(sub rhi.TextureRange) rhi.State {
	if s, ok := t.states[sub]; ok {
		return s
	}
	s := t.states[rhi.AllSubresources]
	t.states[sub] = s
	return s
}

func (t *Texture) ChangeState(s rhi.State, sub rhi.TextureRange) {
	t.states[sub] = s
}

func clampCount(n, total int) int {
	if n <= 0 || n > total {
		return total
	}
	return n
}

type rtvDesc struct {
	Format        uint32
	ViewDimension int32
	_             [16]byte // union of mip/array fields, conservatively sized
}

type dsvDesc struct {
	Format        uint32
	ViewDimension int32
	Flags         uint32
	_             [12]byte
}

type srvDesc struct {
	Format                  uint32
	ViewDimension           int32
	Shader4ComponentMapping uint32
	_                       [16]byte
}

type uavDesc struct {
	Format        uint32
	ViewDimension int32
	_             [16]byte
}

const defaultComponentMapping uint32 = 0x1688 // D3D12_DEFAULT_SHADER_4_COMPONENT_MAPPING

func (t *Texture) viewDimension() int32 {
	switch t.desc.Dimension {
	case rhi.TexDimCube:
		return 9 // TEXTURECUBE
	case rhi.TexDim2DArray:
		return 4 // TEXTURE2DARRAY
	case rhi.TexDim3D:
		return 8 // TEXTURE3D
	default:
		return 3 // TEXTURE2D
	}
}

func (t *Texture) createDescriptor(cache map[rhi.TextureRange]rhi.DescriptorHandle, sub rhi.TextureRange, typ rhi.DescHeapType, write func(cpuDescriptorHandle)) (rhi.DescriptorHandle, error) {
	if h, ok := cache[sub]; ok {
		return h, nil
	}
	h, err := t.dv.descs.Allocate(typ, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	write(t.dv.descs.cpuHandle(h))
	cache[sub] = h
	return h, nil
}

func (t *Texture) CreateRTV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageRenderTarget == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateRTV", rhi.InvalidArgument, errMissingUsage)
	}
	if t.desc.Dimension == rhi.TexDim3D || t.desc.Dimension == rhi.TexDimCube {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateRTV", rhi.InvalidArgument, errUnsupportedDimension)
	}
	return t.createDescriptor(t.rtv, sub, rhi.DescHeapRTV, func(dst cpuDescriptorHandle) {
		d := rtvDesc{Format: uint32(convFormat(t.desc.Format)), ViewDimension: t.viewDimension()}
		t.dv.dev.CreateRenderTargetView(t.res, unsafe.Pointer(&d), dst)
	})
}

func (t *Texture) CreateDSV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageDepthStencil == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateDSV", rhi.InvalidArgument, errMissingUsage)
	}
	if t.desc.Dimension == rhi.TexDim3D || t.desc.Dimension == rhi.TexDimCube {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateDSV", rhi.InvalidArgument, errUnsupportedDimension)
	}
	return t.createDescriptor(t.dsv, sub, rhi.DescHeapDSV, func(dst cpuDescriptorHandle) {
		d := dsvDesc{Format: uint32(convFormat(t.desc.Format)), ViewDimension: t.viewDimension()}
		t.dv.dev.CreateDepthStencilView(t.res, unsafe.Pointer(&d), dst)
	})
}

func (t *Texture) CreateSRV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageShaderResource == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateSRV", rhi.InvalidArgument, errMissingUsage)
	}
	return t.createDescriptor(t.srv, sub, rhi.DescHeapCBVSRVUAV, func(dst cpuDescriptorHandle) {
		d := srvDesc{Format: uint32(convFormat(t.desc.Format)), ViewDimension: t.viewDimension(), Shader4ComponentMapping: defaultComponentMapping}
		t.dv.dev.CreateShaderResourceView(t.res, unsafe.Pointer(&d), dst)
	})
}

func (t *Texture) CreateUAV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageUnorderedAccess == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateUAV", rhi.InvalidArgument, errMissingUsage)
	}
	return t.createDescriptor(t.uav, sub, rhi.DescHeapCBVSRVUAV, func(dst cpuDescriptorHandle) {
		d := uavDesc{Format: uint32(convFormat(t.desc.Format)), ViewDimension: t.viewDimension()}
		t.dv.dev.CreateUnorderedAccessView(t.res, unsafe.Pointer(&d), dst)
	})
}

func (t *Texture) TryGetRTV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.rtv[sub]; return h, ok }
func (t *Texture) TryGetDSV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.dsv[sub]; return h, ok }
func (t *Texture) TryGetSRV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.srv[sub]; return h, ok }
func (t *Texture) TryGetUAV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.uav[sub]; return h, ok }
