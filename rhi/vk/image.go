// Copyright 2024 The Argent Engine Authors. All rights reserved.

package vk

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

var (
	errMissingUsage         = errors.New("rhi/vk: view creation requires a usage flag the texture was not created with")
	errUnsupportedDimension = errors.New("rhi/vk: this view type is not valid for the texture's dimension")
)

// Texture implements rhi.Texture. Sub-resource state is tracked in a
// flat map keyed by TextureRange, falling back to the AllSubresources
// entry the way a reader of the state-tracking rules would expect:
// an untracked specific range inherits whatever state the whole
// resource last transitioned to.
type Texture struct {
	dv   *Device
	desc rhi.TextureDesc
	img  vk.Image
	view vk.ImageView // default full-resource view, used for copies
	mem  vk.DeviceMemory
	heap *Heap

	states map[rhi.TextureRange]rhi.State

	rtv map[rhi.TextureRange]rhi.DescriptorHandle
	dsv map[rhi.TextureRange]rhi.DescriptorHandle
	srv map[rhi.TextureRange]rhi.DescriptorHandle
	uav map[rhi.TextureRange]rhi.DescriptorHandle
}

// NewTexture implements rhi.Device.
func (dv *Device) NewTexture(desc rhi.TextureDesc) (rhi.Texture, error) {
	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: convTextureDim(desc.Dimension),
		Format:    convFormat(desc.Format),
		Extent: vk.Extent3D{
			Width:  uint32(desc.Width),
			Height: uint32(maxInt(desc.Height, 1)),
			Depth:  uint32(maxInt(desc.Depth, 1)),
		},
		MipLevels:     uint32(maxInt(desc.MipLevels, 1)),
		ArrayLayers:   uint32(maxInt(desc.ArraySize, 1)),
		Samples:       sampleCountFlag(desc.SampleCount),
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(convTextureUsage(desc.Usage)),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if res := vk.CreateImage(dv.dev, &info, nil, &img); res != vk.Success {
		return nil, vkError("vkCreateImage", res)
	}

	t := &Texture{
		dv:     dv,
		desc:   desc,
		img:    img,
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

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dv.dev, img, &req)
	req.Deref()
	idx, ok := dv.memoryTypeIndex(rhi.HeapDeviceLocal)
	if !ok {
		vk.DestroyImage(dv.dev, img, nil)
		return nil, rhi.NewError("NewTexture", rhi.Unsupported, nil)
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: idx,
	}
	var mem vk.DeviceMemory
	if res := vk.AllocateMemory(dv.dev, &allocInfo, nil, &mem); res != vk.Success {
		vk.DestroyImage(dv.dev, img, nil)
		return nil, vkError("vkAllocateMemory", res)
	}
	if res := vk.BindImageMemory(dv.dev, img, mem, 0); res != vk.Success {
		vk.FreeMemory(dv.dev, mem, nil)
		vk.DestroyImage(dv.dev, img, nil)
		return nil, vkError("vkBindImageMemory", res)
	}
	t.mem = mem
	return t, nil
}

func convTextureDim(d rhi.TextureDim) vk.ImageType {
	switch d {
	case rhi.TexDim3D:
		return vk.ImageType3d
	default:
		return vk.ImageType2d
	}
}

func sampleCountFlag(n int) vk.SampleCountFlagBits {
	switch n {
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	case 16:
		return vk.SampleCount16Bit
	default:
		return vk.SampleCount1Bit
	}
}

func convTextureUsage(u rhi.TextureUsage) vk.ImageUsageFlagBits {
	f := vk.ImageUsageFlagBits(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit)
	if u&rhi.TexUsageShaderResource != 0 {
		f |= vk.ImageUsageSampledBit
	}
	if u&rhi.TexUsageRenderTarget != 0 {
		f |= vk.ImageUsageColorAttachmentBit
	}
	if u&rhi.TexUsageDepthStencil != 0 {
		f |= vk.ImageUsageDepthStencilAttachmentBit
	}
	if u&rhi.TexUsageUnorderedAccess != 0 {
		f |= vk.ImageUsageStorageBit
	}
	return f
}

func (t *Texture) Destroy() {
	vk.DestroyImage(t.dv.dev, t.img, nil)
	if t.mem != nil {
		vk.FreeMemory(t.dv.dev, t.mem, nil)
	}
}

func (t *Texture) Desc() rhi.TextureDesc { return t.desc }

func (t *Texture) BindMemory(heap rhi.Heap) error {
	h, ok := heap.(*Heap)
	if !ok || h.usage != rhi.HeapUsageTexture {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, nil)
	}
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(t.dv.dev, t.img, &req)
	req.Deref()
	off, ok := h.TryAllocate(int64(req.Size))
	if !ok {
		return rhi.NewError("BindMemory", rhi.OutOfMemory, nil)
	}
	if res := vk.BindImageMemory(t.dv.dev, t.img, h.mem, vk.DeviceSize(off)); res != vk.Success {
		h.Free(off, int64(req.Size))
		return vkError("vkBindImageMemory", res)
	}
	t.heap = h
	return nil
}

// CurrentState implements rhi.Texture: an exact match on sub wins;
// otherwise the AllSubresources entry's state is copied in under sub
// (without removing the All entry) so a later specific query for the
// same range is O(1).
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

func (t *Texture) viewType() vk.ImageViewType {
	switch t.desc.Dimension {
	case rhi.TexDim3D:
		return vk.ImageViewType3d
	case rhi.TexDimCube:
		return vk.ImageViewTypeCube
	case rhi.TexDim2DArray:
		return vk.ImageViewType2dArray
	default:
		return vk.ImageViewType2d
	}
}

func (t *Texture) aspectMask() vk.ImageAspectFlagBits {
	if t.desc.Format.Info().HasDepth || t.desc.Format.Info().HasStencil {
		var f vk.ImageAspectFlagBits
		if t.desc.Format.Info().HasDepth {
			f |= vk.ImageAspectDepthBit
		}
		if t.desc.Format.Info().HasStencil {
			f |= vk.ImageAspectStencilBit
		}
		return f
	}
	return vk.ImageAspectColorBit
}

func (t *Texture) createView(sub rhi.TextureRange) (vk.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    t.img,
		ViewType: t.viewType(),
		Format:   convFormat(t.desc.Format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(t.aspectMask()),
			BaseMipLevel:   uint32(sub.FirstMip),
			LevelCount:     uint32(clampCount(sub.NumMips, t.desc.MipLevels)),
			BaseArrayLayer: uint32(sub.FirstLayer),
			LayerCount:     uint32(clampCount(sub.NumLayers, maxInt(t.desc.ArraySize, 1))),
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(t.dv.dev, &info, nil, &view); res != vk.Success {
		return nil, vkError("vkCreateImageView", res)
	}
	return view, nil
}

func clampCount(n, total int) int {
	if n <= 0 || n > total {
		return total
	}
	return n
}

// imageViewRegistry resolves a DescriptorHandle allocated by
// createDescriptor back to the native VkImageView it was created
// against, since rhi.DescriptorHandle carries only a heap+slot pair
// and rhi/vk has no per-slot CPU handle table the way rhi/dx does.
// NewFrameBuffer and ResourceSet.BindTexture are its consumers.
type imageViewRegistry struct {
	m map[rhi.DescriptorHandle]vk.ImageView
}

func (r *imageViewRegistry) lookup(h rhi.DescriptorHandle) (vk.ImageView, bool) {
	v, ok := r.m[h]
	return v, ok
}

var viewCache = &imageViewRegistry{m: map[rhi.DescriptorHandle]vk.ImageView{}}

func (t *Texture) createDescriptor(cache map[rhi.TextureRange]rhi.DescriptorHandle, sub rhi.TextureRange, typ rhi.DescHeapType) (rhi.DescriptorHandle, error) {
	if h, ok := cache[sub]; ok {
		return h, nil
	}
	view, err := t.createView(sub)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	h, err := t.dv.descs.Allocate(typ, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	viewCache.m[h] = view
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
	return t.createDescriptor(t.rtv, sub, rhi.DescHeapRTV)
}
func (t *Texture) CreateDSV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageDepthStencil == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateDSV", rhi.InvalidArgument, errMissingUsage)
	}
	if t.desc.Dimension == rhi.TexDim3D || t.desc.Dimension == rhi.TexDimCube {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateDSV", rhi.InvalidArgument, errUnsupportedDimension)
	}
	return t.createDescriptor(t.dsv, sub, rhi.DescHeapDSV)
}
func (t *Texture) CreateSRV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageShaderResource == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateSRV", rhi.InvalidArgument, errMissingUsage)
	}
	return t.createDescriptor(t.srv, sub, rhi.DescHeapCBVSRVUAV)
}
func (t *Texture) CreateUAV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageUnorderedAccess == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateUAV", rhi.InvalidArgument, errMissingUsage)
	}
	return t.createDescriptor(t.uav, sub, rhi.DescHeapCBVSRVUAV)
}

func (t *Texture) TryGetRTV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.rtv[sub]; return h, ok }
func (t *Texture) TryGetDSV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.dsv[sub]; return h, ok }
func (t *Texture) TryGetSRV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.srv[sub]; return h, ok }
func (t *Texture) TryGetUAV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) { h, ok := t.uav[sub]; return h, ok }
