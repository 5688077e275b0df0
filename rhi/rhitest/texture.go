// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhitest

import "github.com/argent-engine/rhi"

// Texture implements rhi.Texture over a plain []byte, reproducing the
// sub-resource state tracking and All-sentinel fallback of spec.md
// §4.5 exactly.
type Texture struct {
	dev  *device
	desc rhi.TextureDesc

	allocSize int64
	data      []byte

	bound   bool
	heap    *Heap
	heapOff int64

	initial   rhi.State
	subStates map[rhi.TextureRange]rhi.State

	rtv map[rhi.TextureRange]rhi.DescriptorHandle
	dsv map[rhi.TextureRange]rhi.DescriptorHandle
	srv map[rhi.TextureRange]rhi.DescriptorHandle
	uav map[rhi.TextureRange]rhi.DescriptorHandle
}

func newTexture(d *device, desc rhi.TextureDesc) *Texture {
	return &Texture{
		dev:       d,
		desc:      desc,
		allocSize: textureByteSize(desc),
		initial:   rhi.State{Access: rhi.AccessNone, Layout: rhi.LayoutUndefined},
		subStates: map[rhi.TextureRange]rhi.State{},
		rtv:       map[rhi.TextureRange]rhi.DescriptorHandle{},
		dsv:       map[rhi.TextureRange]rhi.DescriptorHandle{},
		srv:       map[rhi.TextureRange]rhi.DescriptorHandle{},
		uav:       map[rhi.TextureRange]rhi.DescriptorHandle{},
	}
}

func (d *device) NewTexture(desc rhi.TextureDesc) (rhi.Texture, error) {
	t := newTexture(d, desc)
	if !desc.Virtual {
		t.data = make([]byte, t.allocSize)
	}
	return t, nil
}

// textureByteSize sums the per-mip byte footprint across every array
// layer, halving width/height (floor to 1) at each level — enough
// bookkeeping for AllocSize()/heap-sharing tests without a full block-
// compression-aware layout engine.
func textureByteSize(d rhi.TextureDesc) int64 {
	bpp := int64(d.Format.Info().BytesPerBlock)
	depth, arr, levels := int64(d.Depth), int64(d.ArraySize), int64(d.MipLevels)
	if depth < 1 {
		depth = 1
	}
	if arr < 1 {
		arr = 1
	}
	if levels < 1 {
		levels = 1
	}
	w, h := int64(d.Width), int64(d.Height)
	var total int64
	for i := int64(0); i < levels; i++ {
		total += w * h * depth * bpp
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}
	return total * arr
}

// AllocSize returns the byte count reserved for this texture's backing
// storage.
func (t *Texture) AllocSize() int64 { return t.allocSize }

func (t *Texture) Destroy() {
	for _, h := range t.rtv {
		t.dev.descMgr.Free(h, 1)
	}
	for _, h := range t.dsv {
		t.dev.descMgr.Free(h, 1)
	}
	for _, h := range t.srv {
		t.dev.descMgr.Free(h, 1)
	}
	for _, h := range t.uav {
		t.dev.descMgr.Free(h, 1)
	}
	if t.bound && t.heap != nil {
		t.heap.Free(t.heapOff, t.allocSize)
	}
}

func (t *Texture) Desc() rhi.TextureDesc { return t.desc }

func (t *Texture) BindMemory(heap rhi.Heap) error {
	if !t.desc.Virtual {
		return rhi.NewError("BindMemory", rhi.InvalidState, errNotVirtual)
	}
	if t.bound {
		return rhi.NewError("BindMemory", rhi.InvalidState, errAlreadyBound)
	}
	if heap.Usage() != rhi.HeapUsageTexture {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, errWrongHeapUsage)
	}
	off, ok := heap.TryAllocate(t.allocSize)
	if !ok {
		return rhi.NewError("BindMemory", rhi.OutOfMemory, errHeapFull)
	}
	h, ok := heap.(*Heap)
	if !ok {
		return rhi.NewError("BindMemory", rhi.InvalidArgument, errWrongHeapUsage)
	}
	t.heap = h
	t.heapOff = off
	t.data = make([]byte, t.allocSize)
	t.bound = true
	return nil
}

// CurrentState implements spec.md §4.5's fallback chain: a tracked sub
// entry wins; otherwise the All sentinel is cloned into sub; otherwise
// both sub and All start from the resource's initial state.
func (t *Texture) CurrentState(sub rhi.TextureRange) rhi.State {
	if s, ok := t.subStates[sub]; ok {
		return s
	}
	if s, ok := t.subStates[rhi.AllSubresources]; ok {
		t.subStates[sub] = s
		return s
	}
	t.subStates[sub] = t.initial
	t.subStates[rhi.AllSubresources] = t.initial
	return t.initial
}

func (t *Texture) ChangeState(s rhi.State, sub rhi.TextureRange) {
	t.subStates[sub] = s
}

func (t *Texture) CreateRTV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageRenderTarget == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateRTV", rhi.InvalidArgument, errMissingUsage)
	}
	if t.desc.Dimension == rhi.TexDim3D || t.desc.Dimension == rhi.TexDimCube {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateRTV", rhi.InvalidArgument, errUnsupportedDimension)
	}
	if h, ok := t.rtv[sub]; ok {
		return h, nil
	}
	h, err := t.dev.descMgr.Allocate(rhi.DescHeapRTV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	t.rtv[sub] = h
	return h, nil
}

func (t *Texture) TryGetRTV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) {
	h, ok := t.rtv[sub]
	return h, ok
}

func (t *Texture) CreateDSV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageDepthStencil == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateDSV", rhi.InvalidArgument, errMissingUsage)
	}
	if t.desc.Dimension == rhi.TexDim3D || t.desc.Dimension == rhi.TexDimCube {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateDSV", rhi.InvalidArgument, errUnsupportedDimension)
	}
	if h, ok := t.dsv[sub]; ok {
		return h, nil
	}
	h, err := t.dev.descMgr.Allocate(rhi.DescHeapDSV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	t.dsv[sub] = h
	return h, nil
}

func (t *Texture) TryGetDSV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) {
	h, ok := t.dsv[sub]
	return h, ok
}

func (t *Texture) CreateSRV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageShaderResource == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateSRV", rhi.InvalidArgument, errMissingUsage)
	}
	if h, ok := t.srv[sub]; ok {
		return h, nil
	}
	h, err := t.dev.descMgr.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	t.srv[sub] = h
	return h, nil
}

func (t *Texture) TryGetSRV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) {
	h, ok := t.srv[sub]
	return h, ok
}

func (t *Texture) CreateUAV(sub rhi.TextureRange) (rhi.DescriptorHandle, error) {
	if t.desc.Usage&rhi.TexUsageUnorderedAccess == 0 {
		return rhi.DescriptorHandle{}, rhi.NewError("CreateUAV", rhi.InvalidArgument, errMissingUsage)
	}
	if h, ok := t.uav[sub]; ok {
		return h, nil
	}
	h, err := t.dev.descMgr.Allocate(rhi.DescHeapCBVSRVUAV, 1)
	if err != nil {
		return rhi.DescriptorHandle{}, err
	}
	t.uav[sub] = h
	return h, nil
}

func (t *Texture) TryGetUAV(sub rhi.TextureRange) (rhi.DescriptorHandle, bool) {
	h, ok := t.uav[sub]
	return h, ok
}
