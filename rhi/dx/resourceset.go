// Copyright 2024 The Argent Engine Authors. All rights reserved.

//go:build windows

package dx

import "github.com/argent-engine/rhi"

// ResourceSet implements rhi.ResourceSet: one shader-visible
// descriptor table per non-promoted binding item, allocated eagerly
// at creation time exactly as rhi/vk's ResourceSet eagerly allocates
// one VkDescriptorSet per space, plus a GPU-virtual-address slot per
// inline-CBV item that BindBuffer updates directly with no descriptor
// write at all.
type ResourceSet struct {
	dv     *Device
	layout *bindingLayout
	tables map[int]rhi.DescriptorHandle // item index -> shader-visible table base
	cbv    map[int]uint64               // item index -> inline CBV GPU VA
}

// NewResourceSet implements rhi.Device.
func (dv *Device) NewResourceSet(layout rhi.BindingLayout) (rhi.ResourceSet, error) {
	bl := layout.(*bindingLayout)
	r := &ResourceSet{dv: dv, layout: bl, tables: map[int]rhi.DescriptorHandle{}, cbv: map[int]uint64{}}
	for i, it := range bl.items {
		if bl.rootParams[i].kind == rootParamCBV {
			continue
		}
		n := maxInt(it.NumResources, 1)
		h, err := dv.descs.AllocateShaderVisible(bl.rootParams[i].heapType, n)
		if err != nil {
			r.Destroy()
			return nil, err
		}
		r.tables[i] = h
	}
	return r, nil
}

func (r *ResourceSet) Destroy() {
	for i, h := range r.tables {
		n := maxInt(r.layout.items[i].NumResources, 1)
		r.dv.descs.FreeShaderVisible(h, n)
	}
}

func (r *ResourceSet) Layout() rhi.BindingLayout { return r.layout }

// itemIndexFor returns the index into layout.items (and the item
// itself) whose register range covers register within space.
func (r *ResourceSet) itemIndexFor(register, space int) (int, rhi.BindingItem, bool) {
	for i, it := range r.layout.items {
		if it.Space == space && register >= it.BaseRegister && register < it.BaseRegister+maxInt(it.NumResources, 1) {
			return i, it, true
		}
	}
	return 0, rhi.BindingItem{}, false
}

func (r *ResourceSet) BindBuffer(register, space int, buf rhi.Buffer, off, size int64) {
	i, it, ok := r.itemIndexFor(register, space)
	if !ok {
		return
	}
	b := buf.(*Buffer)
	if r.layout.rootParams[i].kind == rootParamCBV {
		r.cbv[i] = b.res.GPUVirtualAddress() + uint64(off)
		return
	}
	rng := rhi.BufferRange{Offset: off, Size: size}
	var h rhi.DescriptorHandle
	var err error
	switch it.Type {
	case rhi.ResConstantBuffer:
		h, err = b.CreateCBV(rng)
	case rhi.ResImage:
		h, err = b.CreateUAV(rng)
	default:
		h, err = b.CreateSRV(rng)
	}
	if err != nil {
		return
	}
	dst := r.slotHandle(i, register-it.BaseRegister)
	r.dv.descs.CopyDescriptors(dst, 1, h)
}

func (r *ResourceSet) BindBufferArray(baseRegister, space int, buf []rhi.Buffer, off, size []int64) {
	for i, b := range buf {
		r.BindBuffer(baseRegister+i, space, b, off[i], size[i])
	}
}

func (r *ResourceSet) BindTexture(register, space int, h rhi.DescriptorHandle) {
	i, it, ok := r.itemIndexFor(register, space)
	if !ok || r.layout.rootParams[i].kind == rootParamCBV {
		return
	}
	dst := r.slotHandle(i, register-it.BaseRegister)
	r.dv.descs.CopyDescriptors(dst, 1, h)
}

func (r *ResourceSet) BindTextureArray(baseRegister, space int, h []rhi.DescriptorHandle) {
	for i, handle := range h {
		r.BindTexture(baseRegister+i, space, handle)
	}
}

func (r *ResourceSet) BindSampler(register, space int, s rhi.Sampler) {
	i, it, ok := r.itemIndexFor(register, space)
	if !ok {
		return
	}
	samp := s.(*Sampler)
	dst := r.slotHandle(i, register-it.BaseRegister)
	r.dv.descs.CopyDescriptors(dst, 1, samp.h)
}

func (r *ResourceSet) BindSamplerArray(baseRegister, space int, s []rhi.Sampler) {
	for i, samp := range s {
		r.BindSampler(baseRegister+i, space, samp)
	}
}

// BindAccelStruct is a no-op: no descriptor is written for the
// structure, as with rhi/vk's BindAccelStruct; the storage buffer's
// GPU address is instead consumed directly by
// AccelInstanceDesc.BLASAddress.
func (r *ResourceSet) BindAccelStruct(register, space int, as rhi.AccelStructure) {}

func (r *ResourceSet) slotHandle(itemIndex, slot int) rhi.DescriptorHandle {
	base := r.tables[itemIndex]
	return rhi.DescriptorHandle{Heap: base.Heap, Slot: base.Slot + slot}
}

func (r *ResourceSet) setRootArguments(cl rhi.CmdList, compute bool) {
	c := cl.(*CmdList)
	for i, rp := range r.layout.rootParams {
		if rp.kind == rootParamCBV {
			if va, ok := r.cbv[i]; ok {
				if compute {
					c.list.SetComputeRootConstantBufferView(uint32(rp.rootIndex), va)
				} else {
					c.list.SetGraphicsRootConstantBufferView(uint32(rp.rootIndex), va)
				}
			}
			continue
		}
		h, ok := r.tables[i]
		if !ok {
			continue
		}
		gpu := r.dv.descs.gpuHandle(h)
		if compute {
			c.list.SetComputeRootDescriptorTable(uint32(rp.rootIndex), gpu)
		} else {
			c.list.SetGraphicsRootDescriptorTable(uint32(rp.rootIndex), gpu)
		}
	}
}

func (r *ResourceSet) SetGraphicsRootArguments(cl rhi.CmdList) { r.setRootArguments(cl, false) }
func (r *ResourceSet) SetComputeRootArguments(cl rhi.CmdList)  { r.setRootArguments(cl, true) }
