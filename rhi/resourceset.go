// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// ResourceSet is a filled binding table for one draw/dispatch (C14):
// a flat array of root arguments on rhi/dx (GPU address for root
// descriptors, GPU-descriptor-handle for tables), or one descriptor
// set per layout space plus pending vkUpdateDescriptorSets writes on
// rhi/vk.
//
// ResourceSet eagerly allocates its shader-visible descriptor ranges
// (rhi/dx) or its descriptor sets (rhi/vk) at creation time.
type ResourceSet interface {
	Destroyer

	Layout() BindingLayout

	BindBuffer(register, space int, buf Buffer, off, size int64)
	BindBufferArray(baseRegister, space int, buf []Buffer, off, size []int64)
	BindTexture(register, space int, h DescriptorHandle)
	BindTextureArray(baseRegister, space int, h []DescriptorHandle)
	BindSampler(register, space int, s Sampler)
	BindSamplerArray(baseRegister, space int, s []Sampler)
	BindAccelStruct(register, space int, as AccelStructure)

	// SetGraphicsRootArguments/SetComputeRootArguments walk the
	// compiled root parameters (rhi/dx) or issue the single
	// vkCmdBindDescriptorSets call (rhi/vk) that makes this set's
	// bindings visible to subsequent draw/dispatch commands on cl.
	SetGraphicsRootArguments(cl CmdList)
	SetComputeRootArguments(cl CmdList)
}
