// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// DescHeapType identifies one of the four descriptor-heap kinds a
// DescriptorManager pages.
type DescHeapType int

// Descriptor heap types.
const (
	DescHeapCBVSRVUAV DescHeapType = iota
	DescHeapSampler
	DescHeapRTV
	DescHeapDSV
)

// DescHeap is one paged descriptor heap: a fixed-capacity array of
// descriptor slots of a single DescHeapType, backed by a range
// allocator over slot indices.
type DescHeap interface {
	Destroyer

	Type() DescHeapType
	Capacity() int
	DescriptorSize() int
	ShaderVisible() bool
}

// DescriptorManager implements a two-tier descriptor allocation
// scheme: two pinned shader-visible heaps (one CBV/SRV/UAV, one
// Sampler) plus a growing vector of staging heaps per type.
type DescriptorManager interface {
	// Allocate scans existing staging heaps of typ for one whose
	// range allocator satisfies count; if none fits, it creates a
	// new heap sized up to the next 16-descriptor boundary.
	Allocate(typ DescHeapType, count int) (DescriptorHandle, error)

	// Free locates the heap by identity and delegates to its range
	// allocator.
	Free(h DescriptorHandle, count int)

	// AllocateShaderVisible allocates from the one pinned
	// shader-visible heap of typ; used by ResourceSet to materialize
	// descriptor tables.
	AllocateShaderVisible(typ DescHeapType, count int) (DescriptorHandle, error)

	// FreeShaderVisible is the inverse of AllocateShaderVisible,
	// returning the range to the pinned heap's allocator so its
	// slots can be reused by a later allocation.
	FreeShaderVisible(h DescriptorHandle, count int)

	// CopyDescriptors is the only path by which staging descriptors
	// reach a shader-visible heap.
	CopyDescriptors(dst DescriptorHandle, count int, src DescriptorHandle)

	// BindShaderVisibleHeaps binds both pinned heaps on cl so that
	// subsequent descriptor-table sets resolve against them.
	BindShaderVisibleHeaps(cl CmdList)
}

// Filter is the type of sampler filters.
type Filter int

// Filters.
const (
	FilterNearest Filter = iota
	FilterLinear
	// FilterNoMipmap forces mip level 0. Only valid as a sampler's
	// mip filter.
	FilterNoMipmap
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AddrWrap AddrMode = iota
	AddrMirror
	AddrClamp
)

// Sampling describes image sampler state.
type Sampling struct {
	Min, Mag, Mipmap    Filter
	AddrU, AddrV, AddrW AddrMode
	MaxAniso            int
	Cmp                 CmpFunc
	MinLOD, MaxLOD      float32
}

// Sampler is a small descriptor wrapper (C10).
type Sampler interface {
	Destroyer
}

// ResourceType is the type of a shader-visible resource referenced
// by a BindingItem.
type ResourceType int

// Resource types referenced by a binding layout.
const (
	ResBuffer        ResourceType = iota // read/write structured or raw buffer
	ResTexture                           // sampled texture
	ResImage                             // read/write image (UAV/storage image)
	ResConstantBuffer                    // CBV / uniform buffer
	ResSampler                           // texture sampler
	ResAccelStruct                       // top-level acceleration structure
)

// BindingItem describes one entry in a declarative binding-layout
// list.
type BindingItem struct {
	Type         ResourceType
	BaseRegister int
	Space        int
	NumResources int
	Bindless     bool
	Stages       Stage
}

// BindingLayoutFlags are layout-wide flags.
type BindingLayoutFlags int

// Binding layout flags.
const (
	LayoutRayTracingLocal BindingLayoutFlags = 1 << iota
	LayoutAllowInputAssembler
)

// Stage is a mask of programmable pipeline stages.
type Stage int

// Programmable stages.
const (
	StageVertex Stage = 1 << iota
	StageHull
	StageDomain
	StageGeometry
	StageFragment
	StageCompute
	StageMesh
	StageAmplification
	StageRayGen
	StageMiss
	StageClosestHit
	StageAnyHit
	StageIntersection
	StageCallable
)

// BindingLayout is the compiled form of a BindingItem list (C11): a
// root signature on rhi/dx (at most MaxRootSignatureDWords DWORDs,
// up to MaxInlineCBVs single CBVs promoted to root descriptors), or
// one descriptor-set layout per Space plus a pipeline layout on
// rhi/vk.
type BindingLayout interface {
	Destroyer

	Items() []BindingItem
	Flags() BindingLayoutFlags
}

// ShaderStage tags the stage a ShaderCode object is built for.
type ShaderStage int

// Shader stages recognized at shader-object creation.
const (
	StageCodeVertex ShaderStage = iota
	StageCodeHull
	StageCodeDomain
	StageCodeGeometry
	StageCodeFragment
	StageCodeCompute
	StageCodeMesh
	StageCodeAmplification
	StageCodeRayGen
	StageCodeMiss
	StageCodeClosestHit
	StageCodeAnyHit
	StageCodeIntersection
	StageCodeCallable
)

// ShaderCode is a shader binary for one programmable stage (C4/§6).
// DirectX shaders carry DXIL byte code; Vulkan shaders carry SPIR-V.
type ShaderCode interface {
	Destroyer

	Stage() ShaderStage
	// EntryPoint defaults to "main" when not set at creation.
	EntryPoint() string
}
