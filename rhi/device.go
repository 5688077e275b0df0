// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rhi

// Destroyer is implemented by every object that owns native GPU
// state. Destroy must be called explicitly; such memory is not
// managed by the Go garbage collector.
type Destroyer interface {
	Destroy()
}

// Device is the main interface to a backend implementation (C5). It
// is obtained from Driver.Open and is the factory for every other
// RHI object. Objects hold a back-reference to the Device but are
// owned by the caller, who releases each one with its Destroy method.
//
// Device.Init/Shutdown-style lifetime is managed by the Driver; the
// Device itself has no separate init call. Command-list recording,
// buffer mapping and view-cache mutation are not internally
// synchronized; callers touching the same Device, CmdList or Buffer
// from multiple goroutines must supply their own locking.
type Device interface {
	// Driver returns the Driver that owns this Device.
	Driver() Driver

	// Limits returns the implementation limits. They are immutable
	// for the lifetime of the Device.
	Limits() Limits

	// Descriptors returns the device's descriptor manager (C9): two
	// pinned shader-visible heaps (CBV/SRV/UAV and Sampler) plus a
	// growing pool of staging heaps per descriptor-heap type.
	Descriptors() DescriptorManager

	// NewCmdList creates a new command list bound to the given
	// logical queue.
	NewCmdList(queue QueueType) (CmdList, error)

	// Commit submits a batch of command lists to the GPU for
	// execution. Wait operations declared in a command list via
	// AddQueueWait apply to the batch as a whole, so the order of
	// command lists in cl is meaningful. Command lists in cl cannot
	// be recorded into again until the corresponding Fence/Semaphore
	// signals.
	Commit(queue QueueType, cl []CmdList, signal Fence) error

	// NewFence creates a new Fence with the given initial value.
	NewFence(initialValue uint64) (Fence, error)

	// NewSemaphore creates a new queue-to-queue Semaphore.
	NewSemaphore() (Semaphore, error)

	// NewHeap creates a fixed-size typed memory heap (C7) suitable
	// for placing virtual Buffers/Textures via BindMemory.
	NewHeap(typ HeapType, usage HeapUsage, size, alignment int64) (Heap, error)

	// NewBuffer creates a new Buffer (C8). If desc.Virtual is false,
	// memory is allocated implicitly (a committed resource). If
	// true, BindMemory must be called exactly once before use.
	NewBuffer(desc BufferDesc) (Buffer, error)

	// NewTexture creates a new Texture (C8), mirroring NewBuffer's
	// committed/virtual split.
	NewTexture(desc TextureDesc) (Texture, error)

	// NewSampler creates a new Sampler (C10).
	NewSampler(s *Sampling) (Sampler, error)

	// NewShaderCode creates a shader object from a byte blob (DXIL
	// for rhi/dx, SPIR-V for rhi/vk). entry defaults to "main" when
	// empty.
	NewShaderCode(stage ShaderStage, code *Blob, entry string) (ShaderCode, error)

	// NewBindingLayout compiles a binding layout (C11) from a
	// declarative item list: a root signature on rhi/dx, a set of
	// descriptor-set layouts plus a pipeline layout on rhi/vk.
	NewBindingLayout(items []BindingItem, flags BindingLayoutFlags) (BindingLayout, error)

	// NewPipeline compiles a fully specified pipeline (C12). state
	// must be a pointer to one of GraphicsState, ComputeState,
	// MeshState or RayTracingState.
	NewPipeline(state any) (Pipeline, error)

	// NewRenderPass creates a new render pass (C13) from a list of
	// attachments and subpasses.
	NewRenderPass(att []Attachment, sub []Subpass) (RenderPass, error)

	// NewResourceSet creates a new, empty binding table (C14) for
	// the given layout.
	NewResourceSet(layout BindingLayout) (ResourceSet, error)

	// NewSwapChain creates a new swap chain (C16).
	NewSwapChain(desc SwapChainDesc) (SwapChain, error)

	// NewAccelStructure builds a ray-tracing acceleration structure
	// (C17): bottom-level from geometry, top-level from instances.
	NewAccelStructure(desc *AccelStructureDesc) (AccelStructure, error)

	// NewShaderTable lays out a shader binding table (C17) from
	// shader-identifier records for use with ray-tracing dispatch.
	NewShaderTable(desc *ShaderTableDesc) (*ShaderTable, error)
}

// Limits describes implementation limits. They may vary across
// drivers and devices and are immutable for the Device's lifetime.
type Limits struct {
	MaxTexture1D   int
	MaxTexture2D   int
	MaxTextureCube int
	MaxTexture3D   int
	MaxLayers      int

	MaxRenderTargets int // Max render targets bound to one pass.
	MaxFBSize        [2]int
	MaxFBLayers      int
	MaxViewports     int

	MaxRootSignatureDWords int // Max root-signature size, in DWORDs.
	MaxInlineCBVs          int // Max inline-CBV root descriptors.

	MaxDispatch [3]int

	RayTracingSupported bool
	MeshShadingSupported bool
}

// Fixed backend limits shared across rhi/dx and rhi/vk.
const (
	MaxRenderTargets       = 8
	MaxRootSignatureDWords = 64
	MaxInlineCBVs          = 16
	FenceInitialValue      = 0
	FenceCompletedValue    = 1
)
